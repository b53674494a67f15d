package definition

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formdoc/pkg/model"
)

// ErrNotFound is returned by Get for unknown form ids.
var ErrNotFound = errors.New("definition: form not found")

// Store holds checked definitions keyed by id. It is shared by the CLI and the
// HTTP server, so access is lock-protected.
type Store struct {
	mu    sync.RWMutex
	forms map[string]storedForm
}

type storedForm struct {
	def    model.FormDefinition
	source string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{forms: make(map[string]storedForm)}
}

// Register checks def and stores it. Duplicate ids are rejected.
func (s *Store) Register(def model.FormDefinition) error {
	return s.register(def, "")
}

func (s *Store) register(def model.FormDefinition, source string) error {
	if s == nil {
		return fmt.Errorf("definition: store is nil")
	}
	if err := Check(def); err != nil {
		if source != "" {
			return fmt.Errorf("%w (file %s)", err, source)
		}
		return err
	}
	id := strings.TrimSpace(def.ID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.forms == nil {
		s.forms = make(map[string]storedForm)
	}
	if existing, exists := s.forms[id]; exists {
		if existing.source != "" && source != "" {
			return fmt.Errorf("definition: duplicate form %q (files %s and %s)", id, existing.source, source)
		}
		return fmt.Errorf("definition: duplicate form %q", id)
	}
	s.forms[id] = storedForm{def: def, source: source}
	return nil
}

// Get returns the definition for id.
func (s *Store) Get(id string) (model.FormDefinition, error) {
	if s == nil {
		return model.FormDefinition{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.forms[strings.TrimSpace(id)]
	if !ok {
		return model.FormDefinition{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return stored.def, nil
}

// Source reports the file a definition was loaded from. Definitions added
// through Register have no source.
func (s *Store) Source(id string) string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forms[id].source
}

// List returns every definition ordered by id.
func (s *Store) List() []model.FormDefinition {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.FormDefinition, 0, len(s.forms))
	for _, stored := range s.forms {
		out = append(out, stored.def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns the stored form ids in sorted order.
func (s *Store) IDs() []string {
	forms := s.List()
	ids := make([]string, len(forms))
	for i, def := range forms {
		ids[i] = def.ID
	}
	return ids
}

// Empty reports whether the store holds any definitions.
func (s *Store) Empty() bool {
	if s == nil {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.forms) == 0
}
