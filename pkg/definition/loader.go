package definition

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formdoc/pkg/model"
)

// Option customises LoadFS.
type Option func(*loader)

type loader struct {
	decorators []model.Decorator
	store      *Store
}

// WithDecorators replaces the decorators applied to every loaded definition.
// The default is model.DefaultLabels.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(l *loader) {
		l.decorators = append([]model.Decorator(nil), decorators...)
	}
}

// WithStore loads into an existing store instead of a new one.
func WithStore(store *Store) Option {
	return func(l *loader) {
		if store != nil {
			l.store = store
		}
	}
}

// LoadFS walks fsys and parses every JSON/YAML file into the store. A nil
// filesystem yields an empty store.
func LoadFS(fsys fs.FS, opts ...Option) (*Store, error) {
	l := &loader{decorators: []model.Decorator{model.DefaultLabels}}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.store == nil {
		l.store = NewStore()
	}
	if fsys == nil {
		return l.store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}
		defs, err := Parse(data, path)
		if err != nil {
			return err
		}
		for i := range defs {
			if err := l.decorate(&defs[i], path); err != nil {
				return err
			}
			if err := l.store.register(defs[i], path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l.store, nil
}

func (l *loader) decorate(def *model.FormDefinition, source string) error {
	for _, decorator := range l.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(def); err != nil {
			return fmt.Errorf("definition: decorate %q (file %s): %w", def.ID, source, err)
		}
	}
	return nil
}

type documentFile struct {
	Forms                []model.FormDefinition `json:"forms" yaml:"forms"`
	model.FormDefinition `yaml:",inline"`
}

// Parse decodes a definition file. JSON is tried first, then YAML. The file
// may contain a single definition or a "forms" list; it must yield at least
// one definition.
func Parse(data []byte, source string) ([]model.FormDefinition, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("definition: file %s is empty", source)
	}

	var doc documentFile
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = documentFile{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("definition: parse %s: invalid JSON or YAML", source)
		}
	}

	defs := doc.Forms
	if strings.TrimSpace(doc.ID) != "" {
		defs = append([]model.FormDefinition{doc.FormDefinition}, defs...)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("definition: file %s defines no forms", source)
	}
	return defs, nil
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
