// Package columns implements the dynamic column registry: user-named fields
// added to a table at runtime and applied uniformly across its rows.
//
// The registry never prompts. UI layers collect a name however they like and
// call Propose, which either returns the new column or an error describing
// why it was rejected.
package columns

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/goliatone/go-formdoc/pkg/sanitize"
)

// ErrEmptyName is returned for blank proposals. The registry is unchanged.
var ErrEmptyName = errors.New("columns: name is required")

// Column is a registered dynamic column.
type Column struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// CollisionError reports a proposal whose normalized key is already taken.
type CollisionError struct {
	Key      string
	Label    string
	Existing Column
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("columns: key %q already used by %q", e.Key, e.Existing.Label)
}

// Message is the user-facing notification for the collision.
func (e *CollisionError) Message() string {
	return fmt.Sprintf("A column named %q already exists.", e.Existing.Label)
}

// NormalizeKey derives a column key from a display name by stripping all
// whitespace. Case is preserved.
func NormalizeKey(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Derive builds the column a proposal of name would register: the label is
// the sanitised name and the key its normalized form. Callers checking
// reserved names use this so they see the same key Propose would store.
func Derive(name string) Column {
	label := sanitize.Text(name)
	return Column{Key: NormalizeKey(label), Label: label}
}

// Registry is the ordered set of active columns. It is not safe for
// concurrent use.
type Registry struct {
	columns []Column
}

// New creates a registry seeded with cols. Invalid or colliding entries are
// skipped.
func New(cols ...Column) *Registry {
	r := &Registry{}
	r.Restore(cols)
	return r
}

// Propose validates name and, when acceptable, appends it as a new column.
func (r *Registry) Propose(name string) (Column, error) {
	col := Derive(name)
	if col.Key == "" {
		return Column{}, ErrEmptyName
	}
	if existing, ok := r.Get(col.Key); ok {
		return Column{}, &CollisionError{Key: col.Key, Label: col.Label, Existing: existing}
	}
	r.columns = append(r.columns, col)
	return col, nil
}

// Remove deletes the column definition for key. Values already stored under
// key in row data are left in place and reappear if the key is added again.
func (r *Registry) Remove(key string) bool {
	for i, col := range r.columns {
		if col.Key == key {
			r.columns = append(r.columns[:i], r.columns[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the column registered under key.
func (r *Registry) Get(key string) (Column, bool) {
	for _, col := range r.columns {
		if col.Key == key {
			return col, true
		}
	}
	return Column{}, false
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Len returns the number of active columns.
func (r *Registry) Len() int { return len(r.columns) }

// Columns returns the active columns in insertion order.
func (r *Registry) Columns() []Column {
	out := make([]Column, len(r.columns))
	copy(out, r.columns)
	return out
}

// Keys returns the active keys in insertion order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.columns))
	for i, col := range r.columns {
		out[i] = col.Key
	}
	return out
}

// Restore replaces the active set. Entries are re-proposed from their labels
// (falling back to the key), so stored data goes through the same checks as
// user input.
func (r *Registry) Restore(cols []Column) {
	r.columns = nil
	for _, col := range cols {
		name := col.Label
		if strings.TrimSpace(name) == "" {
			name = col.Key
		}
		_, _ = r.Propose(name)
	}
}
