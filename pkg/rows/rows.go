// Package rows implements the dynamic row collection behind line-item
// sections: an ordered list of structurally identical records with an
// open-ended per-row map for user-added columns.
package rows

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/goliatone/go-formdoc/pkg/form"
)

// DynamicFieldsKey is the record key under which per-row dynamic column
// values are stored in snapshots.
const DynamicFieldsKey = "dynamicFields"

var (
	// ErrIndexOutOfRange is returned when a row position does not exist.
	ErrIndexOutOfRange = errors.New("rows: index out of range")
	// ErrUnknownField is returned when binding a field absent from the row template.
	ErrUnknownField = errors.New("rows: unknown field")
)

// Template is the default shape of a new row: declared field names mapped to
// their initial string value (usually "").
type Template map[string]string

// Fields builds a template with empty defaults for each name.
func Fields(names ...string) Template {
	tmpl := make(Template, len(names))
	for _, name := range names {
		tmpl[name] = ""
	}
	return tmpl
}

// Row is one record. Position is its identity; ID is a render key only.
type Row struct {
	ID      string            `json:"id"`
	Fields  map[string]string `json:"fields"`
	Dynamic map[string]string `json:"dynamicFields"`
}

func (r Row) clone() Row {
	return Row{ID: r.ID, Fields: copyStrings(r.Fields), Dynamic: copyStrings(r.Dynamic)}
}

// Collection is the ordered row list. It is not safe for concurrent use.
type Collection struct {
	template Template
	rows     []Row
	minRows  int
	newID    func() string
}

// Option customises a Collection.
type Option func(*config)

type config struct {
	initialRows int
	minRows     int
	newID       func() string
}

// WithInitialRows sets how many template rows the collection starts with.
// Defaults to 1. Negative values are treated as zero.
func WithInitialRows(n int) Option {
	return func(c *config) {
		if n < 0 {
			n = 0
		}
		c.initialRows = n
	}
}

// WithMinRows prevents removals that would leave fewer than n rows.
func WithMinRows(n int) Option {
	return func(c *config) {
		if n < 0 {
			n = 0
		}
		c.minRows = n
	}
}

// WithIDGenerator overrides the row key generator. Tests use it for stable
// ids.
func WithIDGenerator(fn func() string) Option {
	return func(c *config) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New creates a collection seeded with copies of template.
func New(template Template, opts ...Option) *Collection {
	cfg := config{initialRows: 1, newID: uuid.NewString}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.initialRows < cfg.minRows {
		cfg.initialRows = cfg.minRows
	}

	c := &Collection{
		template: copyStrings(template),
		minRows:  cfg.minRows,
		newID:    cfg.newID,
	}
	for i := 0; i < cfg.initialRows; i++ {
		c.AddBlank()
	}
	return c
}

// AddRow appends an independent copy of template and returns its index.
// Fields declared on the collection template but missing from template are
// added with empty values, so every row keeps the declared shape.
func (c *Collection) AddRow(template Template) int {
	fields := make(map[string]string, len(c.template)+len(template))
	for name := range c.template {
		fields[name] = ""
	}
	for name, val := range template {
		fields[name] = val
	}
	c.rows = append(c.rows, Row{ID: c.newID(), Fields: fields, Dynamic: map[string]string{}})
	return len(c.rows) - 1
}

// AddBlank appends a copy of the collection template.
func (c *Collection) AddBlank() int {
	return c.AddRow(c.template)
}

// RemoveRow splices out the row at index. Out-of-range positions and
// removals below the configured minimum are no-ops and report false.
func (c *Collection) RemoveRow(index int) bool {
	if !c.inRange(index) || len(c.rows) <= c.minRows {
		return false
	}
	c.rows = append(c.rows[:index], c.rows[index+1:]...)
	return true
}

// CanRemove reports whether RemoveRow(index) would succeed. UIs use it to
// disable remove buttons.
func (c *Collection) CanRemove(index int) bool {
	return c.inRange(index) && len(c.rows) > c.minRows
}

// Set binds a declared scalar cell.
func (c *Collection) Set(index int, field, val string) error {
	if !c.inRange(index) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	row := &c.rows[index]
	if _, ok := row.Fields[field]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	row.Fields[field] = val
	return nil
}

// SetDynamic binds a dynamic column cell. Any key is accepted; whether a
// column is currently registered for it is the caller's concern.
func (c *Collection) SetDynamic(index int, key, val string) error {
	if !c.inRange(index) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	c.rows[index].Dynamic[key] = val
	return nil
}

// Get reads a declared cell.
func (c *Collection) Get(index int, field string) (string, bool) {
	if !c.inRange(index) {
		return "", false
	}
	val, ok := c.rows[index].Fields[field]
	return val, ok
}

// GetDynamic reads a dynamic cell.
func (c *Collection) GetDynamic(index int, key string) (string, bool) {
	if !c.inRange(index) {
		return "", false
	}
	val, ok := c.rows[index].Dynamic[key]
	return val, ok
}

// Len returns the number of rows.
func (c *Collection) Len() int { return len(c.rows) }

// MinRows returns the configured minimum.
func (c *Collection) MinRows() int { return c.minRows }

// FieldNames lists the template's declared fields in sorted order.
func (c *Collection) FieldNames() []string {
	names := make([]string, 0, len(c.template))
	for name := range c.template {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rows returns deep copies of every row.
func (c *Collection) Rows() []Row {
	out := make([]Row, len(c.rows))
	for i, row := range c.rows {
		out[i] = row.clone()
	}
	return out
}

// Row returns a deep copy of the row at index.
func (c *Collection) Row(index int) (Row, bool) {
	if !c.inRange(index) {
		return Row{}, false
	}
	return c.rows[index].clone(), true
}

// PurgeDynamic removes key from every row's dynamic map and returns how many
// rows held a value for it.
func (c *Collection) PurgeDynamic(key string) int {
	purged := 0
	for i := range c.rows {
		if _, ok := c.rows[i].Dynamic[key]; ok {
			delete(c.rows[i].Dynamic, key)
			purged++
		}
	}
	return purged
}

// Snapshot exports the rows as FormValues records: declared fields at the top
// level and dynamic values under DynamicFieldsKey.
func (c *Collection) Snapshot() []any {
	out := make([]any, len(c.rows))
	for i, row := range c.rows {
		record := make(map[string]any, len(row.Fields)+1)
		for name, val := range row.Fields {
			record[name] = val
		}
		dynamic := make(map[string]any, len(row.Dynamic))
		for key, val := range row.Dynamic {
			dynamic[key] = val
		}
		record[DynamicFieldsKey] = dynamic
		out[i] = record
	}
	return out
}

// Restore replaces the rows with records shaped like Snapshot output. Only
// declared fields are read from the top level; unknown keys are dropped.
// Scalar values are stringified with form.Stringify.
func (c *Collection) Restore(records []map[string]any) {
	c.rows = c.rows[:0]
	for _, record := range records {
		idx := c.AddBlank()
		row := &c.rows[idx]
		for name := range row.Fields {
			if raw, ok := record[name]; ok && raw != nil {
				row.Fields[name] = form.Stringify(raw)
			}
		}
		if dynamic, ok := record[DynamicFieldsKey].(map[string]any); ok {
			for key, raw := range dynamic {
				row.Dynamic[key] = form.Stringify(raw)
			}
		}
		if dynamic, ok := record[DynamicFieldsKey].(map[string]string); ok {
			for key, val := range dynamic {
				row.Dynamic[key] = val
			}
		}
	}
	for len(c.rows) < c.minRows {
		c.AddBlank()
	}
}

func (c *Collection) inRange(index int) bool {
	return index >= 0 && index < len(c.rows)
}

func copyStrings(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
