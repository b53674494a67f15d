// Package document composes the form primitives around one definition: a
// value tree for scalar fields, a row collection and column registry per
// table, and the approval block. It is the single place that knows how those
// pieces map onto the FormValues snapshot submitted or exported.
package document

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdoc/pkg/approvals"
	"github.com/goliatone/go-formdoc/pkg/columns"
	"github.com/goliatone/go-formdoc/pkg/form"
	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/render"
	"github.com/goliatone/go-formdoc/pkg/rows"
	"github.com/goliatone/go-formdoc/pkg/validation"
	"github.com/goliatone/go-formdoc/pkg/visibility"
)

// Snapshot keys outside the declared fields.
const (
	ApprovalsKey      = "approvals"
	DynamicColumnsKey = "dynamicColumns"
)

var (
	// ErrReadOnly is returned by mutations while the document is in print mode.
	ErrReadOnly = errors.New("document: read-only in print mode")
	// ErrUnknownPath is returned when binding a path no field declares.
	ErrUnknownPath = errors.New("document: unknown path")
	// ErrDerived is returned when binding a computed field.
	ErrDerived = errors.New("document: field is derived")
	// ErrUnknownTable is returned for table names the definition lacks.
	ErrUnknownTable = errors.New("document: unknown table")
	// ErrStaticColumns is returned when proposing columns on a table that
	// does not allow them.
	ErrStaticColumns = errors.New("document: table does not accept dynamic columns")
	// ErrNoApprovals is returned when the definition has no approval block.
	ErrNoApprovals = errors.New("document: definition has no approval block")
)

// Table bundles the live state of one table section.
type Table struct {
	Def     model.Table
	Rows    *rows.Collection
	Columns *columns.Registry
}

// Document is one filled (or blank) instance of a form definition. It is not
// safe for concurrent use; build one per request or per editing session.
type Document struct {
	def         model.FormDefinition
	values      *form.Values
	tables      []*Table
	approvals   *approvals.Block
	mode        form.ModeSource
	placeholder string
	cascade     bool
	logger      *zap.Logger
}

// Option customises a Document.
type Option func(*config)

type config struct {
	prefill     map[string]any
	mode        form.ModeSource
	placeholder string
	newID       func() string
	cascade     bool
	logger      *zap.Logger
}

// WithValues seeds the document from a FormValues tree, usually a previous
// Snapshot.
func WithValues(tree map[string]any) Option {
	return func(c *config) {
		c.prefill = tree
	}
}

// WithMode sets the print-mode provider. Defaults to edit mode.
func WithMode(mode form.ModeSource) Option {
	return func(c *config) {
		if mode != nil {
			c.mode = mode
		}
	}
}

// WithPlaceholder overrides the text printed for empty values.
func WithPlaceholder(placeholder string) Option {
	return func(c *config) {
		c.placeholder = placeholder
	}
}

// WithIDGenerator overrides row key generation.
func WithIDGenerator(fn func() string) Option {
	return func(c *config) {
		c.newID = fn
	}
}

// WithColumnCascade makes RemoveColumn also purge the column's values from
// every row. By default row data is retained and resurfaces if the column is
// added again.
func WithColumnCascade(enabled bool) Option {
	return func(c *config) {
		c.cascade = enabled
	}
}

// WithLogger attaches a logger used for derived value failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a document for def.
func New(def model.FormDefinition, opts ...Option) (*Document, error) {
	if strings.TrimSpace(def.ID) == "" {
		return nil, fmt.Errorf("document: definition id is required")
	}
	cfg := config{mode: form.StaticMode(false), logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	d := &Document{
		def:         def,
		mode:        cfg.mode,
		placeholder: cfg.placeholder,
		cascade:     cfg.cascade,
		logger:      cfg.logger.With(zap.String("form", def.ID)),
	}
	d.values = form.NewValues(scalarPrefill(def, cfg.prefill))

	dynamicColumns := columnPrefill(cfg.prefill)
	for _, tableDef := range def.Tables {
		table, err := newTable(tableDef, cfg, dynamicColumns[tableDef.Name])
		if err != nil {
			return nil, err
		}
		d.tables = append(d.tables, table)
	}

	if def.Approvals != nil {
		d.approvals = approvals.New(d.mode, def.Approvals.Roles...)
		if records := recordList(cfg.prefill[ApprovalsKey]); records != nil {
			d.approvals.Restore(records)
		}
	}
	return d, nil
}

func newTable(def model.Table, cfg config, cols []columns.Column) (*Table, error) {
	if strings.TrimSpace(def.Name) == "" {
		return nil, fmt.Errorf("document: table name is required")
	}
	var names []string
	for _, col := range def.Columns {
		if !col.Derived() {
			names = append(names, col.Name)
		}
	}
	template := rows.Fields(names...)
	for _, col := range def.Columns {
		if col.Default != "" && !col.Derived() {
			template[col.Name] = col.Default
		}
	}

	opts := []rows.Option{rows.WithMinRows(def.MinRows)}
	if def.InitialRows != nil {
		opts = append(opts, rows.WithInitialRows(*def.InitialRows))
	}
	if cfg.newID != nil {
		opts = append(opts, rows.WithIDGenerator(cfg.newID))
	}
	coll := rows.New(template, opts...)
	if records := recordList(cfg.prefill[def.Name]); records != nil {
		coll.Restore(records)
	}
	return &Table{Def: def, Rows: coll, Columns: columns.New(cols...)}, nil
}

// Definition returns the definition the document was built from.
func (d *Document) Definition() model.FormDefinition { return d.def }

// Mode reports the current mode.
func (d *Document) Mode() form.Mode { return form.ModeOf(d.mode) }

// Print reports whether the document is in print mode.
func (d *Document) Print() bool { return d.Mode() == form.ModePrint }

// Values exposes the scalar value tree for read access by renderers.
func (d *Document) Values() *form.Values { return d.values }

// Tables returns the live tables in definition order.
func (d *Document) Tables() []*Table {
	out := make([]*Table, len(d.tables))
	copy(out, d.tables)
	return out
}

// Table looks up a table by name.
func (d *Document) Table(name string) (*Table, bool) {
	for _, table := range d.tables {
		if table.Def.Name == name {
			return table, true
		}
	}
	return nil, false
}

// Approvals returns the approval block, or nil when the definition has none.
func (d *Document) Approvals() *approvals.Block { return d.approvals }

// Bind writes a raw input value. Paths address scalar fields ("vendorName"),
// table cells ("items.0.qty") or dynamic cells
// ("items.0.dynamicFields.CostCenter").
func (d *Document) Bind(path, raw string) error {
	if d.Print() {
		return ErrReadOnly
	}
	if field, ok := d.def.Field(path); ok {
		if field.Derived() {
			return fmt.Errorf("%w: %q", ErrDerived, path)
		}
		return d.values.Set(path, raw)
	}

	tableName, index, rest, ok := splitCellPath(path)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	table, ok := d.Table(tableName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	if len(rest) == 2 && rest[0] == rows.DynamicFieldsKey {
		return table.Rows.SetDynamic(index, rest[1], raw)
	}
	if len(rest) != 1 {
		return fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	col, ok := table.Def.Column(rest[0])
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	if col.Derived() {
		return fmt.Errorf("%w: %q", ErrDerived, path)
	}
	return table.Rows.Set(index, col.Name, raw)
}

// Value reads the raw bound string at path using the same addressing as Bind.
// Derived fields report their computed, formatted value.
func (d *Document) Value(path string) string {
	if field, ok := d.def.Field(path); ok {
		if field.Derived() {
			return newCalculator(d).field(field).Format()
		}
		return d.values.String(path)
	}
	tableName, index, rest, ok := splitCellPath(path)
	if !ok {
		return ""
	}
	table, ok := d.Table(tableName)
	if !ok {
		return ""
	}
	if len(rest) == 2 && rest[0] == rows.DynamicFieldsKey {
		val, _ := table.Rows.GetDynamic(index, rest[1])
		return val
	}
	if len(rest) != 1 {
		return ""
	}
	if col, ok := table.Def.Column(rest[0]); ok && col.Derived() {
		return newCalculator(d).cell(table, index, col).Format()
	}
	val, _ := table.Rows.Get(index, rest[0])
	return val
}

// AddRow appends a blank row to table and returns its index.
func (d *Document) AddRow(table string) (int, error) {
	if d.Print() {
		return -1, ErrReadOnly
	}
	t, ok := d.Table(table)
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return t.Rows.AddBlank(), nil
}

// RemoveRow removes a row. It reports false for out-of-range indexes and for
// removals below the table minimum.
func (d *Document) RemoveRow(table string, index int) (bool, error) {
	if d.Print() {
		return false, ErrReadOnly
	}
	t, ok := d.Table(table)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return t.Rows.RemoveRow(index), nil
}

// ProposeColumn registers a dynamic column on table. Collisions surface as
// *columns.CollisionError and blank names as columns.ErrEmptyName.
func (d *Document) ProposeColumn(table, name string) (columns.Column, error) {
	if d.Print() {
		return columns.Column{}, ErrReadOnly
	}
	t, ok := d.Table(table)
	if !ok {
		return columns.Column{}, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	if !t.Def.DynamicColumns {
		return columns.Column{}, fmt.Errorf("%w: %q", ErrStaticColumns, table)
	}
	proposed := columns.Derive(name)
	if declared, clash := t.Def.Column(proposed.Key); clash {
		label := declared.Label
		if label == "" {
			label = declared.Name
		}
		return columns.Column{}, &columns.CollisionError{Key: proposed.Key, Label: proposed.Label, Existing: columns.Column{Key: proposed.Key, Label: label}}
	}
	return t.Columns.Propose(name)
}

// RemoveColumn drops a dynamic column definition. Row values are purged only
// when the document was built with WithColumnCascade(true).
func (d *Document) RemoveColumn(table, key string) (bool, error) {
	if d.Print() {
		return false, ErrReadOnly
	}
	t, ok := d.Table(table)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	removed := t.Columns.Remove(key)
	if removed && d.cascade {
		purged := t.Rows.PurgeDynamic(key)
		d.logger.Debug("purged dynamic column values", zap.String("table", table), zap.String("key", key), zap.Int("rows", purged))
	}
	return removed, nil
}

// AddRole appends a custom signatory.
func (d *Document) AddRole(name string) error {
	if d.approvals == nil {
		return ErrNoApprovals
	}
	return d.approvals.AddRole(name)
}

// RemoveRole drops the signatory at index.
func (d *Document) RemoveRole(index int) error {
	if d.approvals == nil {
		return ErrNoApprovals
	}
	return d.approvals.RemoveRole(index)
}

// RenameRole relabels the signatory at index.
func (d *Document) RenameRole(index int, name string) error {
	if d.approvals == nil {
		return ErrNoApprovals
	}
	return d.approvals.RenameRole(index, name)
}

// Sign records the signature payload of the role at index.
func (d *Document) Sign(index int, data map[string]any) error {
	if d.approvals == nil {
		return ErrNoApprovals
	}
	return d.approvals.Sign(index, data)
}

// Snapshot assembles the full FormValues tree: scalar fields (derived ones
// computed), one record list per table with dynamicFields, the approval
// records and the dynamic column definitions.
func (d *Document) Snapshot() map[string]any {
	derived := newCalculator(d)
	tree := d.scalarTree(derived)
	for name := range visibility.Hidden(d.def, tree) {
		delete(tree, name)
	}

	var dynamic map[string]any
	for _, table := range d.tables {
		records := table.Rows.Snapshot()
		for i, raw := range records {
			record := raw.(map[string]any)
			for _, col := range table.Def.Columns {
				if col.Derived() {
					record[col.Name] = derived.cell(table, i, col).Format()
				}
			}
		}
		tree[table.Def.Name] = records
		if table.Def.DynamicColumns {
			if dynamic == nil {
				dynamic = make(map[string]any)
			}
			cols := make([]any, 0, table.Columns.Len())
			for _, col := range table.Columns.Columns() {
				cols = append(cols, map[string]any{"key": col.Key, "label": col.Label})
			}
			dynamic[table.Def.Name] = cols
		}
	}
	if dynamic != nil {
		tree[DynamicColumnsKey] = dynamic
	}
	if d.approvals != nil {
		tree[ApprovalsKey] = d.approvals.Snapshot()
	}
	return tree
}

// Visible reports whether the scalar field name passes its visibleWhen
// condition. Fields without a condition are always visible.
func (d *Document) Visible(name string) bool {
	return !d.hiddenFields(newCalculator(d))[name]
}

func (d *Document) hiddenFields(derived *calculator) map[string]bool {
	return visibility.Hidden(d.def, d.scalarTree(derived))
}

// scalarTree copies the bound values with derived fields computed.
func (d *Document) scalarTree(derived *calculator) map[string]any {
	scalars := form.NewValues(d.values.Map())
	for _, section := range d.def.Sections {
		for _, field := range section.Fields {
			if field.Derived() {
				_ = scalars.Set(field.Name, derived.field(field).Format())
			}
		}
	}
	return scalars.Map()
}

// Validate checks the current snapshot against the definition's rules.
func (d *Document) Validate() validation.Result {
	return validation.Validate(d.def, d.Snapshot())
}

// placeholderFor resolves the print placeholder for a view.
func (d *Document) placeholderFor(opts render.ViewOptions) string {
	if strings.TrimSpace(opts.Placeholder) != "" {
		return opts.Placeholder
	}
	if strings.TrimSpace(d.placeholder) != "" {
		return d.placeholder
	}
	return render.DefaultPlaceholder
}

func splitCellPath(path string) (string, int, []string, bool) {
	segments := strings.Split(path, ".")
	if len(segments) < 3 {
		return "", 0, nil, false
	}
	index, err := strconv.Atoi(segments[1])
	if err != nil {
		return "", 0, nil, false
	}
	return segments[0], index, segments[2:], true
}

func scalarPrefill(def model.FormDefinition, prefill map[string]any) map[string]any {
	values := form.NewValues(nil)
	source := form.NewValues(prefill)
	for _, section := range def.Sections {
		for _, field := range section.Fields {
			if field.Derived() {
				continue
			}
			raw, ok := source.Get(field.Name)
			switch {
			case ok && raw != nil:
				_ = values.Set(field.Name, form.Stringify(raw))
			case field.Default != "":
				_ = values.Set(field.Name, field.Default)
			}
		}
	}
	return values.Map()
}

func columnPrefill(prefill map[string]any) map[string][]columns.Column {
	raw, ok := prefill[DynamicColumnsKey].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string][]columns.Column, len(raw))
	for table, entries := range raw {
		for _, record := range recordList(entries) {
			key, _ := record["key"].(string)
			label, _ := record["label"].(string)
			out[table] = append(out[table], columns.Column{Key: key, Label: label})
		}
	}
	return out
}

func recordList(raw any) []map[string]any {
	switch typed := raw.(type) {
	case []map[string]any:
		return typed
	case []any:
		out := make([]map[string]any, 0, len(typed))
		for _, entry := range typed {
			if record, ok := entry.(map[string]any); ok {
				out = append(out, record)
			}
		}
		return out
	default:
		return nil
	}
}
