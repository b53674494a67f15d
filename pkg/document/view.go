package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formdoc/pkg/form"
	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/render"
	"github.com/goliatone/go-formdoc/pkg/rows"
)

const (
	defaultApprovalsTitle = "Approvals"
	columnTotalKey        = "total"
)

// View assembles the render view. It reads state only, so rendering the same
// document repeatedly in one mode yields identical views.
func (d *Document) View(opts render.ViewOptions) render.View {
	printing := opts.Print || d.Print()
	placeholder := d.placeholderFor(opts)

	def := d.def
	render.ApplySubset(&def, opts.Subset)
	mapping := render.MapErrorPayload(d.def, opts.Errors)

	mode := form.ModeEdit
	if printing {
		mode = form.ModePrint
	}
	view := render.View{
		ID:         def.ID,
		Title:      def.Title,
		Subtitle:   def.Subtitle,
		Category:   def.Category,
		Mode:       mode,
		Print:      printing,
		FormErrors: mapping.Form,
	}

	derived := newCalculator(d)
	hidden := d.hiddenFields(derived)
	for _, section := range def.Sections {
		sv := render.SectionView{ID: section.ID, Title: section.Title, Description: section.Description}
		for _, field := range section.Fields {
			if hidden[field.Name] {
				continue
			}
			fieldOpts := render.FieldOptions{
				Print:       printing,
				Placeholder: placeholder,
				Errors:      mapping.Fields[field.Name],
			}
			if field.Derived() {
				computed := derived.field(field).Format()
				fieldOpts.Value = &computed
			}
			sv.Fields = append(sv.Fields, render.FieldNode(d.values, field, "", fieldOpts))
		}
		view.Sections = append(view.Sections, sv)
	}

	for _, tableDef := range def.Tables {
		table, ok := d.Table(tableDef.Name)
		if !ok {
			continue
		}
		view.Tables = append(view.Tables, d.tableView(table, derived, printing, placeholder, mapping.Fields))
	}

	if def.Approvals != nil && d.approvals != nil {
		view.Approvals = d.approvalView(*def.Approvals, printing, placeholder)
	}
	return view
}

func (d *Document) tableView(table *Table, derived *calculator, printing bool, placeholder string, errs map[string][]string) render.TableView {
	def := table.Def
	tv := render.TableView{
		Name:           def.Name,
		Title:          def.Title,
		CanAddRow:      !printing,
		DynamicColumns: def.DynamicColumns && !printing,
		Errors:         errs[def.Name],
	}
	for _, col := range def.Columns {
		tv.Headers = append(tv.Headers, render.HeaderView{Key: col.Name, Label: col.Label})
	}
	dynamic := table.Columns.Columns()
	for _, col := range dynamic {
		tv.Headers = append(tv.Headers, render.HeaderView{Key: col.Key, Label: col.Label, Dynamic: true})
	}

	for i, row := range table.Rows.Rows() {
		lookup := make(render.MapLookup, len(row.Fields)+len(row.Dynamic))
		for name, val := range row.Fields {
			lookup[cellPath(def.Name, i, name)] = val
		}
		for key, val := range row.Dynamic {
			lookup[dynamicPath(def.Name, i, key)] = val
		}

		rv := render.RowView{Index: i, ID: row.ID, Removable: !printing && table.Rows.CanRemove(i)}
		for _, col := range def.Columns {
			path := cellPath(def.Name, i, col.Name)
			cellOpts := render.FieldOptions{Print: printing, Placeholder: placeholder, Errors: errs[path]}
			if col.Derived() {
				computed := derived.cell(table, i, col).Format()
				cellOpts.Value = &computed
			}
			rv.Cells = append(rv.Cells, render.FieldNode(lookup, col, path, cellOpts))
		}
		for _, col := range dynamic {
			path := dynamicPath(def.Name, i, col.Key)
			rv.Cells = append(rv.Cells, render.RenderField(lookup, path, col.Label, model.FieldKindText, render.FieldOptions{
				Print:       printing,
				Placeholder: placeholder,
				Errors:      errs[path],
			}))
		}
		tv.Rows = append(tv.Rows, rv)
	}

	for _, col := range def.Columns {
		if !wantsTotal(col) {
			continue
		}
		total, err := derived.columnTotal(table, col)
		text := ""
		if err == nil {
			text = total.Format()
		}
		tv.Totals = append(tv.Totals, render.RenderField(nil, def.Name+"."+columnTotalKey+"."+col.Name, col.Label, model.FieldKindNumber, render.FieldOptions{
			Derived:     true,
			Placeholder: placeholder,
			Value:       &text,
		}))
	}
	return tv
}

func (d *Document) approvalView(cfg model.ApprovalConfig, printing bool, placeholder string) *render.ApprovalView {
	title := cfg.Title
	if strings.TrimSpace(title) == "" {
		title = defaultApprovalsTitle
	}
	av := &render.ApprovalView{
		Title:       title,
		Editable:    !printing && !d.approvals.ReadOnly(),
		AllowCustom: cfg.AllowCustom && !printing,
	}
	for i, role := range d.approvals.Roles() {
		rv := render.RoleView{Index: i, Name: role.Name, Signed: role.Signed()}
		keys := make([]string, 0, len(role.Data))
		for key := range role.Data {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			rv.Entries = append(rv.Entries, render.EntryView{Key: key, Value: form.Stringify(role.Data[key])})
		}
		if !rv.Signed {
			rv.Text = placeholder
		}
		av.Roles = append(av.Roles, rv)
	}
	return av
}

// wantsTotal reports whether a column asks for a footer total through
// Metadata["total"].
func wantsTotal(col model.Field) bool {
	if col.Metadata == nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(col.Metadata[columnTotalKey])) {
	case "true", "sum", "yes":
		return true
	default:
		return false
	}
}

func cellPath(table string, index int, column string) string {
	return fmt.Sprintf("%s.%d.%s", table, index, column)
}

func dynamicPath(table string, index int, key string) string {
	return fmt.Sprintf("%s.%d.%s.%s", table, index, rows.DynamicFieldsKey, key)
}
