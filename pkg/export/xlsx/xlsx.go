// Package xlsx exports document views as Excel workbooks. The first sheet
// holds the header, scalar sections and signatures; each table gets its own
// sheet with a header row, one row per line item and a totals row.
package xlsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/render"
	"github.com/goliatone/go-formdoc/pkg/value"
)

const (
	// ContentType is the MIME type of the generated workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// SummarySheet names the first sheet.
	SummarySheet = "Summary"

	maxSheetName = 31
	defaultSheet = "Sheet1"
)

// Option configures the exporter.
type Option func(*Exporter)

// WithHeaderColor sets the fill color of header cells.
func WithHeaderColor(hex string) Option {
	return func(e *Exporter) {
		if hex = strings.TrimSpace(hex); hex != "" {
			e.headerColor = hex
		}
	}
}

// Exporter implements render.Renderer producing XLSX bytes. Exports always
// use the print representation of the view.
type Exporter struct {
	headerColor string
}

var _ render.Renderer = (*Exporter)(nil)

// New constructs an exporter.
func New(options ...Option) *Exporter {
	e := &Exporter{headerColor: "#D9E1F2"}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *Exporter) Name() string { return "xlsx" }

func (e *Exporter) ContentType() string { return ContentType }

// Render builds the workbook and returns its bytes.
func (e *Exporter) Render(ctx context.Context, view render.View, _ render.RenderOptions) ([]byte, error) {
	f, err := e.Workbook(ctx, view)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Workbook builds the excelize file for view. Callers own the returned file
// and must Close it.
func (e *Exporter) Workbook(ctx context.Context, view render.View) (*excelize.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(defaultSheet, SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	styles, err := e.newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	w := &sheetWriter{f: f, sheet: SummarySheet}
	w.row(view.Title)
	w.style("A", styles.title)
	if view.Subtitle != "" {
		w.row(view.Subtitle)
	}
	for _, msg := range view.FormErrors {
		w.row(msg)
	}

	for _, section := range view.Sections {
		w.blank()
		if section.Title != "" {
			w.row(section.Title)
			w.style("A", styles.header)
		}
		for _, node := range section.Fields {
			w.cells(node.Label, cellValue(node))
		}
	}

	if view.Approvals != nil {
		w.blank()
		w.row(view.Approvals.Title)
		w.style("A", styles.header)
		for _, role := range view.Approvals.Roles {
			values := []any{role.Name}
			if !role.Signed {
				values = append(values, role.Text)
			}
			for _, entry := range role.Entries {
				values = append(values, fmt.Sprintf("%s: %s", model.DefaultLabeler(entry.Key), entry.Value))
			}
			w.cells(values...)
		}
	}
	if err := w.err; err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 28); err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsx: column width: %w", err)
	}

	used := map[string]int{strings.ToLower(SummarySheet): 1}
	for _, tv := range view.Tables {
		if err := e.writeTable(f, styles, sheetName(tv, used), tv); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

type styleSet struct {
	title  int
	header int
	total  int
}

func (e *Exporter) newStyles(f *excelize.File) (styleSet, error) {
	var (
		set styleSet
		err error
	)
	set.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return set, fmt.Errorf("xlsx: title style: %w", err)
	}
	set.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{e.headerColor}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return set, fmt.Errorf("xlsx: header style: %w", err)
	}
	set.total, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return set, fmt.Errorf("xlsx: total style: %w", err)
	}
	return set, nil
}

func (e *Exporter) writeTable(f *excelize.File, styles styleSet, sheet string, tv render.TableView) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("xlsx: new sheet %q: %w", sheet, err)
	}
	w := &sheetWriter{f: f, sheet: sheet}

	headers := make([]any, len(tv.Headers))
	for i, header := range tv.Headers {
		headers[i] = header.Label
	}
	w.cells(headers...)
	w.styleRow(len(headers), styles.header)

	for _, row := range tv.Rows {
		values := make([]any, len(row.Cells))
		for i, cell := range row.Cells {
			values[i] = cellValue(cell)
		}
		w.cells(values...)
	}

	if len(tv.Totals) > 0 {
		totals := make([]any, len(tv.Headers))
		for _, total := range tv.Totals {
			col := columnIndex(tv.Headers, strings.TrimPrefix(total.Name, tv.Name+".total."))
			if col >= 0 {
				totals[col] = cellValue(total)
			}
		}
		if len(totals) > 0 && totals[0] == nil {
			totals[0] = "Total"
		}
		w.cells(totals...)
		w.styleRow(len(totals), styles.total)
	}

	for i, header := range tv.Headers {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := float64(len(header.Label) + 4)
		if width < 12 {
			width = 12
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return fmt.Errorf("xlsx: column width: %w", err)
		}
	}
	return w.err
}

// sheetWriter appends rows to a sheet, keeping the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	next  int
	err   error
}

func (w *sheetWriter) row(val any) {
	w.cells(val)
}

func (w *sheetWriter) blank() {
	w.next++
}

func (w *sheetWriter) cells(values ...any) {
	w.next++
	if w.err != nil {
		return
	}
	for i, val := range values {
		if val == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, w.next)
		if err != nil {
			w.err = err
			return
		}
		if err := w.f.SetCellValue(w.sheet, cell, val); err != nil {
			w.err = fmt.Errorf("xlsx: set %s!%s: %w", w.sheet, cell, err)
			return
		}
	}
}

func (w *sheetWriter) style(col string, style int) {
	if w.err != nil {
		return
	}
	cell := fmt.Sprintf("%s%d", col, w.next)
	if err := w.f.SetCellStyle(w.sheet, cell, cell, style); err != nil {
		w.err = fmt.Errorf("xlsx: style %s!%s: %w", w.sheet, cell, err)
	}
}

func (w *sheetWriter) styleRow(width int, style int) {
	if w.err != nil || width == 0 {
		return
	}
	last, err := excelize.ColumnNumberToName(width)
	if err != nil {
		w.err = err
		return
	}
	start := fmt.Sprintf("A%d", w.next)
	end := fmt.Sprintf("%s%d", last, w.next)
	if err := w.f.SetCellStyle(w.sheet, start, end, style); err != nil {
		w.err = fmt.Errorf("xlsx: style %s!%s:%s: %w", w.sheet, start, end, err)
	}
}

// cellValue converts a node into a typed cell value. Number fields become
// numeric cells; everything else is written as its printed text.
func cellValue(node render.Node) any {
	text := node.Text
	if !node.Static() {
		text = node.Value
	}
	if node.Empty {
		return text
	}
	if node.FieldKind == model.FieldKindNumber {
		if parsed, err := value.ParseNumber(text); err == nil && !parsed.IsEmpty() {
			return parsed.Number()
		}
	}
	return text
}

func columnIndex(headers []render.HeaderView, key string) int {
	for i, header := range headers {
		if header.Key == key && !header.Dynamic {
			return i
		}
	}
	return -1
}

// sheetName derives a unique, Excel-safe sheet name from the table title.
func sheetName(tv render.TableView, used map[string]int) string {
	base := tv.Title
	if strings.TrimSpace(base) == "" {
		base = model.DefaultLabeler(tv.Name)
	}
	base = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '-'
		default:
			return r
		}
	}, strings.TrimSpace(base))
	if base == "" {
		base = "Table"
	}
	if len([]rune(base)) > maxSheetName {
		base = string([]rune(base)[:maxSheetName])
	}

	name := base
	for n := used[strings.ToLower(name)]; n > 0; n = used[strings.ToLower(name)] {
		suffix := fmt.Sprintf(" (%d)", n+1)
		runes := []rune(base)
		if len(runes)+len(suffix) > maxSheetName {
			runes = runes[:maxSheetName-len(suffix)]
		}
		used[strings.ToLower(base)]++
		name = string(runes) + suffix
	}
	used[strings.ToLower(name)]++
	return name
}
