// Package text renders document views as plain terminal output: headings and
// label/value lines for sections, bordered tables for line items and the
// signature block.
package text

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/render"
)

// Styles groups the lipgloss styles used for each part of the output.
type Styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Border  lipgloss.Border
}

// DefaultStyles mirrors the printed form: bold headings, muted placeholders.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true),
		Heading: lipgloss.NewStyle().Bold(true).Underline(true),
		Label:   lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Faint(true),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C")),
		Border:  lipgloss.NormalBorder(),
	}
}

// Option configures the renderer.
type Option func(*Renderer)

// WithStyles overrides the output styles.
func WithStyles(styles Styles) Option {
	return func(r *Renderer) {
		r.styles = styles
	}
}

// Renderer implements render.Renderer for terminals and plain-text exports.
type Renderer struct {
	styles Styles
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer.
func New(options ...Option) *Renderer {
	r := &Renderer{styles: DefaultStyles()}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Renderer) Name() string { return "text" }

func (r *Renderer) ContentType() string { return "text/plain; charset=utf-8" }

// Render writes the view as text. Edit-mode views print their live values so
// the output always reads like the printed document.
func (r *Renderer) Render(ctx context.Context, view render.View, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var blocks []string
	header := r.styles.Title.Render(view.Title)
	if view.Subtitle != "" {
		header += "\n" + r.styles.Muted.Render(view.Subtitle)
	}
	blocks = append(blocks, header)

	if errs := render.MergeFormErrors(view.FormErrors, options.FormErrors...); len(errs) > 0 {
		lines := make([]string, len(errs))
		for i, msg := range errs {
			lines[i] = r.styles.Error.Render("! " + msg)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	for _, section := range view.Sections {
		blocks = append(blocks, r.section(section))
	}
	for _, tv := range view.Tables {
		blocks = append(blocks, r.table(tv))
	}
	if view.Approvals != nil {
		blocks = append(blocks, r.approvals(*view.Approvals))
	}
	return []byte(strings.Join(blocks, "\n\n") + "\n"), nil
}

func (r *Renderer) section(section render.SectionView) string {
	var lines []string
	if section.Title != "" {
		lines = append(lines, r.styles.Heading.Render(section.Title))
	}
	width := 0
	for _, node := range section.Fields {
		if w := lipgloss.Width(node.Label); w > width {
			width = w
		}
	}
	label := r.styles.Label.Width(width + 2)
	for _, node := range section.Fields {
		lines = append(lines, label.Render(node.Label+":")+r.nodeText(node))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) table(tv render.TableView) string {
	headers := make([]string, len(tv.Headers))
	for i, header := range tv.Headers {
		headers[i] = header.Label
	}
	rowsData := make([][]string, 0, len(tv.Rows))
	for _, row := range tv.Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = r.nodeText(cell)
		}
		rowsData = append(rowsData, cells)
	}

	t := table.New().
		Border(r.styles.Border).
		Headers(headers...).
		Rows(rowsData...)

	var b strings.Builder
	if tv.Title != "" {
		b.WriteString(r.styles.Heading.Render(tv.Title))
		b.WriteString("\n")
	}
	b.WriteString(t.String())
	for _, total := range tv.Totals {
		b.WriteString("\n")
		b.WriteString(r.styles.Label.Render(fmt.Sprintf("Total %s:", total.Label)))
		b.WriteString(" ")
		b.WriteString(r.nodeText(total))
	}
	return b.String()
}

// approvals prints one row per role. Payload keys become columns in the
// order name, date, then the rest alphabetically.
func (r *Renderer) approvals(av render.ApprovalView) string {
	keys := entryKeys(av.Roles)
	headers := []string{"Role"}
	for _, key := range keys {
		headers = append(headers, model.DefaultLabeler(key))
	}

	rowsData := make([][]string, 0, len(av.Roles))
	for _, role := range av.Roles {
		values := make(map[string]string, len(role.Entries))
		for _, entry := range role.Entries {
			values[entry.Key] = entry.Value
		}
		row := []string{role.Name}
		for _, key := range keys {
			cell := values[key]
			if cell == "" {
				cell = placeholderText(role.Text)
			}
			row = append(row, cell)
		}
		if len(keys) == 0 {
			row = append(row, placeholderText(role.Text))
		}
		rowsData = append(rowsData, row)
	}
	if len(keys) == 0 {
		headers = append(headers, "Signature")
	}

	t := table.New().
		Border(r.styles.Border).
		Headers(headers...).
		Rows(rowsData...)
	return r.styles.Heading.Render(av.Title) + "\n" + t.String()
}

func (r *Renderer) nodeText(node render.Node) string {
	if node.Static() {
		if node.Empty {
			return r.styles.Muted.Render(node.Text)
		}
		return node.Text
	}
	if node.Value == "" {
		return r.styles.Muted.Render(render.DefaultPlaceholder)
	}
	if node.Kind == render.NodeSelect {
		for _, opt := range node.Options {
			if opt.Selected && opt.Value != "" {
				return opt.Label
			}
		}
	}
	return node.Value
}

func placeholderText(text string) string {
	if text == "" {
		return render.DefaultPlaceholder
	}
	return text
}

func entryKeys(roles []render.RoleView) []string {
	seen := map[string]struct{}{}
	for _, role := range roles {
		for _, entry := range role.Entries {
			seen[entry.Key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	rank := func(key string) int {
		switch key {
		case "name":
			return 0
		case "date":
			return 1
		default:
			return 2
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := rank(keys[i]), rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}
