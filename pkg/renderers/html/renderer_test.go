package html_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formdoc/pkg/definition"
	"github.com/goliatone/go-formdoc/pkg/document"
	"github.com/goliatone/go-formdoc/pkg/form"
	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/render"
	"github.com/goliatone/go-formdoc/pkg/renderers/html"
)

func expenseClaim() model.FormDefinition {
	return model.FormDefinition{
		ID:    "expense-claim",
		Title: "Expense Claim",
		Sections: []model.Section{{
			ID:    "claimant",
			Title: "Claimant",
			Fields: []model.Field{
				{Name: "employee", Label: "Employee", Required: true},
				{Name: "department", Label: "Department", Kind: model.FieldKindSelect, Options: []model.Option{
					{Value: "ops", Label: "Operations"},
					{Value: "fin", Label: "Finance"},
				}},
				{Name: "notes", Label: "Notes", Kind: model.FieldKindTextArea},
			},
		}},
		Tables: []model.Table{{
			Name:           "lines",
			Title:          "Expenses",
			DynamicColumns: true,
			Columns: []model.Field{
				{Name: "item", Label: "Item"},
				{Name: "amount", Label: "Amount", Kind: model.FieldKindNumber, Metadata: map[string]string{"total": "sum"}},
			},
		}},
		Approvals: &model.ApprovalConfig{AllowCustom: true},
	}
}

func newDocument(t *testing.T, opts ...document.Option) *document.Document {
	t.Helper()
	doc, err := document.New(expenseClaim(), opts...)
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc
}

func renderView(t *testing.T, renderer *html.Renderer, view render.View, opts render.RenderOptions) string {
	t.Helper()
	out, err := renderer.Render(context.Background(), view, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func assertContains(t *testing.T, output string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(output, fragment) {
			t.Fatalf("expected output to contain %q\n%s", fragment, output)
		}
	}
}

func assertNotContains(t *testing.T, output string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if strings.Contains(output, fragment) {
			t.Fatalf("expected output not to contain %q\n%s", fragment, output)
		}
	}
}

func TestRenderEditMode(t *testing.T) {
	doc := newDocument(t)
	if err := doc.Bind("department", "fin"); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if _, err := doc.ProposeColumn("lines", "Cost Center"); err != nil {
		t.Fatalf("propose column: %v", err)
	}

	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	view := doc.View(render.ViewOptions{Errors: map[string][]string{"employee": {"Employee is required"}}})
	output := renderView(t, renderer, view, render.RenderOptions{
		Action: "/forms/expense-claim",
		Hidden: []render.HiddenField{render.Hidden("formId", "expense-claim"), render.CSRFToken("csrf", "tok")},
	})

	assertContains(t, output,
		`<form class="formdoc-form" method="POST" action="/forms/expense-claim">`,
		`name="employee"`,
		`aria-invalid="true"`,
		`<p class="formdoc-error">Employee is required</p>`,
		`<option value="fin" selected>Finance</option>`,
		`<option value="">-- Select --</option>`,
		`<textarea id="fd-notes" name="notes"`,
		`name="lines.0.item"`,
		`type="number"`,
		`name="lines.0.dynamicFields.CostCenter"`,
		`value="remove-column:lines:CostCenter"`,
		`value="add-row:lines"`,
		`name="_column.lines"`,
		`name="approvals.0.data.name"`,
		`value="add-role"`,
		`<input type="hidden" name="csrf" value="tok">`,
	)
	if strings.Index(output, `name="csrf"`) > strings.Index(output, `name="formId"`) {
		t.Fatalf("hidden fields not sorted by name")
	}
	assertNotContains(t, output, "<!DOCTYPE html>", "formdoc-document")
}

func TestRenderEmbeddedCatalogue(t *testing.T) {
	store, err := definition.LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	for _, def := range store.List() {
		for _, printing := range []bool{false, true} {
			doc, err := document.New(def, document.WithMode(form.StaticMode(printing)))
			if err != nil {
				t.Fatalf("%s: new document: %v", def.ID, err)
			}
			output := renderView(t, renderer, doc.View(render.ViewOptions{}), render.RenderOptions{})
			assertContains(t, output, `id="formdoc-`+def.ID+`"`, `class="formdoc-section"`)
			for _, table := range def.Tables {
				assertContains(t, output, `id="table-`+table.Name+`"`)
			}
		}
	}
}

func TestRenderPrintMode(t *testing.T) {
	doc := newDocument(t, document.WithMode(form.StaticMode(true)))
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	output := renderView(t, renderer, doc.View(render.ViewOptions{}), render.RenderOptions{
		Hidden: []render.HiddenField{render.Hidden("formId", "expense-claim")},
	})

	assertContains(t, output,
		`data-mode="print"`,
		`<div class="formdoc-document">`,
		`formdoc-static--empty`,
		render.DefaultPlaceholder,
		"<h2>Approvals</h2>",
		"<h3>Prepared By</h3>",
	)
	assertNotContains(t, output, "<form", "<input", "<select", "<textarea", "<button")
}

func TestRenderEscapesValues(t *testing.T) {
	doc := newDocument(t, document.WithValues(map[string]any{"employee": `<script>alert(1)</script>`}))
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	output := renderView(t, renderer, doc.View(render.ViewOptions{Print: true}), render.RenderOptions{})
	assertNotContains(t, output, "<script>")
	assertContains(t, output, "&lt;script&gt;")
}

func TestRenderStandaloneWithStyles(t *testing.T) {
	doc := newDocument(t)
	renderer, err := html.New(html.WithDefaultStyles(), html.WithStylesheet("/assets/custom.css"))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	output := renderView(t, renderer, doc.View(render.ViewOptions{}), render.RenderOptions{Standalone: true})
	assertContains(t, output,
		"<!DOCTYPE html>",
		"<title>Expense Claim</title>",
		`<link rel="stylesheet" href="/assets/custom.css">`,
		".formdoc-table",
		"</html>",
	)
}

type stubThemeSelector struct {
	selection *theme.Selection
	err       error
	calls     [][2]string
}

func (s *stubThemeSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.calls = append(s.calls, [2]string{name, variant})
	return s.selection, s.err
}

func acmeManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens:  map[string]string{"brand": "#123456", "border": "#cccccc"},
		Assets: theme.Assets{
			Prefix: "/assets/themes/acme",
			Files:  map[string]string{html.StylesheetAsset: "theme.css"},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{"brand": "#654321"},
				Assets: theme.Assets{Files: map[string]string{html.StylesheetAsset: "theme.dark.css"}},
			},
		},
	}
}

func TestRenderWithThemeSelector(t *testing.T) {
	selector := &stubThemeSelector{selection: &theme.Selection{Theme: "acme", Variant: "dark", Manifest: acmeManifest()}}
	renderer, err := html.New(html.WithThemeSelector(selector, "acme", "dark"))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	output := renderView(t, renderer, newDocument(t).View(render.ViewOptions{}), render.RenderOptions{Standalone: true})
	if diff := cmp.Diff([][2]string{{"acme", "dark"}}, selector.calls); diff != "" {
		t.Fatalf("selector calls mismatch (-want +got):\n%s", diff)
	}
	assertContains(t, output,
		`data-theme="acme"`,
		`data-variant="dark"`,
		"--border: #cccccc;\n--brand: #654321;",
		`<link rel="stylesheet" href="/assets/themes/acme/theme.dark.css">`,
	)
}

func TestRenderThemeSelectorError(t *testing.T) {
	selector := &stubThemeSelector{err: errors.New("unknown theme")}
	renderer, err := html.New(html.WithThemeSelector(selector, "missing", ""))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if _, err := renderer.Render(context.Background(), render.View{ID: "x"}, render.RenderOptions{}); err == nil {
		t.Fatalf("expected theme selection error")
	}
}

func TestRendererConfigMergesVariant(t *testing.T) {
	cfg := html.RendererConfig(&theme.Selection{Theme: "acme", Variant: "dark", Manifest: acmeManifest()})
	if cfg == nil {
		t.Fatalf("expected renderer config")
	}
	want := map[string]string{"--brand": "#654321", "--border": "#cccccc"}
	if diff := cmp.Diff(want, cfg.CSSVars); diff != "" {
		t.Fatalf("css vars mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.AssetURL(html.StylesheetAsset); got != "/assets/themes/acme/theme.dark.css" {
		t.Fatalf("unexpected stylesheet url %q", got)
	}
	if got := cfg.AssetURL("missing"); got != "" {
		t.Fatalf("expected empty url for unknown asset, got %q", got)
	}
	if html.RendererConfig(nil) != nil {
		t.Fatalf("expected nil config for nil selection")
	}
}

type stubTemplateRenderer struct {
	name string
	data any
}

func (s *stubTemplateRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	return s.RenderTemplate(name, data, out...)
}

func (s *stubTemplateRenderer) RenderTemplate(name string, data any, _ ...io.Writer) (string, error) {
	s.name = name
	s.data = data
	return "custom-output", nil
}

func (s *stubTemplateRenderer) RenderString(string, any, ...io.Writer) (string, error) {
	return "", nil
}

func (s *stubTemplateRenderer) RegisterFilter(string, func(any, any) (any, error)) error {
	return nil
}

func (s *stubTemplateRenderer) GlobalContext(any) error { return nil }

func TestRenderWithTemplateRenderer(t *testing.T) {
	stub := &stubTemplateRenderer{}
	renderer, err := html.New(html.WithTemplateRenderer(stub))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	output := renderView(t, renderer, render.View{ID: "x", FormErrors: []string{"a"}}, render.RenderOptions{FormErrors: []string{"b"}})
	if output != "custom-output" {
		t.Fatalf("unexpected output %q", output)
	}
	if stub.name != "templates/form.tmpl" {
		t.Fatalf("unexpected template name %q", stub.name)
	}
	data, ok := stub.data.(map[string]any)
	if !ok {
		t.Fatalf("expected map data, got %T", stub.data)
	}
	if diff := cmp.Diff([]string{"a", "b"}, data["formErrors"]); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if data["method"] != "POST" {
		t.Fatalf("expected default POST method, got %v", data["method"])
	}
}

func TestParseAction(t *testing.T) {
	tests := map[string]struct {
		want html.Action
		ok   bool
	}{
		"":                            {want: html.Action{Kind: html.ActionSubmit}, ok: true},
		"submit":                      {want: html.Action{Kind: html.ActionSubmit}, ok: true},
		"add-row:items":               {want: html.Action{Kind: html.ActionAddRow, Table: "items"}, ok: true},
		"remove-row:items:2":          {want: html.Action{Kind: html.ActionRemoveRow, Table: "items", Index: 2}, ok: true},
		"remove-row:items:x":          {},
		"add-column:items":            {want: html.Action{Kind: html.ActionAddColumn, Table: "items"}, ok: true},
		"remove-column:items:Cost:ID": {want: html.Action{Kind: html.ActionRemoveColumn, Table: "items", Column: "Cost:ID"}, ok: true},
		"add-role":                    {want: html.Action{Kind: html.ActionAddRole}, ok: true},
		"remove-role:1":               {want: html.Action{Kind: html.ActionRemoveRole, Index: 1}, ok: true},
		"explode":                     {},
	}
	for raw, tc := range tests {
		got, ok := html.ParseAction(raw)
		if ok != tc.ok {
			t.Fatalf("ParseAction(%q) ok = %v, want %v", raw, ok, tc.ok)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("ParseAction(%q) mismatch (-want +got):\n%s", raw, diff)
		}
	}
}
