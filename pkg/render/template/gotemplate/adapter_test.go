package gotemplate

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formdoc/pkg/render"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	files := fstest.MapFS{
		"hello.tmpl":       {Data: []byte("Hello {{ name }}")},
		"global.tmpl":      {Data: []byte("{{ company.name }}|{{ title }}")},
		"row.tmpl":         {Data: []byte("{% for row in rows %}{{ row.index }}:{{ row.id }};{% endfor %}")},
		"placeholder.tmpl": {Data: []byte("[{{ value|blank }}][{{ value|blank:\"N/A\" }}][{{ other|blank }}]")},
	}
	engine, err := New(append([]Option{WithFS(files)}, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestNewRequiresSource(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatalf("expected error without template source")
	}
}

func TestRenderTemplateWritesToOutputs(t *testing.T) {
	engine := newTestEngine(t)

	var buf bytes.Buffer
	got, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, &buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hello Ada" || buf.String() != got {
		t.Fatalf("unexpected output %q (writer %q)", got, buf.String())
	}

	// Extension already present and Render dispatch by name.
	again, err := engine.Render("hello.tmpl", map[string]any{"name": "Grace"})
	if err != nil || again != "Hello Grace" {
		t.Fatalf("render with extension: %q %v", again, err)
	}
}

func TestRenderStructUsesJSONNames(t *testing.T) {
	engine := newTestEngine(t)
	table := render.TableView{Rows: []render.RowView{{Index: 0, ID: "a"}, {Index: 1, ID: "b"}}}

	got, err := engine.RenderTemplate("row", table)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "0:a;1:b;" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestGlobalContext(t *testing.T) {
	engine := newTestEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"company": map[string]any{"name": "Acme"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	got, err := engine.RenderTemplate("global", map[string]any{"title": "PO"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Acme|PO" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRenderStringAndFilters(t *testing.T) {
	engine := newTestEngine(t)

	got, err := engine.Render("{{ total|amount }}/{{ label|trim }}", map[string]any{
		"total": "1,250.50",
		"label": "  Net  ",
	})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if got != "1250.5/Net" {
		t.Fatalf("unexpected output %q", got)
	}

	placeholder, err := engine.RenderTemplate("placeholder", map[string]any{"value": "", "other": "x"})
	if err != nil {
		t.Fatalf("render placeholder: %v", err)
	}
	want := fmt.Sprintf("[%s][N/A][x]", render.DefaultPlaceholder)
	if placeholder != want {
		t.Fatalf("placeholder mismatch\nwant: %q\n got: %q", want, placeholder)
	}
}

func TestRegisterFilter(t *testing.T) {
	engine := newTestEngine(t)
	err := engine.RegisterFilter("formdoc_shout", func(input any, _ any) (any, error) {
		return strings.ToUpper(fmt.Sprint(input)) + "!", nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("formdoc_shout", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate filter error")
	}

	got, err := engine.RenderString("{{ name|formdoc_shout }}", map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ADA!" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestNestedIncludesResolveRelative(t *testing.T) {
	files := fstest.MapFS{
		"templates/page.tmpl": {Data: []byte(`{% for row in rows %}{% include "cell.tmpl" with row=row %}{% endfor %}`)},
		"templates/cell.tmpl": {Data: []byte(`<{{ row.index }}:{{ row.label }}>`)},
	}
	engine, err := New(WithFS(files))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	data := map[string]any{"rows": []map[string]any{{"index": 0, "label": "a"}, {"index": 1, "label": "b"}}}

	got, err := engine.RenderTemplate("templates/page", data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "<0:a><1:b>" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestMissingTemplate(t *testing.T) {
	engine := newTestEngine(t)
	if _, err := engine.RenderTemplate("missing", nil); err == nil {
		t.Fatalf("expected missing template error")
	}
}
