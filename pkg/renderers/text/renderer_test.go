package text

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-formdoc/pkg/document"
	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/render"
	"github.com/goliatone/go-formdoc/pkg/testsupport"
)

func timesheet() model.FormDefinition {
	return model.FormDefinition{
		ID:       "timesheet",
		Title:    "Weekly Timesheet",
		Subtitle: "Field Services",
		Sections: []model.Section{{
			ID:    "employee",
			Title: "Employee",
			Fields: []model.Field{
				{Name: "employee", Label: "Employee"},
				{Name: "team", Label: "Team", Kind: model.FieldKindSelect, Options: []model.Option{{Value: "ops", Label: "Operations"}}},
			},
		}},
		Tables: []model.Table{{
			Name:  "entries",
			Title: "Entries",
			Columns: []model.Field{
				{Name: "start", Label: "Start", Kind: model.FieldKindTime},
				{Name: "end", Label: "End", Kind: model.FieldKindTime},
				{Name: "hours", Label: "Hours", Kind: model.FieldKindNumber, Formula: &model.Formula{Op: "hours", Args: []string{"start", "end"}}, Metadata: map[string]string{"total": "true"}},
			},
		}},
		Approvals: &model.ApprovalConfig{Roles: []string{"Supervisor", "Payroll"}},
	}
}

func TestRenderPrintView(t *testing.T) {
	doc, err := document.New(timesheet(), document.WithValues(map[string]any{
		"employee": "Ada",
		"team":     "ops",
		"entries":  []any{map[string]any{"start": "09:00", "end": "17:30"}},
		"approvals": []any{
			map[string]any{"roleName": "Supervisor", "data": map[string]any{"name": "Grace", "date": "2026-02-01"}},
			map[string]any{"roleName": "Payroll", "data": map[string]any{}},
		},
	}))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	out, err := New().Render(context.Background(), doc.View(render.ViewOptions{Print: true}), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	output := string(out)

	for _, fragment := range []string{
		"Weekly Timesheet",
		"Field Services",
		"Employee",
		"Ada",
		"Operations",
		"Start", "End", "Hours",
		"09:00", "17:30", "8.5",
		"Total Hours: 8.5",
		"Role", "Name", "Date",
		"Supervisor", "Grace", "2026-02-01",
		"Payroll", render.DefaultPlaceholder,
	} {
		if !strings.Contains(output, fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, output)
		}
	}
	if strings.Index(output, "Weekly Timesheet") > strings.Index(output, "Entries") {
		t.Fatalf("title should precede tables:\n%s", output)
	}
}

func TestRenderEditViewUsesValues(t *testing.T) {
	doc, err := document.New(timesheet())
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	if err := doc.Bind("team", "ops"); err != nil {
		t.Fatalf("bind: %v", err)
	}

	out, err := New().Render(context.Background(), doc.View(render.ViewOptions{}), render.RenderOptions{FormErrors: []string{"Server rejected the timesheet"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	output := string(out)
	for _, fragment := range []string{"! Server rejected the timesheet", "Operations", render.DefaultPlaceholder, "Signature"} {
		if !strings.Contains(output, fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, output)
		}
	}
}

func TestRenderHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Render(ctx, render.View{}, render.RenderOptions{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestRenderDerivedTotalsFromBoundCells(t *testing.T) {
	def := testsupport.MustParseDefinition(t, `
id: delivery-note
sections:
  - id: delivery
    fields:
      - name: carrier
tables:
  - name: parcels
    initialRows: 2
    columns:
      - name: weight
        kind: number
        metadata:
          total: "true"
`)
	doc := testsupport.MustDocument(t, def)
	testsupport.MustBind(t, doc, map[string]string{
		"carrier":          "Northwind",
		"parcels.0.weight": "2.5",
		"parcels.1.weight": "4",
	})

	out, err := New().Render(testsupport.Context(), doc.View(render.ViewOptions{Print: true}), render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, fragment := range []string{"Delivery Note", "Northwind", "Total Weight: 6.5"} {
		if !strings.Contains(string(out), fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, out)
		}
	}
}
