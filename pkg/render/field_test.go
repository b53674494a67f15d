package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdoc/pkg/form"
	"github.com/goliatone/go-formdoc/pkg/model"
	"github.com/goliatone/go-formdoc/pkg/render"
)

func TestRenderFieldPrintPlaceholder(t *testing.T) {
	values := form.NewValues(map[string]any{"vendor": ""})

	for _, name := range []string{"vendor", "missing"} {
		node := render.RenderField(values, name, "Vendor", model.FieldKindText, render.FieldOptions{Print: true})
		if node.Kind != render.NodeStatic {
			t.Fatalf("%s: expected static node, got %q", name, node.Kind)
		}
		if node.Text != render.DefaultPlaceholder || !node.Empty {
			t.Fatalf("%s: expected placeholder, got %+v", name, node)
		}
	}

	custom := render.RenderField(values, "vendor", "Vendor", model.FieldKindText, render.FieldOptions{Print: true, Placeholder: "N/A"})
	if custom.Text != "N/A" {
		t.Fatalf("expected custom placeholder, got %q", custom.Text)
	}
}

func TestRenderFieldEditReflectsLiveValue(t *testing.T) {
	values := form.NewValues(nil)
	before := render.RenderField(values, "qty", "Qty", model.FieldKindNumber, render.FieldOptions{})
	if before.Value != "" {
		t.Fatalf("expected empty value, got %q", before.Value)
	}

	if err := values.Set("qty", "12"); err != nil {
		t.Fatalf("set: %v", err)
	}
	after := render.RenderField(values, "qty", "Qty", model.FieldKindNumber, render.FieldOptions{
		Errors: []string{" must be positive ", "must be positive"},
	})

	want := render.Node{
		Kind:      render.NodeInput,
		Name:      "qty",
		ID:        "fd-qty",
		Label:     "Qty",
		FieldKind: model.FieldKindNumber,
		InputType: "number",
		Value:     "12",
		Errors:    []string{"must be positive"},
	}
	if diff := cmp.Diff(want, after); diff != "" {
		t.Fatalf("node mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderFieldSelectSentinels(t *testing.T) {
	field := model.Field{
		Name:       "category",
		Label:      "Category",
		Kind:       model.FieldKindSelect,
		Options:    []model.Option{{Value: "it", Label: "IT Equipment"}, {Value: "office"}},
		AllowOther: true,
	}
	values := render.MapLookup{"category": "it"}

	edit := render.FieldNode(values, field, "", render.FieldOptions{})
	want := []render.OptionView{
		{Value: "", Label: render.SelectPromptLabel},
		{Value: "it", Label: "IT Equipment", Selected: true},
		{Value: "office", Label: "office"},
		{Value: render.OtherOptionValue, Label: render.OtherOptionLabel},
	}
	if diff := cmp.Diff(want, edit.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	printed := render.FieldNode(values, field, "", render.FieldOptions{Print: true})
	if printed.Text != "IT Equipment" {
		t.Fatalf("expected option label in print mode, got %q", printed.Text)
	}
}

func TestRenderFieldKinds(t *testing.T) {
	tests := []struct {
		kind      model.FieldKind
		wantKind  render.NodeKind
		wantInput string
	}{
		{model.FieldKindText, render.NodeInput, "text"},
		{model.FieldKindEmail, render.NodeInput, "email"},
		{model.FieldKindDate, render.NodeInput, "date"},
		{model.FieldKindDateTime, render.NodeInput, "datetime-local"},
		{model.FieldKindTime, render.NodeInput, "time"},
		{model.FieldKindTextArea, render.NodeTextArea, ""},
		{"", render.NodeInput, "text"},
	}
	for _, tt := range tests {
		node := render.RenderField(nil, "f", "F", tt.kind, render.FieldOptions{})
		if node.Kind != tt.wantKind || node.InputType != tt.wantInput {
			t.Errorf("kind %q: got (%q, %q), want (%q, %q)", tt.kind, node.Kind, node.InputType, tt.wantKind, tt.wantInput)
		}
	}
}

func TestRenderFieldModeToggleIsDeterministic(t *testing.T) {
	values := form.NewValues(map[string]any{"amount": "1250.5"})
	mode := form.NewToggle(true)

	render1 := render.RenderField(values, "amount", "Amount", model.FieldKindNumber, render.FieldOptions{Print: mode.PrintMode()})
	mode.Set(false)
	edit := render.RenderField(values, "amount", "Amount", model.FieldKindNumber, render.FieldOptions{Print: mode.PrintMode()})
	mode.Set(true)
	render2 := render.RenderField(values, "amount", "Amount", model.FieldKindNumber, render.FieldOptions{Print: mode.PrintMode()})

	if diff := cmp.Diff(render1, render2); diff != "" {
		t.Fatalf("print output changed across toggles (-first +second):\n%s", diff)
	}
	if edit.Kind != render.NodeInput || edit.Value != "1250.5" {
		t.Fatalf("unexpected edit node %+v", edit)
	}
	if render1.Text != "1250.5" {
		t.Fatalf("expected formatted number, got %q", render1.Text)
	}
	if values.String("amount") != "1250.5" {
		t.Fatalf("render mutated values")
	}
}

func TestRenderFieldDerivedIsStatic(t *testing.T) {
	computed := "42"
	field := model.Field{Name: "total", Label: "Total", Kind: model.FieldKindNumber, Formula: &model.Formula{Op: "sum"}}
	node := render.FieldNode(nil, field, "", render.FieldOptions{Value: &computed})
	if !node.Static() || node.Text != "42" || !node.Derived {
		t.Fatalf("expected static derived node, got %+v", node)
	}
}

func TestPrintValueFormatsTypedKinds(t *testing.T) {
	cases := []struct {
		kind model.FieldKind
		raw  string
		want string
	}{
		{model.FieldKindNumber, "1,200.00", "1200"},
		{model.FieldKindNumber, "abc", "abc"},
		{model.FieldKindDate, "2024-03-01", "2024-03-01"},
		{model.FieldKindTime, "09:05:00", "09:05"},
		{model.FieldKindText, "  ", ""},
	}
	for _, tc := range cases {
		if got := render.PrintValue(tc.kind, tc.raw, nil); got != tc.want {
			t.Errorf("PrintValue(%q, %q) = %q, want %q", tc.kind, tc.raw, got, tc.want)
		}
	}
}

func TestNodeID(t *testing.T) {
	if got := render.NodeID("items.0.dynamicFields.Cost Center"); got != "fd-items-0-dynamicFields-Cost-Center" {
		t.Fatalf("unexpected id %q", got)
	}
}
