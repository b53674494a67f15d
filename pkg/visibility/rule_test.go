package visibility

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdoc/pkg/form"
	"github.com/goliatone/go-formdoc/pkg/model"
)

type values map[string]string

func (v values) String(path string) string { return v[path] }

func TestRuleVisible(t *testing.T) {
	vals := values{
		"priority":   "urgent",
		"department": "other",
		"grandTotal": "1,250.50",
		"rush":       "true",
		"notes":      "",
		"qty":        "3",
		"code":       "x-1",
	}

	cases := []struct {
		rule string
		want bool
	}{
		{"", true},
		{"priority == 'urgent'", true},
		{`priority == "urgent"`, true},
		{"priority != urgent", false},
		{"department == 'other' && grandTotal > 1000", true},
		{"grandTotal >= 1250.5", true},
		{"grandTotal < 1000 || qty <= 3", true},
		{"qty > 3", false},
		{"qty == 3", true},
		{"qty != 4", true},
		{"priority > 1", false},
		{"priority != 1", true},
		{"rush", true},
		{"rush == false", false},
		{"!rush", false},
		{"notes", false},
		{"notes == null", true},
		{"missing != null", false},
		{"!(priority == 'low' || notes)", true},
		{"code == 'x-1'", true},
	}
	for _, tc := range cases {
		rule, err := Compile(tc.rule)
		if err != nil {
			t.Fatalf("Compile(%q): %v", tc.rule, err)
		}
		if got := rule.Visible(vals); got != tc.want {
			t.Fatalf("%q: got %v, want %v", tc.rule, got, tc.want)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	for _, src := range []string{
		"a = 1",
		"a & b",
		"a == 'open",
		"(a == 1",
		"a ==",
		"a < 'x'",
		"== 1",
		"a b",
		"a == 1,5",
	} {
		if _, err := Compile(src); !errors.Is(err, ErrSyntax) {
			t.Fatalf("Compile(%q): expected ErrSyntax, got %v", src, err)
		}
	}
}

func TestRuleRefs(t *testing.T) {
	rule := MustCompile("vendor.name && (priority == 'urgent' || total > 10) && priority != low")
	if diff := cmp.Diff([]string{"priority", "total", "vendor.name"}, rule.Refs()); diff != "" {
		t.Fatalf("refs mismatch (-want +got):\n%s", diff)
	}
	if rule.String() == "" {
		t.Fatalf("expected source to be kept")
	}

	var none *Rule
	if !none.Visible(nil) || none.Refs() != nil {
		t.Fatalf("nil rule should be visible with no refs")
	}
}

func TestRuleReadsNestedValues(t *testing.T) {
	vals := form.NewValues(map[string]any{"vendor": map[string]any{"country": "NZ"}})
	if !MustCompile("vendor.country == 'NZ'").Visible(vals) {
		t.Fatalf("expected nested path to resolve")
	}
}

func TestHiddenCascades(t *testing.T) {
	def := model.FormDefinition{
		ID: "leave",
		Sections: []model.Section{{ID: "s", Fields: []model.Field{
			{Name: "type"},
			{Name: "otherReason", VisibleWhen: "type == 'other'"},
			{Name: "evidence", VisibleWhen: "otherReason"},
			{Name: "days"},
		}}},
	}

	got := Hidden(def, map[string]any{"type": "annual", "otherReason": "stale", "days": "2"})
	if diff := cmp.Diff(map[string]bool{"otherReason": true, "evidence": true}, got); diff != "" {
		t.Fatalf("hidden mismatch (-want +got):\n%s", diff)
	}

	got = Hidden(def, map[string]any{"type": "other", "otherReason": "moving"})
	if len(got) != 0 {
		t.Fatalf("expected nothing hidden, got %v", got)
	}
}
