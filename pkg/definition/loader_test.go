package definition

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdoc/pkg/model"
)

func TestLoadFSParsesYAMLAndJSON(t *testing.T) {
	fsys := fstest.MapFS{
		"leave.yaml": {Data: []byte(`
id: leave-request
sections:
  - id: request
    fields:
      - name: employee_id
        required: true
      - name: startDate
        kind: date
`)},
		"nested/pair.json": {Data: []byte(`{"forms": [
  {"id": "b-form", "sections": [{"id": "main", "fields": [{"name": "title"}]}]},
  {"id": "a-form", "tables": [{"name": "lines", "columns": [{"name": "qty", "kind": "number"}]}]}
]}`)},
		"README.md": {Data: []byte("ignored")},
	}

	store, err := LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if diff := cmp.Diff([]string{"a-form", "b-form", "leave-request"}, store.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	leave, err := store.Get("leave-request")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if leave.Title != "Leave Request" {
		t.Fatalf("expected decorated title, got %q", leave.Title)
	}
	field, _ := leave.Field("employee_id")
	if field.Label != "Employee ID" || field.Kind != model.FieldKindText {
		t.Fatalf("expected default label and kind, got %+v", field)
	}
	if got := store.Source("leave-request"); got != "leave.yaml" {
		t.Fatalf("source = %q", got)
	}

	aForm, _ := store.Get("a-form")
	if aForm.Tables[0].Title != "Lines" {
		t.Fatalf("expected table title, got %q", aForm.Tables[0].Title)
	}
}

func TestLoadFSRejectsDuplicates(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte("id: same\nsections: [{id: s, fields: [{name: x}]}]\n")},
		"b.yaml": {Data: []byte("id: same\nsections: [{id: s, fields: [{name: y}]}]\n")},
	}
	_, err := LoadFS(fsys)
	if err == nil || !strings.Contains(err.Error(), `duplicate form "same" (files a.yaml and b.yaml)`) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestLoadFSReportsParseErrors(t *testing.T) {
	cases := map[string]string{
		"empty.yaml":   "   \n",
		"broken.yaml":  "id: [unterminated\n",
		"noforms.json": `{"title": "No id"}`,
	}
	wants := map[string]string{
		"empty.yaml":   "definition: file empty.yaml is empty",
		"broken.yaml":  "definition: parse broken.yaml: invalid JSON or YAML",
		"noforms.json": "definition: file noforms.json defines no forms",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFS(fstest.MapFS{name: {Data: []byte(data)}})
			if err == nil || err.Error() != wants[name] {
				t.Fatalf("expected %q, got %v", wants[name], err)
			}
		})
	}
}

func TestLoadFSInvalidDefinition(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.yaml": {Data: []byte(`
id: bad
sections:
  - id: main
    fields:
      - name: choice
        kind: select
`)},
	}
	_, err := LoadFS(fsys)
	if !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}
	if !strings.Contains(err.Error(), `select field "choice" needs options`) || !strings.Contains(err.Error(), "(file bad.yaml)") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestLoadFSNilFilesystem(t *testing.T) {
	store, err := LoadFS(nil)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if !store.Empty() {
		t.Fatalf("expected empty store")
	}
}

func TestLoadFSCustomDecorators(t *testing.T) {
	fsys := fstest.MapFS{"f.yaml": {Data: []byte("id: plain\nsections: [{id: s, fields: [{name: note_text}]}]\n")}}
	tagged := model.DecoratorFunc(func(def *model.FormDefinition) error {
		def.Category = "tagged"
		return nil
	})
	store, err := LoadFS(fsys, WithDecorators(tagged))
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	def, _ := store.Get("plain")
	if def.Category != "tagged" || def.Title != "" {
		t.Fatalf("expected only the custom decorator to run, got %+v", def)
	}

	failing := model.DecoratorFunc(func(*model.FormDefinition) error { return errors.New("boom") })
	if _, err := LoadFS(fsys, WithDecorators(failing)); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected decorator error, got %v", err)
	}
}

func TestLoadEmbedded(t *testing.T) {
	store, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	if diff := cmp.Diff([]string{"expense-claim", "purchase-order", "timesheet"}, store.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	po, _ := store.Get("purchase-order")
	items, ok := po.Table("items")
	if !ok || !items.DynamicColumns || items.MinRows != 1 {
		t.Fatalf("unexpected items table: %+v", items)
	}
	poNumber, _ := po.Field("poNumber")
	if got := poNumber.Validations[0].Params["pattern"]; got != `^PO-\d{4}$` {
		t.Fatalf("pattern = %q", got)
	}
	reason, _ := po.Field("urgencyReason")
	if diff := cmp.Diff("priority == 'urgent'", reason.VisibleWhen); diff != "" {
		t.Fatalf("visibleWhen mismatch (-want +got):\n%s", diff)
	}
	if po.Approvals == nil || len(po.Approvals.Roles) != 3 {
		t.Fatalf("expected approval roles, got %+v", po.Approvals)
	}
}

func TestStoreGet(t *testing.T) {
	store := NewStore()
	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	def := model.FormDefinition{ID: "x", Sections: []model.Section{{ID: "s", Fields: []model.Field{{Name: "a"}}}}}
	if err := store.Register(def); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := store.Register(def); err == nil || err.Error() != `definition: duplicate form "x"` {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	got, err := store.Get("x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(def, got); diff != "" {
		t.Fatalf("definition mismatch (-want +got):\n%s", diff)
	}
}
