package formdoc

import (
	"context"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

const leaveForm = `id: leave-request
title: Leave Request
sections:
  - id: employee
    fields:
      - name: employee
        required: true
      - name: days
        kind: number
`

func TestLoadFormsDefaultsToSamples(t *testing.T) {
	store, err := LoadForms(nil)
	if err != nil {
		t.Fatalf("LoadForms: %v", err)
	}
	if diff := cmp.Diff([]string{"expense-claim", "purchase-order", "timesheet"}, store.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateHTML(t *testing.T) {
	store, err := LoadForms(fstest.MapFS{"leave.yaml": {Data: []byte(leaveForm)}})
	if err != nil {
		t.Fatalf("LoadForms: %v", err)
	}
	def, err := store.Get("leave-request")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	edit, err := GenerateHTML(context.Background(), def, map[string]any{"employee": "Ada"}, WithAction("/leave"))
	if err != nil {
		t.Fatalf("GenerateHTML: %v", err)
	}
	for _, want := range []string{`action="/leave"`, `value="Ada"`} {
		if !strings.Contains(string(edit), want) {
			t.Fatalf("expected %q in edit output:\n%s", want, edit)
		}
	}

	printed, err := GenerateHTML(context.Background(), def, nil, WithPrint(), WithPlaceholder("n/a"), WithStandalone())
	if err != nil {
		t.Fatalf("GenerateHTML print: %v", err)
	}
	if strings.Contains(string(printed), "<input") {
		t.Fatalf("print output should not contain inputs:\n%s", printed)
	}
	if !strings.Contains(string(printed), "n/a") {
		t.Fatalf("expected placeholder in print output:\n%s", printed)
	}
}

func TestGenerateHTMLForEmbeddedForms(t *testing.T) {
	store, err := LoadForms(nil)
	if err != nil {
		t.Fatalf("LoadForms: %v", err)
	}
	for _, def := range store.List() {
		def := def
		t.Run(def.ID, func(t *testing.T) {
			edit, err := GenerateHTML(context.Background(), def, nil, WithAction("/forms/"+def.ID))
			if err != nil {
				t.Fatalf("GenerateHTML edit: %v", err)
			}
			wants := []string{`<form class="formdoc-form"`, "<h1>" + def.Title + "</h1>", `value="submit"`}
			for _, table := range def.Tables {
				wants = append(wants, `value="add-row:`+table.Name+`"`)
			}
			for _, want := range wants {
				if !strings.Contains(string(edit), want) {
					t.Fatalf("expected %q in edit output:\n%s", want, edit)
				}
			}

			printed, err := GenerateHTML(context.Background(), def, nil, WithPrint(), WithStandalone())
			if err != nil {
				t.Fatalf("GenerateHTML print: %v", err)
			}
			out := string(printed)
			if !strings.HasPrefix(out, "<!DOCTYPE html>") || !strings.Contains(out, `class="formdoc-document"`) {
				t.Fatalf("expected standalone print document:\n%s", out)
			}
			for _, control := range []string{"<input", "<select", "<textarea", "<button"} {
				if strings.Contains(out, control) {
					t.Fatalf("print output contains %q:\n%s", control, out)
				}
			}
		})
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	entries, err := fs.ReadDir(EmbeddedTemplates(), "templates")
	if err != nil || len(entries) == 0 {
		t.Fatalf("expected embedded templates, got %v (%v)", entries, err)
	}
	if _, err := fs.Stat(EmbeddedAssets(), "formdoc.css"); err != nil {
		t.Fatalf("expected stylesheet: %v", err)
	}
}
