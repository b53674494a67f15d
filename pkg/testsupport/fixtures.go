// Package testsupport holds fixture helpers shared by package tests: form
// definitions parsed from inline sources, documents built from them and
// temporary forms directories.
package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/goliatone/go-formdoc/pkg/definition"
	"github.com/goliatone/go-formdoc/pkg/document"
	"github.com/goliatone/go-formdoc/pkg/model"
)

// MustParseDefinition parses a single JSON or YAML form definition, applies
// the default decorators and checks it.
func MustParseDefinition(t *testing.T, source string) model.FormDefinition {
	t.Helper()

	defs, err := definition.Parse([]byte(source), "inline")
	if err != nil {
		t.Fatalf("parse definition: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected one definition, got %d", len(defs))
	}
	def := defs[0]
	if err := model.DefaultLabels.Decorate(&def); err != nil {
		t.Fatalf("decorate definition: %v", err)
	}
	if err := definition.Check(def); err != nil {
		t.Fatalf("check definition: %v", err)
	}
	return def
}

// MustDocument builds a document for def, failing the test on error.
func MustDocument(t *testing.T, def model.FormDefinition, opts ...document.Option) *document.Document {
	t.Helper()

	doc, err := document.New(def, opts...)
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc
}

// MustBind binds every path/value pair in sorted path order.
func MustBind(t *testing.T, doc *document.Document, values map[string]string) {
	t.Helper()

	paths := make([]string, 0, len(values))
	for path := range values {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if err := doc.Bind(path, values[path]); err != nil {
			t.Fatalf("bind %s: %v", path, err)
		}
	}
}

// FormsDir writes files (name to content) into a temporary directory and
// returns its path.
func FormsDir(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		WriteFile(t, filepath.Join(dir, name), content)
	}
	return dir
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
