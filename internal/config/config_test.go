package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadBlankPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formdoc.yaml")
	data := `
server:
  addr: 127.0.0.1:9000
  readTimeout: 5s
log:
  level: debug
forms:
  dir: ./forms
storage:
  sink: badger
  path: ./data
render:
  placeholder: N/A
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	want.Server.Addr = "127.0.0.1:9000"
	want.Server.ReadTimeout = 5 * time.Second
	want.Log.Level = "debug"
	want.Forms.Dir = "./forms"
	want.Storage = StorageConfig{Sink: "badger", Path: "./data"}
	want.Render.Placeholder = "N/A"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	_, err := Parse([]byte("storage:\n  sink: s3\nlog:\n  level: loud\n"), Default())
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	for _, want := range []string{"Config.Log.Level failed oneof", "Config.Storage.Sink failed oneof"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestParseRequiresBadgerPath(t *testing.T) {
	_, err := Parse([]byte("storage:\n  sink: badger\n"), Default())
	if err == nil || !strings.Contains(err.Error(), "Config.Storage.Path failed required_if") {
		t.Fatalf("expected required_if failure, got %v", err)
	}
	if _, err := Parse([]byte("storage:\n  sink: badger\n  inMemory: true\n"), Default()); err != nil {
		t.Fatalf("in-memory badger needs no path: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}
