package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lychee-technology/ldstore"
)

func TestMaxLabelUnbounded(t *testing.T) {
	if got := maxLabel(ldcore.Cardinality{Min: 0, Max: -1}); got != "*" {
		t.Errorf("expected *, got %q", got)
	}
}

func TestMaxLabelBounded(t *testing.T) {
	if got := maxLabel(ldcore.Cardinality{Min: 1, Max: 1}); got != "1" {
		t.Errorf("expected 1, got %q", got)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil || !strings.Contains(err.Error(), "read config file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := loadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "parse config JSON") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoadConfigAppliesOverridesOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"store": {"dsn": "postgres://example/db", "graphUri": "urn:graph:test"}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Store.DSN != "postgres://example/db" {
		t.Errorf("expected dsn to be overridden, got %q", cfg.Store.DSN)
	}
	if cfg.Store.GraphURI != "urn:graph:test" {
		t.Errorf("expected graphURI to be overridden, got %q", cfg.Store.GraphURI)
	}
	// Defaults not touched by the override JSON must survive untouched.
	def := ldcore.DefaultConfig()
	if cfg.Loader.MaxRounds != def.Loader.MaxRounds {
		t.Errorf("expected loader defaults to survive, got %d want %d", cfg.Loader.MaxRounds, def.Loader.MaxRounds)
	}
}

func TestRunShapesListsRegisteredNames(t *testing.T) {
	out := captureStdout(t, func() {
		if err := runShapes(nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
	if !strings.Contains(out, "person") || !strings.Contains(out, "document") {
		t.Errorf("expected both registered shape names in output, got %q", out)
	}
}

func TestRunShapesDescribesKnownShape(t *testing.T) {
	out := captureStdout(t, func() {
		if err := runShapes([]string{"-shape", "person"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
	if !strings.Contains(out, "http://example.org/ns#Person") {
		t.Errorf("expected target class in output, got %q", out)
	}
	if !strings.Contains(out, "knows") {
		t.Errorf("expected knows property in output, got %q", out)
	}
}

func TestRunShapesUnknownShapeErrors(t *testing.T) {
	err := runShapes([]string{"-shape", "nonexistent"})
	if err == nil || !strings.Contains(err.Error(), "no registered shape") {
		t.Fatalf("expected unknown-shape error, got %v", err)
	}
}

func TestRunGetRequiresConfigShapeAndID(t *testing.T) {
	err := runGet(nil)
	if err == nil || !strings.Contains(err.Error(), "required") {
		t.Fatalf("expected missing-flags error, got %v", err)
	}
}

// captureStdout redirects os.Stdout for the duration of fn and returns
// everything written to it.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}
