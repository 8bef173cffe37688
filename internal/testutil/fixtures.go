package testutil

import (
	"embed"
	"os"
	"path/filepath"
	"testing"
)

//go:embed fixtures/*
var fixturesFS embed.FS

// Fixture names.
const (
	AppManifest  = "org.example.App.json"
	ToolManifest = "org.example.Tool.yaml"
	NotManifest  = "not-a-manifest.json"
)

// LoadFixture loads a fixture file by name.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// WriteFixture copies the named fixture to dir/rel and returns the absolute
// path written.
func WriteFixture(t *testing.T, dir, name, rel string) string {
	t.Helper()

	data, err := LoadFixture(name)
	if err != nil {
		t.Fatalf("Failed to load fixture %s: %v", name, err)
	}
	if rel == "" {
		rel = name
	}
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", rel, err)
	}
	return path
}
