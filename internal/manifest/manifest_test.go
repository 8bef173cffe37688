package manifest

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const jsonManifest = `{
  "id": "org.example.App",
  "runtime": "org.gnome.Platform",
  "runtime-version": "47",
  "sdk": "org.gnome.Sdk",
  "command": "example-app",
  "finish-args": ["--share=ipc", "--socket=wayland"],
  "x-run-args": ["--verbose"],
  "modules": [
    "shared-modules/libfoo.json",
    {
      "name": "example-app",
      "buildsystem": "meson",
      "config-opts": ["-Dprofile=development"],
      "post-install": ["install -Dm644 data/icon.svg /app/share/icons/icon.svg"]
    }
  ]
}`

const yamlManifest = `app-id: org.example.Yaml
runtime: org.freedesktop.Platform
runtime-version: "24.08"
sdk: org.freedesktop.Sdk
command: yaml-app
modules:
  - name: yaml-app
    buildsystem: simple
    build-commands:
      - make PREFIX=/app install
`

func TestParse_JSON(t *testing.T) {
	m, err := Parse([]byte(jsonManifest), ".json")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if m.ID != "org.example.App" {
		t.Errorf("ID = %q, want %q", m.ID, "org.example.App")
	}
	if m.SDKRef() != "org.gnome.Sdk//47" {
		t.Errorf("SDKRef() = %q", m.SDKRef())
	}
	if !reflect.DeepEqual(m.FinishArgs, []string{"--share=ipc", "--socket=wayland"}) {
		t.Errorf("FinishArgs = %v", m.FinishArgs)
	}
	if !reflect.DeepEqual(m.RunArgs, []string{"--verbose"}) {
		t.Errorf("RunArgs = %v", m.RunArgs)
	}
	if len(m.Modules) != 2 {
		t.Fatalf("len(Modules) = %d, want 2", len(m.Modules))
	}
	if !m.Modules[0].Reference || m.Modules[0].Name != "shared-modules/libfoo.json" {
		t.Errorf("Modules[0] = %+v, want reference", m.Modules[0])
	}

	last, ok := m.LastModule()
	if !ok {
		t.Fatal("LastModule should exist")
	}
	if last.Name != "example-app" || last.BuildSystem != BuildSystemMeson {
		t.Errorf("LastModule() = %+v", last)
	}
	if len(last.PostInstall) != 1 {
		t.Errorf("PostInstall = %v", last.PostInstall)
	}
}

func TestParse_YAMLWithAppID(t *testing.T) {
	m, err := Parse([]byte(yamlManifest), ".yml")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if m.ID != "org.example.Yaml" {
		t.Errorf("ID = %q, want app-id value", m.ID)
	}
	if m.RuntimeVersion != "24.08" {
		t.Errorf("RuntimeVersion = %q", m.RuntimeVersion)
	}
	last, _ := m.LastModule()
	if last.BuildSystem != BuildSystemSimple || len(last.BuildCommands) != 1 {
		t.Errorf("LastModule() = %+v", last)
	}
}

func TestParse_YAMLReferenceModule(t *testing.T) {
	data := "id: org.example.Ref\nmodules:\n  - libs/dep.yml\n"
	m, err := Parse([]byte(data), ".yaml")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(m.Modules) != 1 || !m.Modules[0].Reference || m.Modules[0].Name != "libs/dep.yml" {
		t.Errorf("Modules = %+v", m.Modules)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		ext  string
	}{
		{"invalid json", "{", ".json"},
		{"invalid yaml", "id: [", ".yaml"},
		{"missing id", `{"command": "x"}`, ".json"},
		{"invalid id", `{"id": "notdbus"}`, ".json"},
		{"unsupported extension", `{"id": "org.example.App"}`, ".toml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data), tt.ext); err == nil {
				t.Error("Parse should fail")
			}
		})
	}
}

func TestValidateAppID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"org.example.App", true},
		{"org.example.App_Devel", true},
		{"org.example.my-app", true},
		{"com.a1.b2", true},
		{"org", false},
		{"", false},
		{"org..App", false},
		{".org.App", false},
		{"org.example.", false},
		{"org.1example.App", false},
		{"org.example.App!", false},
		{"org.exämple.App", false},
		{"org." + strings.Repeat("a", 252), false},
		{"org." + strings.Repeat("a", 251), true},
	}

	for _, tt := range tests {
		err := ValidateAppID(tt.id)
		if (err == nil) != tt.valid {
			t.Errorf("ValidateAppID(%q) error = %v, want valid=%v", tt.id, err, tt.valid)
		}
	}
}

func TestLoad_SetsAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "org.example.App.json")
	if err := os.WriteFile(path, []byte(jsonManifest), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if m.Path != path {
		t.Errorf("Path = %q, want %q", m.Path, path)
	}
}

func TestIsManifestFile(t *testing.T) {
	tests := map[string]bool{
		"app.json":  true,
		"app.yaml":  true,
		"app.yml":   true,
		"APP.JSON":  true,
		"app.toml":  false,
		"README.md": false,
	}
	for path, want := range tests {
		if got := IsManifestFile(path); got != want {
			t.Errorf("IsManifestFile(%q) = %v, want %v", path, got, want)
		}
	}
}
