package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Build systems understood for the application module.
const (
	BuildSystemMeson      = "meson"
	BuildSystemCMake      = "cmake"
	BuildSystemCMakeNinja = "cmake-ninja"
	BuildSystemSimple     = "simple"
	BuildSystemAutotools  = "autotools"
)

const maxAppIDLength = 255

// Module is one entry of a manifest's modules list. A Reference module
// names an external module file and carries no build instructions.
type Module struct {
	Name          string   `json:"name" yaml:"name"`
	BuildSystem   string   `json:"buildsystem,omitempty" yaml:"buildsystem,omitempty"`
	ConfigOpts    []string `json:"config-opts,omitempty" yaml:"config-opts,omitempty"`
	BuildCommands []string `json:"build-commands,omitempty" yaml:"build-commands,omitempty"`
	PostInstall   []string `json:"post-install,omitempty" yaml:"post-install,omitempty"`
	Reference     bool     `json:"-" yaml:"-"`
}

// moduleFields avoids recursing into the custom unmarshalers.
type moduleFields Module

// UnmarshalJSON accepts either a module object or a reference string.
func (m *Module) UnmarshalJSON(data []byte) error {
	var ref string
	if err := json.Unmarshal(data, &ref); err == nil {
		*m = Module{Name: ref, Reference: true}
		return nil
	}
	var fields moduleFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*m = Module(fields)
	return nil
}

// UnmarshalYAML accepts either a module mapping or a reference string.
func (m *Module) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*m = Module{Name: node.Value, Reference: true}
		return nil
	}
	var fields moduleFields
	if err := node.Decode(&fields); err != nil {
		return err
	}
	*m = Module(fields)
	return nil
}

// Manifest is a parsed Flatpak application manifest. Only the fields the
// build and run pipeline needs are decoded.
type Manifest struct {
	// Path is the absolute location of the manifest file.
	Path string `json:"-" yaml:"-"`

	ID             string   `json:"id" yaml:"id"`
	AppID          string   `json:"app-id" yaml:"app-id"`
	SDK            string   `json:"sdk" yaml:"sdk"`
	Runtime        string   `json:"runtime" yaml:"runtime"`
	RuntimeVersion string   `json:"runtime-version" yaml:"runtime-version"`
	Command        string   `json:"command" yaml:"command"`
	FinishArgs     []string `json:"finish-args" yaml:"finish-args"`
	RunArgs        []string `json:"x-run-args" yaml:"x-run-args"`
	Modules        []Module `json:"modules" yaml:"modules"`
}

// AppIDValue returns the application identifier, preferring id over app-id.
func (m *Manifest) AppIDValue() string {
	if m.ID != "" {
		return m.ID
	}
	return m.AppID
}

// LastModule returns the final module, which is the application itself.
func (m *Manifest) LastModule() (Module, bool) {
	if len(m.Modules) == 0 {
		return Module{}, false
	}
	return m.Modules[len(m.Modules)-1], true
}

// SDKRef returns the SDK as a flatpak ref, e.g. org.gnome.Sdk//47.
func (m *Manifest) SDKRef() string {
	return m.SDK + "//" + m.RuntimeVersion
}

// IsManifestFile reports whether path has a manifest extension.
func IsManifestFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	m.Path = abs
	return m, nil
}

// Parse decodes manifest data in the format named by ext and validates the
// application identifier.
func Parse(data []byte, ext string) (*Manifest, error) {
	var m Manifest
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid JSON manifest: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("invalid YAML manifest: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", ext)
	}

	id := m.AppIDValue()
	if err := ValidateAppID(id); err != nil {
		return nil, err
	}
	m.ID = id
	return &m, nil
}

// ValidateAppID checks that id is a valid D-Bus well-known name.
func ValidateAppID(id string) error {
	if id == "" {
		return fmt.Errorf("missing application id")
	}
	if len(id) > maxAppIDLength {
		return fmt.Errorf("invalid application id %q: longer than %d characters", id, maxAppIDLength)
	}
	elements := strings.Split(id, ".")
	if len(elements) < 2 {
		return fmt.Errorf("invalid application id %q: needs at least two elements", id)
	}
	for _, el := range elements {
		if el == "" {
			return fmt.Errorf("invalid application id %q: empty element", id)
		}
		if el[0] >= '0' && el[0] <= '9' {
			return fmt.Errorf("invalid application id %q: element %q starts with a digit", id, el)
		}
		for _, c := range el {
			if !isNameChar(c) {
				return fmt.Errorf("invalid application id %q: invalid character %q", id, c)
			}
		}
	}
	return nil
}

func isNameChar(c rune) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '_' || c == '-'
}
