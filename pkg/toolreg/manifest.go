// Package toolreg implements the tool registry: explicit manifests,
// auto-discovered scripts, and remote MCP servers merged under a single
// call(name, json_args) -> json_result surface, with local entries always
// winning name collisions against remote ones. Grounded on gert's
// pkg/tools package (manifest loading, stdio invocation, and its hand
// rolled MCP client), adapted to Fractalic's three-tier priority rule.
package toolreg

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fractalic-ai/fractalic/pkg/ferr"
)

// ManifestKind selects how a manifest-declared tool is invoked.
type ManifestKind string

const (
	KindPythonCLI  ManifestKind = "python-cli"
	KindBashCLI    ManifestKind = "bash-cli"
	KindSimpleJSON ManifestKind = "simple-json"
)

// Manifest is one explicitly declared tool. Explicit manifests take
// highest priority.
type Manifest struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Schema      map[string]any `yaml:"schema"`
	Kind        ManifestKind   `yaml:"kind"`
	Entry       string         `yaml:"entry"`
}

func (m *Manifest) validate() error {
	if m.Name == "" {
		return ferr.New(ferr.KindParse, "manifest missing name")
	}
	if m.Entry == "" {
		return ferr.New(ferr.KindParse, "manifest %q missing entry", m.Name)
	}
	switch m.Kind {
	case KindPythonCLI, KindBashCLI, KindSimpleJSON:
	default:
		return ferr.New(ferr.KindParse, "manifest %q has unknown kind %q", m.Name, m.Kind)
	}
	return nil
}

// LoadManifest decodes a single manifest file (YAML, strict fields).
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ferr.Wrap(ferr.KindParse, err, "open manifest %s", path)
	}
	defer f.Close()

	var m Manifest
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, ferr.Wrap(ferr.KindParse, err, "decode manifest %s", path)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifestDir loads every *.yaml/*.yml file directly under dir as a
// manifest. Missing directories are not an error (manifests are optional).
func LoadManifestDir(dir string) ([]*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ferr.Wrap(ferr.KindParse, err, "read manifest dir %s", dir)
	}

	var out []*Manifest
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		m, err := LoadManifest(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
