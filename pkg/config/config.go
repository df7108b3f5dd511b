// Package config loads the engine's configuration surface. Grounded on gert's
// pkg/kernel/schema/loader.go: a strict yaml.v3 decode with KnownFields
// enabled so a typo'd key is a load-time error, not a silently ignored
// no-op, plus gert's cmd/gert/main.go .env-then-flags precedence.
package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/fractalic-ai/fractalic/pkg/ferr"
)

// ProviderConfig is one per-provider section.
type ProviderConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"apiKey"`
	// Limits carries provider-specific restrictions, e.g. the O-series
	// models rejecting top_p and non-1 temperature.
	Limits map[string]any `yaml:"limits,omitempty"`
}

// MCPServer is one remote tool server endpoint.
type MCPServer struct {
	Name     string   `yaml:"name"`
	Command  string   `yaml:"command,omitempty"` // stdio transport: binary to spawn
	Args     []string `yaml:"args,omitempty"`
	URL      string   `yaml:"url,omitempty"` // http/sse transport
	Disabled bool     `yaml:"disabled,omitempty"`
}

// Timeouts holds the operation-level suspension-point timeouts.
type Timeouts struct {
	Shell  time.Duration `yaml:"shell,omitempty"`
	LLM    time.Duration `yaml:"llm,omitempty"`
	Tool   time.Duration `yaml:"tool,omitempty"`
	Import time.Duration `yaml:"import,omitempty"`
}

func (t *Timeouts) applyDefaults() {
	if t.Shell == 0 {
		t.Shell = 2 * time.Minute
	}
	if t.LLM == 0 {
		t.LLM = 5 * time.Minute
	}
	if t.Tool == 0 {
		t.Tool = 30 * time.Second
	}
	if t.Import == 0 {
		t.Import = 10 * time.Second
	}
}

// Config is the fully resolved configuration surface.
type Config struct {
	DefaultProvider  string                    `yaml:"defaultProvider"`
	DefaultOperation string                    `yaml:"defaultOperation"`
	Providers        map[string]ProviderConfig `yaml:"providers,omitempty"`
	Env              map[string]string         `yaml:"env,omitempty"`
	MCPServers       []MCPServer               `yaml:"mcpServers,omitempty"`
	Timeouts         Timeouts                  `yaml:"timeouts,omitempty"`
	Snapshot         SnapshotConfig            `yaml:"snapshot,omitempty"`

	// ManifestsDir and ScriptsDir feed pkg/toolreg's two local tiers.
	// Both default to "tools" under the document's directory when empty.
	ManifestsDir string `yaml:"manifestsDir,omitempty"`
	ScriptsDir   string `yaml:"scriptsDir,omitempty"`
}

// SnapshotConfig selects and configures the version-store adapter.
type SnapshotConfig struct {
	Backend  string `yaml:"backend,omitempty"` // "file" (default) or "redis"
	Dir      string `yaml:"dir,omitempty"`
	RedisURL string `yaml:"redisUrl,omitempty"`
}

// Default returns the built-in defaults applied when no config file is
// found.
func Default() *Config {
	c := &Config{
		DefaultProvider:  "openai",
		DefaultOperation: "append",
	}
	c.Timeouts.applyDefaults()
	return c
}

// JSONSchema produces a JSON Schema Draft 2020-12 document describing the
// Config struct, for operators authoring a config file by hand. Grounded
// on gert's pkg/schema/export.go GenerateJSONSchema (same
// invopop/jsonschema.Reflector.Reflect call, generalized from gert's
// Runbook struct to Config).
func JSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&Config{})
	s.ID = "https://github.com/fractalic-ai/fractalic/schemas/config-v0.json"
	s.Title = "Fractalic engine configuration"
	s.Description = "Schema for a fractalic.yaml config file"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal config schema: %w", err)
	}
	return data, nil
}

// Load reads path with strict decoding, falling back to Default() if path
// does not exist, and applies FRACTALIC_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return applyEnvOverrides(cfg), nil
			}
			return nil, ferr.Wrap(ferr.KindParse, err, "open config %s", path)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, ferr.Wrap(ferr.KindParse, err, "decode config %s", path)
		}
	}
	cfg.Timeouts.applyDefaults()
	return applyEnvOverrides(cfg), nil
}

// Discover implements the config discovery order: explicit path, then
// ./fractalic.yaml, then $FRACTALIC_CONFIG, then built-in defaults.
func Discover(explicit string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	if _, err := os.Stat("fractalic.yaml"); err == nil {
		return Load("fractalic.yaml")
	}
	if env := os.Getenv("FRACTALIC_CONFIG"); env != "" {
		return Load(env)
	}
	return Default(), nil
}

func applyEnvOverrides(cfg *Config) *Config {
	if v := os.Getenv("FRACTALIC_DEFAULT_PROVIDER"); v != "" {
		cfg.DefaultProvider = v
	}
	if v := os.Getenv("FRACTALIC_DEFAULT_OPERATION"); v != "" {
		cfg.DefaultOperation = v
	}
	for i, s := range cfg.MCPServers {
		key := "FRACTALIC_MCP_" + envKey(s.Name) + "_DISABLED"
		if v := os.Getenv(key); v != "" {
			cfg.MCPServers[i].Disabled = ParseBoolLoose(v)
		}
	}
	return cfg
}

// envKey uppercases name and replaces every non-alphanumeric run with a
// single underscore, so an MCP server's free-form name becomes a valid
// FRACTALIC_MCP_<NAME>_DISABLED environment variable segment.
func envKey(name string) string {
	var b strings.Builder
	prevUnderscore := false
	for _, r := range strings.ToUpper(name) {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			prevUnderscore = false
			continue
		}
		if !prevUnderscore {
			b.WriteByte('_')
			prevUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// LoadDotEnv reads a .env file from dir (if present) and sets any
// variables not already present in the process environment. Grounded
// verbatim on gert's cmd/gert/main.go loadDotEnv.
func LoadDotEnv(dir string) {
	f, err := os.Open(filepath.Join(dir, ".env"))
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

// ShellEnv returns the environment slice for a spawned @shell session:
// the process's inherited environment plus the free-form env map
// and each configured provider's API key, exported as
// FRACTALIC_<PROVIDER>_API_KEY so shell scripts can reach it without the
// caller having to know provider names up front.
func (c *Config) ShellEnv() []string {
	env := os.Environ()
	for name, p := range c.Providers {
		if p.APIKey == "" {
			continue
		}
		key := "FRACTALIC_" + strings.ToUpper(name) + "_API_KEY"
		env = append(env, fmt.Sprintf("%s=%s", key, p.APIKey))
	}
	for k, v := range c.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}

// ParseBoolLoose accepts "true"/"t"/"1"/"yes"/"y"/"on" (case-insensitive,
// surrounding spaces ignored) as true,
// anything else as false. Used for env-var overrides of boolean config
// keys, which arrive as free-form strings rather than YAML's typed bools.
func ParseBoolLoose(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
