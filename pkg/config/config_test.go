package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("FRACTALIC_DEFAULT_PROVIDER", "anthropic")
	t.Setenv("FRACTALIC_DEFAULT_OPERATION", "replace")

	dir := t.TempDir()
	path := filepath.Join(dir, "fractalic.yaml")
	if err := os.WriteFile(path, []byte("defaultProvider: openai\ndefaultOperation: append\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultProvider != "anthropic" {
		t.Fatalf("expected env override for provider, got %q", cfg.DefaultProvider)
	}
	if cfg.DefaultOperation != "replace" {
		t.Fatalf("expected env override for operation, got %q", cfg.DefaultOperation)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fractalic.yaml")
	if err := os.WriteFile(path, []byte("defaultProvider: openai\nbogusKey: true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error decoding an unknown top-level key")
	}
}

func TestMCPServerDisabledEnvOverride(t *testing.T) {
	t.Setenv("FRACTALIC_MCP_MY_SERVER_DISABLED", "yes")

	dir := t.TempDir()
	path := filepath.Join(dir, "fractalic.yaml")
	body := "mcpServers:\n  - name: \"my server\"\n    command: echo\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.MCPServers) != 1 {
		t.Fatalf("expected one mcp server, got %d", len(cfg.MCPServers))
	}
	if !cfg.MCPServers[0].Disabled {
		t.Fatal("expected the env override to disable the mcp server")
	}
}

func TestParseBoolLoose(t *testing.T) {
	truthy := []string{"1", "t", "true", "True", "yes", "YES", "y", "on"}
	for _, v := range truthy {
		if !ParseBoolLoose(v) {
			t.Errorf("expected %q to parse as true", v)
		}
	}
	falsy := []string{"", "0", "false", "no", "off", "garbage"}
	for _, v := range falsy {
		if ParseBoolLoose(v) {
			t.Errorf("expected %q to parse as false", v)
		}
	}
}

func TestJSONSchemaProducesValidDocument(t *testing.T) {
	data, err := JSONSchema()
	if err != nil {
		t.Fatalf("JSONSchema: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty schema output")
	}
}
