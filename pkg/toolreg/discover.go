package toolreg

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Discovered is one tool found by a probe, before it is wrapped into a
// registry entry.
type Discovered struct {
	Name        string
	Description string
	Schema      map[string]any
	Path        string
}

// probeTimeout bounds every discovery probe invocation so a hanging script
// cannot stall the whole discovery pass.
const probeTimeout = 2 * time.Second

// DiscoverDir runs the three auto-discovery probes against
// every executable file directly under dir, in probe order, taking the
// first probe that succeeds for each candidate. A probe that fails or times
// out is skipped, not fatal — auto-discovery is best-effort by design.
func DiscoverDir(dir string) ([]Discovered, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Discovered
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Mode()&0111 == 0 {
			continue
		}
		path := filepath.Join(dir, e.Name())
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))

		if d, ok := probeSimpleJSON(path, name); ok {
			out = append(out, d)
			continue
		}
		if ds, ok := probeSchemaDump(path, name); ok {
			out = append(out, ds...)
			continue
		}
		if d, ok := probeHelpParse(path, name); ok {
			out = append(out, d)
			continue
		}
	}
	return out, nil
}

func runProbe(path string, args ...string) (stdout []byte, ok bool) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		return nil, false
	}
	return out.Bytes(), true
}

// probeSimpleJSON: invoking the script with a single `{"__test__": true}`
// JSON argument and
// getting back parseable JSON on stdout marks it as a simple-json tool
// (probe 1, tried first).
func probeSimpleJSON(path, name string) (Discovered, bool) {
	out, ok := runProbe(path, `{"__test__": true}`)
	if !ok {
		return Discovered{}, false
	}
	var v any
	if err := json.Unmarshal(bytes.TrimSpace(out), &v); err != nil {
		return Discovered{}, false
	}
	return Discovered{
		Name:        name,
		Description: "auto-discovered simple-json tool",
		Schema:      map[string]any{"type": "object"},
		Path:        path,
	}, true
}

// probeSchemaDump: invoking the script with --fractalic-dump-schema and
// getting back a single JSON Schema document on stdout (probe 2), or, when
// that fails, --fractalic-dump-multi-schema and getting back a JSON array
// of tool schemas — one script exposing several tools under distinct
// names, each schema's own "name" field taking precedence over the
// executable's file name.
func probeSchemaDump(path, name string) ([]Discovered, bool) {
	if out, ok := runProbe(path, "--fractalic-dump-schema"); ok {
		var schema map[string]any
		if err := json.Unmarshal(bytes.TrimSpace(out), &schema); err == nil {
			desc, _ := schema["description"].(string)
			return []Discovered{{Name: name, Description: desc, Schema: schema, Path: path}}, true
		}
	}

	out, ok := runProbe(path, "--fractalic-dump-multi-schema")
	if !ok {
		return nil, false
	}
	var schemas []map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(out), &schemas); err != nil || len(schemas) == 0 {
		return nil, false
	}
	discovered := make([]Discovered, 0, len(schemas))
	for _, schema := range schemas {
		toolName, _ := schema["name"].(string)
		if toolName == "" {
			toolName = name
		}
		desc, _ := schema["description"].(string)
		discovered = append(discovered, Discovered{Name: toolName, Description: desc, Schema: schema, Path: path})
	}
	return discovered, true
}

// flagPattern matches a long CLI flag ("--foo-bar") in a --help usage
// line, capturing its name.
var flagPattern = regexp.MustCompile(`--([a-zA-Z][a-zA-Z0-9-]*)`)

// probeHelpParse: invoking the script with --help, deriving a best-effort
// description from the first non-empty output line, and a parameter
// schema from the "--flag" patterns named on any output line (probe 3,
// the weakest and last-tried probe). A run with no recognizable flags
// falls back to a permissive free-form object schema.
func probeHelpParse(path, name string) (Discovered, bool) {
	out, ok := runProbe(path, "--help")
	if !ok {
		return Discovered{}, false
	}
	lines := strings.Split(string(out), "\n")
	desc := ""
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			desc = l
			break
		}
	}
	if desc == "" {
		return Discovered{}, false
	}

	properties := map[string]any{}
	for _, l := range lines {
		for _, m := range flagPattern.FindAllStringSubmatchIndex(l, -1) {
			flag := l[m[2]:m[3]]
			if flag == "help" {
				continue
			}
			prop := map[string]any{"type": "string"}
			if rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l[m[1]:]), "=")); rest != "" {
				prop["description"] = rest
			}
			properties[strings.ReplaceAll(flag, "-", "_")] = prop
		}
	}

	schema := map[string]any{"type": "object", "additionalProperties": true}
	if len(properties) > 0 {
		schema["properties"] = properties
		schema["additionalProperties"] = false
	}

	return Discovered{
		Name:        name,
		Description: desc,
		Schema:      schema,
		Path:        path,
	}, true
}
