package toolreg

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fractalic-ai/fractalic/pkg/config"
	"github.com/fractalic-ai/fractalic/pkg/ferr"
)

// source records which of the three priority tiers registered an entry, so
// Rescan can rebuild deterministically: explicit manifests > auto
// discovered scripts > remote MCP servers.
type source int

const (
	sourceManifest source = iota
	sourceDiscovered
	sourceRemote
)

// Entry is one callable tool as seen by @llm's tool-call loop.
type Entry struct {
	Name        string
	Description string
	Schema      map[string]any
	source      source
	call        func(ctx context.Context, args json.RawMessage) (json.RawMessage, error)
}

// Registry is the merged view of manifests, auto-discovered scripts, and
// remote MCP servers, keyed by tool name with "local wins" collision rules.
type Registry struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	manifests  []*Manifest
	scriptsDir string
	servers    []config.MCPServer
	remotes    map[string]*mcpServer
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: map[string]*Entry{}, remotes: map[string]*mcpServer{}}
}

// LoadManifests loads and registers explicit tool manifests from dir
// (highest priority tier).
func (r *Registry) LoadManifests(dir string) error {
	ms, err := LoadManifestDir(dir)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifests = ms
	for _, m := range ms {
		r.registerLocked(&Entry{
			Name:        m.Name,
			Description: m.Description,
			Schema:      m.Schema,
			source:      sourceManifest,
			call:        manifestCaller(m),
		})
	}
	return nil
}

func manifestCaller(m *Manifest) func(context.Context, json.RawMessage) (json.RawMessage, error) {
	return func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		switch m.Kind {
		case KindSimpleJSON:
			return callSimpleJSON(ctx, m.Entry, args)
		case KindPythonCLI, KindBashCLI:
			return callCLIFlags(ctx, m.Entry, args)
		default:
			return nil, ferr.New(ferr.KindInternal, "manifest %q: unhandled kind %q", m.Name, m.Kind)
		}
	}
}

// DiscoverScripts runs the auto-discovery probes over dir (middle priority
// tier). Entries here never override a manifest-registered name of the
// same tool.
func (r *Registry) DiscoverScripts(dir string) error {
	found, err := DiscoverDir(dir)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scriptsDir = dir
	for _, d := range found {
		path := d.Path
		r.registerLocked(&Entry{
			Name:        d.Name,
			Description: d.Description,
			Schema:      d.Schema,
			source:      sourceDiscovered,
			call: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
				return callSimpleJSON(ctx, path, args)
			},
		})
	}
	return nil
}

// ConnectMCPServers dials every configured remote server and registers its
// advertised tools (lowest priority tier: local wins over remote — a
// name already claimed by a manifest or discovered script is
// left untouched).
func (r *Registry) ConnectMCPServers(ctx context.Context, servers []config.MCPServer) error {
	r.mu.Lock()
	r.servers = servers
	r.mu.Unlock()

	for _, srv := range servers {
		conn, err := dialMCP(ctx, srv)
		if err != nil {
			return err
		}
		r.mu.Lock()
		r.remotes[srv.Name] = conn
		for name := range conn.tools {
			toolName := name
			r.registerLocked(&Entry{
				Name:        toolName,
				Description: "remote tool from mcp server " + srv.Name,
				Schema:      map[string]any{"type": "object"},
				source:      sourceRemote,
				call: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
					return conn.CallTool(ctx, toolName, args)
				},
			})
		}
		r.mu.Unlock()
	}
	return nil
}

// registerLocked applies the "local wins over remote" rule: a remote entry
// never overwrites an existing manifest or discovered entry, but manifests
// and discovered scripts freely overwrite whatever was registered first
// within their own tier (last one loaded wins ties inside a tier).
func (r *Registry) registerLocked(e *Entry) {
	existing, ok := r.entries[e.Name]
	if ok && e.source == sourceRemote && existing.source != sourceRemote {
		return
	}
	r.entries[e.Name] = e
}

// Rescan clears and rebuilds the registry from the manifests it already
// loaded, its last-known script directory, and its server list.
func (r *Registry) Rescan(ctx context.Context) error {
	r.mu.Lock()
	dir := r.scriptsDir
	servers := r.servers
	for _, conn := range r.remotes {
		conn.kill()
	}
	r.entries = map[string]*Entry{}
	r.remotes = map[string]*mcpServer{}
	manifests := r.manifests
	r.mu.Unlock()

	r.mu.Lock()
	for _, m := range manifests {
		r.registerLocked(&Entry{
			Name: m.Name, Description: m.Description, Schema: m.Schema,
			source: sourceManifest, call: manifestCaller(m),
		})
	}
	r.mu.Unlock()

	if dir != "" {
		if err := r.DiscoverScripts(dir); err != nil {
			return err
		}
	}
	if len(servers) > 0 {
		if err := r.ConnectMCPServers(ctx, servers); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the entry for name, if any.
func (r *Registry) Get(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// List returns every registered tool name.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	return out
}

// Call invokes a tool by name with JSON-encoded arguments and returns a
// JSON-encoded result, the uniform surface every tier presents.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	e, ok := r.Get(name)
	if !ok {
		return nil, ferr.New(ferr.KindTool, "unknown tool %q", name)
	}
	return e.call(ctx, args)
}

// Close terminates every remote MCP server connection.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conn := range r.remotes {
		conn.kill()
	}
}
