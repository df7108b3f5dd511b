package toolreg

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fractalic-ai/fractalic/pkg/config"
	"github.com/fractalic-ai/fractalic/pkg/ferr"
)

// mcpServer is a persistent remote tool server connection.
// MCP is JSON-RPC 2.0 over stdio with an initialize/initialized handshake
// followed by tools/list and tools/call. Adapted from gert's
// pkg/tools/mcp.go mcpProcess: gert only exercises
// github.com/mark3labs/mcp-go on the server side (pkg/ecosystem/mcp), and
// no local copy of that module was available to verify its client-side API
// surface, so the remote-tool-server client here is grounded on gert's
// own hand-rolled JSON-RPC transport instead of guessed library calls
// (see DESIGN.md).
type mcpServer struct {
	name   string
	cmd    *exec.Cmd
	stdin  *json.Encoder
	reader *bufio.Reader
	nextID int64
	tools  map[string]bool
	mu     sync.Mutex
	done   chan struct{}
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonrpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *jsonrpcError   `json:"error"`
}

type mcpContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type mcpCallResult struct {
	Content []mcpContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

// dialMCP spawns srv.Command (stdio transport) and performs the
// initialize handshake plus tools/list discovery.
func dialMCP(ctx context.Context, srv config.MCPServer) (*mcpServer, error) {
	if srv.Command == "" {
		return nil, ferr.New(ferr.KindTool, "mcp server %q: only stdio transport (command) is supported", srv.Name)
	}

	cmd := exec.CommandContext(ctx, srv.Command, srv.Args...)
	cmd.Env = os.Environ()

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, ferr.Wrap(ferr.KindTool, err, "mcp %s: stdin pipe", srv.Name)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, ferr.Wrap(ferr.KindTool, err, "mcp %s: stdout pipe", srv.Name)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, ferr.Wrap(ferr.KindTool, err, "mcp %s: stderr pipe", srv.Name)
	}

	if err := cmd.Start(); err != nil {
		return nil, ferr.Wrap(ferr.KindTool, err, "mcp %s: start", srv.Name)
	}

	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()
	go func() {
		scanner := bufio.NewScanner(stderrPipe)
		for scanner.Scan() {
			fmt.Fprintf(os.Stderr, "[mcp:%s] %s\n", srv.Name, scanner.Text())
		}
	}()

	p := &mcpServer{
		name:   srv.Name,
		cmd:    cmd,
		stdin:  json.NewEncoder(stdinPipe),
		reader: bufio.NewReader(stdout),
		tools:  make(map[string]bool),
		done:   done,
	}

	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := p.sendInitialize(initCtx); err != nil {
		p.kill()
		return nil, ferr.Wrap(ferr.KindTool, err, "mcp %s: initialize", srv.Name)
	}
	p.sendNotification("notifications/initialized", nil)

	if err := p.discoverTools(initCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[mcp:%s] warning: tools/list failed: %v\n", srv.Name, err)
	}
	return p, nil
}

func (p *mcpServer) sendInitialize(ctx context.Context) error {
	id := atomic.AddInt64(&p.nextID, 1)
	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]any{},
			"clientInfo":      map[string]any{"name": "fractalic", "version": "0.1.0"},
		},
	}
	if err := p.writeMessage(req); err != nil {
		return err
	}
	resp, err := p.readResponse(ctx)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("initialize error [%d]: %s", resp.Error.Code, resp.Error.Message)
	}
	return nil
}

func (p *mcpServer) sendNotification(method string, params any) {
	msg := map[string]any{"jsonrpc": "2.0", "method": method}
	if params != nil {
		msg["params"] = params
	}
	p.writeMessage(msg)
}

func (p *mcpServer) discoverTools(ctx context.Context) error {
	id := atomic.AddInt64(&p.nextID, 1)
	req := map[string]any{"jsonrpc": "2.0", "id": id, "method": "tools/list"}
	if err := p.writeMessage(req); err != nil {
		return err
	}
	resp, err := p.readResponse(ctx)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("tools/list error [%d]: %s", resp.Error.Code, resp.Error.Message)
	}
	var listResult struct {
		Tools []struct {
			Name        string         `json:"name"`
			Description string         `json:"description"`
			InputSchema map[string]any `json:"inputSchema"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &listResult); err != nil {
		return err
	}
	for _, t := range listResult.Tools {
		p.tools[t.Name] = true
	}
	return nil
}

// CallTool invokes a remote tool and returns the JSON-encoded result.
func (p *mcpServer) CallTool(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case <-p.done:
		return nil, ferr.New(ferr.KindTool, "mcp %s: process has exited", p.name)
	default:
	}

	var argMap map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &argMap); err != nil {
			return nil, ferr.Wrap(ferr.KindTool, err, "mcp %s: arguments must be a JSON object", p.name)
		}
	}

	id := atomic.AddInt64(&p.nextID, 1)
	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": argMap},
	}
	if err := p.writeMessage(req); err != nil {
		return nil, ferr.Wrap(ferr.KindTool, err, "mcp %s: send tools/call", p.name)
	}

	resp, err := p.readResponse(ctx)
	if err != nil {
		return nil, ferr.Wrap(ferr.KindTool, err, "mcp %s: read tools/call response", p.name)
	}
	if resp.Error != nil {
		return nil, ferr.New(ferr.KindTool, "mcp %s tools/call error [%d]: %s", p.name, resp.Error.Code, resp.Error.Message)
	}

	var callResult mcpCallResult
	if err := json.Unmarshal(resp.Result, &callResult); err != nil {
		return resp.Result, nil
	}
	if callResult.IsError {
		var texts []string
		for _, c := range callResult.Content {
			if c.Type == "text" {
				texts = append(texts, c.Text)
			}
		}
		return nil, ferr.New(ferr.KindTool, "mcp %s tool %s: %s", p.name, name, strings.Join(texts, "; "))
	}

	var texts []string
	for _, c := range callResult.Content {
		if c.Type == "text" {
			texts = append(texts, c.Text)
		}
	}
	joined := strings.Join(texts, "\n")
	var v any
	if err := json.Unmarshal([]byte(joined), &v); err == nil {
		return json.RawMessage(joined), nil
	}
	return json.Marshal(joined)
}

func (p *mcpServer) kill() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	if p.cmd.Process != nil {
		return p.cmd.Process.Kill()
	}
	return nil
}

func (p *mcpServer) writeMessage(msg any) error {
	return p.stdin.Encode(msg)
}

func (p *mcpServer) readResponse(ctx context.Context) (*jsonrpcResponse, error) {
	type readResult struct {
		resp *jsonrpcResponse
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		for {
			line, err := p.reader.ReadString('\n')
			if err != nil {
				ch <- readResult{err: fmt.Errorf("read: %w", err)}
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			var peek struct {
				ID     *int64 `json:"id"`
				Method string `json:"method"`
			}
			if err := json.Unmarshal([]byte(line), &peek); err != nil {
				continue
			}
			if peek.ID == nil && peek.Method != "" {
				continue // notification, not a response
			}
			var resp jsonrpcResponse
			if err := json.Unmarshal([]byte(line), &resp); err != nil {
				continue
			}
			ch <- readResult{resp: &resp}
			return
		}
	}()

	select {
	case r := <-ch:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
