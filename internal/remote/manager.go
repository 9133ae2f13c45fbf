// Package remote manages sessions with the configured MCP servers.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dslh/mcp-agent/internal/config"
	"github.com/dslh/mcp-agent/internal/logging"
)

// Manager manages connections to the configured MCP servers. Server names
// are keyed lowercase so that lookups from extracted tool calls are
// case-insensitive.
type Manager struct {
	config   *config.Config
	client   *mcp.Client
	timeouts map[string]int // lowercase server name -> timeout ms
	mu       sync.RWMutex
	sessions map[string]*mcp.ClientSession
	tools    map[string][]*mcp.Tool // server name -> tools
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewManager creates a new session manager
func NewManager(cfg *config.Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "mcp-agent",
		Version: "0.1.0",
	}, nil)

	timeouts := make(map[string]int, len(cfg.MCPServers))
	for name, sc := range cfg.MCPServers {
		timeouts[strings.ToLower(name)] = sc.Timeout()
	}

	return &Manager{
		config:   cfg,
		client:   client,
		timeouts: timeouts,
		sessions: make(map[string]*mcp.ClientSession),
		tools:    make(map[string][]*mcp.Tool),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Connect establishes connections to all configured servers. Per-server
// connections run concurrently and failures are isolated: a broken server is
// logged and omitted. Connect returns an error only when no server at all
// could be reached.
func (m *Manager) Connect() error {
	var wg sync.WaitGroup

	for serverName, serverConfig := range m.config.MCPServers {
		wg.Add(1)
		go func(name string, sc config.ServerConfig) {
			defer wg.Done()
			if err := m.connectServer(name, sc); err != nil {
				logging.Warn().Str("server", name).Err(err).Msg("failed to connect to MCP server")
			}
		}(serverName, serverConfig)
	}

	wg.Wait()

	m.mu.RLock()
	connected := len(m.sessions)
	m.mu.RUnlock()

	if connected == 0 {
		return fmt.Errorf("no MCP servers could be connected")
	}

	return nil
}

// Close closes all sessions and cleans up resources
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancel()

	for serverName, session := range m.sessions {
		if err := session.Close(); err != nil {
			logging.Warn().Str("server", serverName).Err(err).Msg("error closing session")
		}
	}

	m.sessions = make(map[string]*mcp.ClientSession)
	m.tools = make(map[string][]*mcp.Tool)
}

// connectServer establishes a connection to a single server and discovers
// its tools. The configured per-server timeout covers both steps.
func (m *Manager) connectServer(serverName string, serverConfig config.ServerConfig) error {
	timeout := time.Duration(serverConfig.Timeout()) * time.Millisecond
	ctx, cancel := context.WithTimeout(m.ctx, timeout)
	defer cancel()

	var session *mcp.ClientSession
	var err error

	if serverConfig.URL != "" {
		session, err = m.connectRemote(ctx, serverConfig)
	} else {
		session, err = m.connectCommand(ctx, serverConfig)
	}
	if err != nil {
		return err
	}

	result, err := session.ListTools(ctx, nil)
	if err != nil {
		session.Close()
		return fmt.Errorf("failed to list tools: %w", err)
	}

	key := strings.ToLower(serverName)

	m.mu.Lock()
	m.sessions[key] = session
	m.tools[key] = result.Tools
	m.mu.Unlock()

	logging.Info().Str("server", serverName).Int("tools", len(result.Tools)).Msg("connected to MCP server")
	for _, tool := range result.Tools {
		logging.Debug().Str("server", serverName).Str("tool", tool.Name).Msg("discovered tool")
	}

	return nil
}

// connectRemote connects over streamable HTTP, falling back to SSE.
func (m *Manager) connectRemote(ctx context.Context, serverConfig config.ServerConfig) (*mcp.ClientSession, error) {
	httpClient := httpClientWithHeaders(serverConfig.Headers)

	transports := []struct {
		name      string
		transport mcp.Transport
	}{
		{name: "streamable", transport: &mcp.StreamableClientTransport{Endpoint: serverConfig.URL, HTTPClient: httpClient}},
		{name: "sse", transport: &mcp.SSEClientTransport{Endpoint: serverConfig.URL, HTTPClient: httpClient}},
	}

	var lastErr error
	for _, candidate := range transports {
		session, err := m.client.Connect(ctx, candidate.transport, nil)
		if err != nil {
			lastErr = fmt.Errorf("%s transport: %w", candidate.name, err)
			continue
		}
		return session, nil
	}

	return nil, lastErr
}

// connectCommand spawns a local server subprocess with a stdio transport.
func (m *Manager) connectCommand(ctx context.Context, serverConfig config.ServerConfig) (*mcp.ClientSession, error) {
	cmd := exec.CommandContext(m.ctx, serverConfig.Command, serverConfig.Args...)

	if len(serverConfig.Env) > 0 {
		env := os.Environ()
		for key, value := range serverConfig.Env {
			env = append(env, fmt.Sprintf("%s=%s", key, value))
		}
		cmd.Env = env
	}

	session, err := m.client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return session, nil
}

// Tools returns all discovered tools from all connected servers
func (m *Manager) Tools() map[string][]*mcp.Tool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Create a copy to avoid race conditions
	result := make(map[string][]*mcp.Tool)
	for serverName, tools := range m.tools {
		result[serverName] = make([]*mcp.Tool, len(tools))
		copy(result[serverName], tools)
	}

	return result
}

// Has reports whether a session exists for the named server.
// The name is matched case-insensitively.
func (m *Manager) Has(serverName string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.sessions[strings.ToLower(serverName)]
	return ok
}

// Servers returns the names of all connected servers
func (m *Manager) Servers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	servers := make([]string, 0, len(m.sessions))
	for serverName := range m.sessions {
		servers = append(servers, serverName)
	}

	return servers
}

// CallTool calls a tool on the specified server. The configured per-server
// timeout bounds the call unless the caller's context expires first.
func (m *Manager) CallTool(ctx context.Context, serverName, toolName string, arguments map[string]any) (*mcp.CallToolResult, error) {
	key := strings.ToLower(serverName)

	m.mu.RLock()
	session, exists := m.sessions[key]
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("server %s not connected", serverName)
	}

	timeout := config.DefaultTimeoutMs
	if t, ok := m.timeouts[key]; ok {
		timeout = t
	}
	callCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Millisecond)
	defer cancel()

	result, err := session.CallTool(callCtx, &mcp.CallToolParams{
		Name:      toolName,
		Arguments: arguments,
	})
	if err != nil {
		return nil, fmt.Errorf("tool call failed: %w", err)
	}

	return result, nil
}

// httpClientWithHeaders returns an HTTP client that injects the given
// headers into every request.
func httpClientWithHeaders(headers map[string]string) *http.Client {
	client := &http.Client{}
	if len(headers) == 0 {
		return client
	}

	client.Transport = &headerRoundTripper{
		headers: headers,
		next:    http.DefaultTransport,
	}
	return client
}

type headerRoundTripper struct {
	headers map[string]string
	next    http.RoundTripper
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	for k, v := range h.headers {
		cloned.Header.Set(k, v)
	}
	return h.next.RoundTrip(cloned)
}
