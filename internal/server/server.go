package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"soapctl/internal/config"
	"soapctl/internal/keywords"
	"soapctl/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName = "soapctl"

	// DefaultSession is used when the transport carries no client session.
	DefaultSession = "default"

	// ToolStartTestCase resets the caller's library instance.
	ToolStartTestCase = "soapui_start_test_case"
	// ToolEndTestCase releases the caller's library instance.
	ToolEndTestCase = "soapui_end_test_case"
	// ToolKeywords lists the keyword documentation.
	ToolKeywords = "soapui_keywords"
)

// KeywordServer exposes the keyword registry as MCP tools.
type KeywordServer struct {
	config   config.ServerConfig
	registry *keywords.Registry
	sessions *keywords.Sessions
	version  string

	mcpServer *server.MCPServer
	tools     []mcp.Tool
}

// New creates a keyword server. Every keyword of registry becomes a tool.
func New(cfg config.ServerConfig, registry *keywords.Registry, sessions *keywords.Sessions, version string) *KeywordServer {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 8095
	}

	s := &KeywordServer{
		config:   cfg,
		registry: registry,
		sessions: sessions,
		version:  version,
	}

	hooks := &server.Hooks{}
	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		if err := sessions.Close(session.SessionID()); err != nil {
			logging.Warn("Server", "Failed to close session %s: %v", session.SessionID(), err)
		}
	})

	s.mcpServer = server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithHooks(hooks),
	)

	for _, k := range registry.All() {
		s.addTool(keywordTool(k), s.keywordHandler(k))
	}
	s.addTool(mcp.NewTool(ToolStartTestCase,
		mcp.WithDescription("Starts a new test case: the session gets a fresh SoapUI library and a running mock service is stopped"),
	), s.handleStartTestCase)
	s.addTool(mcp.NewTool(ToolEndTestCase,
		mcp.WithDescription("Ends the current test case: a running mock service is stopped and the session's library is released"),
	), s.handleEndTestCase)
	s.addTool(mcp.NewTool(ToolKeywords,
		mcp.WithDescription("Lists the SoapUI keywords with their arguments and documentation"),
	), s.handleKeywords)

	return s
}

func (s *KeywordServer) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.tools = append(s.tools, tool)
	s.mcpServer.AddTool(tool, handler)
}

// Tools returns the registered tool definitions.
func (s *KeywordServer) Tools() []mcp.Tool {
	return append([]mcp.Tool(nil), s.tools...)
}

// MCPServer returns the underlying MCP server.
func (s *KeywordServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Serve runs the configured transport until ctx is cancelled or the
// transport fails. All sessions are closed on return.
func (s *KeywordServer) Serve(ctx context.Context) error {
	defer func() {
		if err := s.sessions.CloseAll(); err != nil {
			logging.Error("Server", err, "Failed to close sessions")
		}
	}()

	switch s.config.Transport {
	case "", config.TransportStdio:
		logging.Info("Server", "Serving %d tools on stdio", len(s.tools))
		stdio := server.NewStdioServer(s.mcpServer)
		err := stdio.Listen(ctx, os.Stdin, os.Stdout)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio server: %w", err)
		}
		return nil

	case config.TransportStreamableHTTP:
		httpServer := server.NewStreamableHTTPServer(s.mcpServer)
		return s.serveHTTP(ctx, "streamable-http", httpServer.Start, httpServer.Shutdown)

	case config.TransportSSE:
		baseURL := fmt.Sprintf("http://%s:%d", s.config.Host, s.config.Port)
		sseServer := server.NewSSEServer(
			s.mcpServer,
			server.WithBaseURL(baseURL),
			server.WithSSEEndpoint("/sse"),
			server.WithMessageEndpoint("/message"),
			server.WithKeepAlive(true),
			server.WithKeepAliveInterval(30*time.Second),
		)
		return s.serveHTTP(ctx, "sse", sseServer.Start, sseServer.Shutdown)

	default:
		return fmt.Errorf("unsupported transport %q", s.config.Transport)
	}
}

func (s *KeywordServer) serveHTTP(ctx context.Context, name string, start func(string) error, shutdown func(context.Context) error) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	logging.Info("Server", "Serving %d tools over %s on %s", len(s.tools), name, addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server: %w", name, err)
		}
		return nil
	case <-ctx.Done():
		logging.Info("Server", "Shutting down %s server", name)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down %s server: %w", name, err)
		}
		return nil
	}
}

// sessionID identifies the caller's library instance.
func sessionID(ctx context.Context) string {
	if cs := server.ClientSessionFromContext(ctx); cs != nil && cs.SessionID() != "" {
		return cs.SessionID()
	}
	return DefaultSession
}
