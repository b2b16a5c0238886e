package scenario

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"soapctl/internal/keywords"
	"soapctl/internal/server"
	"soapctl/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// ToolClient is an MCP connection to a running keyword server.
type ToolClient interface {
	Connect(ctx context.Context) error
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error)
	Close() error
}

// RemoteExecutor runs keywords on a keyword server. Each scope uses its own
// connection, so the server keeps a separate library instance per test.
type RemoteExecutor struct {
	registry  *keywords.Registry
	newClient func() ToolClient

	mu      sync.Mutex
	clients map[string]ToolClient
}

// NewRemoteExecutor creates an executor that opens a connection from
// newClient for every scope. registry resolves keyword names and positional
// arguments to tool names and argument names.
func NewRemoteExecutor(registry *keywords.Registry, newClient func() ToolClient) *RemoteExecutor {
	return &RemoteExecutor{
		registry:  registry,
		newClient: newClient,
		clients:   make(map[string]ToolClient),
	}
}

func (e *RemoteExecutor) Begin(ctx context.Context, id string) error {
	c := e.newClient()
	if err := c.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect for %s: %w", id, err)
	}

	out, err := toolOutcome(c.CallTool(ctx, server.ToolStartTestCase, nil))
	if err == nil && out.Failed {
		err = fmt.Errorf("failed to start test case %s: %s", id, out.Error)
	}
	if err != nil {
		c.Close()
		return err
	}

	e.mu.Lock()
	e.clients[id] = c
	e.mu.Unlock()
	logging.Debug("Scenario", "Opened remote scope %s", id)
	return nil
}

func (e *RemoteExecutor) Call(ctx context.Context, id, keyword string, args keywords.Arguments) (Outcome, error) {
	e.mu.Lock()
	c, ok := e.clients[id]
	e.mu.Unlock()
	if !ok {
		return Outcome{}, fmt.Errorf("scope %s is not open", id)
	}

	k, ok := e.registry.Lookup(keyword)
	if !ok {
		return Outcome{Failed: true, Error: fmt.Sprintf("%v: %s", keywords.ErrUnknownKeyword, keyword)}, nil
	}
	named, err := k.NamedArguments(args)
	if err != nil {
		return Outcome{Failed: true, Error: err.Error()}, nil
	}
	return toolOutcome(c.CallTool(ctx, k.ToolName(), named))
}

func (e *RemoteExecutor) End(ctx context.Context, id string) error {
	e.mu.Lock()
	c, ok := e.clients[id]
	delete(e.clients, id)
	e.mu.Unlock()
	if !ok {
		return nil
	}
	defer c.Close()

	out, err := toolOutcome(c.CallTool(ctx, server.ToolEndTestCase, nil))
	if err != nil {
		return err
	}
	if out.Failed {
		return fmt.Errorf("failed to end %s: %s", id, out.Error)
	}
	return nil
}

// toolOutcome converts a tool result. The first text content is the return
// value or failure message; "[LEVEL] ..." entries are log messages.
func toolOutcome(result *mcp.CallToolResult, err error) (Outcome, error) {
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	var texts []string
	for _, content := range result.Content {
		tc, ok := mcp.AsTextContent(content)
		if !ok {
			continue
		}
		if strings.HasPrefix(tc.Text, "[INFO] ") || strings.HasPrefix(tc.Text, "[WARN] ") {
			out.Messages = append(out.Messages, tc.Text)
			continue
		}
		texts = append(texts, tc.Text)
	}
	main := strings.Join(texts, "\n")

	if result.IsError {
		out.Failed = true
		out.Error = main
		return out, nil
	}
	if main != "PASS" {
		out.Return = main
	}
	return out, nil
}
