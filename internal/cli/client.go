package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"soapctl/internal/config"
	"soapctl/internal/library"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultTimeout bounds a single tool call. SoapUI runs can take minutes.
const DefaultTimeout = 10 * time.Minute

// Client is an MCP client for a running soapctl keyword server.
type Client struct {
	endpoint  string
	transport string
	client    client.MCPClient
	timeout   time.Duration
}

// Endpoint returns the URL a client connects to for cfg.
func Endpoint(cfg config.ServerConfig) string {
	host := cfg.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 8095
	}
	if cfg.Transport == config.TransportSSE {
		return fmt.Sprintf("http://%s:%d/sse", host, port)
	}
	return fmt.Sprintf("http://%s:%d/mcp", host, port)
}

// NewClient creates a client for the server described by cfg.
func NewClient(cfg config.ServerConfig) *Client {
	transport := cfg.Transport
	if transport != config.TransportSSE {
		transport = config.TransportStreamableHTTP
	}
	return &Client{
		endpoint:  Endpoint(cfg),
		transport: transport,
		timeout:   DefaultTimeout,
	}
}

// NewClientWithEndpoint creates a streamable-http client for endpoint.
func NewClientWithEndpoint(endpoint string) *Client {
	return &Client{
		endpoint:  endpoint,
		transport: config.TransportStreamableHTTP,
		timeout:   DefaultTimeout,
	}
}

// WithTimeout sets the per call timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	return c
}

// Endpoint returns the server URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Connect establishes the connection and performs the MCP handshake. Every
// connection is a separate test case on the server.
func (c *Client) Connect(ctx context.Context) error {
	var (
		mcpClient *client.Client
		err       error
	)
	if c.transport == config.TransportSSE {
		mcpClient, err = client.NewSSEMCPClient(c.endpoint)
	} else {
		mcpClient, err = client.NewStreamableHttpClient(c.endpoint)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", c.transport, err)
	}

	// The SSE stream lives until Close, not until ctx is done.
	if err := mcpClient.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to start %s client: %w", c.transport, err)
	}
	c.client = mcpClient

	if err := c.initialize(ctx); err != nil {
		mcpClient.Close()
		c.client = nil
		return fmt.Errorf("initialization failed: %w", err)
	}
	return nil
}

// CallTool executes a tool and returns the result
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not connected")
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	if args != nil {
		req.Params.Arguments = args
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.CallTool(timeoutCtx, req)
	if err != nil {
		return nil, fmt.Errorf("tool call failed: %w", err)
	}
	return result, nil
}

// CallToolText executes a tool and returns its first text content. A tool
// error is returned as an error carrying the tool's message.
func (c *Client) CallToolText(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	result, err := c.CallTool(ctx, name, args)
	if err != nil {
		return "", err
	}

	texts := textContents(result)
	if result.IsError {
		return "", fmt.Errorf("tool error: %s", strings.Join(texts, "\n"))
	}
	if len(texts) == 0 {
		return "", nil
	}
	return texts[0], nil
}

// CallToolJSON executes a tool and decodes its text content into v.
func (c *Client) CallToolJSON(ctx context.Context, name string, args map[string]interface{}, v interface{}) error {
	text, err := c.CallToolText(ctx, name, args)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", name, err)
	}
	return nil
}

// Close closes the connection
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// initialize performs the MCP protocol handshake
func (c *Client) initialize(ctx context.Context) error {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    "soapctl-cli",
		Version: library.Version,
	}
	req.Params.Capabilities = mcp.ClientCapabilities{}

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := c.client.Initialize(timeoutCtx, req)
	return err
}

func textContents(result *mcp.CallToolResult) []string {
	var texts []string
	for _, content := range result.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			texts = append(texts, tc.Text)
		}
	}
	return texts
}
