package scenario

import (
	"context"
	"errors"
	"sync"
	"testing"

	"soapctl/internal/keywords"
	"soapctl/internal/server"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolCall struct {
	Name string
	Args map[string]interface{}
}

// fakeToolClient answers tool calls from a table keyed by tool name.
type fakeToolClient struct {
	mu         sync.Mutex
	connectErr error
	results    map[string]*mcp.CallToolResult
	calls      []toolCall
	closed     bool
}

func (c *fakeToolClient) Connect(ctx context.Context) error { return c.connectErr }

func (c *fakeToolClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, toolCall{Name: name, Args: args})
	if r, ok := c.results[name]; ok {
		return r, nil
	}
	return mcp.NewToolResultText("PASS"), nil
}

func (c *fakeToolClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestRemoteExecutor_Lifecycle(t *testing.T) {
	client := &fakeToolClient{results: map[string]*mcp.CallToolResult{
		"soapui_get_test_case": mcp.NewToolResultText("Login"),
	}}
	e := NewRemoteExecutor(keywords.NewRegistry(), func() ToolClient { return client })
	ctx := context.Background()

	require.NoError(t, e.Begin(ctx, "suite/test"))

	out, err := e.Call(ctx, "suite/test", "SoapUI Project", keywords.Arguments{Positional: []interface{}{"p.xml"}})
	require.NoError(t, err)
	assert.Equal(t, Outcome{}, out, "PASS is not a return value")

	out, err = e.Call(ctx, "suite/test", "soapui get test case", keywords.Arguments{})
	require.NoError(t, err)
	assert.Equal(t, "Login", out.Return)

	require.NoError(t, e.End(ctx, "suite/test"))
	assert.True(t, client.closed)

	want := []toolCall{
		{Name: server.ToolStartTestCase},
		{Name: "soapui_project", Args: map[string]interface{}{"project": "p.xml"}},
		{Name: "soapui_get_test_case", Args: map[string]interface{}{}},
		{Name: server.ToolEndTestCase},
	}
	if diff := cmp.Diff(want, client.calls); diff != "" {
		t.Errorf("tool calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoteExecutor_ConnectFailure(t *testing.T) {
	client := &fakeToolClient{connectErr: errors.New("connection refused")}
	e := NewRemoteExecutor(keywords.NewRegistry(), func() ToolClient { return client })

	err := e.Begin(context.Background(), "x")
	assert.ErrorContains(t, err, "connection refused")

	_, err = e.Call(context.Background(), "x", "SoapUI Run", keywords.Arguments{})
	assert.ErrorContains(t, err, "scope x is not open")
}

func TestRemoteExecutor_KeywordFailures(t *testing.T) {
	client := &fakeToolClient{results: map[string]*mcp.CallToolResult{
		"soapui_run": {
			Content: []mcp.Content{
				mcp.NewTextContent("FAIL: 2 tests failed"),
				mcp.NewTextContent("[INFO] Running with the following project properties set: []"),
			},
			IsError: true,
		},
	}}
	e := NewRemoteExecutor(keywords.NewRegistry(), func() ToolClient { return client })
	ctx := context.Background()
	require.NoError(t, e.Begin(ctx, "s"))
	defer e.End(ctx, "s")

	out, err := e.Call(ctx, "s", "SoapUI Run", keywords.Arguments{})
	require.NoError(t, err)
	assert.True(t, out.Failed)
	assert.Equal(t, "FAIL: 2 tests failed", out.Error)
	assert.Equal(t, []string{"[INFO] Running with the following project properties set: []"}, out.Messages)

	out, err = e.Call(ctx, "s", "SoapUI Unknown", keywords.Arguments{})
	require.NoError(t, err)
	assert.True(t, out.Failed)
	assert.Contains(t, out.Error, "SoapUI Unknown")

	out, err = e.Call(ctx, "s", "SoapUI Project", keywords.Arguments{Positional: []interface{}{"a", "b"}})
	require.NoError(t, err)
	assert.True(t, out.Failed)
	assert.Contains(t, out.Error, "expects 1 arguments, got 2")
}

func TestToolOutcome_TransportError(t *testing.T) {
	_, err := toolOutcome(nil, errors.New("broken pipe"))
	assert.EqualError(t, err, "broken pipe")
}
