package server

import (
	"context"
	"encoding/json"
	"fmt"

	"soapctl/internal/keywords"
	"soapctl/internal/library"
	"soapctl/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// keywordTool builds the tool definition of a keyword. All declared
// arguments are required except varargs.
func keywordTool(k *keywords.Keyword) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(fmt.Sprintf("%s: %s", k.Name, k.Doc)),
	}
	for _, a := range k.Args {
		switch a.Type {
		case keywords.ArgBool:
			opts = append(opts, mcp.WithBoolean(a.Name, mcp.Required(), mcp.Description(a.Description)))
		case keywords.ArgVarargs:
			opts = append(opts, mcp.WithArray(a.Name,
				mcp.Description(a.Description),
				mcp.Items(map[string]interface{}{"type": "string"}),
			))
		default:
			opts = append(opts, mcp.WithString(a.Name, mcp.Required(), mcp.Description(a.Description)))
		}
	}
	return mcp.NewTool(k.ToolName(), opts...)
}

func (s *KeywordServer) keywordHandler(k *keywords.Keyword) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := sessionID(ctx)
		logging.Debug("Server", "[%s] %s", id, k.Name)

		res, err := s.registry.Invoke(ctx, s.sessions.Get(id), k.Name, keywords.Arguments{Named: req.GetArguments()})
		return toolResult(res, err), nil
	}
}

// toolResult renders a keyword outcome. Failures become tool errors carrying
// the failure message; framework log messages follow the main content.
func toolResult(res *keywords.Result, err error) *mcp.CallToolResult {
	var result *mcp.CallToolResult
	switch {
	case err != nil:
		if !library.IsFailure(err) {
			logging.Debug("Server", "Keyword error: %v", err)
		}
		result = mcp.NewToolResultError(err.Error())
	case res.Return != nil:
		result = mcp.NewToolResultText(fmt.Sprint(res.Return))
	default:
		result = mcp.NewToolResultText("PASS")
	}

	if res != nil {
		for _, m := range res.Messages {
			result.Content = append(result.Content, mcp.NewTextContent(m.String()))
		}
	}
	return result
}

func (s *KeywordServer) handleStartTestCase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := sessionID(ctx)
	if _, err := s.sessions.Reset(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Started new test case for session %s", id)), nil
}

func (s *KeywordServer) handleEndTestCase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := sessionID(ctx)
	if err := s.sessions.Close(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Ended test case for session %s", id)), nil
}

// KeywordDoc is the documentation entry of one keyword.
type KeywordDoc struct {
	Name    string         `json:"name" yaml:"name"`
	Tool    string         `json:"tool" yaml:"tool"`
	Args    []keywords.Arg `json:"args,omitempty" yaml:"args,omitempty"`
	Returns bool           `json:"returns,omitempty" yaml:"returns,omitempty"`
	Doc     string         `json:"doc" yaml:"doc"`
}

// Docs returns the documentation of every keyword in registry.
func Docs(registry *keywords.Registry) []KeywordDoc {
	all := registry.All()
	docs := make([]KeywordDoc, len(all))
	for i, k := range all {
		docs[i] = KeywordDoc{
			Name:    k.Name,
			Tool:    k.ToolName(),
			Args:    k.Args,
			Returns: k.Returns,
			Doc:     k.Doc,
		}
	}
	return docs
}

func (s *KeywordServer) handleKeywords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(struct {
		Version  string       `json:"version"`
		Keywords []KeywordDoc `json:"keywords"`
	}{library.Version, Docs(s.registry)}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode keywords: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
