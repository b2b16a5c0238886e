package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"soapctl/internal/keywords"
	"soapctl/internal/server"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format for CLI commands
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json or yaml)", s)
	}
}

// ExecutorOptions contains options for tool execution
type ExecutorOptions struct {
	Format OutputFormat
	Quiet  bool
	Out    io.Writer
	ErrOut io.Writer
}

// CallResult is a keyword call as printed by the call command.
type CallResult struct {
	Keyword  string   `json:"keyword" yaml:"keyword"`
	Status   string   `json:"status" yaml:"status"`
	Return   string   `json:"return,omitempty" yaml:"return,omitempty"`
	Messages []string `json:"messages,omitempty" yaml:"messages,omitempty"`
	Error    string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Caller calls tools on a keyword server.
type Caller interface {
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error)
}

// ToolExecutor runs keyword tools and prints their results.
type ToolExecutor struct {
	caller  Caller
	options ExecutorOptions
}

// NewToolExecutor creates an executor printing to options.Out.
func NewToolExecutor(caller Caller, options ExecutorOptions) *ToolExecutor {
	if options.Format == "" {
		options.Format = OutputFormatTable
	}
	return &ToolExecutor{caller: caller, options: options}
}

// Execute calls the tool of keyword and prints the outcome. A failed keyword
// is printed and returned as an error.
func (e *ToolExecutor) Execute(ctx context.Context, keyword *keywords.Keyword, args map[string]interface{}) error {
	result, err := e.caller.CallTool(ctx, keyword.ToolName(), args)
	if err != nil {
		return fmt.Errorf("failed to execute keyword %s: %w", keyword.Name, err)
	}

	cr := toCallResult(keyword.Name, result)
	if err := e.PrintCallResult(cr); err != nil {
		return err
	}
	if cr.Status == "FAIL" {
		return fmt.Errorf("%s", cr.Error)
	}
	return nil
}

// Keywords fetches the keyword documentation from the server.
func (e *ToolExecutor) Keywords(ctx context.Context) (string, []server.KeywordDoc, error) {
	result, err := e.caller.CallTool(ctx, server.ToolKeywords, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	texts := textContents(result)
	if result.IsError || len(texts) == 0 {
		return "", nil, fmt.Errorf("failed to list keywords: %s", strings.Join(texts, "\n"))
	}

	var listing struct {
		Version  string              `json:"version"`
		Keywords []server.KeywordDoc `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(texts[0]), &listing); err != nil {
		return "", nil, fmt.Errorf("failed to parse keyword listing: %w", err)
	}
	return listing.Version, listing.Keywords, nil
}

func toCallResult(name string, result *mcp.CallToolResult) CallResult {
	cr := CallResult{Keyword: name, Status: "PASS"}
	var main []string
	for _, t := range textContents(result) {
		if strings.HasPrefix(t, "[INFO] ") || strings.HasPrefix(t, "[WARN] ") {
			cr.Messages = append(cr.Messages, t)
			continue
		}
		main = append(main, t)
	}

	switch {
	case result.IsError:
		cr.Status = "FAIL"
		cr.Error = strings.Join(main, "\n")
	case len(main) > 0 && !(len(main) == 1 && main[0] == "PASS"):
		cr.Return = strings.Join(main, "\n")
	}
	return cr
}

// PrintCallResult prints a keyword call in the configured format.
func (e *ToolExecutor) PrintCallResult(cr CallResult) error {
	switch e.options.Format {
	case OutputFormatJSON:
		return e.outputJSON(cr)
	case OutputFormatYAML:
		return e.outputYAML(cr)
	}

	for _, m := range cr.Messages {
		fmt.Fprintln(e.options.ErrOut, formatMessage(m))
	}
	if cr.Status == "FAIL" {
		fmt.Fprintf(e.options.ErrOut, "%s %s\n", text.FgRed.Sprint("FAIL"), cr.Error)
		return nil
	}
	if cr.Return != "" {
		fmt.Fprintln(e.options.Out, cr.Return)
	} else if !e.options.Quiet {
		fmt.Fprintln(e.options.Out, text.FgGreen.Sprint("PASS"))
	}
	return nil
}

func formatMessage(m string) string {
	if strings.HasPrefix(m, "[WARN] ") {
		return text.FgYellow.Sprint(m)
	}
	return text.FgHiBlack.Sprint(m)
}

// PrintKeywords prints keyword documentation in the configured format.
func (e *ToolExecutor) PrintKeywords(version string, docs []server.KeywordDoc) error {
	switch e.options.Format {
	case OutputFormatJSON:
		return e.outputJSON(struct {
			Version  string              `json:"version"`
			Keywords []server.KeywordDoc `json:"keywords"`
		}{version, docs})
	case OutputFormatYAML:
		return e.outputYAML(struct {
			Version  string              `yaml:"version"`
			Keywords []server.KeywordDoc `yaml:"keywords"`
		}{version, docs})
	}

	if len(docs) == 0 {
		fmt.Fprintln(e.options.Out, text.FgYellow.Sprint("No keywords found"))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(e.options.Out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("KEYWORD"),
		text.FgHiCyan.Sprint("ARGUMENTS"),
		text.FgHiCyan.Sprint("TOOL"),
		text.FgHiCyan.Sprint("DESCRIPTION"),
	})
	for _, d := range docs {
		t.AppendRow(table.Row{
			d.Name,
			formatArgs(d.Args),
			text.FgCyan.Sprint(d.Tool),
			formatDescription(firstLine(d.Doc)),
		})
	}
	t.Render()

	if !e.options.Quiet {
		fmt.Fprintf(e.options.Out, "\n%s %v keywords, library version %s\n",
			text.FgHiBlue.Sprint("Total:"),
			text.FgHiWhite.Sprint(len(docs)),
			version)
	}
	return nil
}

// PrintKeyword prints the full documentation of one keyword.
func (e *ToolExecutor) PrintKeyword(d server.KeywordDoc) error {
	switch e.options.Format {
	case OutputFormatJSON:
		return e.outputJSON(d)
	case OutputFormatYAML:
		return e.outputYAML(d)
	}

	t := table.NewWriter()
	t.SetOutputMirror(e.options.Out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("ARGUMENT"),
		text.FgHiCyan.Sprint("TYPE"),
		text.FgHiCyan.Sprint("DESCRIPTION"),
	})
	for _, a := range d.Args {
		t.AppendRow(table.Row{text.FgYellow.Sprint(a.Name), string(a.Type), a.Description})
	}

	fmt.Fprintf(e.options.Out, "%s\n\n%s\n\n", text.Bold.Sprint(d.Name), d.Doc)
	if len(d.Args) > 0 {
		t.Render()
	}
	if d.Returns {
		fmt.Fprintf(e.options.Out, "Returns a value.\n")
	}
	return nil
}

func (e *ToolExecutor) outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to convert to JSON: %w", err)
	}
	fmt.Fprintln(e.options.Out, string(data))
	return nil
}

func (e *ToolExecutor) outputYAML(v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to convert to YAML: %w", err)
	}
	fmt.Fprint(e.options.Out, string(data))
	return nil
}

func formatArgs(args []keywords.Arg) interface{} {
	if len(args) == 0 {
		return text.FgHiBlack.Sprint("-")
	}
	parts := make([]string, len(args))
	for i, a := range args {
		switch a.Type {
		case keywords.ArgVarargs:
			parts[i] = "*" + a.Name
		case keywords.ArgBool:
			parts[i] = a.Name + ":bool"
		default:
			parts[i] = a.Name
		}
	}
	return strings.Join(parts, ", ")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

// formatDescription truncates long descriptions appropriately
func formatDescription(desc string) interface{} {
	if len(desc) <= 60 {
		return desc
	}
	return desc[:55] + text.FgHiBlack.Sprint("...")
}
