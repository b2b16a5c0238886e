package cmd

import (
	"fmt"
	"strings"

	"soapctl/internal/cli"
	"soapctl/internal/keywords"

	"github.com/spf13/cobra"
)

var (
	callOutput string
	callArgs   []string
)

var callCmd = &cobra.Command{
	Use:   "call <keyword> [args...]",
	Short: "Call one keyword on a running keyword server",
	Long: `Calls a keyword on a keyword server started with
'soapctl serve --transport streamable-http'. Positional arguments are passed
in keyword order; --arg name=value passes an argument by name.

Every call opens a new session and therefore a new test case. Use
'soapctl run --remote' to call several keywords within one test case.

Examples:
  soapctl call "SoapUI Start Mock Service" weather-soapui-project.xml WeatherMock
  soapctl call soapui_set_project_property env=qa region=eu
  soapctl call "SoapUI Customize Project" --arg project=p.xml --arg export_all=true -o json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCall,
}

func runCall(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(callOutput)
	if err != nil {
		return err
	}

	k, ok := keywords.NewRegistry().Lookup(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", keywords.ErrUnknownKeyword, args[0])
	}

	named, err := parseNamedArgs(callArgs)
	if err != nil {
		return err
	}
	positional := make([]interface{}, len(args)-1)
	for i, a := range args[1:] {
		positional[i] = a
	}
	toolArgs, err := k.NamedArguments(keywords.Arguments{Positional: positional, Named: named})
	if err != nil {
		return err
	}

	client := cli.NewClient(serverConfig(cmd))
	ctx := commandContext(cmd)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", client.Endpoint(), err)
	}
	defer client.Close()

	executor := cli.NewToolExecutor(client, cli.ExecutorOptions{
		Format: format,
		Out:    cmd.OutOrStdout(),
		ErrOut: cmd.ErrOrStderr(),
	})
	return executor.Execute(ctx, k, toolArgs)
}

// parseNamedArgs splits name=value pairs at the first "=".
func parseNamedArgs(pairs []string) (map[string]interface{}, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	named := make(map[string]interface{}, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --arg %q, expected name=value", p)
		}
		if existing, dup := named[name]; dup {
			// Repeating a name builds a list, for varargs keywords.
			switch v := existing.(type) {
			case []interface{}:
				named[name] = append(v, value)
			default:
				named[name] = []interface{}{v, value}
			}
			continue
		}
		named[name] = value
	}
	return named, nil
}

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringVarP(&callOutput, "output", "o", string(cli.OutputFormatTable), "Output format: table, json or yaml")
	callCmd.Flags().StringArrayVar(&callArgs, "arg", nil, "Argument as name=value, may be repeated")
	addServerFlags(callCmd)
	callCmd.ValidArgsFunction = completeKeyword
}

// completeKeyword completes the first argument with keyword names.
func completeKeyword(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	var names []string
	for _, k := range keywords.NewRegistry().All() {
		names = append(names, k.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
