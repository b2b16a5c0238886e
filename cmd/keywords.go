package cmd

import (
	"fmt"

	"soapctl/internal/cli"
	"soapctl/internal/keywords"
	"soapctl/internal/library"
	"soapctl/internal/server"

	"github.com/spf13/cobra"
)

var (
	keywordsOutput string
	keywordsRemote bool
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords [keyword]",
	Short: "List the SoapUI keywords",
	Long: `Lists every keyword with its arguments and MCP tool name, or shows the
full documentation of one keyword. Keyword names are matched ignoring case,
spaces and underscores.

Examples:
  soapctl keywords
  soapctl keywords "soapui start mock service"
  soapctl keywords --output yaml
  soapctl keywords --remote --port 8095`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKeywords,
}

func runKeywords(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(keywordsOutput)
	if err != nil {
		return err
	}

	var caller cli.Caller
	version, docs := library.Version, server.Docs(keywords.NewRegistry())
	if keywordsRemote {
		client := cli.NewClient(serverConfig(cmd))
		if err := client.Connect(commandContext(cmd)); err != nil {
			return fmt.Errorf("failed to connect to %s: %w", client.Endpoint(), err)
		}
		defer client.Close()
		caller = client
	}

	executor := cli.NewToolExecutor(caller, cli.ExecutorOptions{
		Format: format,
		Out:    cmd.OutOrStdout(),
		ErrOut: cmd.ErrOrStderr(),
	})
	if keywordsRemote {
		version, docs, err = executor.Keywords(commandContext(cmd))
		if err != nil {
			return err
		}
	}

	if len(args) == 0 {
		return executor.PrintKeywords(version, docs)
	}
	for _, d := range docs {
		if keywords.Normalize(d.Name) == keywords.Normalize(args[0]) {
			return executor.PrintKeyword(d)
		}
	}
	return fmt.Errorf("%w: %s", keywords.ErrUnknownKeyword, args[0])
}

func init() {
	rootCmd.AddCommand(keywordsCmd)

	keywordsCmd.Flags().StringVarP(&keywordsOutput, "output", "o", string(cli.OutputFormatTable), "Output format: table, json or yaml")
	keywordsCmd.Flags().BoolVar(&keywordsRemote, "remote", false, "Read the keywords from a running keyword server")
	addServerFlags(keywordsCmd)
	keywordsCmd.ValidArgsFunction = completeKeyword
}
