package cmd

import (
	"fmt"

	"soapctl/internal/library"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of soapctl",
		Long:  `Prints the soapctl version and the version of the keyword library it serves.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "soapctl version %s (keyword library %s)\n", rootCmd.Version, library.Version)
		},
	}
}
