package cmd

import (
	"fmt"
	"os"

	"soapctl/internal/config"
	"soapctl/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool

	// appConfig is loaded before any subcommand runs.
	appConfig config.SoapctlConfig
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "soapctl",
	Short: "Drive SoapUI test cases and mock services as keywords",
	Long: `soapctl exposes the SoapUI command line runners as a small keyword library.
The keywords can be served to test frameworks and AI assistants over MCP
(soapctl serve), executed from YAML scenario suites (soapctl run), or invoked
one at a time against a running server (soapctl call).`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. failed tests, unreachable servers)
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "soapctl version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration and initializes logging. Logs go to
// stderr so the stdio transport keeps stdout for protocol messages.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		appConfig, err = config.LoadConfigFile(configPath)
	} else {
		appConfig, err = config.LoadConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level := logging.LevelInfo
	if appConfig.Logging.Level != "" {
		level, err = logging.ParseLevel(appConfig.Logging.Level)
		if err != nil {
			return fmt.Errorf("invalid logging level: %w", err)
		}
	}
	if debug {
		level = logging.LevelDebug
	}
	logging.Init(level, cmd.ErrOrStderr())
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: ~/.config/soapctl/config.yaml layered with .soapctl/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
