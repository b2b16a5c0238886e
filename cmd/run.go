package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soapctl/internal/cli"
	"soapctl/internal/color"
	"soapctl/internal/keywords"
	"soapctl/internal/scenario"
	"soapctl/internal/soapui"
	"soapctl/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	runRemote   bool
	runParallel int
	runFailFast bool
	runInclude  []string
	runExclude  []string
	runTest     string
	runReport   string
	runTimeout  time.Duration
	runVerbose  bool
	runQuiet    bool
)

// completeTestFlag provides shell completion for the test flag by loading the suites
func completeTestFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	path := appConfig.Scenarios.Path
	if len(args) > 0 {
		path = args[0]
	}
	suites, err := scenario.LoadSuites(path)
	if err != nil {
		return nil, cobra.ShellCompDirectiveDefault
	}

	var names []string
	for _, s := range suites {
		for _, t := range s.Tests {
			names = append(names, t.Name)
		}
	}
	return names, cobra.ShellCompDirectiveDefault
}

// runCmd executes scenario suites.
var runCmd = &cobra.Command{
	Use:   "run [path]",
	Short: "Run keyword scenario suites",
	Long: `Runs the YAML scenario suites found at path (a file or a directory,
default: scenarios.path from the configuration).

Every test is a separate test case with its own library instance. Suite setup
and teardown share one more instance, so a mock service started in setup
serves every test of the suite.

By default keywords run in-process against the local SoapUI installation.
With --remote they run on a keyword server started with
'soapctl serve --transport streamable-http'.

Examples:
  soapctl run
  soapctl run scenarios/weather.yaml --verbose
  soapctl run --include smoke --exclude slow --parallel 4
  soapctl run --remote --port 8095 --report reports/`,
	Args:              cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("parallel") && (runParallel < 1 || runParallel > 32) {
			return fmt.Errorf("parallel workers must be between 1 and 32, got %d", runParallel)
		}
		return nil
	},
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	path := appConfig.Scenarios.Path
	if len(args) > 0 {
		path = args[0]
	}
	suites, err := scenario.LoadSuites(path)
	if err != nil {
		return err
	}

	runConfig := scenarioConfig(cmd)

	registry := keywords.NewRegistry()
	var executor scenario.Executor
	if runRemote {
		serverCfg := serverConfig(cmd)
		logging.Info("Run", "Running keywords on %s", cli.Endpoint(serverCfg))
		executor = scenario.NewRemoteExecutor(registry, func() scenario.ToolClient {
			return cli.NewClient(serverCfg)
		})
	} else {
		sessions := keywords.NewSessions(soapui.NewCLIEngine(appConfig.SoapUI))
		defer func() {
			if err := sessions.CloseAll(); err != nil {
				logging.Error("Run", err, "Failed to release test cases")
			}
		}()
		executor = scenario.NewLocalExecutor(registry, sessions)
	}

	out := cmd.OutOrStdout()
	color.Configure(out)
	reporter := scenario.NewConsoleReporter(out, runVerbose)
	if runQuiet {
		reporter = scenario.NewQuietReporter()
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := scenario.NewRunner(executor, reporter, runConfig).Run(ctx, suites)

	if runConfig.ReportPath != "" && result != nil {
		file, err := scenario.SaveReport(runConfig.ReportPath, result)
		if err != nil {
			logging.Error("Run", err, "Failed to save detailed report")
		} else {
			fmt.Fprintf(out, "Detailed report saved to: %s\n", file)
		}
	}

	if runErr != nil {
		return fmt.Errorf("run interrupted: %w", runErr)
	}
	if !result.Succeeded() {
		return fmt.Errorf("%d of %d tests failed", result.Failed+result.Errors, result.Total)
	}
	return nil
}

// scenarioConfig merges the run flags with the scenario defaults of the
// configuration.
func scenarioConfig(cmd *cobra.Command) scenario.Configuration {
	cfg := scenario.Configuration{
		Parallel:   appConfig.Scenarios.Parallel,
		FailFast:   appConfig.Scenarios.FailFast,
		ReportPath: appConfig.Scenarios.ReportPath,
		Include:    runInclude,
		Exclude:    runExclude,
		Test:       runTest,
		Timeout:    runTimeout,
	}
	if cmd.Flags().Changed("parallel") {
		cfg.Parallel = runParallel
	}
	if cmd.Flags().Changed("fail-fast") {
		cfg.FailFast = runFailFast
	}
	if cmd.Flags().Changed("report") {
		cfg.ReportPath = runReport
	}
	return cfg
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runRemote, "remote", false, "Run keywords on a keyword server instead of in-process")
	addServerFlags(runCmd)

	runCmd.Flags().IntVar(&runParallel, "parallel", 1, "Number of tests of a suite run at the same time")
	runCmd.Flags().BoolVar(&runFailFast, "fail-fast", false, "Skip remaining tests after the first failure")
	runCmd.Flags().StringSliceVar(&runInclude, "include", nil, "Run only tests with one of these tags")
	runCmd.Flags().StringSliceVar(&runExclude, "exclude", nil, "Skip tests with one of these tags")
	runCmd.Flags().StringVar(&runTest, "test", "", "Run only the test with this name")
	runCmd.Flags().StringVar(&runReport, "report", "", "Directory to save a detailed JSON report to")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Timeout of tests that declare none")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print every step")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Print nothing, only set the exit code")

	runCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	_ = runCmd.RegisterFlagCompletionFunc("test", completeTestFlag)
}
