package scenario

import (
	"fmt"
	"io"
	"strings"
	"time"

	"soapctl/internal/color"
)

// consoleReporter prints progress to a writer.
type consoleReporter struct {
	out     io.Writer
	verbose bool
}

// NewConsoleReporter creates a reporter printing one line per test, and
// every step when verbose is set.
func NewConsoleReporter(out io.Writer, verbose bool) Reporter {
	return &consoleReporter{out: out, verbose: verbose}
}

func (r *consoleReporter) ReportStart(config Configuration, suites []Suite) {
	tests := 0
	for _, s := range suites {
		tests += len(Filter(s, config))
	}
	fmt.Fprintf(r.out, "%s\n", color.Title.Render("soapctl scenario run"))
	fmt.Fprintf(r.out, "Suites: %d, tests: %d\n", len(suites), tests)

	if r.verbose {
		fmt.Fprintf(r.out, "Configuration:\n")
		fmt.Fprintf(r.out, "  Parallel: %d\n", config.Parallel)
		fmt.Fprintf(r.out, "  Fail fast: %t\n", config.FailFast)
		if config.Test != "" {
			fmt.Fprintf(r.out, "  Test: %s\n", config.Test)
		}
		if len(config.Include) > 0 {
			fmt.Fprintf(r.out, "  Include: %s\n", strings.Join(config.Include, ", "))
		}
		if len(config.Exclude) > 0 {
			fmt.Fprintf(r.out, "  Exclude: %s\n", strings.Join(config.Exclude, ", "))
		}
		if config.Timeout > 0 {
			fmt.Fprintf(r.out, "  Timeout: %v\n", config.Timeout)
		}
		if config.ReportPath != "" {
			fmt.Fprintf(r.out, "  Report path: %s\n", config.ReportPath)
		}
	}
	fmt.Fprintln(r.out)
}

func (r *consoleReporter) ReportSuiteStart(suite Suite) {
	fmt.Fprintf(r.out, "%s", color.Title.Render(suite.Name))
	if r.verbose && suite.Description != "" {
		fmt.Fprintf(r.out, " - %s", suite.Description)
	}
	fmt.Fprintln(r.out)
}

func (r *consoleReporter) ReportTestResult(result TestResult) {
	fmt.Fprintf(r.out, "  %s %s %s\n", resultLabel(result.Result), result.Test.Name,
		color.Muted.Render(fmt.Sprintf("(%v)", result.Duration.Round(time.Millisecond))))

	if result.Error != "" {
		fmt.Fprintf(r.out, "      %s\n", result.Error)
	}
	if !r.verbose {
		return
	}
	for _, sr := range result.StepResults {
		line := fmt.Sprintf("      %s %s", resultLabel(sr.Result), sr.Step.Title())
		if sr.Phase == phaseTeardown {
			line += color.Muted.Render(" [teardown]")
		}
		if sr.RetryCount > 0 {
			line += color.Muted.Render(fmt.Sprintf(" (%d retries)", sr.RetryCount))
		}
		fmt.Fprintln(r.out, line)
		if sr.Outcome.Return != "" {
			fmt.Fprintf(r.out, "          => %s\n", sr.Outcome.Return)
		}
		for _, m := range sr.Outcome.Messages {
			fmt.Fprintf(r.out, "          %s\n", color.Muted.Render(m))
		}
	}
}

func (r *consoleReporter) ReportSuiteResult(result SuiteResult) {
	if result.Error != "" && result.Result != ResultSkipped {
		fmt.Fprintf(r.out, "  %s\n", color.Failure.Render(result.Error))
	}
	fmt.Fprintln(r.out)
}

func (r *consoleReporter) ReportRunResult(result RunResult) {
	parts := []string{color.Success.Render(fmt.Sprintf("%d passed", result.Passed))}
	if result.Failed > 0 {
		parts = append(parts, color.Failure.Render(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Errors > 0 {
		parts = append(parts, color.Warning.Render(fmt.Sprintf("%d errors", result.Errors)))
	}
	if result.Skipped > 0 {
		parts = append(parts, color.Muted.Render(fmt.Sprintf("%d skipped", result.Skipped)))
	}

	fmt.Fprintf(r.out, "%d tests, %s in %v\n", result.Total, strings.Join(parts, ", "), result.Duration.Round(time.Millisecond))
	if result.Succeeded() {
		fmt.Fprintln(r.out, color.Success.Render("All tests passed"))
	} else {
		fmt.Fprintln(r.out, color.Failure.Render("Some tests failed"))
	}
}

func resultLabel(result Result) string {
	switch result {
	case ResultPassed:
		return color.Success.Render("PASS")
	case ResultFailed:
		return color.Failure.Render("FAIL")
	case ResultError:
		return color.Warning.Render("ERR ")
	case ResultSkipped:
		return color.Muted.Render("SKIP")
	default:
		return string(result)
	}
}

// quietReporter discards progress.
type quietReporter struct{}

// NewQuietReporter creates a reporter that prints nothing.
func NewQuietReporter() Reporter { return quietReporter{} }

func (quietReporter) ReportStart(Configuration, []Suite) {}
func (quietReporter) ReportSuiteStart(Suite)             {}
func (quietReporter) ReportTestResult(TestResult)        {}
func (quietReporter) ReportSuiteResult(SuiteResult)      {}
func (quietReporter) ReportRunResult(RunResult)          {}
