package soapui

import (
	"context"
	"fmt"
	"os"

	"soapctl/pkg/logging"
)

// cliTestCaseRunner records settings and executes testrunner on Run.
type cliTestCaseRunner struct {
	path      string
	env       []string
	extraArgs []string

	projectFile     string
	testSuite       string
	testCase        string
	endpoint        string
	host            string
	username        string
	password        string
	domain          string
	projectPassword string
	outputFolder    string
	exportAll       bool
	printReport     bool
	properties      []string

	failedTests []string
}

func (r *cliTestCaseRunner) SetProjectFile(project string)      { r.projectFile = project }
func (r *cliTestCaseRunner) SetTestSuite(suite string)          { r.testSuite = suite }
func (r *cliTestCaseRunner) SetTestCase(testCase string)        { r.testCase = testCase }
func (r *cliTestCaseRunner) SetEndpoint(endpoint string)        { r.endpoint = endpoint }
func (r *cliTestCaseRunner) SetHost(host string)                { r.host = host }
func (r *cliTestCaseRunner) SetUsername(username string)        { r.username = username }
func (r *cliTestCaseRunner) SetPassword(password string)        { r.password = password }
func (r *cliTestCaseRunner) SetDomain(domain string)            { r.domain = domain }
func (r *cliTestCaseRunner) SetProjectPassword(password string) { r.projectPassword = password }
func (r *cliTestCaseRunner) SetOutputFolder(folder string)      { r.outputFolder = folder }
func (r *cliTestCaseRunner) SetExportAll(exportAll bool)        { r.exportAll = exportAll }
func (r *cliTestCaseRunner) SetPrintReport(printReport bool)    { r.printReport = printReport }

func (r *cliTestCaseRunner) SetProjectProperties(properties []string) {
	r.properties = append([]string(nil), properties...)
}

// TestCase returns the configured test case name.
func (r *cliTestCaseRunner) TestCase() string { return r.testCase }

// FailedTests returns the failed test cases of the last Run.
func (r *cliTestCaseRunner) FailedTests() []string {
	return append([]string(nil), r.failedTests...)
}

// args builds the testrunner command line for the given report folder.
func (r *cliTestCaseRunner) args(outputFolder string) []string {
	var args []string
	optional := []struct {
		flag  string
		value string
	}{
		{"-s", r.testSuite},
		{"-c", r.testCase},
		{"-e", r.endpoint},
		{"-h", r.host},
		{"-u", r.username},
		{"-p", r.password},
		{"-d", r.domain},
		{"-x", r.projectPassword},
		{"-f", outputFolder},
	}
	for _, opt := range optional {
		if opt.value != "" {
			args = append(args, opt.flag+opt.value)
		}
	}
	if r.exportAll {
		args = append(args, "-a")
	}
	if r.printReport {
		args = append(args, "-r")
	}
	// JUnit reports are the source of FailedTests.
	args = append(args, "-j")
	for _, prop := range r.properties {
		args = append(args, "-P"+prop)
	}
	args = append(args, r.extraArgs...)
	return append(args, r.projectFile)
}

// Run executes testrunner and collects failed tests. It returns false when
// the engine did not complete the run.
func (r *cliTestCaseRunner) Run(ctx context.Context) (bool, error) {
	r.failedTests = nil

	if r.projectFile == "" {
		return false, fmt.Errorf("project file not set")
	}

	reportDir := r.outputFolder
	if reportDir == "" {
		tmp, err := os.MkdirTemp("", "soapctl-reports-")
		if err != nil {
			return false, fmt.Errorf("failed to create report directory: %w", err)
		}
		defer os.RemoveAll(tmp)
		reportDir = tmp
	}

	// Reports left in the folder by earlier runs are not part of this one.
	previous := reportSnapshot(reportDir)

	cmd := execCommand(r.path, r.args(reportDir)...)
	setProcessGroup(cmd)
	cmd.Env = commandEnv(cmd, r.env)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return false, fmt.Errorf("stdout pipe for testrunner: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	logging.Debug("TestRunner", "Executing %s for project %s", r.path, r.projectFile)
	if err := cmd.Start(); err != nil {
		return false, fmt.Errorf("failed to start testrunner %s: %w", r.path, err)
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if err := killProcessGroup(cmd); err != nil {
				logging.Warn("TestRunner", "Failed to kill testrunner (PID: %d): %v", cmd.Process.Pid, err)
			}
		case <-stop:
		}
	}()

	var summary runSummary
	if err := readLines(stdoutPipe, func(line string) {
		logging.Debug("TestRunner", "%s", line)
		summary.observe(line)
	}); err != nil {
		logging.Warn("TestRunner", "Failed to read testrunner output: %v", err)
	}

	waitErr := cmd.Wait()
	close(stop)

	if ctx.Err() != nil {
		return false, fmt.Errorf("testrunner interrupted: %w", ctx.Err())
	}

	report, err := parseJUnitReports(reportDir, previous)
	if err != nil {
		logging.Warn("TestRunner", "Ignoring unreadable JUnit reports: %v", err)
	}

	switch {
	case report.files > 0:
		r.failedTests = report.failed
	case summary.found:
		r.failedTests = summary.failedTests()
	default:
		if waitErr != nil {
			return false, fmt.Errorf("testrunner exited without a summary: %w", waitErr)
		}
	}

	if waitErr != nil && len(r.failedTests) == 0 {
		return false, fmt.Errorf("testrunner failed: %w", waitErr)
	}

	logging.Info("TestRunner", "Run of %s finished with %d failed test(s)", r.projectFile, len(r.failedTests))
	return true, nil
}
