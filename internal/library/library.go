package library

import (
	"context"
	"fmt"
	"io"
	"strings"

	"soapctl/internal/soapui"
	"soapctl/pkg/logging"
)

// Version is reported alongside the keyword documentation.
const Version = "0.2"

const (
	msgNoProjectForProperties = "No project set. Cannot set project properties."
	msgSkippingProperty       = "Skipping property: '%s'. Properties must be specified as: key=value. Equals (=) sign in keys or values is not allowed"
	msgRunningWithProperties  = "Running with the following project properties set: %s"
)

// Logger is the framework log channel keyword messages are routed to.
type Logger interface {
	Info(msg string)
	Warn(msg string)
}

// Library is the SoapUI keyword library. A Library serves one test case; it
// is not safe for concurrent use.
type Library struct {
	engine soapui.Engine
	logger Logger

	runner     soapui.TestCaseRunner
	mockRunner soapui.MockServiceRunner
	properties []string
}

// New creates a library that obtains runner handles from engine.
func New(engine soapui.Engine, logger Logger) *Library {
	return &Library{
		engine: engine,
		logger: logger,
	}
}

// CustomizeProject initializes a new runner with the most commonly used
// values for a project and suite. Report printing is enabled.
func (l *Library) CustomizeProject(project, suite, outputFolder string, exportAll bool, endpoint string) error {
	l.newRunner()
	l.runner.SetProjectFile(project)
	l.runner.SetTestSuite(suite)
	l.runner.SetOutputFolder(outputFolder)
	l.runner.SetExportAll(exportAll)
	l.runner.SetEndpoint(endpoint)
	l.runner.SetPrintReport(true)
	return nil
}

// Project initializes a new runner for the given project file. Report
// printing is enabled.
func (l *Library) Project(project string) error {
	l.newRunner()
	l.runner.SetProjectFile(project)
	l.runner.SetPrintReport(true)
	return nil
}

// newRunner replaces the runner handle, closing the previous one when it
// holds resources. Tracked properties reach the new runner with the next
// property mutation.
func (l *Library) newRunner() {
	if closer, ok := l.runner.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logging.Warn("Library", "Failed to release previous runner: %v", err)
		}
	}
	l.runner = l.engine.NewTestCaseRunner()
}

// Suite sets the test suite to run.
func (l *Library) Suite(suite string) error {
	return l.forward(func(r soapui.TestCaseRunner) { r.SetTestSuite(suite) })
}

// Case sets the test case to run.
func (l *Library) Case(testCase string) error {
	return l.forward(func(r soapui.TestCaseRunner) { r.SetTestCase(testCase) })
}

// AddProjectProperty adds name=value to the project properties.
func (l *Library) AddProjectProperty(name, value string) error {
	return l.SetProjectProperty(name + "=" + value)
}

// SetProjectProperty adds properties given as key=value. Malformed entries
// are skipped with a warning. The complete list is resubmitted to the runner.
func (l *Library) SetProjectProperty(properties ...string) error {
	for _, prop := range properties {
		if !validProperty(prop) {
			l.logger.Warn(fmt.Sprintf(msgSkippingProperty, prop))
			continue
		}
		l.properties = append(l.properties, prop)
	}

	if l.runner == nil {
		l.logger.Warn(msgNoProjectForProperties)
		return nil
	}
	l.runner.SetProjectProperties(l.ProjectProperties())
	return nil
}

// validProperty reports whether prop splits on "=" into exactly two parts.
func validProperty(prop string) bool {
	return len(strings.Split(prop, "=")) == 2
}

// ProjectProperties returns the tracked properties in insertion order.
func (l *Library) ProjectProperties() []string {
	return append([]string(nil), l.properties...)
}

// Run executes the configured tests and fails when the engine does not
// complete the run or reports failed tests.
func (l *Library) Run(ctx context.Context) error {
	if l.runner == nil {
		return ErrNoProject
	}

	l.logger.Info(fmt.Sprintf(msgRunningWithProperties, formatProperties(l.properties)))

	ok, err := l.runner.Run(ctx)
	if err != nil || !ok {
		if err != nil {
			logging.Error("Library", err, "SoapUI run did not complete")
		}
		return &Failure{Message: "FAIL: failed to run", Err: err}
	}

	if n := len(l.runner.FailedTests()); n != 0 {
		return &Failure{Message: fmt.Sprintf("FAIL: %d tests failed", n)}
	}
	return nil
}

func formatProperties(props []string) string {
	quoted := make([]string, len(props))
	for i, p := range props {
		quoted[i] = "'" + p + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// StartMockService starts the named mock service of project without
// blocking. A mock service already started by this library is stopped first;
// if it cannot be stopped the new one is not started.
func (l *Library) StartMockService(ctx context.Context, project, service string) error {
	if l.mockRunner != nil {
		logging.Warn("Library", "Replacing running mock service before starting %s", service)
		if err := l.StopMockService(); err != nil {
			return &MockServiceError{Service: service, Stage: MockStageConfigure, Err: err}
		}
	}

	runner := l.engine.NewMockServiceRunner()
	configure := []func() error{
		func() error { return runner.SetProjectFile(project) },
		func() error { return runner.SetMockService(service) },
		func() error { return runner.SetBlock(false) },
	}
	for _, step := range configure {
		if err := step(); err != nil {
			return &MockServiceError{Service: service, Stage: MockStageConfigure, Err: err}
		}
	}

	if err := runner.Run(ctx); err != nil {
		return &MockServiceError{Service: service, Stage: MockStageRun, Err: err}
	}

	l.mockRunner = runner
	return nil
}

// StopMockService stops the mock service started by StartMockService.
func (l *Library) StopMockService() error {
	if l.mockRunner == nil {
		return ErrNoMockService
	}
	if err := l.mockRunner.StopAll(); err != nil {
		return fmt.Errorf("failed to stop mock service: %w", err)
	}
	l.mockRunner = nil
	return nil
}

// MockServiceRunning reports whether a started mock service has not been
// stopped yet.
func (l *Library) MockServiceRunning() bool {
	return l.mockRunner != nil
}

func (l *Library) SetEndpoint(endpoint string) error {
	return l.forward(func(r soapui.TestCaseRunner) { r.SetEndpoint(endpoint) })
}

func (l *Library) SetHost(host string) error {
	return l.forward(func(r soapui.TestCaseRunner) { r.SetHost(host) })
}

func (l *Library) SetPassword(password string) error {
	return l.forward(func(r soapui.TestCaseRunner) { r.SetPassword(password) })
}

func (l *Library) SetUsername(username string) error {
	return l.forward(func(r soapui.TestCaseRunner) { r.SetUsername(username) })
}

func (l *Library) SetDomain(domain string) error {
	return l.forward(func(r soapui.TestCaseRunner) { r.SetDomain(domain) })
}

func (l *Library) SetProjectPassword(password string) error {
	return l.forward(func(r soapui.TestCaseRunner) { r.SetProjectPassword(password) })
}

func (l *Library) SetOutputFolder(folder string) error {
	return l.forward(func(r soapui.TestCaseRunner) { r.SetOutputFolder(folder) })
}

func (l *Library) SetExportAll(exportAll bool) error {
	return l.forward(func(r soapui.TestCaseRunner) { r.SetExportAll(exportAll) })
}

// SetPrintReport sets whether a short report is printed after each test case.
func (l *Library) SetPrintReport(printReport bool) error {
	return l.forward(func(r soapui.TestCaseRunner) { r.SetPrintReport(printReport) })
}

// GetTestCase returns the runner's current test case.
func (l *Library) GetTestCase() (string, error) {
	if l.runner == nil {
		return "", ErrNoProject
	}
	return l.runner.TestCase(), nil
}

// Close stops a running mock service. The library stays usable.
func (l *Library) Close() error {
	if l.mockRunner == nil {
		return nil
	}
	return l.StopMockService()
}

func (l *Library) forward(set func(soapui.TestCaseRunner)) error {
	if l.runner == nil {
		return ErrNoProject
	}
	set(l.runner)
	return nil
}
