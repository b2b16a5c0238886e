package soapui

import "context"

// TestCaseRunner is the set of test case runner operations the keyword
// library forwards to. Setters record values for the next Run.
type TestCaseRunner interface {
	SetProjectFile(project string)
	SetTestSuite(suite string)
	SetTestCase(testCase string)
	SetEndpoint(endpoint string)
	SetHost(host string)
	SetUsername(username string)
	SetPassword(password string)
	SetDomain(domain string)
	SetProjectPassword(password string)
	SetOutputFolder(folder string)
	SetExportAll(exportAll bool)
	SetPrintReport(printReport bool)
	SetProjectProperties(properties []string)

	// Run executes the configured tests. The boolean reports whether the
	// engine completed the run; individual test failures are reported by
	// FailedTests.
	Run(ctx context.Context) (bool, error)
	FailedTests() []string
	TestCase() string
}

// MockServiceRunner is the set of mock service runner operations used by the
// keyword library.
// Setters validate their input, so configuration problems surface before Run.
type MockServiceRunner interface {
	SetProjectFile(project string) error
	SetMockService(service string) error
	SetBlock(block bool) error
	Run(ctx context.Context) error
	StopAll() error
}

// Engine creates fresh runner handles.
type Engine interface {
	NewTestCaseRunner() TestCaseRunner
	NewMockServiceRunner() MockServiceRunner
}
