// Package soapuitest provides an in-memory soapui.Engine for tests of the
// layers above the engine boundary.
package soapuitest

import (
	"context"
	"sync"

	"soapctl/internal/soapui"
)

// RunFunc decides the outcome of a test case run. It returns whether the run
// completed, the failed tests and an engine error.
type RunFunc func(r *Runner) (bool, []string, error)

// Engine records every runner it hands out.
type Engine struct {
	// Run is consulted by every Runner.Run. Nil means every run passes.
	Run RunFunc
	// MockErr is returned by MockRunner.Run when set.
	MockErr error

	mu      sync.Mutex
	runners []*Runner
	mocks   []*MockRunner
}

// NewEngine returns an engine whose runs all pass.
func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) NewTestCaseRunner() soapui.TestCaseRunner {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := &Runner{engine: e}
	e.runners = append(e.runners, r)
	return r
}

func (e *Engine) NewMockServiceRunner() soapui.MockServiceRunner {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := &MockRunner{err: e.MockErr}
	e.mocks = append(e.mocks, m)
	return m
}

// Runners returns the test case runners created so far.
func (e *Engine) Runners() []*Runner {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Runner(nil), e.runners...)
}

// LastRunner returns the most recently created test case runner, or nil.
func (e *Engine) LastRunner() *Runner {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.runners) == 0 {
		return nil
	}
	return e.runners[len(e.runners)-1]
}

// MockRunners returns the mock service runners created so far.
func (e *Engine) MockRunners() []*MockRunner {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*MockRunner(nil), e.mocks...)
}

func (e *Engine) runFunc() RunFunc {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Run
}

// Runner stores the values set on it. Fields are written by the keyword
// library and are meant to be read once the calls under test returned.
type Runner struct {
	engine *Engine

	Project         string
	Suite           string
	TestCaseName    string
	Endpoint        string
	Host            string
	Username        string
	Password        string
	Domain          string
	ProjectPassword string
	OutputFolder    string
	ExportAll       bool
	PrintReport     bool
	Properties      []string
	Runs            int

	failed []string
}

func (r *Runner) SetProjectFile(v string)     { r.Project = v }
func (r *Runner) SetTestSuite(v string)       { r.Suite = v }
func (r *Runner) SetTestCase(v string)        { r.TestCaseName = v }
func (r *Runner) SetEndpoint(v string)        { r.Endpoint = v }
func (r *Runner) SetHost(v string)            { r.Host = v }
func (r *Runner) SetUsername(v string)        { r.Username = v }
func (r *Runner) SetPassword(v string)        { r.Password = v }
func (r *Runner) SetDomain(v string)          { r.Domain = v }
func (r *Runner) SetProjectPassword(v string) { r.ProjectPassword = v }
func (r *Runner) SetOutputFolder(v string)    { r.OutputFolder = v }
func (r *Runner) SetExportAll(v bool)         { r.ExportAll = v }
func (r *Runner) SetPrintReport(v bool)       { r.PrintReport = v }

func (r *Runner) SetProjectProperties(v []string) {
	r.Properties = append([]string(nil), v...)
}

func (r *Runner) Run(ctx context.Context) (bool, error) {
	r.Runs++
	if err := ctx.Err(); err != nil {
		return false, err
	}
	run := r.engine.runFunc()
	if run == nil {
		r.failed = nil
		return true, nil
	}
	ok, failed, err := run(r)
	r.failed = failed
	return ok, err
}

func (r *Runner) FailedTests() []string { return r.failed }
func (r *Runner) TestCase() string      { return r.TestCaseName }

// MockRunner tracks the lifecycle of one fake mock service.
type MockRunner struct {
	Project string
	Service string
	Block   bool

	err     error
	mu      sync.Mutex
	running bool
	stops   int
}

func (m *MockRunner) SetProjectFile(v string) error { m.Project = v; return nil }
func (m *MockRunner) SetMockService(v string) error { m.Service = v; return nil }
func (m *MockRunner) SetBlock(v bool) error         { m.Block = v; return nil }

func (m *MockRunner) Run(ctx context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	return nil
}

func (m *MockRunner) StopAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.stops++
	return nil
}

// Running reports whether the service was started and not stopped since.
func (m *MockRunner) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Stops returns how often StopAll was called.
func (m *MockRunner) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}
