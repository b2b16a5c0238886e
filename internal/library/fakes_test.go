package library

import (
	"context"
	"fmt"
	"strings"

	"soapctl/internal/soapui"
)

// call is one forwarded runner invocation.
type call struct {
	Method string
	Arg    string
}

type fakeRunner struct {
	calls    []call
	runOK    bool
	runErr   error
	failed   []string
	testCase string
	closed   bool
}

func (r *fakeRunner) record(method string, arg interface{}) {
	r.calls = append(r.calls, call{Method: method, Arg: fmt.Sprint(arg)})
}

func (r *fakeRunner) SetProjectFile(v string)     { r.record("SetProjectFile", v) }
func (r *fakeRunner) SetTestSuite(v string)       { r.record("SetTestSuite", v) }
func (r *fakeRunner) SetTestCase(v string)        { r.testCase = v; r.record("SetTestCase", v) }
func (r *fakeRunner) SetEndpoint(v string)        { r.record("SetEndpoint", v) }
func (r *fakeRunner) SetHost(v string)            { r.record("SetHost", v) }
func (r *fakeRunner) SetUsername(v string)        { r.record("SetUsername", v) }
func (r *fakeRunner) SetPassword(v string)        { r.record("SetPassword", v) }
func (r *fakeRunner) SetDomain(v string)          { r.record("SetDomain", v) }
func (r *fakeRunner) SetProjectPassword(v string) { r.record("SetProjectPassword", v) }
func (r *fakeRunner) SetOutputFolder(v string)    { r.record("SetOutputFolder", v) }
func (r *fakeRunner) SetExportAll(v bool)         { r.record("SetExportAll", v) }
func (r *fakeRunner) SetPrintReport(v bool)       { r.record("SetPrintReport", v) }

func (r *fakeRunner) SetProjectProperties(v []string) {
	r.record("SetProjectProperties", strings.Join(v, ","))
}

func (r *fakeRunner) Run(ctx context.Context) (bool, error) {
	r.record("Run", "")
	return r.runOK, r.runErr
}

func (r *fakeRunner) FailedTests() []string { return r.failed }
func (r *fakeRunner) TestCase() string      { return r.testCase }

// closableRunner lets tests observe release of a replaced runner.
type closableRunner struct {
	*fakeRunner
}

func (r closableRunner) Close() error {
	r.closed = true
	return nil
}

type fakeMockRunner struct {
	calls   []call
	failOn  string
	err     error
	stopErr error
	stopped int
}

func (m *fakeMockRunner) step(method string, arg interface{}) error {
	m.calls = append(m.calls, call{Method: method, Arg: fmt.Sprint(arg)})
	if m.failOn == method {
		return m.err
	}
	return nil
}

func (m *fakeMockRunner) SetProjectFile(v string) error { return m.step("SetProjectFile", v) }
func (m *fakeMockRunner) SetMockService(v string) error { return m.step("SetMockService", v) }
func (m *fakeMockRunner) SetBlock(v bool) error         { return m.step("SetBlock", v) }
func (m *fakeMockRunner) Run(ctx context.Context) error { return m.step("Run", "") }

func (m *fakeMockRunner) StopAll() error {
	m.stopped++
	return m.stopErr
}

type fakeEngine struct {
	newRunner   func() soapui.TestCaseRunner
	runners     []soapui.TestCaseRunner
	mockRunners []*fakeMockRunner
	mockFailOn  string
	mockErr     error
}

func (e *fakeEngine) NewTestCaseRunner() soapui.TestCaseRunner {
	var r soapui.TestCaseRunner
	if e.newRunner != nil {
		r = e.newRunner()
	} else {
		r = &fakeRunner{runOK: true}
	}
	e.runners = append(e.runners, r)
	return r
}

func (e *fakeEngine) NewMockServiceRunner() soapui.MockServiceRunner {
	m := &fakeMockRunner{failOn: e.mockFailOn, err: e.mockErr}
	e.mockRunners = append(e.mockRunners, m)
	return m
}

func (e *fakeEngine) lastRunner() *fakeRunner {
	switch r := e.runners[len(e.runners)-1].(type) {
	case *fakeRunner:
		return r
	case closableRunner:
		return r.fakeRunner
	}
	return nil
}

type logEntry struct {
	Level string
	Msg   string
}

type fakeLogger struct {
	entries []logEntry
}

func (l *fakeLogger) Info(msg string) { l.entries = append(l.entries, logEntry{"INFO", msg}) }
func (l *fakeLogger) Warn(msg string) { l.entries = append(l.entries, logEntry{"WARN", msg}) }

func (l *fakeLogger) warnings() []string {
	var out []string
	for _, e := range l.entries {
		if e.Level == "WARN" {
			out = append(out, e.Msg)
		}
	}
	return out
}
