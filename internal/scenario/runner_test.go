package scenario

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"soapctl/internal/keywords"
	"soapctl/internal/soapui/soapuitest"
	"soapctl/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestMain(m *testing.M) {
	logging.Init(logging.LevelError, discard{})
	goleak.VerifyTestMain(m)
}

type fixture struct {
	engine   *soapuitest.Engine
	sessions *keywords.Sessions
	executor *LocalExecutor
}

func newFixture() *fixture {
	engine := soapuitest.NewEngine()
	sessions := keywords.NewSessions(engine)
	return &fixture{
		engine:   engine,
		sessions: sessions,
		executor: NewLocalExecutor(keywords.NewRegistry(), sessions),
	}
}

func (f *fixture) run(t *testing.T, config Configuration, suites ...Suite) *RunResult {
	t.Helper()
	result, err := NewRunner(f.executor, NewQuietReporter(), config).Run(context.Background(), suites)
	require.NoError(t, err)
	return result
}

func step(keyword string, args ...interface{}) Step {
	return Step{Keyword: keyword, Args: args}
}

func singleTest(name string, steps ...Step) Suite {
	return Suite{Name: "suite", Tests: []Test{{Name: name, Steps: steps}}}
}

func TestRunner_PassingTest(t *testing.T) {
	f := newFixture()
	suite := singleTest("passes",
		step("SoapUI Project", "p.xml"),
		step("SoapUI Set Project Property", "env=${env}"),
		Step{Keyword: "SoapUI Run", Expect: &Expectation{Contains: []string{"['env=qa']"}}},
	)
	suite.Variables = map[string]string{"env": "qa"}

	result := f.run(t, Configuration{}, suite)

	require.Len(t, result.SuiteResults, 1)
	tr := result.SuiteResults[0].TestResults[0]
	assert.Equal(t, ResultPassed, tr.Result, tr.Error)
	assert.Len(t, tr.StepResults, 3)
	assert.Equal(t, []string{"env=qa"}, f.engine.LastRunner().Properties)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.True(t, result.Succeeded())
	assert.Equal(t, 0, f.sessions.Len(), "test scope is closed")
}

func TestRunner_FailedRun(t *testing.T) {
	f := newFixture()
	f.engine.Run = func(*soapuitest.Runner) (bool, []string, error) {
		return true, []string{"a", "b"}, nil
	}

	result := f.run(t, Configuration{}, singleTest("fails",
		step("SoapUI Project", "p.xml"),
		step("SoapUI Run"),
	))

	tr := result.SuiteResults[0].TestResults[0]
	assert.Equal(t, ResultFailed, tr.Result)
	assert.Contains(t, tr.Error, "FAIL: 2 tests failed")
	assert.Equal(t, ResultFailed, result.SuiteResults[0].Result)
	assert.Equal(t, 1, result.Failed)
	assert.False(t, result.Succeeded())
}

func TestRunner_ExpectFailure(t *testing.T) {
	tests := []struct {
		name   string
		failed []string
		expect *Expectation
		want   Result
		errMsg string
	}{
		{
			name:   "expected failure",
			failed: []string{"a"},
			expect: &Expectation{Fail: true, Contains: []string{"1 tests failed"}},
			want:   ResultPassed,
		},
		{
			name:   "failure with other message",
			failed: []string{"a"},
			expect: &Expectation{Fail: true, Contains: []string{"failed to run"}},
			want:   ResultFailed,
			errMsg: `expected "failed to run"`,
		},
		{
			name:   "passed but failure expected",
			expect: &Expectation{Fail: true},
			want:   ResultFailed,
			errMsg: "expected keyword to fail, but it passed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.engine.Run = func(*soapuitest.Runner) (bool, []string, error) {
				return true, tt.failed, nil
			}

			result := f.run(t, Configuration{}, singleTest("t",
				step("SoapUI Project", "p.xml"),
				Step{Keyword: "SoapUI Run", Expect: tt.expect},
			))

			tr := result.SuiteResults[0].TestResults[0]
			assert.Equal(t, tt.want, tr.Result)
			if tt.errMsg != "" {
				assert.Contains(t, tr.Error, tt.errMsg)
			}
		})
	}
}

func TestRunner_AssignVariable(t *testing.T) {
	f := newFixture()

	result := f.run(t, Configuration{}, singleTest("assign",
		step("SoapUI Project", "p.xml"),
		step("SoapUI Case", "Login"),
		Step{Keyword: "SoapUI Get Test Case", Assign: "tc"},
		step("SoapUI Case", "${tc}-copy"),
		Step{Keyword: "SoapUI Get Test Case", Expect: &Expectation{Contains: []string{"Login-copy"}}},
	))

	tr := result.SuiteResults[0].TestResults[0]
	assert.Equal(t, ResultPassed, tr.Result, tr.Error)
	assert.Equal(t, "Login-copy", tr.StepResults[4].Outcome.Return)
}

func TestRunner_StopsAtFirstFailureAndRunsTeardown(t *testing.T) {
	f := newFixture()
	suite := Suite{Name: "suite", Tests: []Test{{
		Name: "no project",
		Steps: []Step{
			step("SoapUI Run"),
			step("SoapUI Project", "never.xml"),
		},
		Teardown: []Step{
			step("SoapUI Project", "teardown.xml"),
		},
	}}}

	result := f.run(t, Configuration{}, suite)

	tr := result.SuiteResults[0].TestResults[0]
	assert.Equal(t, ResultFailed, tr.Result)
	assert.Contains(t, tr.Error, "SoapUI Run")
	require.Len(t, tr.StepResults, 2)
	assert.Equal(t, phaseTest, tr.StepResults[0].Phase)
	assert.Equal(t, phaseTeardown, tr.StepResults[1].Phase)
	assert.Equal(t, ResultPassed, tr.StepResults[1].Result)
	require.Len(t, f.engine.Runners(), 1)
	assert.Equal(t, "teardown.xml", f.engine.LastRunner().Project)
}

func TestRunner_SuiteSetupScopeSharedAcrossTests(t *testing.T) {
	f := newFixture()
	suite := Suite{
		Name:     "mocked",
		Setup:    []Step{step("SoapUI Start Mock Service", "p.xml", "Weather")},
		Teardown: []Step{step("SoapUI Stop Mock Service")},
		Tests: []Test{
			{Name: "one", Steps: []Step{step("SoapUI Project", "p.xml")}},
			{Name: "two", Steps: []Step{step("SoapUI Project", "p.xml")}},
		},
	}

	result := f.run(t, Configuration{}, suite)

	sr := result.SuiteResults[0]
	assert.Equal(t, ResultPassed, sr.Result, sr.Error)
	assert.Len(t, sr.Setup, 1)
	assert.Len(t, sr.Teardown, 1)
	require.Len(t, f.engine.MockRunners(), 1)
	mock := f.engine.MockRunners()[0]
	assert.False(t, mock.Running())
	assert.Equal(t, 1, mock.Stops())
	assert.Equal(t, 0, f.sessions.Len())
}

func TestRunner_SuiteSetupFailureFailsTests(t *testing.T) {
	f := newFixture()
	f.engine.MockErr = errors.New("Address already in use")
	suite := Suite{
		Name:  "mocked",
		Setup: []Step{step("SoapUI Start Mock Service", "p.xml", "Weather")},
		Tests: []Test{
			{Name: "one", Steps: []Step{step("SoapUI Project", "p.xml")}},
			{Name: "two", Steps: []Step{step("SoapUI Project", "p.xml")}},
		},
	}

	result := f.run(t, Configuration{}, suite)

	sr := result.SuiteResults[0]
	assert.Equal(t, ResultFailed, sr.Result)
	assert.Contains(t, sr.Error, "Address already in use")
	for _, tr := range sr.TestResults {
		assert.Equal(t, ResultFailed, tr.Result)
		assert.Contains(t, tr.Error, "suite setup failed")
	}
	assert.Empty(t, f.engine.Runners(), "tests do not run")
	assert.Equal(t, 2, result.Failed)
}

func TestRunner_FailFastSkipsRemaining(t *testing.T) {
	f := newFixture()
	first := Suite{Name: "first", Tests: []Test{
		{Name: "fails", Steps: []Step{step("SoapUI Run")}},
		{Name: "skipped", Steps: []Step{step("SoapUI Project", "p.xml")}},
	}}
	second := singleTest("also skipped", step("SoapUI Project", "p.xml"))
	second.Name = "second"

	result := f.run(t, Configuration{Parallel: 1, FailFast: true}, first, second)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, ResultSkipped, result.SuiteResults[0].TestResults[1].Result)
	assert.Equal(t, ResultSkipped, result.SuiteResults[1].Result)
	assert.Empty(t, f.engine.Runners())
}

func TestRunner_ParallelTestsAreIsolated(t *testing.T) {
	f := newFixture()
	suite := Suite{Name: "parallel"}
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("case-%d", i)
		suite.Tests = append(suite.Tests, Test{
			Name: name,
			Steps: []Step{
				step("SoapUI Project", "p.xml"),
				step("SoapUI Case", name),
				Step{Keyword: "SoapUI Get Test Case", Expect: &Expectation{Contains: []string{name}}},
			},
		})
	}

	result := f.run(t, Configuration{Parallel: 4}, suite)

	assert.Equal(t, 8, result.Passed)
	for i, tr := range result.SuiteResults[0].TestResults {
		assert.Equal(t, fmt.Sprintf("case-%d", i), tr.Test.Name, "results keep suite order")
	}
	assert.Len(t, f.engine.Runners(), 8)
}

func TestRunner_RetryWithBackoff(t *testing.T) {
	f := newFixture()
	attempts := 0
	f.engine.Run = func(*soapuitest.Runner) (bool, []string, error) {
		attempts++
		if attempts < 3 {
			return true, []string{"flaky"}, nil
		}
		return true, nil, nil
	}

	result := f.run(t, Configuration{}, singleTest("retried",
		step("SoapUI Project", "p.xml"),
		Step{Keyword: "SoapUI Run", Retry: &RetryConfig{Count: 3, Delay: time.Millisecond, BackoffMultiplier: 2}},
	))

	tr := result.SuiteResults[0].TestResults[0]
	assert.Equal(t, ResultPassed, tr.Result, tr.Error)
	assert.Equal(t, 2, tr.StepResults[1].RetryCount)
	assert.Equal(t, 3, attempts)
}

func TestRunner_FilterSelectsTests(t *testing.T) {
	f := newFixture()
	suite := Suite{Name: "tagged", Tests: []Test{
		{Name: "smoke", Tags: []string{"Smoke"}, Steps: []Step{step("SoapUI Project", "p.xml")}},
		{Name: "slow", Tags: []string{"smoke", "slow"}, Steps: []Step{step("SoapUI Project", "p.xml")}},
		{Name: "other", Steps: []Step{step("SoapUI Project", "p.xml")}},
	}}

	result := f.run(t, Configuration{Include: []string{"smoke"}, Exclude: []string{"slow"}}, suite)

	require.Len(t, result.SuiteResults[0].TestResults, 1)
	assert.Equal(t, "smoke", result.SuiteResults[0].TestResults[0].Test.Name)
	assert.Equal(t, 1, result.Total)
}

// blockingExecutor blocks every call until its context is done.
type blockingExecutor struct {
	mu    sync.Mutex
	ended []string
}

func (e *blockingExecutor) Begin(ctx context.Context, id string) error { return nil }

func (e *blockingExecutor) Call(ctx context.Context, id, keyword string, args keywords.Arguments) (Outcome, error) {
	<-ctx.Done()
	return Outcome{}, ctx.Err()
}

func (e *blockingExecutor) End(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ended = append(e.ended, id)
	return nil
}

func TestRunner_TestTimeout(t *testing.T) {
	executor := &blockingExecutor{}
	suite := singleTest("slow", step("SoapUI Run"))

	result, err := NewRunner(executor, NewQuietReporter(), Configuration{Timeout: 20 * time.Millisecond}).
		Run(context.Background(), []Suite{suite})
	require.NoError(t, err)

	tr := result.SuiteResults[0].TestResults[0]
	assert.Equal(t, ResultFailed, tr.Result)
	assert.Equal(t, "test timeout 20ms exceeded", tr.Error)
	assert.Equal(t, []string{"suite/slow"}, executor.ended)
}

func TestRunner_CancelledRun(t *testing.T) {
	executor := &blockingExecutor{}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	result, err := NewRunner(executor, NewQuietReporter(), Configuration{}).
		Run(ctx, []Suite{singleTest("blocked", step("SoapUI Run"))})

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, ResultError, result.SuiteResults[0].TestResults[0].Result)
	assert.Len(t, executor.ended, 1, "scope is ended after cancellation")
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		expect *Expectation
		out    Outcome
		want   string
	}{
		{"no expectation passes", nil, Outcome{}, ""},
		{"no expectation fails on failure", nil, Outcome{Failed: true, Error: "FAIL: failed to run"}, "FAIL: failed to run"},
		{"contains in messages", &Expectation{Contains: []string{"ENV=QA"}}, Outcome{Messages: []string{"[INFO] env=qa"}}, ""},
		{"contains in return", &Expectation{Contains: []string{"Login"}}, Outcome{Return: "Login"}, ""},
		{"missing text", &Expectation{Contains: []string{"x"}}, Outcome{Return: "y"}, `expected "x" in "y"`},
		{"unwanted text", &Expectation{NotContains: []string{"warn"}}, Outcome{Messages: []string{"[WARN] bad"}}, `did not expect "warn" in "\n[WARN] bad"`},
		{"failure contains", &Expectation{Fail: true, Contains: []string{"no project"}}, Outcome{Failed: true, Error: "no project set"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evaluate(tt.expect, tt.out))
		})
	}
}

func TestVariables_Expand(t *testing.T) {
	t.Setenv("SOAPCTL_TEST_HOST", "env-host")
	vars := newVariables(map[string]string{"project": "p.xml"})
	vars.set("tc", "Login")

	assert.Equal(t, "p.xml/Login", vars.expand("${project}/${tc}"))
	assert.Equal(t, "env-host", vars.expand("${SOAPCTL_TEST_HOST}"))
	assert.Equal(t, "$SOAPCTL_TEST_HOST", vars.expand("$SOAPCTL_TEST_HOST"), "only the braced form expands")
	assert.Equal(t, "pa$$w0rd", vars.expand("pa$$w0rd"))
	assert.Equal(t, "abc$def", vars.expand("abc$def"))
	assert.Equal(t, "", vars.expand("${undefined_variable_xyz}"))

	clone := vars.clone()
	clone.set("tc", "Other")
	assert.Equal(t, "Login", vars.expand("${tc}"), "clones do not share assignments")

	got := vars.expandList([]interface{}{"${tc}", true, []interface{}{"a=${project}"}})
	assert.Equal(t, []interface{}{"Login", true, []interface{}{"a=p.xml"}}, got)
}

func TestRetryDelay(t *testing.T) {
	retry := &RetryConfig{Delay: 10 * time.Millisecond, BackoffMultiplier: 2}
	assert.Equal(t, 10*time.Millisecond, retryDelay(retry, 1))
	assert.Equal(t, 20*time.Millisecond, retryDelay(retry, 2))
	assert.Equal(t, 40*time.Millisecond, retryDelay(retry, 3))
	assert.Equal(t, 10*time.Millisecond, retryDelay(&RetryConfig{Delay: 10 * time.Millisecond}, 3))
}
