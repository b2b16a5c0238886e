package scenario

import (
	"context"
	"time"

	"soapctl/internal/keywords"
)

// Result is the outcome of a step, test or suite.
type Result string

const (
	// ResultPassed indicates the test passed successfully
	ResultPassed Result = "PASSED"
	// ResultFailed indicates a keyword failed or an expectation was not met
	ResultFailed Result = "FAILED"
	// ResultSkipped indicates the test was not run
	ResultSkipped Result = "SKIPPED"
	// ResultError indicates the executor could not run a keyword
	ResultError Result = "ERROR"
)

// Configuration controls which tests run and how.
type Configuration struct {
	// Parallel is the number of tests of a suite executed at the same time
	Parallel int `json:"parallel"`
	// FailFast skips the remaining tests after the first failure
	FailFast bool `json:"fail_fast"`
	// Include runs only tests carrying one of these tags
	Include []string `json:"include,omitempty"`
	// Exclude skips tests carrying one of these tags
	Exclude []string `json:"exclude,omitempty"`
	// Test runs only the test with this name
	Test string `json:"test,omitempty"`
	// Timeout applies to tests that declare none
	Timeout time.Duration `json:"timeout,omitempty"`
	// ReportPath is the directory detailed JSON reports are written to
	ReportPath string `json:"report_path,omitempty"`
}

// Suite is one scenario file.
type Suite struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Variables   map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`
	Setup       []Step            `yaml:"setup,omitempty" json:"setup,omitempty"`
	Teardown    []Step            `yaml:"teardown,omitempty" json:"teardown,omitempty"`
	Tests       []Test            `yaml:"tests" json:"tests"`

	// Source is the file the suite was loaded from.
	Source string `yaml:"-" json:"source,omitempty"`
}

// Test is a single test case: an ordered list of keyword steps.
type Test struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string      `yaml:"tags,omitempty" json:"tags,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Steps       []Step        `yaml:"steps" json:"steps"`
	// Teardown steps run after the test regardless of its outcome.
	Teardown []Step `yaml:"teardown,omitempty" json:"teardown,omitempty"`
}

// Step invokes one keyword.
type Step struct {
	Name    string                 `yaml:"name,omitempty" json:"name,omitempty"`
	Keyword string                 `yaml:"keyword" json:"keyword"`
	Args    []interface{}          `yaml:"args,omitempty" json:"args,omitempty"`
	Named   map[string]interface{} `yaml:"named,omitempty" json:"named,omitempty"`
	// Assign stores the keyword's return value in the named variable.
	Assign  string        `yaml:"assign,omitempty" json:"assign,omitempty"`
	Expect  *Expectation  `yaml:"expect,omitempty" json:"expect,omitempty"`
	Retry   *RetryConfig  `yaml:"retry,omitempty" json:"retry,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// Title is the step's name, or its keyword when unnamed.
func (s Step) Title() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Keyword
}

// Expectation describes the expected keyword outcome. Without one, a step
// passes when the keyword does not fail.
type Expectation struct {
	// Fail expects the keyword to fail
	Fail bool `yaml:"fail,omitempty" json:"fail,omitempty"`
	// Contains must all appear in the failure message when Fail is set,
	// otherwise in the return value or logged messages
	Contains []string `yaml:"contains,omitempty" json:"contains,omitempty"`
	// NotContains must not appear in the same text
	NotContains []string `yaml:"not_contains,omitempty" json:"not_contains,omitempty"`
}

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	// Count is the number of retry attempts
	Count int `yaml:"count" json:"count"`
	// Delay between retry attempts
	Delay time.Duration `yaml:"delay" json:"delay"`
	// BackoffMultiplier for exponential backoff
	BackoffMultiplier float64 `yaml:"backoff_multiplier,omitempty" json:"backoff_multiplier,omitempty"`
}

// Outcome is what an executor reports for one keyword call.
type Outcome struct {
	// Return is the keyword's return value rendered as text
	Return string `json:"return,omitempty"`
	// Messages are the framework log lines, e.g. "[WARN] ..."
	Messages []string `json:"messages,omitempty"`
	// Failed is set when the keyword failed
	Failed bool `json:"failed,omitempty"`
	// Error is the failure message
	Error string `json:"error,omitempty"`
}

// Executor runs keywords within test case scopes. A scope is a fresh library
// instance; everything it started is stopped when the scope ends.
type Executor interface {
	// Begin opens the scope id.
	Begin(ctx context.Context, id string) error
	// Call invokes a keyword within the scope id. A non-nil error means the
	// keyword could not be executed at all; keyword failures are reported in
	// the Outcome.
	Call(ctx context.Context, id, keyword string, args keywords.Arguments) (Outcome, error)
	// End closes the scope id.
	End(ctx context.Context, id string) error
}

// StepResult represents the result of a single step
type StepResult struct {
	Step       Step          `json:"step"`
	Phase      string        `json:"phase"`
	Result     Result        `json:"result"`
	Outcome    Outcome       `json:"outcome"`
	Error      string        `json:"error,omitempty"`
	StartTime  time.Time     `json:"start_time"`
	Duration   time.Duration `json:"duration"`
	RetryCount int           `json:"retry_count,omitempty"`
}

// TestResult represents the result of a single test
type TestResult struct {
	Suite       string        `json:"suite"`
	Test        Test          `json:"test"`
	Result      Result        `json:"result"`
	Error       string        `json:"error,omitempty"`
	StartTime   time.Time     `json:"start_time"`
	Duration    time.Duration `json:"duration"`
	StepResults []StepResult  `json:"step_results,omitempty"`
}

// SuiteResult represents the result of one suite
type SuiteResult struct {
	Name        string        `json:"name"`
	Source      string        `json:"source,omitempty"`
	Result      Result        `json:"result"`
	Error       string        `json:"error,omitempty"`
	StartTime   time.Time     `json:"start_time"`
	Duration    time.Duration `json:"duration"`
	Setup       []StepResult  `json:"setup,omitempty"`
	Teardown    []StepResult  `json:"teardown,omitempty"`
	TestResults []TestResult  `json:"test_results"`
}

// RunResult represents the overall result of a run
type RunResult struct {
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Duration      time.Duration `json:"duration"`
	Total         int           `json:"total"`
	Passed        int           `json:"passed"`
	Failed        int           `json:"failed"`
	Skipped       int           `json:"skipped"`
	Errors        int           `json:"errors"`
	SuiteResults  []SuiteResult `json:"suite_results"`
	Configuration Configuration `json:"configuration"`
}

// Succeeded reports whether no test failed or errored.
func (r *RunResult) Succeeded() bool {
	return r.Failed == 0 && r.Errors == 0
}

// Reporter receives progress of a run. Calls are serialized by the runner.
type Reporter interface {
	ReportStart(config Configuration, suites []Suite)
	ReportSuiteStart(suite Suite)
	ReportTestResult(result TestResult)
	ReportSuiteResult(result SuiteResult)
	ReportRunResult(result RunResult)
}
