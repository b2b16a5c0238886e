package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"soapctl/internal/config"
	"soapctl/internal/keywords"
	"soapctl/pkg/logging"

	"golang.org/x/sync/errgroup"
)

const (
	phaseSetup    = "setup"
	phaseTest     = "test"
	phaseTeardown = "teardown"

	teardownTimeout = 2 * time.Minute
)

// Runner executes suites through an Executor.
type Runner struct {
	executor Executor
	reporter Reporter
	config   Configuration

	reportMu sync.Mutex
}

// NewRunner creates a runner. A Parallel value below one runs tests
// sequentially.
func NewRunner(executor Executor, reporter Reporter, cfg Configuration) *Runner {
	if cfg.Parallel < 1 {
		cfg.Parallel = 1
	}
	return &Runner{
		executor: executor,
		reporter: reporter,
		config:   cfg,
	}
}

// Run executes suites in order. The returned error is only set when ctx was
// cancelled; test failures are reported in the result.
func (r *Runner) Run(ctx context.Context, suites []Suite) (*RunResult, error) {
	result := &RunResult{
		StartTime:     time.Now(),
		Configuration: r.config,
	}
	r.reporter.ReportStart(r.config, suites)

	var stop atomic.Bool
	for _, suite := range suites {
		suiteResult := r.runSuite(ctx, suite, &stop)
		result.SuiteResults = append(result.SuiteResults, suiteResult)
		for _, tr := range suiteResult.TestResults {
			result.Total++
			switch tr.Result {
			case ResultPassed:
				result.Passed++
			case ResultFailed:
				result.Failed++
			case ResultSkipped:
				result.Skipped++
			case ResultError:
				result.Errors++
			}
		}
		r.report(func() { r.reporter.ReportSuiteResult(suiteResult) })
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	r.reporter.ReportRunResult(*result)

	return result, ctx.Err()
}

func (r *Runner) report(fn func()) {
	r.reportMu.Lock()
	defer r.reportMu.Unlock()
	fn()
}

func (r *Runner) runSuite(ctx context.Context, suite Suite, stop *atomic.Bool) SuiteResult {
	result := SuiteResult{
		Name:      suite.Name,
		Source:    suite.Source,
		Result:    ResultPassed,
		StartTime: time.Now(),
	}
	r.report(func() { r.reporter.ReportSuiteStart(suite) })

	tests := Filter(suite, r.config)
	result.TestResults = make([]TestResult, len(tests))

	scope := suite.Name + "/suite"
	vars := newVariables(suite.Variables)
	hasScope := len(suite.Setup) > 0 || len(suite.Teardown) > 0

	if stop.Load() {
		for i, test := range tests {
			result.TestResults[i] = skippedTest(suite.Name, test)
			r.report(func() { r.reporter.ReportTestResult(result.TestResults[i]) })
		}
		result.Result = ResultSkipped
		result.Duration = time.Since(result.StartTime)
		return result
	}

	var setupErr string
	if hasScope {
		if err := r.executor.Begin(ctx, scope); err != nil {
			setupErr = fmt.Sprintf("suite setup failed: %v", err)
			hasScope = false
		} else {
			steps, res, msg := r.runSteps(ctx, scope, phaseSetup, suite.Setup, vars)
			result.Setup = steps
			if res != ResultPassed {
				setupErr = "suite setup failed: " + msg
			}
		}
	}

	if setupErr != "" {
		for i, test := range tests {
			result.TestResults[i] = TestResult{Suite: suite.Name, Test: test, Result: ResultFailed, Error: setupErr, StartTime: time.Now()}
			r.report(func() { r.reporter.ReportTestResult(result.TestResults[i]) })
		}
		result.Result = ResultFailed
		result.Error = setupErr
		if r.config.FailFast {
			stop.Store(true)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.config.Parallel)
		for i, test := range tests {
			g.Go(func() error {
				var tr TestResult
				if stop.Load() || gctx.Err() != nil {
					tr = skippedTest(suite.Name, test)
				} else {
					tr = r.runTest(gctx, suite, test, vars.clone())
					if tr.Result != ResultPassed && r.config.FailFast {
						stop.Store(true)
					}
				}
				result.TestResults[i] = tr
				r.report(func() { r.reporter.ReportTestResult(tr) })
				return nil
			})
		}
		_ = g.Wait()

		for _, tr := range result.TestResults {
			if tr.Result == ResultFailed || tr.Result == ResultError {
				result.Result = ResultFailed
				break
			}
		}
	}

	if hasScope && len(suite.Teardown) > 0 {
		tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		steps, res, msg := r.runSteps(tctx, scope, phaseTeardown, suite.Teardown, vars)
		cancel()
		result.Teardown = steps
		if res != ResultPassed {
			result.Result = ResultFailed
			if result.Error == "" {
				result.Error = "suite teardown failed: " + msg
			}
		}
	}
	if hasScope {
		if err := r.executor.End(context.WithoutCancel(ctx), scope); err != nil {
			logging.Warn("Scenario", "Failed to end suite scope %s: %v", scope, err)
		}
	}

	result.Duration = time.Since(result.StartTime)
	return result
}

func skippedTest(suite string, test Test) TestResult {
	return TestResult{
		Suite:     suite,
		Test:      test,
		Result:    ResultSkipped,
		Error:     "skipped after an earlier failure",
		StartTime: time.Now(),
	}
}

func (r *Runner) runTest(ctx context.Context, suite Suite, test Test, vars variables) TestResult {
	result := TestResult{
		Suite:     suite.Name,
		Test:      test,
		Result:    ResultPassed,
		StartTime: time.Now(),
	}
	defer func() { result.Duration = time.Since(result.StartTime) }()

	timeout := test.Timeout
	if timeout == 0 {
		timeout = r.config.Timeout
	}
	testCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		testCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	scope := suite.Name + "/" + test.Name
	if err := r.executor.Begin(testCtx, scope); err != nil {
		result.Result = ResultError
		result.Error = fmt.Sprintf("failed to start test case: %v", err)
		return result
	}
	defer func() {
		if err := r.executor.End(context.WithoutCancel(ctx), scope); err != nil {
			logging.Warn("Scenario", "Failed to end test case %s: %v", scope, err)
		}
	}()

	steps, res, msg := r.runSteps(testCtx, scope, phaseTest, test.Steps, vars)
	result.StepResults = steps
	result.Result, result.Error = res, msg
	if res != ResultPassed && errors.Is(testCtx.Err(), context.DeadlineExceeded) {
		result.Result = ResultFailed
		result.Error = fmt.Sprintf("test timeout %v exceeded", timeout)
	}

	if len(test.Teardown) > 0 {
		tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		defer cancel()
		steps, res, msg := r.runSteps(tctx, scope, phaseTeardown, test.Teardown, vars)
		result.StepResults = append(result.StepResults, steps...)
		if res != ResultPassed && result.Result == ResultPassed {
			result.Result = res
			result.Error = "teardown failed: " + msg
		}
	}
	return result
}

// runSteps executes steps in order. In the teardown phase every step runs;
// otherwise execution stops at the first step that does not pass.
func (r *Runner) runSteps(ctx context.Context, scope, phase string, steps []Step, vars variables) ([]StepResult, Result, string) {
	var results []StepResult
	overall, msg := ResultPassed, ""

	for _, step := range steps {
		sr := r.runStep(ctx, scope, phase, step, vars)
		results = append(results, sr)

		if sr.Result != ResultPassed && overall == ResultPassed {
			overall = sr.Result
			msg = fmt.Sprintf("%s: %s", step.Title(), sr.Error)
			if phase != phaseTeardown {
				break
			}
		}
	}
	return results, overall, msg
}

func (r *Runner) runStep(ctx context.Context, scope, phase string, step Step, vars variables) StepResult {
	result := StepResult{
		Step:      step,
		Phase:     phase,
		Result:    ResultPassed,
		StartTime: time.Now(),
	}
	defer func() { result.Duration = time.Since(result.StartTime) }()

	stepCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	args := keywords.Arguments{
		Positional: vars.expandList(step.Args),
		Named:      vars.expandMap(step.Named),
	}

	maxAttempts := 1
	if step.Retry != nil && step.Retry.Count > 0 {
		maxAttempts = step.Retry.Count + 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			result.RetryCount = attempt
			if err := sleep(stepCtx, retryDelay(step.Retry, attempt)); err != nil {
				result.Result = ResultError
				result.Error = "step cancelled during retry delay"
				return result
			}
		}

		out, err := r.executor.Call(stepCtx, scope, step.Keyword, args)
		result.Outcome = out
		if err != nil {
			result.Result = ResultError
			result.Error = err.Error()
			if stepCtx.Err() != nil {
				return result
			}
			continue
		}

		if msg := evaluate(step.Expect, out); msg != "" {
			result.Result = ResultFailed
			result.Error = msg
			continue
		}

		result.Result = ResultPassed
		result.Error = ""
		if step.Assign != "" {
			vars.set(step.Assign, out.Return)
		}
		return result
	}
	return result
}

func retryDelay(retry *RetryConfig, attempt int) time.Duration {
	delay := retry.Delay
	if retry.BackoffMultiplier > 0 {
		for i := 1; i < attempt; i++ {
			delay = time.Duration(float64(delay) * retry.BackoffMultiplier)
		}
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// evaluate checks an outcome against the expectation and returns why it does
// not match, or "" when it does.
func evaluate(expect *Expectation, out Outcome) string {
	if expect == nil {
		expect = &Expectation{}
	}

	var text string
	switch {
	case expect.Fail && !out.Failed:
		return "expected keyword to fail, but it passed"
	case !expect.Fail && out.Failed:
		return out.Error
	case expect.Fail:
		text = out.Error
	default:
		text = strings.Join(append([]string{out.Return}, out.Messages...), "\n")
	}

	for _, want := range expect.Contains {
		if !strings.Contains(strings.ToLower(text), strings.ToLower(want)) {
			return fmt.Sprintf("expected %q in %q", want, text)
		}
	}
	for _, unwanted := range expect.NotContains {
		if strings.Contains(strings.ToLower(text), strings.ToLower(unwanted)) {
			return fmt.Sprintf("did not expect %q in %q", unwanted, text)
		}
	}
	return ""
}

// variables holds ${name} values of a suite or test. Names that are not
// defined fall back to the environment.
type variables struct {
	mu     *sync.Mutex
	values map[string]string
}

func newVariables(initial map[string]string) variables {
	v := variables{mu: &sync.Mutex{}, values: make(map[string]string, len(initial))}
	for k, val := range initial {
		v.values[k] = val
	}
	return v
}

func (v variables) clone() variables {
	v.mu.Lock()
	defer v.mu.Unlock()
	return newVariables(v.values)
}

func (v variables) set(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[name] = value
}

func (v variables) expand(s string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return config.ExpandBraced(s, func(name string) string {
		if val, ok := v.values[name]; ok {
			return val
		}
		return os.Getenv(name)
	})
}

func (v variables) expandValue(raw interface{}) interface{} {
	switch val := raw.(type) {
	case string:
		return v.expand(val)
	case []interface{}:
		return v.expandList(val)
	default:
		return raw
	}
}

func (v variables) expandList(items []interface{}) []interface{} {
	if items == nil {
		return nil
	}
	out := make([]interface{}, len(items))
	for i, item := range items {
		out[i] = v.expandValue(item)
	}
	return out
}

func (v variables) expandMap(named map[string]interface{}) map[string]interface{} {
	if named == nil {
		return nil
	}
	out := make(map[string]interface{}, len(named))
	for k, item := range named {
		out[k] = v.expandValue(item)
	}
	return out
}
