package soapui

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"time"

	"soapctl/internal/config"
)

// For mocking in tests
var execCommand = exec.Command

const defaultMockStartTimeout = 60 * time.Second

// CLIEngine drives a SoapUI installation through its command line runners.
type CLIEngine struct {
	testRunner       string
	mockRunner       string
	env              []string
	extraArgs        []string
	mockStartTimeout time.Duration
}

// NewCLIEngine creates an engine from the soapui configuration section.
func NewCLIEngine(cfg config.SoapUIConfig) *CLIEngine {
	timeout := cfg.MockStartTimeout
	if timeout <= 0 {
		timeout = defaultMockStartTimeout
	}

	keys := make([]string, 0, len(cfg.Env))
	for k := range cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, cfg.Env[k]))
	}

	return &CLIEngine{
		testRunner:       cfg.TestRunnerPath(),
		mockRunner:       cfg.MockRunnerPath(),
		env:              env,
		extraArgs:        append([]string(nil), cfg.ExtraArgs...),
		mockStartTimeout: timeout,
	}
}

// NewTestCaseRunner returns a fresh, unconfigured test case runner.
func (e *CLIEngine) NewTestCaseRunner() TestCaseRunner {
	return &cliTestCaseRunner{
		path:      e.testRunner,
		env:       e.env,
		extraArgs: e.extraArgs,
	}
}

// NewMockServiceRunner returns a fresh, unconfigured mock service runner.
// Runners block by default, matching the engine.
func (e *CLIEngine) NewMockServiceRunner() MockServiceRunner {
	return &cliMockServiceRunner{
		path:         e.mockRunner,
		env:          e.env,
		startTimeout: e.mockStartTimeout,
		block:        true,
	}
}

// commandEnv layers extra variables over the command's environment, which
// defaults to the current process environment.
func commandEnv(cmd *exec.Cmd, extra []string) []string {
	base := cmd.Env
	if base == nil {
		base = os.Environ()
	}
	return append(base, extra...)
}
