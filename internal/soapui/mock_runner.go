package soapui

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"soapctl/pkg/logging"
)

// ErrMockServiceRunning is returned by Run when the runner already owns a
// live mock service process.
var ErrMockServiceRunning = errors.New("mock service already running")

// cliMockServiceRunner manages one mockservicerunner process.
type cliMockServiceRunner struct {
	path         string
	env          []string
	startTimeout time.Duration

	project string
	service string
	block   bool

	mu      sync.Mutex
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
	tail    []string
}

const outputTailLines = 5

func (m *cliMockServiceRunner) SetProjectFile(project string) error {
	if strings.TrimSpace(project) == "" {
		return fmt.Errorf("project file is empty")
	}
	m.project = project
	return nil
}

func (m *cliMockServiceRunner) SetMockService(service string) error {
	if strings.TrimSpace(service) == "" {
		return fmt.Errorf("mock service name is empty")
	}
	m.service = service
	return nil
}

// SetBlock selects blocking mode. It cannot change while a service runs.
func (m *cliMockServiceRunner) SetBlock(block bool) error {
	if m.running() {
		return ErrMockServiceRunning
	}
	m.block = block
	return nil
}

func (m *cliMockServiceRunner) running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done == nil {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

// Run starts the mock service. In blocking mode it returns when the process
// exits. Otherwise it returns once the engine reports the service as started.
func (m *cliMockServiceRunner) Run(ctx context.Context) error {
	if m.project == "" {
		return fmt.Errorf("project file not set")
	}
	if m.service == "" {
		return fmt.Errorf("mock service not set")
	}

	m.mu.Lock()
	if m.done != nil {
		select {
		case <-m.done:
		default:
			m.mu.Unlock()
			return ErrMockServiceRunning
		}
	}

	// -b disables the runner's own blocking read on stdin; blocking is
	// handled here by waiting for the process.
	cmd := execCommand(m.path, "-b", "-m"+m.service, m.project)
	setProcessGroup(cmd)
	cmd.Env = commandEnv(cmd, m.env)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("stdout pipe for mock service %s: %w", m.service, err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to start mockservicerunner %s: %w", m.path, err)
	}

	done := make(chan struct{})
	m.cmd = cmd
	m.done = done
	m.waitErr = nil
	m.tail = nil
	m.mu.Unlock()

	pid := cmd.Process.Pid
	logging.Info("MockRunner", "Started mock service %s (PID: %d)", m.service, pid)

	ready := make(chan struct{})
	scanDone := make(chan struct{})
	go func() {
		defer close(scanDone)
		var once sync.Once
		err := readLines(stdoutPipe, func(line string) {
			logging.Debug("MockRunner", "[%s] %s", m.service, line)
			m.recordLine(line)
			if mockStartedRe.MatchString(line) {
				once.Do(func() { close(ready) })
			}
		})
		if err != nil {
			logging.Warn("MockRunner", "Failed to read output of mock service %s: %v", m.service, err)
		}
	}()

	go func() {
		<-scanDone
		err := cmd.Wait()
		m.mu.Lock()
		m.waitErr = err
		m.mu.Unlock()
		if err != nil {
			logging.Debug("MockRunner", "Mock service %s (PID: %d) exited: %v", m.service, pid, err)
		}
		close(done)
	}()

	if m.block {
		select {
		case <-done:
			return m.exitError()
		case <-ctx.Done():
			m.kill()
			return ctx.Err()
		}
	}

	timer := time.NewTimer(m.startTimeout)
	defer timer.Stop()

	select {
	case <-ready:
		return nil
	case <-done:
		if err := m.exitError(); err != nil {
			return err
		}
		return fmt.Errorf("mock service %s exited before it was started: %s", m.service, m.lastOutput())
	case <-timer.C:
		m.kill()
		return fmt.Errorf("mock service %s did not start within %v", m.service, m.startTimeout)
	case <-ctx.Done():
		m.kill()
		return ctx.Err()
	}
}

// StopAll terminates the mock service process and waits for it to exit.
func (m *cliMockServiceRunner) StopAll() error {
	m.mu.Lock()
	cmd, done := m.cmd, m.done
	m.mu.Unlock()

	if cmd == nil {
		return fmt.Errorf("no mock service process to stop")
	}

	select {
	case <-done:
		return nil
	default:
	}

	if err := killProcessGroup(cmd); err != nil {
		return fmt.Errorf("failed to stop mock service %s (PID: %d): %w", m.service, cmd.Process.Pid, err)
	}
	<-done
	logging.Info("MockRunner", "Stopped mock service %s", m.service)
	return nil
}

func (m *cliMockServiceRunner) kill() {
	m.mu.Lock()
	cmd, done := m.cmd, m.done
	m.mu.Unlock()
	if err := killProcessGroup(cmd); err != nil {
		logging.Warn("MockRunner", "Failed to kill mock service %s: %v", m.service, err)
	}
	<-done
}

func (m *cliMockServiceRunner) recordLine(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tail = append(m.tail, line)
	if len(m.tail) > outputTailLines {
		m.tail = m.tail[len(m.tail)-outputTailLines:]
	}
}

func (m *cliMockServiceRunner) lastOutput() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tail) == 0 {
		return "no output"
	}
	return strings.Join(m.tail, "; ")
}

func (m *cliMockServiceRunner) exitError() error {
	m.mu.Lock()
	err := m.waitErr
	m.mu.Unlock()
	if err == nil {
		return nil
	}
	return fmt.Errorf("mock service %s exited: %w (output: %s)", m.service, err, m.lastOutput())
}
