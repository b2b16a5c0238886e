package library

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProject is returned by keywords that need a runner before
	// SoapUI Project or SoapUI Customize Project was called.
	ErrNoProject = errors.New("no project set: use SoapUI Project or SoapUI Customize Project first")

	// ErrNoMockService is returned when stopping a mock service that was
	// never started.
	ErrNoMockService = errors.New("no mock service started")
)

// Failure is an assertion-style keyword failure. The message is what the
// test framework shows; Err keeps the engine cause, if any.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// MockStage identifies where a mock service start failed.
type MockStage string

const (
	MockStageConfigure MockStage = "configure"
	MockStageRun       MockStage = "run"
)

// MockServiceError reports a failed mock service start. All stages render
// the same user-facing message; Stage and Err are kept for diagnostics.
type MockServiceError struct {
	Service string
	Stage   MockStage
	Err     error
}

func (e *MockServiceError) Error() string {
	return fmt.Sprintf("FAIL: Error running the mock service %s. Reason: %v", e.Service, e.Err)
}

func (e *MockServiceError) Unwrap() error { return e.Err }

// IsFailure reports whether err is a keyword failure, as opposed to a
// precondition error.
func IsFailure(err error) bool {
	var f *Failure
	var m *MockServiceError
	return errors.As(err, &f) || errors.As(err, &m)
}
