package scenario

import (
	"context"
	"errors"
	"fmt"

	"soapctl/internal/keywords"
)

// LocalExecutor runs keywords in-process against a keyword registry.
type LocalExecutor struct {
	registry *keywords.Registry
	sessions *keywords.Sessions
}

// NewLocalExecutor creates an executor whose scopes are sessions.
func NewLocalExecutor(registry *keywords.Registry, sessions *keywords.Sessions) *LocalExecutor {
	return &LocalExecutor{
		registry: registry,
		sessions: sessions,
	}
}

func (e *LocalExecutor) Begin(ctx context.Context, id string) error {
	_, err := e.sessions.Reset(id)
	return err
}

// Call reports keyword failures, unknown keywords and argument errors as
// failed outcomes, the way a test framework fails the step.
func (e *LocalExecutor) Call(ctx context.Context, id, keyword string, args keywords.Arguments) (Outcome, error) {
	res, err := e.registry.Invoke(ctx, e.sessions.Get(id), keyword, args)

	var out Outcome
	if res != nil {
		if res.Return != nil {
			out.Return = fmt.Sprint(res.Return)
		}
		for _, m := range res.Messages {
			out.Messages = append(out.Messages, m.String())
		}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return out, err
		}
		out.Failed = true
		out.Error = err.Error()
	}
	return out, nil
}

func (e *LocalExecutor) End(ctx context.Context, id string) error {
	return e.sessions.Close(id)
}
