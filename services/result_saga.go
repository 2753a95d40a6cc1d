package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// sagaStep is one independently committed write of a multi-record operation.
type sagaStep struct {
	name string
	run  func(ctx context.Context) error
}

// SagaError reports the step that failed and the steps already committed before it.
// Committed steps are not rolled back.
type SagaError struct {
	Saga    string
	Step    string
	Applied []string
	Err     error
}

func (e *SagaError) Error() string {
	return fmt.Sprintf("%s: step %q failed after [%s]: %v", e.Saga, e.Step, strings.Join(e.Applied, ", "), e.Err)
}

func (e *SagaError) Unwrap() error { return e.Err }

type saga struct {
	name   string
	steps  []sagaStep
	logger *slog.Logger
	attrs  []any
}

func newSaga(name string, logger *slog.Logger, attrs ...any) *saga {
	return &saga{name: name, logger: logger, attrs: attrs}
}

func (s *saga) add(name string, run func(ctx context.Context) error) *saga {
	s.steps = append(s.steps, sagaStep{name: name, run: run})
	return s
}

// execute runs the steps in order and stops at the first failure.
// A failure of the first step is returned as is, since nothing was written.
func (s *saga) execute(ctx context.Context) error {
	applied := make([]string, 0, len(s.steps))
	for _, step := range s.steps {
		if err := step.run(ctx); err != nil {
			if len(applied) == 0 {
				return err
			}
			s.logger.ErrorContext(ctx, "saga step failed, earlier steps remain applied",
				append([]any{
					slog.String("saga", s.name),
					slog.String("step", step.name),
					slog.Any("applied", applied),
					slog.Any("error", err),
				}, s.attrs...)...)
			return &SagaError{Saga: s.name, Step: step.name, Applied: applied, Err: err}
		}
		applied = append(applied, step.name)
		s.logger.DebugContext(ctx, "saga step applied",
			append([]any{slog.String("saga", s.name), slog.String("step", step.name)}, s.attrs...)...)
	}
	return nil
}
