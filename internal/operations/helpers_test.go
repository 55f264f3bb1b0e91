package operations_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/operations"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// fakeStep runs fn and counts its calls
type fakeStep struct {
	operations.BaseStep
	fn    func(ctx context.Context, state *operations.OperationState) error
	calls atomic.Int32
}

func newFakeStep(id string, deps ...string) *fakeStep {
	return &fakeStep{BaseStep: operations.NewBaseStep(id, "Step "+id, deps...)}
}

func (s *fakeStep) withFn(fn func(ctx context.Context, state *operations.OperationState) error) *fakeStep {
	s.fn = fn
	return s
}

func (s *fakeStep) Execute(ctx context.Context, state *operations.OperationState) error {
	s.calls.Add(1)
	if s.fn != nil {
		return s.fn(ctx, state)
	}
	return nil
}

func fastRetries() *operations.Config {
	return operations.NewConfigBuilder().
		WithRetryConfig(operations.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
			Multiplier:   2,
		}).
		Build()
}

func stepIDs(steps []operations.Step) []string {
	ids := make([]string, len(steps))
	for i, step := range steps {
		ids[i] = step.ID()
	}
	return ids
}
