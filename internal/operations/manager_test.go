package operations_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/infrastructure"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/operations"
)

func newManager(t *testing.T, config *operations.Config, steps ...operations.Step) *operations.Manager {
	t.Helper()
	manager := operations.NewManager(operations.NewRegistry(), config, testLogger(), nil)
	for _, step := range steps {
		require.NoError(t, manager.RegisterStep(step))
	}
	return manager
}

func TestManagerExecuteRunsStepsInOrder(t *testing.T) {
	var order []string
	record := func(id string) func(context.Context, *operations.OperationState) error {
		return func(ctx context.Context, state *operations.OperationState) error {
			order = append(order, id)
			state.Put(id, len(order))
			return nil
		}
	}

	manager := newManager(t, nil,
		newFakeStep("export", "train").withFn(record("export")),
		newFakeStep("load").withFn(record("load")),
		newFakeStep("train", "load").withFn(record("train")),
	)

	resp, state, err := manager.Execute(context.Background(), operations.OperationRequest{ID: "run-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"load", "train", "export"}, order)
	assert.Equal(t, []string{"load", "train", "export"}, resp.Order)
	assert.Equal(t, operations.OperationStatusCompleted, resp.Status)
	assert.Equal(t, "run-1", resp.ID)
	assert.Empty(t, resp.Error)
	for _, id := range order {
		assert.Equal(t, operations.StepStatusCompleted, resp.Steps[id].Status)
		assert.Equal(t, 1, resp.Steps[id].Attempts)
	}

	runID, err := operations.ContextValue[string](state, operations.ContextKeyRunID)
	require.NoError(t, err)
	assert.Equal(t, "run-1", runID)
	exportPos, err := operations.ContextValue[int](state, "export")
	require.NoError(t, err)
	assert.Equal(t, 3, exportPos)
}

func TestManagerExecuteGeneratesID(t *testing.T) {
	manager := newManager(t, nil, newFakeStep("load"))

	resp, _, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
}

func TestManagerExecuteSubset(t *testing.T) {
	load := newFakeStep("load")
	train := newFakeStep("train", "load")
	test := newFakeStep("test", "load")
	manager := newManager(t, nil, load, train, test)

	resp, _, err := manager.Execute(context.Background(), operations.OperationRequest{Steps: []string{"train"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"load", "train"}, resp.Order)
	assert.Equal(t, int32(1), load.calls.Load())
	assert.Equal(t, int32(1), train.calls.Load())
	assert.Equal(t, int32(0), test.calls.Load())
	assert.NotContains(t, resp.Steps, "test")
}

func TestManagerExecuteUnknownStep(t *testing.T) {
	manager := newManager(t, nil, newFakeStep("load"))

	resp, _, err := manager.Execute(context.Background(), operations.OperationRequest{Steps: []string{"ghost"}})
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeFatal, operations.GetErrorType(err))
	assert.Equal(t, operations.OperationStatusFailed, resp.Status)
}

func TestManagerFailureSkipsRemainingSteps(t *testing.T) {
	boom := errors.New("boom")
	load := newFakeStep("load")
	train := newFakeStep("train", "load").withFn(func(context.Context, *operations.OperationState) error {
		return boom
	})
	export := newFakeStep("export", "train")
	test := newFakeStep("test", "load")

	manager := newManager(t, nil, load, train, export, test)
	resp, _, err := manager.Execute(context.Background(), operations.OperationRequest{})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, operations.ErrorTypeExecution, operations.GetErrorType(err))
	assert.Equal(t, operations.OperationStatusFailed, resp.Status)
	assert.Contains(t, resp.Error, "boom")

	assert.Equal(t, operations.StepStatusCompleted, resp.Steps["load"].Status)
	assert.Equal(t, operations.StepStatusFailed, resp.Steps["train"].Status)
	assert.Equal(t, operations.StepStatusSkipped, resp.Steps["export"].Status)
	assert.Contains(t, resp.Steps["export"].Message, "dependency train failed")
	assert.Equal(t, operations.StepStatusSkipped, resp.Steps["test"].Status)
	assert.Equal(t, int32(0), export.calls.Load())
	assert.Equal(t, int32(0), test.calls.Load())
}

func TestManagerContinueOnError(t *testing.T) {
	train := newFakeStep("train", "load").withFn(func(context.Context, *operations.OperationState) error {
		return errors.New("train failed")
	})
	export := newFakeStep("export", "train")
	test := newFakeStep("test", "load")

	config := operations.NewConfigBuilder().WithContinueOnError(true).Build()
	manager := newManager(t, config, newFakeStep("load"), train, export, test)

	resp, _, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)

	assert.Equal(t, operations.StepStatusSkipped, resp.Steps["export"].Status)
	assert.Equal(t, operations.StepStatusCompleted, resp.Steps["test"].Status)
	assert.Equal(t, int32(1), test.calls.Load())
}

func TestManagerRetries(t *testing.T) {
	tests := []struct {
		name      string
		failures  int32
		retryable bool
		wantCalls int32
		wantErr   bool
	}{
		{name: "retryable succeeds on second attempt", failures: 1, retryable: true, wantCalls: 2},
		{name: "retryable exhausts attempts", failures: 10, retryable: true, wantCalls: 3, wantErr: true},
		{name: "non retryable fails once", failures: 10, retryable: false, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := newFakeStep("flaky")
			step.withFn(func(context.Context, *operations.OperationState) error {
				if step.calls.Load() <= tt.failures {
					return operations.NewExecutionError("flaky", fmt.Errorf("attempt %d", step.calls.Load()), tt.retryable)
				}
				return nil
			})

			manager := newManager(t, fastRetries(), step)
			resp, _, err := manager.Execute(context.Background(), operations.OperationRequest{})

			assert.Equal(t, tt.wantCalls, step.calls.Load())
			assert.Equal(t, int(tt.wantCalls), resp.Steps["flaky"].Attempts)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, operations.StepStatusFailed, resp.Steps["flaky"].Status)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestManagerValidationFailure(t *testing.T) {
	consumer := &fakeStep{BaseStep: operations.NewBaseStep("consumer", "Consumer").WithInputs("table")}
	manager := newManager(t, nil, consumer)

	resp, _, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeValidation, operations.GetErrorType(err))
	assert.Contains(t, err.Error(), "required input table")
	assert.Equal(t, int32(0), consumer.calls.Load())
	assert.Equal(t, operations.StepStatusFailed, resp.Steps["consumer"].Status)
}

func TestManagerStepTimeout(t *testing.T) {
	slow := newFakeStep("slow").withFn(func(ctx context.Context, _ *operations.OperationState) error {
		<-ctx.Done()
		return ctx.Err()
	})
	config := operations.NewConfigBuilder().WithStepTimeout("slow", 10*time.Millisecond).Build()
	manager := newManager(t, config, slow)

	_, _, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeTimeout, operations.GetErrorType(err))
}

func TestManagerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := newFakeStep("first").withFn(func(context.Context, *operations.OperationState) error {
		cancel()
		return nil
	})
	second := newFakeStep("second", "first")
	manager := newManager(t, nil, first, second)

	resp, _, err := manager.Execute(ctx, operations.OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeCancellation, operations.GetErrorType(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, operations.OperationStatusCancelled, resp.Status)
	assert.Equal(t, operations.StepStatusSkipped, resp.Steps["second"].Status)
	assert.Equal(t, int32(0), second.calls.Load())
}

func TestManagerCancelOperation(t *testing.T) {
	started := make(chan struct{})
	var manager *operations.Manager
	blocking := newFakeStep("blocking").withFn(func(ctx context.Context, _ *operations.OperationState) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	manager = newManager(t, nil, blocking)

	done := make(chan error, 1)
	go func() {
		_, _, err := manager.Execute(context.Background(), operations.OperationRequest{ID: "op"})
		done <- err
	}()

	<-started
	running := manager.ListOperations()
	require.Len(t, running, 1)
	assert.Equal(t, "op", running[0].ID)

	snapshot, err := manager.GetOperation("op")
	require.NoError(t, err)
	assert.Equal(t, operations.OperationStatusRunning, snapshot.GetStatus())

	require.NoError(t, manager.CancelOperation("op"))
	err = <-done
	assert.Equal(t, operations.ErrorTypeCancellation, operations.GetErrorType(err))

	assert.Error(t, manager.CancelOperation("op"))
	_, err = manager.GetOperation("op")
	assert.Error(t, err)
}

func TestManagerWithTracer(t *testing.T) {
	providers, err := infrastructure.InitializeOTel(context.Background(), infrastructure.DefaultOTelConfig(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	tracer, err := operations.NewOperationTracer(providers)
	require.NoError(t, err)
	require.NotNil(t, tracer.Metrics())

	manager := operations.NewManager(operations.NewRegistry(), nil, testLogger(), tracer)
	require.NoError(t, manager.RegisterStep(newFakeStep("load")))
	_, _, err = manager.Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)

	families, err := providers.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, family := range families {
		names = append(names, family.GetName())
	}
	for _, prefix := range []string{"operation_steps", "operation_executions", "operation_step_duration"} {
		found := false
		for _, name := range names {
			found = found || strings.HasPrefix(name, prefix)
		}
		assert.True(t, found, "no metric %s in %v", prefix, names)
	}
}

func TestConfigStepTimeouts(t *testing.T) {
	config := operations.NewConfig()
	assert.Equal(t, operations.DefaultLoadTimeout, config.GetStepTimeout(operations.StepIDLoad))
	assert.Equal(t, operations.DefaultStepTimeout, config.GetStepTimeout("unknown"))

	config.SetStepTimeout("unknown", time.Second)
	assert.Equal(t, time.Second, config.GetStepTimeout("unknown"))
}
