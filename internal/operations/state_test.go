package operations_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/errors"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/operations"
)

func TestOperationStateLifecycle(t *testing.T) {
	state := operations.NewOperationState("op")
	assert.Equal(t, operations.OperationStatusPending, state.GetStatus())

	state.Start()
	assert.Equal(t, operations.OperationStatusRunning, state.GetStatus())

	step := operations.NewStepState("load", "Load")
	state.SetStep("load", step)
	step.Start()
	step.SetMetadata("rows", 10)
	step.Fail(errors.New("bad file"))
	assert.Equal(t, []string{"load"}, state.FailedSteps())

	state.Fail(errors.New("bad file"))
	assert.Equal(t, operations.OperationStatusFailed, state.GetStatus())
}

func TestOperationStateCloneIsIndependent(t *testing.T) {
	state := operations.NewOperationState("op")
	state.SetStep("load", operations.NewStepState("load", "Load"))
	state.Put("table", []int{1, 2})
	state.SetParam("jobs", 2)

	clone := state.Clone()
	state.Step("load").Complete()
	state.Put("other", true)

	assert.Equal(t, operations.StepStatusPending, clone.Step("load").GetStatus())
	_, ok := clone.Value("other")
	assert.False(t, ok)
	jobs, ok := clone.Param("jobs")
	require.True(t, ok)
	assert.Equal(t, 2, jobs)
}

func TestContextValue(t *testing.T) {
	state := operations.NewOperationState("op")
	state.Put("rows", 42)

	rows, err := operations.ContextValue[int](state, "rows")
	require.NoError(t, err)
	assert.Equal(t, 42, rows)

	_, err = operations.ContextValue[string](state, "rows")
	assert.ErrorContains(t, err, "has type int")

	_, err = operations.ContextValue[int](state, "missing")
	assert.ErrorContains(t, err, "not set")
}

func TestStepStateTransitions(t *testing.T) {
	step := operations.NewStepState("export", "Export")
	assert.Zero(t, step.Duration())

	step.Start()
	assert.Equal(t, operations.StepStatusActive, step.GetStatus())
	step.Complete()
	assert.Equal(t, operations.StepStatusCompleted, step.GetStatus())
	assert.Equal(t, 1, step.Attempts)

	skipped := operations.NewStepState("report", "Report")
	skipped.Skip("report disabled")
	assert.Equal(t, operations.StepStatusSkipped, skipped.GetStatus())
	assert.True(t, skipped.GetStatus().Done())
	assert.False(t, operations.StepStatusActive.Done())
	assert.Equal(t, "report disabled", skipped.Message)
}

func TestBaseStepValidate(t *testing.T) {
	step := operations.NewBaseStep("train", "Train", "load").
		WithInputs("sales", "stores").
		WithOutputs(operations.DataOutput{Key: "enriched"})

	state := operations.NewOperationState("op")
	state.Put("sales", 1)
	assert.ErrorContains(t, step.Validate(state), "stores")

	state.Put("stores", 2)
	assert.NoError(t, step.Validate(state))

	optional := operations.NewBaseStep("report", "Report").WithOptionalInputs("stores")
	assert.NoError(t, optional.Validate(operations.NewOperationState("empty")))

	assert.Equal(t, []string{"load"}, step.Dependencies())
	assert.Len(t, step.RequiredInputs(), 2)
	assert.Equal(t, "enriched", step.ProducedOutputs()[0].Key)
}

func TestOperationErrors(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name      string
		err       error
		wantType  operations.ErrorType
		retryable bool
		contains  string
	}{
		{name: "validation", err: operations.NewValidationError("load", "missing input"), wantType: operations.ErrorTypeValidation, contains: "load: missing input"},
		{name: "dependency", err: operations.NewDependencyError("train", "load", "not completed"), wantType: operations.ErrorTypeDependency, contains: "not completed"},
		{name: "retryable execution", err: operations.NewExecutionError("export", cause, true), wantType: operations.ErrorTypeExecution, retryable: true, contains: "disk full"},
		{name: "timeout", err: operations.NewTimeoutError("load", "10m0s"), wantType: operations.ErrorTypeTimeout, contains: "10m0s"},
		{name: "cancellation", err: operations.NewCancellationError("load"), wantType: operations.ErrorTypeCancellation, contains: "cancelled"},
		{name: "fatal", err: operations.NewFatalError("no plan", cause), wantType: operations.ErrorTypeFatal, contains: "no plan"},
		{name: "plain error", err: cause, wantType: operations.ErrorTypeExecution, contains: "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, operations.GetErrorType(tt.err))
			assert.Equal(t, tt.retryable, operations.IsRetryable(tt.err))
			assert.Contains(t, tt.err.Error(), tt.contains)
		})
	}

	assert.ErrorIs(t, operations.NewCancellationError("load"), context.Canceled)
	assert.Nil(t, operations.WrapError(nil, "load", "x"))

	wrapped := operations.WrapError(cause, "export", "write failed")
	assert.Equal(t, "export", wrapped.Step)
	assert.ErrorIs(t, wrapped, cause)
	assert.False(t, wrapped.Retryable)

	assert.True(t, operations.WrapError(apperrors.NewStorageError("locked", cause), "export", "save").Retryable)
	assert.False(t, operations.WrapError(apperrors.NewSchemaError("train.csv", "Sales"), "load", "parse").Retryable)
	assert.ErrorIs(t, operations.NewTimeoutError("load", "1s"), context.DeadlineExceeded)
}
