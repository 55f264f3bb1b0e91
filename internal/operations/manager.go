package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/infrastructure"
)

// Manager orchestrates operation execution
type Manager struct {
	registry *Registry
	config   *Config
	logger   *slog.Logger
	tracer   *OperationTracer

	// Active operations
	mu         sync.RWMutex
	operations map[string]*OperationState
	cancels    map[string]context.CancelFunc
}

// NewManager creates a new operation manager. A nil tracer disables telemetry.
func NewManager(registry *Registry, config *Config, logger *slog.Logger, tracer *OperationTracer) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		registry:   registry,
		config:     config,
		logger:     infrastructure.WithComponent(logger, "operations"),
		tracer:     tracer,
		operations: make(map[string]*OperationState),
		cancels:    make(map[string]context.CancelFunc),
	}
}

// RegisterStep registers a Step with the operation
func (m *Manager) RegisterStep(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the registry for accessing registered steps
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Execute runs the requested steps, plus their dependencies, and returns the final state.
// The returned state is retained so callers can read step outputs.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, *OperationState, error) {
	if req.ID == "" {
		req.ID = infrastructure.GenerateRunID()
	}
	ctx = infrastructure.WithRunID(ctx, req.ID)

	state := NewOperationState(req.ID)
	state.Put(ContextKeyRunID, req.ID)
	for k, v := range req.Parameters {
		state.SetParam(k, v)
	}

	steps, err := m.registry.Plan(req.Steps)
	if err != nil {
		err = NewFatalError("failed to plan steps", err)
		m.logOperationError(ctx, req.ID, err)
		state.Fail(err)
		return m.createResponse(state, nil), state, err
	}

	order := make([]string, len(steps))
	for i, step := range steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
		order[i] = step.ID()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.storeOperation(state, cancel)
	defer m.removeOperation(req.ID)

	ctx, span := m.tracer.TraceOperationExecution(ctx, req.ID, order)
	defer span.End()

	m.logOperationStart(ctx, req.ID, order, req)
	state.Start()

	err = m.executeSequential(ctx, state, steps)

	switch {
	case err == nil:
		state.Complete()
	case GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
		m.logOperationError(ctx, req.ID, err)
	default:
		state.Fail(err)
		m.logOperationError(ctx, req.ID, err)
	}

	m.tracer.RecordOperationCompletion(ctx, span, req.ID, state.Duration(), err)
	m.logOperationComplete(ctx, req.ID, state.Duration(), state.GetStatus())

	return m.createResponse(state, order), state, err
}

// executeSequential executes steps one by one in dependency order
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	var firstErr error

	for i, step := range steps {
		if ctx.Err() != nil {
			m.logger.WarnContext(ctx, "operation_cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			m.skipRemaining(state, steps[i:], "operation cancelled")
			return NewCancellationError(step.ID())
		}

		stepState := state.Step(step.ID())
		if stepState.GetStatus() == StepStatusSkipped {
			continue
		}

		m.logger.DebugContext(ctx, "executing_step",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStep(ctx, state, step); err != nil {
			m.logStepError(ctx, state.ID, step.ID(), err)
			m.skipDependentSteps(ctx, state, steps, step.ID())

			if GetErrorType(err) == ErrorTypeCancellation {
				m.skipRemaining(state, steps[i+1:], "operation cancelled")
				return err
			}
			if !m.config.ContinueOnError {
				m.skipRemaining(state, steps[i+1:], fmt.Sprintf("step %s failed", step.ID()))
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// executeStep executes a single Step with retry logic
func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.Step(step.ID())
	if stepState == nil {
		return NewFatalError(fmt.Sprintf("state for step %s not found", step.ID()), nil)
	}

	if err := m.checkDependencies(state, step); err != nil {
		stepState.Skip(err.Error())
		m.logStepSkipped(ctx, state.ID, step.ID(), err.Error())
		return err
	}

	if err := step.Validate(state); err != nil {
		verr := NewValidationError(step.ID(), err.Error())
		stepState.Fail(verr)
		return verr
	}

	timeout := m.config.GetStepTimeout(step.ID())
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stepCtx, span := m.tracer.TraceStepExecution(stepCtx, state.ID, step.ID())
	defer span.End()

	retryConfig := m.config.RetryConfig
	maxAttempts := retryConfig.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		stepState.Start()
		m.logStepStart(stepCtx, state.ID, step.ID(), attempt)

		startTime := time.Now()
		err := step.Execute(stepCtx, state)
		duration := time.Since(startTime)

		if err == nil {
			stepState.Complete()
			m.logStepComplete(stepCtx, state.ID, step.ID(), duration)
			m.tracer.RecordStepCompletion(stepCtx, span, step.ID(), duration, nil)
			return nil
		}

		lastErr = m.classify(ctx, stepCtx, step.ID(), timeout, err)
		m.tracer.RecordStepCompletion(stepCtx, span, step.ID(), duration, lastErr)

		if !IsRetryable(lastErr) || attempt >= maxAttempts {
			break
		}

		delay := m.calculateRetryDelay(attempt, retryConfig)
		m.logger.WarnContext(stepCtx, "step_retry",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", lastErr.Error()))

		select {
		case <-time.After(delay):
		case <-stepCtx.Done():
			lastErr = m.classify(ctx, stepCtx, step.ID(), timeout, stepCtx.Err())
			stepState.Fail(lastErr)
			return lastErr
		}
	}

	stepState.Fail(lastErr)
	return lastErr
}

// classify maps a step error onto an OperationError
func (m *Manager) classify(parent, stepCtx context.Context, stepID string, timeout time.Duration, err error) error {
	switch {
	case parent.Err() != nil:
		return NewCancellationError(stepID)
	case errors.Is(stepCtx.Err(), context.DeadlineExceeded):
		return NewTimeoutError(stepID, timeout.String())
	}
	return WrapError(err, stepID, "step execution failed")
}

// skipDependentSteps marks all pending steps that depend on the failed Step as skipped
func (m *Manager) skipDependentSteps(ctx context.Context, state *OperationState, steps []Step, failedStepID string) {
	for _, step := range steps {
		for _, dep := range step.Dependencies() {
			if dep != failedStepID {
				continue
			}
			stepState := state.Step(step.ID())
			if stepState != nil && stepState.GetStatus() == StepStatusPending {
				reason := fmt.Sprintf("dependency %s failed", failedStepID)
				stepState.Skip(reason)
				m.logStepSkipped(ctx, state.ID, step.ID(), reason)
				m.skipDependentSteps(ctx, state, steps, step.ID())
			}
			break
		}
	}
}

// skipRemaining marks every still pending step as skipped
func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		stepState := state.Step(step.ID())
		if stepState != nil && stepState.GetStatus() == StepStatusPending {
			stepState.Skip(reason)
		}
	}
}

// checkDependencies verifies that all dependencies are satisfied
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.Dependencies() {
		depState := state.Step(dep)
		if depState == nil {
			return NewDependencyError(step.ID(), dep, "dependency not planned")
		}
		if status := depState.GetStatus(); status != StepStatusCompleted {
			return NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency not completed (status: %s)", status))
		}
	}
	return nil
}

// calculateRetryDelay returns the exponential backoff before the next attempt
func (m *Manager) calculateRetryDelay(attempt int, config RetryConfig) time.Duration {
	delay := config.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * config.Multiplier)
	}
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

// createResponse creates an operation response from state
func (m *Manager) createResponse(state *OperationState, order []string) *OperationResponse {
	snapshot := state.Clone()
	resp := &OperationResponse{
		ID:       snapshot.ID,
		Status:   snapshot.Status,
		Duration: snapshot.Duration(),
		Steps:    snapshot.Steps,
		Order:    order,
	}
	if snapshot.Error != nil {
		resp.Error = snapshot.Error.Error()
	}
	return resp
}

// GetOperation retrieves a snapshot of a running operation
func (m *Manager) GetOperation(id string) (*OperationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.operations[id]
	if !exists {
		return nil, fmt.Errorf("operation %s not found", id)
	}
	return state.Clone(), nil
}

// ListOperations returns snapshots of all running operations
func (m *Manager) ListOperations() []*OperationState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	operations := make([]*OperationState, 0, len(m.operations))
	for _, state := range m.operations {
		operations = append(operations, state.Clone())
	}
	return operations
}

// CancelOperation cancels a running operation
func (m *Manager) CancelOperation(id string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cancel, exists := m.cancels[id]
	if !exists {
		return fmt.Errorf("operation %s not found", id)
	}
	cancel()
	return nil
}

func (m *Manager) storeOperation(state *OperationState, cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[state.ID] = state
	m.cancels[state.ID] = cancel
}

func (m *Manager) removeOperation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.operations, id)
	delete(m.cancels, id)
}
