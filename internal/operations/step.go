package operations

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DataRequirement names a state value a step reads
type DataRequirement struct {
	Key      string `json:"key"`
	Optional bool   `json:"optional"`
}

// DataOutput names a state value a step writes
type DataOutput struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// Step is one unit of pipeline work. Steps exchange tables through the
// operation state: each reads the values its dependencies put there.
type Step interface {
	ID() string
	Name() string
	Execute(ctx context.Context, state *OperationState) error
	// Validate reports whether the step can run against state
	Validate(state *OperationState) error
	Dependencies() []string
	RequiredInputs() []DataRequirement
	ProducedOutputs() []DataOutput
}

// StepStatus is the lifecycle position of a step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// Done reports whether the status is terminal
func (s StepStatus) Done() bool {
	return s == StepStatusCompleted || s == StepStatusFailed || s == StepStatusSkipped
}

// StepState tracks one step within a run
type StepState struct {
	mu        sync.RWMutex
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Status    StepStatus             `json:"status"`
	StartTime *time.Time             `json:"start_time,omitempty"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
	Attempts  int                    `json:"attempts"`
	Message   string                 `json:"message"`
	Error     error                  `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewStepState returns a pending step state
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:       id,
		Name:     name,
		Status:   StepStatusPending,
		Metadata: make(map[string]interface{}),
	}
}

// Start begins a new attempt
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.StartTime, s.EndTime = &now, nil
	s.Status = StepStatusActive
	s.Attempts++
}

// Complete ends the step successfully and clears any earlier attempt error
func (s *StepState) Complete() { s.finish(StepStatusCompleted, nil, "") }

// Fail ends the step with err
func (s *StepState) Fail(err error) { s.finish(StepStatusFailed, err, "") }

// Skip ends the step without running it
func (s *StepState) Skip(reason string) { s.finish(StepStatusSkipped, nil, reason) }

func (s *StepState) finish(status StepStatus, err error, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = status
	s.Error = err
	if message != "" {
		s.Message = message
	}
}

// SetMetadata records a step-specific value such as a row count
func (s *StepState) SetMetadata(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Metadata[key] = value
}

// GetStatus returns the current status
func (s *StepState) GetStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration is the length of the latest attempt; zero before the first one
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.StartTime == nil:
		return 0
	case s.EndTime == nil:
		return time.Since(*s.StartTime)
	default:
		return s.EndTime.Sub(*s.StartTime)
	}
}

// snapshot copies the state under its lock
func (s *StepState) snapshot() *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := &StepState{
		ID:        s.ID,
		Name:      s.Name,
		Status:    s.Status,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Attempts:  s.Attempts,
		Message:   s.Message,
		Error:     s.Error,
		Metadata:  make(map[string]interface{}, len(s.Metadata)),
	}
	for k, v := range s.Metadata {
		out.Metadata[k] = v
	}
	return out
}

// BaseStep carries the identity and declared data flow of a step.
// Embed it and implement Execute.
type BaseStep struct {
	id           string
	name         string
	dependencies []string
	inputs       []DataRequirement
	outputs      []DataOutput
}

// NewBaseStep creates a step base depending on the listed step IDs
func NewBaseStep(id, name string, dependencies ...string) BaseStep {
	return BaseStep{id: id, name: name, dependencies: append([]string{}, dependencies...)}
}

// WithInputs declares the state values the step reads
func (b BaseStep) WithInputs(keys ...string) BaseStep {
	for _, key := range keys {
		b.inputs = append(b.inputs, DataRequirement{Key: key})
	}
	return b
}

// WithOptionalInputs declares state values the step reads when present
func (b BaseStep) WithOptionalInputs(keys ...string) BaseStep {
	for _, key := range keys {
		b.inputs = append(b.inputs, DataRequirement{Key: key, Optional: true})
	}
	return b
}

// WithOutputs declares the state values the step writes
func (b BaseStep) WithOutputs(outputs ...DataOutput) BaseStep {
	b.outputs = append(b.outputs, outputs...)
	return b
}

func (b *BaseStep) ID() string                        { return b.id }
func (b *BaseStep) Name() string                      { return b.name }
func (b *BaseStep) Dependencies() []string            { return b.dependencies }
func (b *BaseStep) RequiredInputs() []DataRequirement { return b.inputs }
func (b *BaseStep) ProducedOutputs() []DataOutput     { return b.outputs }

// Validate fails when a required input is missing from state
func (b *BaseStep) Validate(state *OperationState) error {
	for _, req := range b.inputs {
		if req.Optional {
			continue
		}
		if _, ok := state.Value(req.Key); !ok {
			return fmt.Errorf("required input %s not available", req.Key)
		}
	}
	return nil
}
