package operations

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// OperationStatusValue is the overall status of a run
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// OperationState is the shared state of one pipeline run. Values holds the
// tables steps hand to each other; Params holds request parameters.
type OperationState struct {
	mu sync.RWMutex

	ID        string               `json:"id"`
	Status    OperationStatusValue `json:"status"`
	StartTime time.Time            `json:"start_time"`
	EndTime   *time.Time           `json:"end_time,omitempty"`
	Error     error                `json:"error,omitempty"`

	Steps  map[string]*StepState  `json:"steps"`
	Values map[string]interface{} `json:"-"`
	Params map[string]interface{} `json:"params"`
}

// NewOperationState creates a pending run state
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
		Values:    make(map[string]interface{}),
		Params:    make(map[string]interface{}),
	}
}

// Start marks the run as running
func (s *OperationState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = OperationStatusRunning
	s.StartTime = time.Now()
}

func (s *OperationState) Complete()        { s.finish(OperationStatusCompleted, nil) }
func (s *OperationState) Fail(err error)   { s.finish(OperationStatusFailed, err) }
func (s *OperationState) Cancel(err error) { s.finish(OperationStatusCancelled, err) }

func (s *OperationState) finish(status OperationStatusValue, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = status
	s.Error = err
}

// GetStatus returns the run status
func (s *OperationState) GetStatus() OperationStatusValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Step returns the state of step id, or nil
func (s *OperationState) Step(id string) *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Steps[id]
}

// SetStep registers the state of step id
func (s *OperationState) SetStep(id string, step *StepState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Steps[id] = step
}

// Value returns the value a step put under key
func (s *OperationState) Value(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Values[key]
	return v, ok
}

// Put stores a value for later steps
func (s *OperationState) Put(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Values[key] = value
}

// Param returns a request parameter
func (s *OperationState) Param(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Params[key]
	return v, ok
}

// SetParam records a request parameter
func (s *OperationState) SetParam(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Params[key] = value
}

// StartedAt returns when the run started
func (s *OperationState) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.StartTime
}

// Duration is the run time so far, or the total once finished
func (s *OperationState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.EndTime == nil {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// FailedSteps returns the sorted IDs of failed steps
func (s *OperationState) FailedSteps() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var failed []string
	for id, step := range s.Steps {
		if step.GetStatus() == StepStatusFailed {
			failed = append(failed, id)
		}
	}
	sort.Strings(failed)
	return failed
}

// ContextValue returns the value under key as T
func ContextValue[T any](state *OperationState, key string) (T, error) {
	var zero T
	raw, ok := state.Value(key)
	if !ok {
		return zero, fmt.Errorf("context value %s not set", key)
	}
	value, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("context value %s has type %T, want %T", key, raw, zero)
	}
	return value, nil
}

// Clone copies the run and its step states. Values are shared, not deep copied.
func (s *OperationState) Clone() *OperationState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := &OperationState{
		ID:        s.ID,
		Status:    s.Status,
		StartTime: s.StartTime,
		Error:     s.Error,
		Steps:     make(map[string]*StepState, len(s.Steps)),
		Values:    make(map[string]interface{}, len(s.Values)),
		Params:    make(map[string]interface{}, len(s.Params)),
	}
	if s.EndTime != nil {
		end := *s.EndTime
		clone.EndTime = &end
	}
	for id, step := range s.Steps {
		clone.Steps[id] = step.snapshot()
	}
	for k, v := range s.Values {
		clone.Values[k] = v
	}
	for k, v := range s.Params {
		clone.Params[k] = v
	}
	return clone
}
