package operations

import (
	"time"
)

// Step identifiers of the feature pipeline
const (
	StepIDLoad          = "load"
	StepIDStores        = "stores"
	StepIDTrainFeatures = "train_features"
	StepIDDistributions = "distributions"
	StepIDTrainTable    = "train_table"
	StepIDTestFeatures  = "test_features"
	StepIDTestTable     = "test_table"
	StepIDExport        = "export"
)

// Step names
const (
	StepNameLoad          = "Load Raw Files"
	StepNameStores        = "Normalize Stores"
	StepNameTrainFeatures = "Train Features"
	StepNameDistributions = "Store Distributions"
	StepNameTrainTable    = "Train Table"
	StepNameTestFeatures  = "Test Features"
	StepNameTestTable     = "Test Table"
	StepNameExport        = "Export"
)

// Context keys for operation state
const (
	ContextKeyRunID         = "run_id"
	ContextKeyTrainSales    = "train_sales"
	ContextKeyTestSales     = "test_sales"
	ContextKeyStoreTable    = "store_table"
	ContextKeyStores        = "stores"
	ContextKeyTrainEnriched = "train_enriched"
	ContextKeyDistributions = "distributions"
	ContextKeyTrainTable    = "train_table"
	ContextKeyTestEnriched  = "test_enriched"
	ContextKeyTestTable     = "test_table"
	ContextKeyOutputs       = "outputs"
)

// Default timeouts
const (
	DefaultStepTimeout   = 30 * time.Minute
	DefaultLoadTimeout   = 10 * time.Minute
	DefaultExportTimeout = 10 * time.Minute
)

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration. Pipeline steps are
// deterministic, so only errors marked retryable get a second attempt.
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// OperationRequest represents a request to execute an operation
type OperationRequest struct {
	ID string `json:"id"`
	// Steps limits the run to the listed steps; empty runs every registered step
	Steps      []string               `json:"steps,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// OperationResponse represents the response from an operation execution
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Order    []string              `json:"order"`
	Error    string                `json:"error,omitempty"`
}
