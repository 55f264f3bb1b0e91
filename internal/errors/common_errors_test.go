package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    NewAppValidationError("window must be positive"),
			wantMessage: "[VALIDATION] window must be positive",
		},
		{
			name:        "error with cause",
			appError:    NewStorageError("failed to save distributions", fmt.Errorf("disk full")),
			wantMessage: "[STORAGE] failed to save distributions: disk full",
		},
		{
			name:        "schema error",
			appError:    NewSchemaError("store.csv", "StoreType"),
			wantMessage: "[SCHEMA] required column StoreType missing",
		},
		{
			name:        "not found",
			appError:    NewNotFoundError("distribution run"),
			wantMessage: "[NOT_FOUND] distribution run not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("bad cell")
	err := NewParsingError("failed to parse train.csv", cause)

	assert.True(t, errors.Is(err, cause))

	wrapped := fmt.Errorf("load: %w", err)
	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeParsing, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewSchemaError("train.csv", "Date")

	assert.Equal(t, "train.csv", err.Context["file"])
	assert.Equal(t, "Date", err.Context["column"])

	err = (&AppError{Type: ErrTypeConfig, Message: "bad"}).WithContext("key", 1)
	assert.Equal(t, 1, err.Context["key"])
}

func TestIsType(t *testing.T) {
	schema := NewSchemaError("store.csv", "Store")
	nested := NewParsingError("failed to read store.csv", schema)

	tests := []struct {
		name    string
		err     error
		errType ErrorType
		want    bool
	}{
		{"direct match", schema, ErrTypeSchema, true},
		{"nested match", fmt.Errorf("step failed: %w", nested), ErrTypeSchema, true},
		{"outer match", nested, ErrTypeParsing, true},
		{"no match", nested, ErrTypeStorage, false},
		{"plain error", errors.New("x"), ErrTypeSchema, false},
		{"nil", nil, ErrTypeSchema, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsType(tt.err, tt.errType))
		})
	}
}
