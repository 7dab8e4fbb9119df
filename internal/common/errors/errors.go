// Package errors provides standardized error handling for the prediction service.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Input errors: recovered locally by re-prompting the user.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeMissingFeature   ErrorCode = "MISSING_FEATURE"
	ErrCodeUnknownCategory  ErrorCode = "UNKNOWN_CATEGORY"

	// Artifact errors: fatal at startup, never retried.
	ErrCodeModelUnavailable ErrorCode = "MODEL_UNAVAILABLE"

	// Internal consistency: the assembled vector does not match the model.
	ErrCodeVectorMismatch ErrorCode = "FEATURE_VECTOR_MISMATCH"

	// Collaborator errors: degrade gracefully, never fail the prediction.
	ErrCodeHistoryInsertFailed ErrorCode = "HISTORY_INSERT_FAILED"
	ErrCodeHistoryQueryFailed  ErrorCode = "HISTORY_QUERY_FAILED"
	ErrCodeCacheUnavailable    ErrorCode = "CACHE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Field     string                 `json:"field,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable input validation error for a field.
func NewValidationError(field, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Field:     field,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingFeatureError creates a non-retryable error for an absent required feature.
func NewMissingFeatureError(feature string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingFeature,
		Message:   "Required feature missing",
		Details:   fmt.Sprintf("feature: %s", feature),
		Field:     feature,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownCategoryError creates a non-retryable error for a categorical value
// outside the trained category set.
func NewUnknownCategoryError(feature, value string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownCategory,
		Message:   "Categorical value outside trained set",
		Details:   fmt.Sprintf("feature: %s, value: %q", feature, value),
		Field:     feature,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewModelUnavailableError creates a non-retryable fatal artifact error.
func NewModelUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelUnavailable,
		Message:   "Model artifact missing or corrupt",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewVectorMismatchError creates a non-retryable internal consistency error.
func NewVectorMismatchError(want, got int) *StandardError {
	return &StandardError{
		Code:      ErrCodeVectorMismatch,
		Message:   "Feature vector does not match model dimensions",
		Details:   fmt.Sprintf("want %d values, got %d", want, got),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewHistoryInsertFailedError creates a retryable history write error.
func NewHistoryInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHistoryInsertFailed,
		Message:   "Prediction history insert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewHistoryQueryFailedError creates a retryable history read error.
func NewHistoryQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHistoryQueryFailed,
		Message:   "Prediction history query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a retryable cache error.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Prediction cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandardError unwraps err into a *StandardError when possible.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsInputError reports whether the error is recovered by correcting user input.
func IsInputError(err error) bool {
	stdErr, ok := AsStandardError(err)
	if !ok {
		return false
	}
	switch stdErr.Code {
	case ErrCodeValidationFailed, ErrCodeMissingFeature, ErrCodeUnknownCategory:
		return true
	default:
		return false
	}
}

// IsFatal reports whether the error must stop the process at startup.
func IsFatal(err error) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == ErrCodeModelUnavailable
}
