// Package errors provides the error taxonomy of the calculator core and its
// conversion to BPMN errors for the job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Precondition errors
	ErrCodeIncomeMissing     ErrorCode = "INCOME_MISSING"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"

	// Validation errors
	ErrCodeInvalidIncome ErrorCode = "INVALID_INCOME"
	ErrCodeInvalidGoal   ErrorCode = "INVALID_GOAL"
	ErrCodeParseError    ErrorCode = "PARSE_ERROR"

	// Persistence errors
	ErrCodeGoalNotFound       ErrorCode = "GOAL_NOT_FOUND"
	ErrCodeStorageReadFailed  ErrorCode = "STORAGE_READ_FAILED"
	ErrCodeStorageWriteFailed ErrorCode = "STORAGE_WRITE_FAILED"

	// Integration errors
	ErrCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	ErrCodeEngineRejected    ErrorCode = "ENGINE_REJECTED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches any StandardError carrying the same code, so sentinels like
// ErrIncomeMissing work with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrIncomeMissing     = &StandardError{Code: ErrCodeIncomeMissing}
	ErrInvalidTransition = &StandardError{Code: ErrCodeInvalidTransition}
	ErrInvalidIncome     = &StandardError{Code: ErrCodeInvalidIncome}
	ErrInvalidGoal       = &StandardError{Code: ErrCodeInvalidGoal}
	ErrGoalNotFound      = &StandardError{Code: ErrCodeGoalNotFound}
	ErrStorageWrite      = &StandardError{Code: ErrCodeStorageWriteFailed}
)

// BPMNError represents an error that can be thrown to the Zeebe workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for job fail/throw variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 2. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewIncomeMissingError is the precondition failure for a goal submitted
// before any income profile exists.
func NewIncomeMissingError() *StandardError {
	return newError(ErrCodeIncomeMissing,
		"Income details are missing",
		"submit the income step before evaluating a goal", false)
}

// NewInvalidTransitionError reports an event that the current stage does not accept.
func NewInvalidTransitionError(event, stage string) *StandardError {
	return newError(ErrCodeInvalidTransition,
		"Event not allowed in current stage",
		fmt.Sprintf("event: %s, stage: %s", event, stage), false)
}

func NewInvalidIncomeError(err error) *StandardError {
	return newError(ErrCodeInvalidIncome, "Income profile is invalid", err.Error(), false)
}

func NewInvalidGoalError(err error) *StandardError {
	return newError(ErrCodeInvalidGoal, "Goal is invalid", err.Error(), false)
}

func NewParseError(what string, err error) *StandardError {
	return newError(ErrCodeParseError, "Failed to parse input",
		fmt.Sprintf("%s: %s", what, err.Error()), false)
}

func NewGoalNotFoundError(goalID string) *StandardError {
	return newError(ErrCodeGoalNotFound, "Goal not found in history",
		fmt.Sprintf("goalId: %s", goalID), false)
}

// NewStorageReadFailedError wraps a backend read failure. Reads are retryable.
func NewStorageReadFailedError(key string, err error) *StandardError {
	return newError(ErrCodeStorageReadFailed, "Failed to read from storage",
		fmt.Sprintf("key: %s, error: %s", key, err.Error()), true)
}

// NewStorageWriteFailedError wraps a backend write failure. Writes are retryable.
func NewStorageWriteFailedError(key string, err error) *StandardError {
	return newError(ErrCodeStorageWriteFailed, "Failed to write to storage",
		fmt.Sprintf("key: %s, error: %s", key, err.Error()), true)
}

// NewEngineUnavailableError is a transient failure talking to the Zeebe gateway.
func NewEngineUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeEngineUnavailable, "Workflow engine unavailable",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

// NewEngineRejectedError is a command the gateway refused; retrying will not help.
func NewEngineRejectedError(operation string, err error) *StandardError {
	return newError(ErrCodeEngineRejected, "Workflow engine rejected command",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// ==========================
// 3. Error Conversion to BPMN
// ==========================

// GetRetryCount returns how many job retries a code deserves.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStorageReadFailed, ErrCodeStorageWriteFailed, ErrCodeEngineUnavailable:
		return 3
	default:
		return 0 // business errors are thrown, not retried
	}
}

// ConvertToBPMNError converts a StandardError for the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryableErrorCode reports whether code is a technical failure the engine
// should retry.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logging.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "STORAGE") || code == ErrCodeGoalNotFound:
		return "PERSISTENCE"
	case code == ErrCodeIncomeMissing || code == ErrCodeInvalidTransition:
		return "PRECONDITION"
	case strings.HasPrefix(codeStr, "INVALID_") || code == ErrCodeParseError:
		return "VALIDATION"
	case strings.HasPrefix(codeStr, "ENGINE_"):
		return "INTEGRATION"
	default:
		return "OTHER"
	}
}

// AsStandardError normalizes any error, wrapped or not, into a StandardError.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}
