package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	DetectionError ErrorType = iota
	HistoryError
	ExecutionError
	StorageError
	ConfigError
	AnalysisError
	ValidationError
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case DetectionError:
		return "detection"
	case HistoryError:
		return "history"
	case ExecutionError:
		return "execution"
	case StorageError:
		return "storage"
	case ConfigError:
		return "config"
	case AnalysisError:
		return "analysis"
	case ValidationError:
		return "validation"
	default:
		return "unknown"
	}
}

// ShellyError represents a structured error with context
type ShellyError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *ShellyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s (caused by: %v)", e.Type.String(), e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Type.String(), e.Message)
}

// Unwrap returns the underlying error
func (e *ShellyError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *ShellyError) WithContext(key string, value interface{}) *ShellyError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func newError(t ErrorType, message string, cause error) *ShellyError {
	return &ShellyError{Type: t, Message: message, Cause: cause}
}

// NewDetectionError creates a new shell-detection error
func NewDetectionError(message string, cause error) *ShellyError {
	return newError(DetectionError, message, cause)
}

// NewHistoryError creates a new shell-history error
func NewHistoryError(message string, cause error) *ShellyError {
	return newError(HistoryError, message, cause)
}

// NewExecutionError creates a new execution-related error
func NewExecutionError(message string, cause error) *ShellyError {
	return newError(ExecutionError, message, cause)
}

// NewStorageError creates a new storage-related error
func NewStorageError(message string, cause error) *ShellyError {
	return newError(StorageError, message, cause)
}

// NewConfigError creates a new configuration-related error
func NewConfigError(message string, cause error) *ShellyError {
	return newError(ConfigError, message, cause)
}

// NewAnalysisError creates a new analysis-service error
func NewAnalysisError(message string, cause error) *ShellyError {
	return newError(AnalysisError, message, cause)
}

// NewValidationError creates a new validation-related error
func NewValidationError(message string, cause error) *ShellyError {
	return newError(ValidationError, message, cause)
}

// IsType checks if an error, or any error it wraps, is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var shellyErr *ShellyError
	if stderrors.As(err, &shellyErr) {
		return shellyErr.Type == errorType
	}
	return false
}
