package logger

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeInput    ErrorType = "INPUT_ERROR"
	ErrorTypeData     ErrorType = "DATA_ERROR"
	ErrorTypeConfig   ErrorType = "CONFIG_ERROR"
	ErrorTypeS3       ErrorType = "S3_ERROR"
	ErrorTypeDynamoDB ErrorType = "DYNAMODB_ERROR"
	ErrorTypeInternal ErrorType = "INTERNAL_ERROR"
)

// AppError represents an application-specific error with context
type AppError struct {
	Type     ErrorType
	Message  string
	Code     string
	Cause    error
	Metadata map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithCode creates a new application error with an error code
func NewAppErrorWithCode(errorType ErrorType, message, code string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Code:    code,
		Cause:   cause,
	}
}

// NewAppErrorWithMetadata creates a new application error with metadata
func NewAppErrorWithMetadata(errorType ErrorType, message string, cause error, metadata map[string]interface{}) *AppError {
	return &AppError{
		Type:     errorType,
		Message:  message,
		Cause:    cause,
		Metadata: metadata,
	}
}

// AsAppError finds the outermost AppError in err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ErrorHandler provides centralized error handling and logging
type ErrorHandler struct {
	logger *Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// Handle logs err under context and returns it as an AppError
func (eh *ErrorHandler) Handle(err error, context string) error {
	if err == nil {
		return nil
	}

	if appErr, ok := AsAppError(err); ok {
		eh.logger.Error(
			fmt.Sprintf("%s: %s", context, appErr.Message),
			err,
			appErr.Metadata,
		)
		return err
	}

	eh.logger.Error(fmt.Sprintf("%s: unexpected error", context), err)
	return NewAppError(ErrorTypeInternal, context, err)
}

// RecoverError converts a recovered panic value into an AppError.
// Call it with the result of recover() inside a deferred function.
func (eh *ErrorHandler) RecoverError(recovered interface{}, context string) error {
	if recovered == nil {
		return nil
	}
	err := fmt.Errorf("panic recovered: %v", recovered)
	eh.logger.Error(fmt.Sprintf("%s: panic occurred", context), err)
	return NewAppError(ErrorTypeInternal, "panic recovered", err)
}

// WrapError wraps an existing error with additional context
func WrapError(err error, errorType ErrorType, message string) error {
	if err == nil {
		return nil
	}
	return NewAppError(errorType, message, err)
}

// IsErrorType checks if any AppError in err's chain has the given type
func IsErrorType(err error, errorType ErrorType) bool {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Type == errorType {
			return true
		}
		err = appErr.Cause
	}
	return false
}
