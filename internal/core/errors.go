// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Data errors
	ErrNoData      = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrDataInvalid = &Error{Code: "DATA_INVALID", Message: "price data invalid"}
	ErrIndexRange  = &Error{Code: "INDEX_OUT_OF_RANGE", Message: "bar index out of range"}

	// Order errors
	ErrInvalidOrder = &Error{Code: "INVALID_ORDER", Message: "order rejected"}

	// Run outcomes. Bankruptcy is a defined early termination, not a
	// failure; the partial result is still returned alongside it.
	ErrBankruptcy = &Error{Code: "BANKRUPTCY", Message: "equity exhausted, run terminated early"}

	// Strategy errors
	ErrStrategyFailed   = &Error{Code: "STRATEGY_FAILED", Message: "strategy decision failed"}
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient data for analysis"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
