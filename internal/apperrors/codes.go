// Package apperrors provides structured domain errors with machine-readable codes.
package apperrors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Interval validation
	CodeInvalidDateFormat Code = "INVALID_DATE_FORMAT"
	CodeInvalidDateOrder  Code = "INVALID_DATE_ORDER"
	CodeInvalidDuration   Code = "INVALID_DURATION"
	CodeOverlapDetected   Code = "OVERLAP_DETECTED"

	// Input and references
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeUnknownTask     Code = "UNKNOWN_TASK"
	CodeUnauthenticated Code = "UNAUTHENTICATED"

	// Storage
	CodeNotFound           Code = "NOT_FOUND"
	CodeTransactionFailure Code = "TRANSACTION_FAILURE"

	// Timer
	CodeTimerAlreadyActive Code = "TIMER_ALREADY_ACTIVE"
	CodeTimerNotRunning    Code = "TIMER_NOT_RUNNING"
	CodeTimerNotPaused     Code = "TIMER_NOT_PAUSED"
	CodeTimerIdle          Code = "TIMER_IDLE"
	CodeTimerStopInFlight  Code = "TIMER_STOP_IN_FLIGHT"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidDateFormat,
		CodeInvalidDateOrder,
		CodeInvalidDuration,
		CodeOverlapDetected,
		CodeInvalidArgument,
		CodeUnknownTask:
		return http.StatusUnprocessableEntity

	case CodeUnauthenticated:
		return http.StatusUnauthorized

	case CodeNotFound:
		return http.StatusNotFound

	case CodeTimerAlreadyActive,
		CodeTimerNotRunning,
		CodeTimerNotPaused,
		CodeTimerIdle,
		CodeTimerStopInFlight:
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// IsValidation reports whether the code describes rejected caller input.
func (c Code) IsValidation() bool {
	return c.HTTPStatus() == http.StatusUnprocessableEntity
}
