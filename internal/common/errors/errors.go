// Package errors provides the structured error taxonomy shared by the
// intake pipeline and the HTTP layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeMissingBasicDetails ErrorCode = "MISSING_BASIC_DETAILS"
	ErrCodeInvalidTeam         ErrorCode = "INVALID_TEAM"
	ErrCodeDuplicateIdentifier ErrorCode = "DUPLICATE_IDENTIFIER"
	ErrCodeInvalidIdentifier   ErrorCode = "INVALID_IDENTIFIER"

	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewMissingBasicDetailsError creates a non-retryable input error.
func NewMissingBasicDetailsError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingBasicDetails,
		Message:   "Submission is missing required basic details",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTeamError creates a non-retryable input error.
func NewInvalidTeamError(team string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTeam,
		Message:   "Unknown recruitment team",
		Details:   fmt.Sprintf("team: %s", team),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateIdentifierError creates a non-retryable business-rule rejection.
func NewDuplicateIdentifierError(usn string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateIdentifier,
		Message:   "An application with this USN has already been registered, please verify your details",
		Details:   fmt.Sprintf("usn: %s", usn),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidIdentifierError creates a non-retryable input error.
func NewInvalidIdentifierError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidIdentifier,
		Message:   "Invalid student identifier",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable infrastructure error. The step
// annotation lets an operator tell a pre-write failure from a post-provision one.
func NewStoreUnavailableError(step string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Record store is unavailable, please try again",
		Details:   fmt.Sprintf("step: %s, error: %s", step, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError creates a retryable catch-all error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Something went wrong",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// AsStandardError extracts a *StandardError from err, wrapping unknown
// errors as internal so the HTTP layer never leaks raw failures.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HTTPStatus maps an error code to the response status the API returns.
// Client input and business-rule rejections are 400s, infrastructure is 500.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeMissingBasicDetails,
		ErrCodeInvalidTeam,
		ErrCodeInvalidIdentifier,
		ErrCodeDuplicateIdentifier:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryable reports whether the caller may safely retry the request.
func IsRetryable(err error) bool {
	return AsStandardError(err).Retryable
}
