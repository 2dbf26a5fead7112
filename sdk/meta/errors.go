package meta

import (
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

const defaultErrorMessage = "An unexpected error occurred. Please try again."

// ErrAuthentication represents an error that occurs when the API server
// cannot establish who the caller is.
type ErrAuthentication struct {
	Reason string `json:"reason"`
}

func (e *ErrAuthentication) Error() string {
	return fmt.Sprintf("Could not authenticate the request: %s", e.Reason)
}

// ErrAuthorization represents an error that occurs when an authenticated
// caller is not permitted to do what it attempted.
type ErrAuthorization struct {
	Reason string `json:"reason"`
}

func (e *ErrAuthorization) Error() string {
	if e.Reason == "" {
		return "The request is not authorized."
	}
	return fmt.Sprintf("The request is not authorized: %s", e.Reason)
}

// ErrBadRequest represents an error where the API server rejected a request
// as malformed or invalid.
type ErrBadRequest struct {
	Reason  string   `json:"reason"`
	Details []string `json:"details"`
}

func (e *ErrBadRequest) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("Bad request: %s", e.Reason)
	}
	msg := fmt.Sprintf("Bad request: %s:", e.Reason)
	for i, detail := range e.Details {
		msg = fmt.Sprintf("%s\n  %d. %s", msg, i, detail)
	}
	return msg
}

// ErrNotFound represents an error where a requested resource does not exist.
type ErrNotFound struct {
	Reason string `json:"reason"`
}

func (e *ErrNotFound) Error() string {
	return e.Reason
}

// ErrConflict represents an error where a request conflicts with existing
// data.
type ErrConflict struct {
	Reason string `json:"reason"`
}

func (e *ErrConflict) Error() string {
	return e.Reason
}

// ErrRateLimited represents an error where the API server throttled the
// request. RetryAfter is the number of seconds the server asked the caller to
// wait; zero means the server did not say.
type ErrRateLimited struct {
	Reason     string `json:"reason"`
	RetryAfter int    `json:"retryAfter"`
}

func (e *ErrRateLimited) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %ds)", e.Reason, e.RetryAfter)
	}
	return e.Reason
}

// ErrInternalServer represents a failure inside the API server.
type ErrInternalServer struct {
	Reason string `json:"reason"`
}

func (e *ErrInternalServer) Error() string {
	return e.Reason
}

// ErrServiceUnavailable represents a gateway or availability failure in
// front of, or inside, the API server.
type ErrServiceUnavailable struct {
	Reason string `json:"reason"`
}

func (e *ErrServiceUnavailable) Error() string {
	return e.Reason
}

// ErrUnexpectedStatus represents any other non-success response.
type ErrUnexpectedStatus struct {
	StatusCode int    `json:"statusCode"`
	Reason     string `json:"reason"`
}

func (e *ErrUnexpectedStatus) Error() string {
	return fmt.Sprintf("received %d from API server: %s", e.StatusCode, e.Reason)
}

// StatusMessage returns a user-friendly message for common HTTP status codes.
func StatusMessage(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "Invalid request. Please check your input."
	case http.StatusUnauthorized:
		return "You are not authenticated. Please log in again."
	case http.StatusForbidden:
		return "You do not have permission to perform this action."
	case http.StatusNotFound:
		return "The requested resource was not found."
	case http.StatusConflict:
		return "This action conflicts with existing data."
	case http.StatusUnprocessableEntity:
		return "Invalid data provided. Please check your input."
	case http.StatusTooManyRequests:
		return "Too many requests. Please wait a moment and try again."
	case http.StatusInternalServerError:
		return "Server error. Please try again later."
	case http.StatusBadGateway:
		return "Service unavailable. Please try again later."
	case http.StatusServiceUnavailable:
		return "Service temporarily unavailable. Please try again later."
	default:
		return "An error occurred. Please try again."
	}
}

// Message extracts a message suitable for showing to a user from any error
// returned by the SDK.
func Message(err error) string {
	if err == nil {
		return defaultErrorMessage
	}
	switch e := errors.Cause(err).(type) {
	case *ErrAuthentication:
		return e.Reason
	case *ErrAuthorization:
		if e.Reason != "" {
			return e.Reason
		}
	case *ErrBadRequest:
		return e.Reason
	case *ErrNotFound:
		return e.Reason
	case *ErrConflict:
		return e.Reason
	case *ErrRateLimited:
		return e.Reason
	case *ErrInternalServer:
		return e.Reason
	case *ErrServiceUnavailable:
		return e.Reason
	case *ErrUnexpectedStatus:
		return e.Reason
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return defaultErrorMessage
}

// IsAuthError returns true if the error indicates the caller's credentials
// were rejected or insufficient.
func IsAuthError(err error) bool {
	switch errors.Cause(err).(type) {
	case *ErrAuthentication, *ErrAuthorization:
		return true
	}
	return false
}

// IsNetworkError returns true if the error indicates the API server could not
// be reached at all, as opposed to the API server responding with an error.
func IsNetworkError(err error) bool {
	switch errors.Cause(err).(type) {
	case *url.Error, *net.OpError, net.Error:
		return true
	}
	return false
}
