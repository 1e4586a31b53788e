package errors

import (
	"context"
	"errors"
	"net/http"
)

// IsNotFound reports whether err is a NotFound condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsBusy reports whether err is a Busy condition
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}

// IsTransport reports whether err is a transport failure, including timeouts
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsTimeout reports whether err is specifically a timeout
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsCancelled reports whether err is a user-initiated abort
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// GetStatusCode extracts the HTTP status from a transport error, 0 when absent
func GetStatusCode(err error) int {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.StatusCode
	}
	return 0
}

// GetEndpoint extracts the endpoint from a transport error, empty when absent
func GetEndpoint(err error) string {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Endpoint
	}
	return ""
}

// FromStatusCode maps a backend HTTP status to the matching error type
func FromStatusCode(statusCode int, endpoint, message string) error {
	switch statusCode {
	case http.StatusNotFound:
		return NewNotFoundError("conversation", message)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return NewTimeoutError(message)
	default:
		return NewTransportError(statusCode, endpoint, message)
	}
}
