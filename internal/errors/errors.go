// Package errors provides the error taxonomy for the Orion client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrNotFound     = errors.New("not found")
	ErrBusy         = errors.New("request already in flight")
	ErrTransport    = errors.New("backend request failed")
	ErrCancelled    = errors.New("request cancelled")
	ErrEmptyMessage = errors.New("message is empty")
)

// NotFoundError reports an operation against a missing chat, message or conversation
type NotFoundError struct {
	Kind string // "chat", "message" or "conversation"
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// Is allows comparison with sentinel errors
func (e *NotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	_, ok := target.(*NotFoundError)
	return ok
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// BusyError reports a send attempted while one was already in flight for the chat
type BusyError struct {
	ChatID string
}

func (e *BusyError) Error() string {
	if e.ChatID == "" {
		return "a response is already in flight"
	}
	return fmt.Sprintf("a response is already in flight for chat %s", e.ChatID)
}

// Is allows comparison with sentinel errors
func (e *BusyError) Is(target error) bool {
	if target == ErrBusy {
		return true
	}
	_, ok := target.(*BusyError)
	return ok
}

// NewBusyError creates a new BusyError
func NewBusyError(chatID string) *BusyError {
	return &BusyError{ChatID: chatID}
}

// TransportError represents a failed backend request
type TransportError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("backend error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("backend error at %s: %s", e.Endpoint, e.Message)
}

// Is allows comparison with sentinel errors
func (e *TransportError) Is(target error) bool {
	if target == ErrTransport {
		return true
	}
	_, ok := target.(*TransportError)
	return ok
}

// NewTransportError creates a new TransportError
func NewTransportError(statusCode int, endpoint, message string) *TransportError {
	return &TransportError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// TimeoutError represents a request timeout, surfaced on the transport path
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// Is allows comparison with sentinel errors; a timeout is a transport failure
func (e *TimeoutError) Is(target error) bool {
	if target == ErrTransport {
		return true
	}
	_, ok := target.(*TimeoutError)
	return ok
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// CancelledError represents a user-initiated abort of an in-flight request
type CancelledError struct {
	ChatID string
}

func (e *CancelledError) Error() string {
	if e.ChatID == "" {
		return "request cancelled"
	}
	return fmt.Sprintf("request cancelled for chat %s", e.ChatID)
}

// Is allows comparison with sentinel errors
func (e *CancelledError) Is(target error) bool {
	if target == ErrCancelled {
		return true
	}
	_, ok := target.(*CancelledError)
	return ok
}

// NewCancelledError creates a new CancelledError
func NewCancelledError(chatID string) *CancelledError {
	return &CancelledError{ChatID: chatID}
}

// ParseError represents a malformed stream event or response body
type ParseError struct {
	Message string
	Payload string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Is allows comparison with sentinel errors; a malformed stream is a transport failure
func (e *ParseError) Is(target error) bool {
	if target == ErrTransport {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new ParseError
func NewParseError(message, payload string) *ParseError {
	return &ParseError{Message: message, Payload: payload}
}
