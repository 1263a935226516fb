package dify

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed call
type ErrorKind int

const (
	// KindTransport means the service answered with a non-2xx status
	KindTransport ErrorKind = iota + 1
	// KindProtocol means the answer arrived but could not be used
	KindProtocol
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

var (
	// ErrStreamUnsupported is returned when a streaming call gets no event stream back
	ErrStreamUnsupported = errors.New("streaming not supported")

	// ErrNoOutputs is returned when a stream ends without a workflow result
	ErrNoOutputs = errors.New("workflow stream ended without producing outputs")

	// ErrWorkflowFailed is returned when a blocking run reports a status other than succeeded
	ErrWorkflowFailed = errors.New("workflow did not succeed")

	// ErrUnknownEndpoint is returned for an endpoint name that was never configured
	ErrUnknownEndpoint = errors.New("unknown workflow endpoint")
)

// protocolStatus is the status protocol errors carry
const protocolStatus = http.StatusInternalServerError

// APIError is a transport or protocol failure of a workflow call
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	cause      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Dify API error %d: %s", e.StatusCode, e.Body)
}

// Unwrap exposes the sentinel behind a protocol error
func (e *APIError) Unwrap() error {
	return e.cause
}

func transportError(status int, body string) *APIError {
	return &APIError{Kind: KindTransport, StatusCode: status, Body: body}
}

func protocolError(cause error, body string) *APIError {
	return &APIError{Kind: KindProtocol, StatusCode: protocolStatus, Body: body, cause: cause}
}

// IsTransport reports whether err is a non-2xx answer from the service
func IsTransport(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindTransport
}

// IsProtocol reports whether err is a malformed or unusable answer
func IsProtocol(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindProtocol
}

// Message returns the human-readable text of err, skipping wrapping added on
// the way up when an *APIError is inside
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
