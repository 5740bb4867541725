package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrBusy              = errors.New("operation in progress")
	ErrPrecondition      = errors.New("precondition not met")
	ErrIllegalTransition = errors.New("illegal session transition")
	ErrNotFound          = errors.New("not found")
	ErrTransport         = errors.New("transport failure")
	ErrHTTPStatus        = errors.New("unsuccessful response status")
	ErrBackend           = errors.New("backend error")
	ErrMissingField      = errors.New("missing response field")
	ErrBadResponse       = errors.New("malformed response")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// BackendError is a logical failure reported in the body of an otherwise
// successful response.
type BackendError struct {
	Operation string
	Message   string
}

func (e *BackendError) Error() string {
	return "Backend error: " + e.Message
}

func (e *BackendError) Unwrap() error {
	return ErrBackend
}

func (e *BackendError) UserMessage() string {
	return e.Error()
}

// MissingFieldError reports a successful response without an expected field.
type MissingFieldError struct {
	Operation string
	Field     string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s response has no %s", e.Operation, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

func (e *MissingFieldError) UserMessage() string {
	if e.Field == "tryon_result" {
		return "No try-on result returned"
	}
	return "No " + e.Field + " returned"
}

// TransportError is a request that never produced a response. Message is
// the cause without the request wrapping, e.g. "connection refused".
type TransportError struct {
	Operation string
	Message   string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Operation, ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

func (e *TransportError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// ResponseDecodeError is a successful response whose body is not the
// expected JSON.
type ResponseDecodeError struct {
	Operation string
	Err       error
}

func (e *ResponseDecodeError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Operation, ErrBadResponse, e.Err)
}

func (e *ResponseDecodeError) Unwrap() []error {
	return []error{ErrBadResponse, e.Err}
}

func (e *ResponseDecodeError) UserMessage() string {
	return "Invalid response: " + e.Err.Error()
}
