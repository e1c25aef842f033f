package client

import "fmt"

// FallbackErrorMessage is reported when a failed response carries no usable detail.
const FallbackErrorMessage = "An unknown error occurred"

// TransportError means the exchange never completed: connection refused,
// DNS failure, timeout or an unreadable response body.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e == nil || e.Err == nil {
		return "transport error"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ServiceError is a completed response with a non-success status code.
type ServiceError struct {
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	if e.Detail == "" {
		return FallbackErrorMessage
	}
	return e.Detail
}

// MalformedResponseError is a success response whose body does not carry the
// expected fields.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %s", e.Reason)
}
