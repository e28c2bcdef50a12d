package backend

import "fmt"

// TransportError means no usable response arrived: the request failed on
// the wire or the body could not be read.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// APIError is an application-level failure: a non-2xx status, an error
// field in the body, or a body that was not JSON.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}
