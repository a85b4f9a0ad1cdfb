package httpapi

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrTransport marks failures that happened before an HTTP status was
// received: DNS, connect, TLS, timeouts, canceled contexts.
var ErrTransport = errors.New("transport failure")

// ErrMalformedResponse marks a 2xx response whose body did not match the
// backend contract.
var ErrMalformedResponse = errors.New("malformed backend response")

// StatusError is a non-2xx backend response, decoded from the error envelope
// when one was present.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend returned %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// Unauthorized reports whether the response was a 401-class rejection.
func (e *StatusError) Unauthorized() bool {
	return e != nil && e.Status == http.StatusUnauthorized
}

// AsStatus unwraps err into a StatusError when it carries one.
func AsStatus(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
