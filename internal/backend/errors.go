package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// apiError is a backend rejection: a non-200 status or an error payload in
// a 200 response.
type apiError struct {
	op      string
	status  int
	message string
}

func (e *apiError) Error() string {
	switch {
	case e.status != 0 && e.message != "":
		return fmt.Sprintf("%s: backend returned %d: %s", e.op, e.status, e.message)
	case e.status != 0:
		return fmt.Sprintf("%s: backend returned %d", e.op, e.status)
	default:
		return fmt.Sprintf("%s: backend error: %s", e.op, e.message)
	}
}

func (e *apiError) UserMessage() string {
	if e.message != "" {
		return e.message
	}
	return "The interview service rejected the request. Please try again."
}

// timeoutError marks an operation that exceeded its deadline, distinct from
// backend rejection and transport failure.
type timeoutError struct {
	op  string
	err error
}

func (e *timeoutError) Error() string { return fmt.Sprintf("%s: timed out: %v", e.op, e.err) }
func (e *timeoutError) Unwrap() error { return e.err }

func (e *timeoutError) UserMessage() string {
	return "The " + e.op + " service took too long to respond. Please try again."
}

// transportError marks a connection-level failure before any backend
// response arrived.
type transportError struct {
	op  string
	err error
}

func (e *transportError) Error() string { return fmt.Sprintf("%s: %v", e.op, e.err) }
func (e *transportError) Unwrap() error { return e.err }

func (e *transportError) UserMessage() string {
	return "Could not reach the interview service. Check your connection and backend URL."
}

// classify sorts a round-trip failure into timeout or transport.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &timeoutError{op: op, err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &timeoutError{op: op, err: err}
	}
	return &transportError{op: op, err: err}
}

// IsTimeout reports whether err was classified as a deadline failure.
func IsTimeout(err error) bool {
	var te *timeoutError
	return errors.As(err, &te)
}
