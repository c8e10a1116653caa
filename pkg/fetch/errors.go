package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Class represents a classification of a failed attempt.
type Class string

const (
	// ClassTimeout means the attempt hit its per-attempt deadline.
	ClassTimeout Class = "timeout"

	// ClassNetwork means the transport could not reach the server.
	ClassNetwork Class = "network"

	// ClassStatus means the server answered with a non-2xx status.
	ClassStatus Class = "status"

	// ClassDecode means the body was not the expected JSON.
	ClassDecode Class = "decode"

	// ClassCancelled means the caller's context ended.
	ClassCancelled Class = "cancelled"
)

// ErrContextCancelled is wrapped when the caller's context ends during a retry.
var ErrContextCancelled = errors.New("context cancelled")

// Error is a failed upstream request.
type Error struct {
	Class      Class
	URL        string
	StatusCode int
	// Attempts is the number of attempts made before giving up.
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("upstream %s error", e.Class)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	msg += ": GET " + e.URL
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassOf returns the class of err, or "" if err is not an *Error.
func ClassOf(err error) Class {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Class
	}
	return ""
}

// classifyTransport categorizes an error returned by http.Client.Do.
// attemptCtx is the per-attempt context and parent the caller's context.
func classifyTransport(parent, attemptCtx context.Context, err error) Class {
	if parent.Err() != nil {
		return ClassCancelled
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}
	return ClassNetwork
}
