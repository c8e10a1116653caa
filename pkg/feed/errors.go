package feed

import (
	"context"
	"errors"

	"github.com/Sternrassler/product-feed/pkg/config"
	"github.com/Sternrassler/product-feed/pkg/fetch"
)

// ErrorKind is the user-facing classification of a failed request.
type ErrorKind string

const (
	// KindTimeout means an upstream attempt exceeded its deadline.
	KindTimeout ErrorKind = "TimeoutError"

	// KindNetwork means the upstream could not be reached.
	KindNetwork ErrorKind = "NetworkError"

	// KindLoading covers bad status codes, malformed bodies and anything else.
	KindLoading ErrorKind = "LoadingError"
)

// Sentinels for errors.Is matching against *Error by kind.
var (
	ErrTimeout = errors.New("timeout error")
	ErrNetwork = errors.New("network error")
	ErrLoading = errors.New("loading error")
)

// Error is returned by FetchProducts for direct categories. It carries only
// the kind and its configured message; the upstream cause is logged, not
// exposed.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Is matches ErrTimeout, ErrNetwork and ErrLoading by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrLoading:
		return e.Kind == KindLoading
	default:
		return false
	}
}

// classify maps a failure to exactly one kind, checked in order:
// timeout, network, then loading.
func classify(err error, msgs config.ErrorMessages) *Error {
	class := fetch.ClassOf(err)

	switch {
	case class == fetch.ClassTimeout || errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Message: msgs.Timeout}
	case class == fetch.ClassNetwork:
		return &Error{Kind: KindNetwork, Message: msgs.Network}
	default:
		return &Error{Kind: KindLoading, Message: msgs.Loading}
	}
}
