package pipeline

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/seenimoa/tickerdata/internal/procfetch"
)

// Kind classifies a pipeline failure for transport-level mapping.
type Kind int

const (
	// KindInternal is any unclassified orchestration failure.
	KindInternal Kind = iota
	// KindInvalidInput means the request itself was malformed
	// (missing or invalid ticker).
	KindInvalidInput
	// KindUpstreamTimeout means a subprocess or provider call
	// exceeded its deadline.
	KindUpstreamTimeout
	// KindSpawnFailure means an external fetch process could not be
	// started or exited abnormally.
	KindSpawnFailure
	// KindParseFailure means an upstream payload could not be parsed.
	KindParseFailure
)

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the failure class onto a response status: bad input
// is the caller's fault, upstream deadlines are a gateway timeout,
// everything else is an internal error.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errInvalidInput(op string, err error) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Err: err}
}

func errInternal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

// classifyFetch maps subprocess errors onto pipeline kinds.
func classifyFetch(op string, err error) *Error {
	switch {
	case errors.Is(err, procfetch.ErrTimeout):
		return &Error{Kind: KindUpstreamTimeout, Op: op, Err: err}
	case errors.Is(err, procfetch.ErrSpawn):
		return &Error{Kind: KindSpawnFailure, Op: op, Err: err}
	case errors.Is(err, procfetch.ErrParse):
		return &Error{Kind: KindParseFailure, Op: op, Err: err}
	default:
		return errInternal(op, err)
	}
}
