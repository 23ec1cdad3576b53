package server

import (
	"context"
	"errors"
	"net/http"

	rserrors "github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/snapshot"
)

// ErrNoTarget is returned when no element handles a dispatched event at
// the requested index.
var ErrNoTarget = errors.New("server: no element handles the event")

// ErrBadRequest wraps malformed dispatch requests.
var ErrBadRequest = errors.New("server: bad request")

// errUnsettled is returned when a render or handler future is still
// pending after the document settled.
var errUnsettled = errors.New("server: render did not settle")

// errorKind returns a low-cardinality label for err.
func errorKind(err error) string {
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoTarget), errors.Is(err, ErrBadRequest):
		return "bad_request"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case rserrors.HasCode(err, "R023"):
		return "handler"
	case rserrors.HasCode(err, "R030"), rserrors.HasCode(err, "R031"):
		return "corrupt_snapshot"
	default:
		return "internal"
	}
}

// statusOf maps err to an HTTP status.
func statusOf(err error) int {
	switch errorKind(err) {
	case "not_found":
		return http.StatusNotFound
	case "bad_request":
		return http.StatusBadRequest
	case "timeout":
		return http.StatusGatewayTimeout
	case "handler":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
