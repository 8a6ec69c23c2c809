package apperrors

import (
	"errors"
	"net/http"
)

// Sentinel errors for the project/status domain. Callers match them
// with errors.Is; services wrap them with context via fmt.Errorf and %w.
var (
	// ErrNotFound means the requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied means the acting user does not own the document.
	// Over HTTP it is reported identically to ErrNotFound so callers
	// cannot probe for the existence of other users' projects.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidState means a write would violate a workflow invariant
	// (empty status list, wrong default count, unknown status reference).
	ErrInvalidState = errors.New("invalid state")

	// ErrActiveStatusInUse means the status being deleted is the
	// project's current status.
	ErrActiveStatusInUse = errors.New("status is currently in use")

	// ErrLastStatusRemaining means the delete would leave the project
	// with no statuses.
	ErrLastStatusRemaining = errors.New("cannot delete the last status")
)

// HTTPStatus maps a domain error to an HTTP status code.
// ErrAccessDenied deliberately maps to 404, not 403.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAccessDenied):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, ErrActiveStatusInUse), errors.Is(err, ErrLastStatusRemaining):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for a domain error.
// Unknown errors collapse to a generic message; access denied is
// masked as not found.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAccessDenied):
		return "project not found"
	case errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrActiveStatusInUse),
		errors.Is(err, ErrLastStatusRemaining):
		return err.Error()
	default:
		return "internal server error"
	}
}
