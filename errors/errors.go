package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation          = fmt.Errorf("validation failed")
	ErrNameConflict        = fmt.Errorf("name already taken")
	ErrNotLoggedIn         = fmt.Errorf("participant is not logged in")
	ErrNotFound            = fmt.Errorf("not found")
	ErrParticipantNotFound = fmt.Errorf("participant %w", ErrNotFound)
	ErrMessageNotFound     = fmt.Errorf("message %w", ErrNotFound)
	ErrForbidden           = fmt.Errorf("caller does not own the message")
	ErrStore               = fmt.Errorf("store failure")
	ErrSearchDisabled      = fmt.Errorf("search is disabled")
	ErrWorkerPanic         = fmt.Errorf("worker panic")
	ErrEmptyWords          = fmt.Errorf("no words have been found")
)

// MapToHTTPStatus translates the error taxonomy into the status code returned to clients.
// Anything outside the taxonomy is an infrastructure failure.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrValidation), stderrors.Is(err, ErrNotLoggedIn):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, ErrNameConflict):
		return http.StatusConflict
	case stderrors.Is(err, ErrNotFound), stderrors.Is(err, ErrSearchDisabled):
		return http.StatusNotFound
	case stderrors.Is(err, ErrForbidden):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether err belongs to the client side of the taxonomy.
func IsClientError(err error) bool {
	status := MapToHTTPStatus(err)
	return status >= 400 && status < 500
}
