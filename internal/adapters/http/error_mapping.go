package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/virtual-tryon/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrBusy),
		domain.IsKind(err, domain.ErrPrecondition),
		domain.IsKind(err, domain.ErrIllegalTransition):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrTransport),
		domain.IsKind(err, domain.ErrHTTPStatus),
		domain.IsKind(err, domain.ErrBackend),
		domain.IsKind(err, domain.ErrMissingField),
		domain.IsKind(err, domain.ErrBadResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage prefers the user-facing text carried by backend errors.
func errorMessage(err error) string {
	var userErr interface{ UserMessage() string }
	if errors.As(err, &userErr) {
		return userErr.UserMessage()
	}
	return err.Error()
}
