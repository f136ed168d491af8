package httpadapter

import (
	"net/http"

	"github.com/medassure/claims-backoffice/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrCapacityExceeded):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrNoDocuments):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrUpstreamTransfer):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrUpstreamGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
