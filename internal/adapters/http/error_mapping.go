package httpadapter

import (
	"net/http"

	"github.com/opsai/document-orchestrator/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrValidation):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrInconclusive):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrPersistence):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrValidation):
		return "validation_error"
	case domain.IsKind(err, domain.ErrNotFound):
		return "not_found"
	case domain.IsKind(err, domain.ErrInconclusive):
		return "classification_inconclusive"
	case domain.IsKind(err, domain.ErrUnavailable):
		return "analysis_unavailable"
	case domain.IsKind(err, domain.ErrPersistence):
		return "persistence_error"
	default:
		return "internal_error"
	}
}
