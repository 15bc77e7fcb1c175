package httpapi

import (
	"errors"
	"net/http"

	"github.com/Fahmy112/Al-Rayan-Service/internal/store"
	"github.com/Fahmy112/Al-Rayan-Service/internal/workshop"
)

func mapError(err error) (int, string, string) {
	var validation *workshop.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "invalid_request", validation.Message
	case errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest, "invalid_id", "invalid id"
	case errors.Is(err, store.ErrRequestNotFound):
		return http.StatusNotFound, "not_found", "request not found"
	case errors.Is(err, store.ErrSpareNotFound):
		return http.StatusNotFound, "not_found", "spare part not found"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}
