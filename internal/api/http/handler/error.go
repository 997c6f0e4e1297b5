package handler

import (
	"errors"
	"net/http"

	"github.com/veristore/veristore-server/internal/model"
)

// statusFromError maps service errors to HTTP responses. Domain
// rejections never reach here; they travel as the ok boolean.
func statusFromError(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrAccessDenied):
		return http.StatusForbidden, "access denied"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "record not found"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
