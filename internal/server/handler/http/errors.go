package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/herbcatalog/internal/middleware"
	"github.com/atinyakov/herbcatalog/internal/models"
	"github.com/atinyakov/herbcatalog/internal/query"
)

var (
	errBadRequest = errors.New("bad request")
	errTooLarge   = errors.New("request body too large")
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes {"detail": ...}.
// Causes of internal errors are logged, not returned.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidToken), errors.Is(err, models.ErrInvalidCredentials):
		middleware.Unauthorized(w, err.Error())
		return
	}

	status := http.StatusInternalServerError
	detail := "internal error"
	switch {
	case errors.Is(err, models.ErrNotFound):
		status, detail = http.StatusNotFound, "Product not found"
	case errors.Is(err, models.ErrUnsupportedFormat):
		status, detail = http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, models.ErrForbidden):
		status, detail = http.StatusForbidden, err.Error()
	case errors.Is(err, models.ErrConflict):
		status, detail = http.StatusConflict, err.Error()
	case errors.Is(err, models.ErrInvalidProduct),
		errors.Is(err, query.ErrInvalidQuery),
		errors.Is(err, errBadRequest):
		status, detail = http.StatusBadRequest, err.Error()
	case errors.Is(err, errTooLarge):
		status, detail = http.StatusRequestEntityTooLarge, err.Error()
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
	}
	writeJSON(w, status, map[string]string{"detail": detail})
}
