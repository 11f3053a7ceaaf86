package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/jewelpalace/storefront/internal/middleware"
	"github.com/jewelpalace/storefront/internal/services"
	"github.com/jewelpalace/storefront/internal/store"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	middleware.WriteError(w, status, message)
}

// fail maps a service error onto a status code and an {"error": ...} body
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	var terr *services.TransitionError

	switch {
	case errors.Is(err, services.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, services.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, services.ErrDiscountNotFound):
		writeError(w, http.StatusNotFound, "Discount not found")
	case errors.Is(err, services.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid login credentials")
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden - Admin access required")
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &terr):
		writeError(w, http.StatusConflict, terr.Error())
	case errors.Is(err, services.ErrEmailTaken), errors.Is(err, services.ErrDiscountCodeTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		zap.L().Error("record store unavailable",
			zap.String("path", r.URL.Path),
			zap.String("requestId", middleware.RequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusServiceUnavailable, "Service unavailable")
	default:
		zap.L().Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("requestId", middleware.RequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func badBody(w http.ResponseWriter, err error) {
	if errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, "Request body is required")
		return
	}
	writeError(w, http.StatusBadRequest, "Invalid request body")
}
