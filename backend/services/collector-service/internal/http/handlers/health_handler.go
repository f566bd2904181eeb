package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger checks a state backend.
type Pinger func(ctx context.Context) error

// NewHealthHandler returns GET /health handler. A nil pinger means an in-process backend.
func NewHealthHandler(backend string, ping Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				logger.Warn("health check failed", zap.String("backend", backend), zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "backend": backend})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "backend": backend})
	}
}
