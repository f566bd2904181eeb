package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"studyspace/backend/services/collector-service/internal/service"
)

// NewStatusHandler returns GET /api/status handler.
func NewStatusHandler(svc *service.CollectorService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		readings, err := svc.Status(r.Context())
		if err != nil {
			writeServiceError(w, logger, err, "failed to list readings")
			return
		}
		writeJSON(w, http.StatusOK, readings)
	}
}
