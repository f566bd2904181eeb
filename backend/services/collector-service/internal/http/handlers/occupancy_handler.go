package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"studyspace/backend/services/collector-service/internal/service"
)

// NewOccupancyHandler handles POST /api/occupancy.
func NewOccupancyHandler(svc *service.CollectorService, logger *zap.Logger) http.HandlerFunc {
	type response struct {
		Status string `json:"status"`
		NodeID string `json:"node_id"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		reading, err := svc.SubmitOccupancy(r.Context(), readBody(w, r))
		if err != nil {
			writeServiceError(w, logger, err, "failed to store occupancy reading")
			return
		}
		writeJSON(w, http.StatusOK, response{Status: "ok", NodeID: reading.NodeID})
	}
}
