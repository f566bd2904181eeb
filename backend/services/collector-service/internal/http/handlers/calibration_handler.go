package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"studyspace/backend/services/collector-service/internal/service"
)

// CalibrationHandler holds the dashboard facing calibration endpoint and the node facing
// config endpoint.
type CalibrationHandler struct {
	svc    *service.CollectorService
	logger *zap.Logger
}

// NewCalibrationHandler builds handler set.
func NewCalibrationHandler(svc *service.CollectorService, logger *zap.Logger) *CalibrationHandler {
	return &CalibrationHandler{
		svc:    svc,
		logger: logger,
	}
}

type calibrationResponse struct {
	Status      string `json:"status"`
	NodeID      string `json:"node_id"`
	Calibration bool   `json:"calibration"`
}

type configResponse struct {
	Calibration bool `json:"calibration"`
}

// HandleCalibration handles POST /api/calibration.
func (h *CalibrationHandler) HandleCalibration(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RequestCalibration(r.Context(), readBody(w, r))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to store calibration flag")
		return
	}
	writeJSON(w, http.StatusOK, calibrationResponse{
		Status:      "ok",
		NodeID:      result.NodeID,
		Calibration: result.Calibration,
	})
}

// HandleConfig handles GET /api/config?node_id=X. The pending flag is consumed.
func (h *CalibrationHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.svc.FetchConfig(r.Context(), r.URL.Query().Get("node_id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to fetch node config")
		return
	}
	writeJSON(w, http.StatusOK, configResponse{Calibration: enabled})
}
