package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"studyspace/backend/services/collector-service/internal/models"
	"studyspace/backend/services/collector-service/internal/service"
	"studyspace/backend/services/collector-service/internal/state"
)

type brokenStore struct{}

func (brokenStore) Put(context.Context, models.OccupancyReading) error { return errors.New("down") }
func (brokenStore) List(context.Context) ([]models.OccupancyReading, error) {
	return nil, errors.New("down")
}
func (brokenStore) Set(context.Context, string, bool) error { return errors.New("down") }
func (brokenStore) Take(context.Context, string) (bool, bool, error) {
	return false, false, errors.New("down")
}

func newTestService() *service.CollectorService {
	return service.NewCollectorService(state.NewReadingState(), state.NewCalibrationState(), zap.NewNop())
}

func do(handler http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRootHandler(t *testing.T) {
	rec := do(NewRootHandler(), http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "Study Space Scanner API is running" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected text/plain, got %q", ct)
	}
}

func TestOccupancyHandler(t *testing.T) {
	svc := newTestService()
	handler := NewOccupancyHandler(svc, zap.NewNop())

	rec := do(handler, http.MethodPost, "/api/occupancy", `{"free_seats":2,"total_seats":4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeMap(t, rec)
	if body["status"] != "ok" || body["node_id"] != "unknown" {
		t.Fatalf("unexpected body %v", body)
	}

	rec = do(handler, http.MethodPost, "/api/occupancy", "")
	if rec.Code != http.StatusBadRequest || decodeMap(t, rec)["error"] != "Invalid or missing JSON" {
		t.Fatalf("expected invalid json error, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(handler, http.MethodPost, "/api/occupancy", "{\"node_id\":\"u\",\"free_seats\":\"\xff\",\"total_seats\":2}")
	if rec.Code != http.StatusBadRequest || decodeMap(t, rec)["error"] != "Invalid or missing JSON" {
		t.Fatalf("expected invalid utf-8 to be rejected, got %d %s", rec.Code, rec.Body.String())
	}
	readings, err := svc.Status(context.Background())
	if err != nil || len(readings) != 1 || readings[0].NodeID != "unknown" {
		t.Fatalf("expected only the earlier reading stored, got %v %v", readings, err)
	}

	rec = do(handler, http.MethodPost, "/api/occupancy", `{"node_id":"n","free_seats":2}`)
	if rec.Code != http.StatusBadRequest || decodeMap(t, rec)["error"] != "free_seats and total_seats required" {
		t.Fatalf("expected missing seats error, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestStatusHandler(t *testing.T) {
	svc := newTestService()
	handler := NewStatusHandler(svc, zap.NewNop())

	rec := do(handler, http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %d %q", rec.Code, rec.Body.String())
	}

	before := time.Now().UTC().Truncate(time.Microsecond)
	if _, err := svc.SubmitOccupancy(context.Background(), []byte(`{"node_id":"a","free_seats":"x","total_seats":[1]}`)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	rec = do(handler, http.MethodGet, "/api/status", "")
	var readings []models.OccupancyReading
	if err := json.Unmarshal(rec.Body.Bytes(), &readings); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("expected one reading, got %d", len(readings))
	}
	if string(readings[0].FreeSeats) != `"x"` || string(readings[0].TotalSeats) != `[1]` {
		t.Fatalf("expected verbatim seat values, got %s / %s", readings[0].FreeSeats, readings[0].TotalSeats)
	}
	if readings[0].Timestamp.Before(before) {
		t.Fatalf("timestamp %s earlier than submission %s", readings[0].Timestamp, before)
	}
	if !strings.Contains(rec.Body.String(), "+00:00") {
		t.Fatalf("expected explicit UTC offset in %s", rec.Body.String())
	}
}

func TestCalibrationAndConfigHandlers(t *testing.T) {
	h := NewCalibrationHandler(newTestService(), zap.NewNop())

	rec := do(h.HandleCalibration, http.MethodPost, "/api/calibration", `{"node_id":"lb8-node-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeMap(t, rec)
	if body["status"] != "ok" || body["node_id"] != "lb8-node-1" || body["calibration"] != true {
		t.Fatalf("unexpected body %v", body)
	}

	rec = do(h.HandleConfig, http.MethodGet, "/api/config?node_id=lb8-node-1", "")
	if rec.Code != http.StatusOK || decodeMap(t, rec)["calibration"] != true {
		t.Fatalf("expected pending flag, got %d %s", rec.Code, rec.Body.String())
	}
	rec = do(h.HandleConfig, http.MethodGet, "/api/config?node_id=lb8-node-1", "")
	if rec.Code != http.StatusOK || decodeMap(t, rec)["calibration"] != false {
		t.Fatalf("expected consumed flag, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(h.HandleCalibration, http.MethodPost, "/api/calibration", "not json")
	if rec.Code != http.StatusBadRequest || decodeMap(t, rec)["error"] != "node_id required" {
		t.Fatalf("expected node_id required, got %d %s", rec.Code, rec.Body.String())
	}
	rec = do(h.HandleConfig, http.MethodGet, "/api/config", "")
	if rec.Code != http.StatusBadRequest || decodeMap(t, rec)["error"] != "node_id required" {
		t.Fatalf("expected node_id required, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandlersMapStoreFailuresTo500(t *testing.T) {
	svc := service.NewCollectorService(brokenStore{}, brokenStore{}, zap.NewNop())
	h := NewCalibrationHandler(svc, zap.NewNop())

	checks := []*httptest.ResponseRecorder{
		do(NewOccupancyHandler(svc, zap.NewNop()), http.MethodPost, "/api/occupancy", `{"free_seats":1,"total_seats":1}`),
		do(NewStatusHandler(svc, zap.NewNop()), http.MethodGet, "/api/status", ""),
		do(h.HandleCalibration, http.MethodPost, "/api/calibration", `{"node_id":"n"}`),
		do(h.HandleConfig, http.MethodGet, "/api/config?node_id=n", ""),
	}
	for i, rec := range checks {
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("check %d: expected 500, got %d", i, rec.Code)
		}
	}
}

func TestHealthHandler(t *testing.T) {
	rec := do(NewHealthHandler("memory", nil, zap.NewNop()), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || decodeMap(t, rec)["backend"] != "memory" {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}

	failing := func(context.Context) error { return errors.New("no route to host") }
	rec = do(NewHealthHandler("redis", failing, zap.NewNop()), http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
