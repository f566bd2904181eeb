package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"studyspace/backend/services/collector-service/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		State:   config.StateConfig{Backend: config.BackendMemory},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"*"}},
		Stream:  config.StreamConfig{Enabled: true},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func post(t *testing.T, url, body string) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestAppMemoryBackendServesAPIAndMetrics(t *testing.T) {
	a, err := New(context.Background(), testConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	if code := post(t, srv.URL+"/api/occupancy", `{"node_id":"lb8-node-1","free_seats":1,"total_seats":4}`); code != http.StatusOK {
		t.Fatalf("occupancy: %d", code)
	}
	if code := post(t, srv.URL+"/api/occupancy", `{}`); code != http.StatusBadRequest {
		t.Fatalf("empty payload: %d", code)
	}

	code, body := get(t, srv.URL+"/health")
	if code != http.StatusOK || !strings.Contains(body, `"backend":"memory"`) {
		t.Fatalf("health: %d %s", code, body)
	}

	code, body = get(t, srv.URL+"/metrics")
	if code != http.StatusOK {
		t.Fatalf("metrics: %d", code)
	}
	for _, want := range []string{
		"collector_readings_accepted_total 1",
		`collector_requests_rejected_total{operation="occupancy",reason="invalid_payload"} 1`,
		`collector_http_request_duration_seconds_count{method="POST",route="/api/occupancy",status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestAppWithoutStreamOrMetrics(t *testing.T) {
	cfg := testConfig()
	cfg.Stream.Enabled = false
	cfg.Metrics.Enabled = false

	a, err := New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	if code, _ := get(t, srv.URL+"/metrics"); code != http.StatusNotFound {
		t.Fatalf("expected /metrics to be absent, got %d", code)
	}
	if code, _ := get(t, srv.URL+"/api/stream"); code != http.StatusNotFound {
		t.Fatalf("expected /api/stream to be absent, got %d", code)
	}
}

func TestAppRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.State.Backend = config.BackendRedis
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.KeyPrefix = "test"

	a, err := New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	if code := post(t, srv.URL+"/api/calibration", `{"node_id":"lb8-node-1"}`); code != http.StatusOK {
		t.Fatalf("calibration: %d", code)
	}
	if !mr.Exists("test:calibration:lb8-node-1") {
		t.Fatalf("expected calibration key in redis")
	}
	_, body := get(t, srv.URL+"/api/config?node_id=lb8-node-1")
	if strings.TrimSpace(body) != `{"calibration":true}` {
		t.Fatalf("unexpected config body %s", body)
	}
	if mr.Exists("test:calibration:lb8-node-1") {
		t.Fatalf("expected calibration key consumed")
	}

	code, body := get(t, srv.URL+"/health")
	if code != http.StatusOK || !strings.Contains(body, `"backend":"redis"`) {
		t.Fatalf("health: %d %s", code, body)
	}
}

func TestAppRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.State.Backend = config.BackendRedis
	cfg.Redis.Addr = addr

	if _, err := New(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected connection error")
	}
}
