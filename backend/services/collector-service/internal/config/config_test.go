package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddress() != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.HTTPAddress())
	}
	if cfg.State.Backend != BackendMemory {
		t.Fatalf("expected memory backend, got %s", cfg.State.Backend)
	}
	if !cfg.Stream.Enabled || !cfg.Metrics.Enabled {
		t.Fatalf("expected stream and metrics enabled by default")
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"*"}) {
		t.Fatalf("unexpected origins %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.CalibrationTTL() != 0 {
		t.Fatalf("expected no calibration ttl by default")
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collector.yaml")
	content := `
http:
  host: 127.0.0.1
  port: "9090"
state:
  backend: redis
redis:
  addr: redis:6379
  calibrationTtlSeconds: 120
stream:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("COLLECTOR_CORS_ALLOWED_ORIGINS", "http://a.local,http://b.local")
	t.Setenv("COLLECTOR_STREAM_PING_INTERVAL", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddress() != "127.0.0.1:9090" {
		t.Fatalf("unexpected address %s", cfg.HTTPAddress())
	}
	if cfg.State.Backend != BackendRedis || cfg.Redis.Addr != "redis:6379" {
		t.Fatalf("unexpected redis settings %+v", cfg.Redis)
	}
	if cfg.CalibrationTTL() != 2*time.Minute {
		t.Fatalf("expected 2m ttl, got %s", cfg.CalibrationTTL())
	}
	if cfg.Stream.Enabled {
		t.Fatalf("expected stream disabled from file")
	}
	if cfg.StreamPingInterval() != 5*time.Second {
		t.Fatalf("expected 5s ping interval, got %s", cfg.StreamPingInterval())
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("expected two origins, got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "empty backend defaults to memory", cfg: Config{}},
		{name: "postgres without dsn", cfg: Config{State: StateConfig{Backend: "postgres"}}, wantErr: true},
		{name: "postgres with dsn", cfg: Config{State: StateConfig{Backend: "Postgres"}, Database: DatabaseConfig{DSN: "postgres://x"}}},
		{name: "redis without addr", cfg: Config{State: StateConfig{Backend: "redis"}}, wantErr: true},
		{name: "unknown", cfg: Config{State: StateConfig{Backend: "etcd"}}, wantErr: true},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: wantErr=%v got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestHTTPAddressAcceptsColonPort(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: ":8081"}}
	if got := cfg.HTTPAddress(); got != ":8081" {
		t.Fatalf("expected :8081, got %s", got)
	}
}
