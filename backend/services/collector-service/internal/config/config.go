package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	libconfig "studyspace/backend/libs/config"
)

// State backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

const defaultPort = "8080"

// Config defines collector service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	State    StateConfig    `yaml:"state"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	CORS     CORSConfig     `yaml:"cors"`
	Stream   StreamConfig   `yaml:"stream"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type HTTPConfig struct {
	Host string `yaml:"host" env:"COLLECTOR_HTTP_HOST"`
	Port string `yaml:"port" env:"COLLECTOR_HTTP_PORT"`
}

type StateConfig struct {
	Backend string `yaml:"backend" env:"COLLECTOR_STATE_BACKEND"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" env:"COLLECTOR_REDIS_ADDR"`
	Password  string `yaml:"password" env:"COLLECTOR_REDIS_PASSWORD"`
	DB        int    `yaml:"db" env:"COLLECTOR_REDIS_DB"`
	KeyPrefix string `yaml:"keyPrefix" env:"COLLECTOR_REDIS_KEY_PREFIX"`
	// Seconds an unconsumed calibration flag survives; 0 keeps it until read.
	CalibrationTTL int `yaml:"calibrationTtlSeconds" env:"COLLECTOR_REDIS_CALIBRATION_TTL"`
}

type DatabaseConfig struct {
	DSN          string `yaml:"dsn" env:"COLLECTOR_POSTGRES_DSN"`
	MaxOpenConns int    `yaml:"maxOpenConns" env:"COLLECTOR_POSTGRES_MAX_OPEN_CONNS"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins" env:"COLLECTOR_CORS_ALLOWED_ORIGINS"`
}

type StreamConfig struct {
	Enabled             bool `yaml:"enabled" env:"COLLECTOR_STREAM_ENABLED"`
	PingIntervalSeconds int  `yaml:"pingIntervalSeconds" env:"COLLECTOR_STREAM_PING_INTERVAL"`
	WriteTimeoutSeconds int  `yaml:"writeTimeoutSeconds" env:"COLLECTOR_STREAM_WRITE_TIMEOUT"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"COLLECTOR_METRICS_ENABLED"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP:  HTTPConfig{Port: defaultPort},
		State: StateConfig{Backend: BackendMemory},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "collector",
		},
		CORS: CORSConfig{AllowedOrigins: []string{"*"}},
		Stream: StreamConfig{
			Enabled:             true,
			PingIntervalSeconds: 30,
			WriteTimeoutSeconds: 10,
		},
		Metrics: MetricsConfig{Enabled: true},
	}

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend specific settings.
func (c *Config) Validate() error {
	c.State.Backend = strings.ToLower(strings.TrimSpace(c.State.Backend))
	switch c.State.Backend {
	case "", BackendMemory:
		c.State.Backend = BackendMemory
	case BackendRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return errors.New("config: redis addr required")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("config: database dsn required")
		}
	default:
		return fmt.Errorf("config: unknown state backend %q", c.State.Backend)
	}
	return nil
}

// HTTPAddress returns host:port, listening on all interfaces when host is empty.
func (c *Config) HTTPAddress() string {
	port := strings.TrimPrefix(strings.TrimSpace(c.HTTP.Port), ":")
	if port == "" {
		port = defaultPort
	}
	return net.JoinHostPort(strings.TrimSpace(c.HTTP.Host), port)
}

// CalibrationTTL returns ttl as duration.
func (c *Config) CalibrationTTL() time.Duration {
	if c.Redis.CalibrationTTL <= 0 {
		return 0
	}
	return time.Duration(c.Redis.CalibrationTTL) * time.Second
}

// StreamPingInterval returns the live feed keepalive interval.
func (c *Config) StreamPingInterval() time.Duration {
	if c.Stream.PingIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Stream.PingIntervalSeconds) * time.Second
}

// StreamWriteTimeout returns the per-frame write deadline.
func (c *Config) StreamWriteTimeout() time.Duration {
	if c.Stream.WriteTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Stream.WriteTimeoutSeconds) * time.Second
}
