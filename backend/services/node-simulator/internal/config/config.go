package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	libconfig "studyspace/backend/libs/config"
)

// Config defines node simulator configuration.
type Config struct {
	ServerURL  string        `yaml:"serverUrl" env:"SIMULATOR_SERVER_URL"`
	NodeID     string        `yaml:"nodeId" env:"SIMULATOR_NODE_ID"`
	TotalSeats int           `yaml:"totalSeats" env:"SIMULATOR_TOTAL_SEATS"`
	Interval   time.Duration `yaml:"interval" env:"SIMULATOR_INTERVAL"`
	Timeout    time.Duration `yaml:"timeout" env:"SIMULATOR_TIMEOUT"`
	Seed       int64         `yaml:"seed" env:"SIMULATOR_SEED"`
}

// Defaults returns the configuration used before files and env are applied.
func Defaults() *Config {
	return &Config{
		ServerURL:  "http://localhost:8080",
		NodeID:     "lb8-node-1",
		TotalSeats: 4,
		Interval:   10 * time.Second,
		Timeout:    5 * time.Second,
	}
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := Defaults()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values after flags have been applied.
func (c *Config) Validate() error {
	c.ServerURL = strings.TrimRight(strings.TrimSpace(c.ServerURL), "/")
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("config: server url must be absolute, e.g. http://localhost:8080")
	}
	if strings.TrimSpace(c.NodeID) == "" {
		return errors.New("config: node id required")
	}
	if c.TotalSeats < 0 {
		return errors.New("config: total seats must not be negative")
	}
	if c.Interval <= 0 {
		return errors.New("config: interval must be positive")
	}
	return nil
}
