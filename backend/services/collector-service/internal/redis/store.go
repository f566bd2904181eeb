package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"studyspace/backend/services/collector-service/internal/models"
)

const defaultPrefix = "collector"

// Store shares latest readings and calibration flags between collector replicas.
// Readings live in a single hash keyed by node ID; each pending flag is its own key so that
// GETDEL can consume it atomically.
type Store struct {
	client         *redis.Client
	prefix         string
	calibrationTTL time.Duration
}

// NewStore returns redis-backed store. A zero ttl keeps flags until consumed.
func NewStore(client *redis.Client, prefix string, calibrationTTL time.Duration) *Store {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix, calibrationTTL: calibrationTTL}
}

func (s *Store) readingsKey() string {
	return fmt.Sprintf("%s:readings", s.prefix)
}

func (s *Store) calibrationKey(nodeID string) string {
	return fmt.Sprintf("%s:calibration:%s", s.prefix, nodeID)
}

// Put overwrites the node's reading.
func (s *Store) Put(ctx context.Context, reading models.OccupancyReading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.readingsKey(), reading.NodeID, data).Err()
}

// List returns every stored reading. Order follows the hash and is unspecified.
func (s *Store) List(ctx context.Context) ([]models.OccupancyReading, error) {
	entries, err := s.client.HGetAll(ctx, s.readingsKey()).Result()
	if err != nil {
		return nil, err
	}
	readings := make([]models.OccupancyReading, 0, len(entries))
	for nodeID, raw := range entries {
		var reading models.OccupancyReading
		if err := json.Unmarshal([]byte(raw), &reading); err != nil {
			return nil, fmt.Errorf("decode reading %s: %w", nodeID, err)
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

// Set stores the pending flag.
func (s *Store) Set(ctx context.Context, nodeID string, enabled bool) error {
	return s.client.Set(ctx, s.calibrationKey(nodeID), strconv.FormatBool(enabled), s.calibrationTTL).Err()
}

// Take consumes the pending flag with GETDEL.
func (s *Store) Take(ctx context.Context, nodeID string) (bool, bool, error) {
	raw, err := s.client.GetDel(ctx, s.calibrationKey(nodeID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		return false, true, fmt.Errorf("decode calibration flag %s: %w", nodeID, err)
	}
	return enabled, true, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
