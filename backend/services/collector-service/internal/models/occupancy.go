package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout renders receipt times as ISO-8601 with microseconds and an explicit +00:00 offset.
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

// UnknownNodeID is used when a node reports without identifying itself.
const UnknownNodeID = "unknown"

// Timestamp is a UTC instant truncated to microseconds.
type Timestamp struct {
	time.Time
}

// NewTimestamp normalizes t to UTC microsecond precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Microsecond)}
}

func (t Timestamp) String() string {
	return t.UTC().Format(TimestampLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*t = NewTimestamp(parsed)
	return nil
}

// OccupancyReading is the latest report of a node. Seat counts are kept as the raw JSON values
// the node sent.
type OccupancyReading struct {
	NodeID     string          `json:"node_id"`
	FreeSeats  json.RawMessage `json:"free_seats"`
	TotalSeats json.RawMessage `json:"total_seats"`
	Timestamp  Timestamp       `json:"timestamp"`
}
