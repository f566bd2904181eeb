package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// One row per node in each table; neither keeps history. Seat columns are JSON, not JSONB, so
// the stored text is returned exactly as the node sent it.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS latest_readings (
		node_id     TEXT PRIMARY KEY,
		free_seats  JSON NOT NULL,
		total_seats JSON NOT NULL,
		reported_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pending_calibration (
		node_id      TEXT PRIMARY KEY,
		enabled      BOOLEAN NOT NULL,
		requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates the collector tables when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
