package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"studyspace/backend/services/collector-service/internal/models"
)

// ReadingRepository keeps the latest reading per node in Postgres.
type ReadingRepository struct {
	db *sql.DB
}

// NewReadingRepository returns repository.
func NewReadingRepository(db *sql.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// Put upserts the node's reading.
func (r *ReadingRepository) Put(ctx context.Context, reading models.OccupancyReading) error {
	const query = `
		INSERT INTO latest_readings (node_id, free_seats, total_seats, reported_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (node_id) DO UPDATE
		SET free_seats = EXCLUDED.free_seats,
			total_seats = EXCLUDED.total_seats,
			reported_at = EXCLUDED.reported_at
	`
	_, err := r.db.ExecContext(ctx, query,
		reading.NodeID,
		string(reading.FreeSeats),
		string(reading.TotalSeats),
		reading.Timestamp.Time,
	)
	return err
}

// List returns all latest readings ordered by node id.
func (r *ReadingRepository) List(ctx context.Context) ([]models.OccupancyReading, error) {
	const query = `
		SELECT node_id, free_seats, total_seats, reported_at
		FROM latest_readings
		ORDER BY node_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := make([]models.OccupancyReading, 0)
	for rows.Next() {
		var (
			nodeID            string
			freeSeats, totals []byte
			reportedAt        time.Time
		)
		if err := rows.Scan(&nodeID, &freeSeats, &totals, &reportedAt); err != nil {
			return nil, err
		}
		readings = append(readings, models.OccupancyReading{
			NodeID:     nodeID,
			FreeSeats:  json.RawMessage(freeSeats),
			TotalSeats: json.RawMessage(totals),
			Timestamp:  models.NewTimestamp(reportedAt),
		})
	}
	return readings, rows.Err()
}
