package repository

import (
	"context"
	"database/sql"
	"errors"
)

// CalibrationRepository stores pending calibration flags.
type CalibrationRepository struct {
	db *sql.DB
}

// NewCalibrationRepository returns repository.
func NewCalibrationRepository(db *sql.DB) *CalibrationRepository {
	return &CalibrationRepository{db: db}
}

// Set upserts the flag.
func (r *CalibrationRepository) Set(ctx context.Context, nodeID string, enabled bool) error {
	const query = `
		INSERT INTO pending_calibration (node_id, enabled, requested_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (node_id) DO UPDATE
		SET enabled = EXCLUDED.enabled,
			requested_at = EXCLUDED.requested_at
	`
	_, err := r.db.ExecContext(ctx, query, nodeID, enabled)
	return err
}

// Take deletes the flag and returns it in a single statement.
func (r *CalibrationRepository) Take(ctx context.Context, nodeID string) (bool, bool, error) {
	const query = `
		DELETE FROM pending_calibration
		WHERE node_id = $1
		RETURNING enabled
	`
	var enabled bool
	err := r.db.QueryRowContext(ctx, query, nodeID).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return enabled, true, nil
}
