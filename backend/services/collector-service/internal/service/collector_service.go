package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"studyspace/backend/services/collector-service/internal/models"
)

// Operation names used for metrics labels.
const (
	OpOccupancy   = "occupancy"
	OpCalibration = "calibration"
	OpConfig      = "config"
)

// ReadingStore keeps the latest reading per node.
type ReadingStore interface {
	Put(ctx context.Context, reading models.OccupancyReading) error
	List(ctx context.Context) ([]models.OccupancyReading, error)
}

// CalibrationStore keeps one pending calibration flag per node. Take must read and remove the
// flag atomically.
type CalibrationStore interface {
	Set(ctx context.Context, nodeID string, enabled bool) error
	Take(ctx context.Context, nodeID string) (enabled bool, found bool, err error)
}

// ReadingPublisher fans accepted readings out to live subscribers.
type ReadingPublisher interface {
	PublishReading(reading models.OccupancyReading)
}

// Recorder receives operation outcomes for metrics.
type Recorder interface {
	ReadingAccepted(nodeID string)
	RequestRejected(operation string, err error)
	CalibrationRequested(enabled bool)
	ConfigFetched(delivered bool)
}

// CalibrationResult is the outcome of a calibration request.
type CalibrationResult struct {
	NodeID      string
	Calibration bool
}

// CollectorService ties the reading and calibration stores together.
type CollectorService struct {
	readings    ReadingStore
	calibration CalibrationStore
	publisher   ReadingPublisher
	recorder    Recorder
	logger      *zap.Logger
	now         func() time.Time
}

// Option customizes CollectorService.
type Option func(*CollectorService)

// WithPublisher registers a live feed for accepted readings.
func WithPublisher(p ReadingPublisher) Option {
	return func(s *CollectorService) { s.publisher = p }
}

// WithRecorder registers a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *CollectorService) { s.recorder = r }
}

// WithClock overrides the receipt clock.
func WithClock(now func() time.Time) Option {
	return func(s *CollectorService) { s.now = now }
}

// NewCollectorService builds service.
func NewCollectorService(readings ReadingStore, calibration CalibrationStore, logger *zap.Logger, opts ...Option) *CollectorService {
	s := &CollectorService{
		readings:    readings,
		calibration: calibration,
		recorder:    nopRecorder{},
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitOccupancy validates body, stamps it with the receipt time and replaces the node's reading.
func (s *CollectorService) SubmitOccupancy(ctx context.Context, body []byte) (models.OccupancyReading, error) {
	input, err := DecodeOccupancy(body)
	if err != nil {
		s.recorder.RequestRejected(OpOccupancy, err)
		return models.OccupancyReading{}, err
	}

	reading := models.OccupancyReading{
		NodeID:     input.NodeID,
		FreeSeats:  input.FreeSeats,
		TotalSeats: input.TotalSeats,
		Timestamp:  models.NewTimestamp(s.now()),
	}
	if err := s.readings.Put(ctx, reading); err != nil {
		return models.OccupancyReading{}, fmt.Errorf("store reading: %w", err)
	}

	s.logger.Info("occupancy reading received",
		zap.String("node_id", reading.NodeID),
		zap.ByteString("free_seats", reading.FreeSeats),
		zap.ByteString("total_seats", reading.TotalSeats),
		zap.Stringer("timestamp", reading.Timestamp),
	)
	s.recorder.ReadingAccepted(reading.NodeID)
	if s.publisher != nil {
		s.publisher.PublishReading(reading)
	}
	return reading, nil
}

// Status returns the latest reading of every node in store order.
func (s *CollectorService) Status(ctx context.Context) ([]models.OccupancyReading, error) {
	readings, err := s.readings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	if readings == nil {
		readings = []models.OccupancyReading{}
	}
	return readings, nil
}

// RequestCalibration records a pending calibration flag, replacing any earlier one.
func (s *CollectorService) RequestCalibration(ctx context.Context, body []byte) (CalibrationResult, error) {
	input, err := DecodeCalibration(body)
	if err != nil {
		s.recorder.RequestRejected(OpCalibration, err)
		return CalibrationResult{}, err
	}

	if err := s.calibration.Set(ctx, input.NodeID, input.Enable); err != nil {
		return CalibrationResult{}, fmt.Errorf("store calibration flag: %w", err)
	}

	s.logger.Info("calibration requested",
		zap.String("node_id", input.NodeID),
		zap.Bool("calibration", input.Enable),
	)
	s.recorder.CalibrationRequested(input.Enable)
	return CalibrationResult{NodeID: input.NodeID, Calibration: input.Enable}, nil
}

// FetchConfig consumes the pending flag of nodeID. Absent flags read as false.
func (s *CollectorService) FetchConfig(ctx context.Context, nodeID string) (bool, error) {
	if err := ValidateNodeID(nodeID); err != nil {
		s.recorder.RequestRejected(OpConfig, err)
		return false, err
	}

	enabled, found, err := s.calibration.Take(ctx, nodeID)
	if err != nil {
		return false, fmt.Errorf("take calibration flag: %w", err)
	}
	if found {
		s.logger.Info("calibration flag delivered",
			zap.String("node_id", nodeID),
			zap.Bool("calibration", enabled),
		)
	}
	s.recorder.ConfigFetched(found)
	return found && enabled, nil
}

// IsValidationError reports whether err should be answered with 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidPayload) || errors.Is(err, ErrMissingField)
}

type nopRecorder struct{}

func (nopRecorder) ReadingAccepted(string)        {}
func (nopRecorder) RequestRejected(string, error) {}
func (nopRecorder) CalibrationRequested(bool)     {}
func (nopRecorder) ConfigFetched(bool)            {}
