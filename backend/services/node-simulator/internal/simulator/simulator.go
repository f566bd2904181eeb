package simulator

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"studyspace/backend/services/node-simulator/internal/clients"
)

// Collector is the subset of the collector API a node uses.
type Collector interface {
	ReportOccupancy(ctx context.Context, report clients.OccupancyReport) (string, error)
	FetchConfig(ctx context.Context, nodeID string) (bool, error)
}

// Options configures a simulated node.
type Options struct {
	NodeID     string
	TotalSeats int
	// Seed makes the random walk reproducible; zero seeds from the clock.
	Seed int64
}

// Simulator imitates one seat sensor node: scan, report, poll config.
type Simulator struct {
	collector Collector
	logger    *zap.Logger

	mu           sync.Mutex
	nodeID       string
	total        int
	free         int
	resetPending bool
	calibrations int
	rnd          *rand.Rand
}

// New returns a node that starts with every seat free.
func New(collector Collector, opts Options, logger *zap.Logger) *Simulator {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	total := opts.TotalSeats
	if total < 0 {
		total = 0
	}
	return &Simulator{
		collector: collector,
		logger:    logger.With(zap.String("node_id", opts.NodeID)),
		nodeID:    opts.NodeID,
		total:     total,
		free:      total,
		rnd:       rand.New(rand.NewSource(seed)),
	}
}

// FreeSeats returns the last scanned value.
func (s *Simulator) FreeSeats() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.free
}

// Calibrations returns how many calibrations the node has run.
func (s *Simulator) Calibrations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calibrations
}

// Tick runs one cycle. A failed report still polls config so a pending
// calibration is not delayed by an unrelated error.
func (s *Simulator) Tick(ctx context.Context) error {
	free := s.scan()

	_, reportErr := s.collector.ReportOccupancy(ctx, clients.OccupancyReport{
		NodeID:     s.nodeID,
		FreeSeats:  free,
		TotalSeats: s.total,
	})
	if reportErr != nil {
		s.logger.Warn("occupancy report failed", zap.Error(reportErr))
	} else {
		s.logger.Info("occupancy reported", zap.Int("free_seats", free), zap.Int("total_seats", s.total))
	}

	calibrate, err := s.collector.FetchConfig(ctx, s.nodeID)
	if err != nil {
		s.logger.Warn("config poll failed", zap.Error(err))
		if reportErr != nil {
			return reportErr
		}
		return err
	}
	if calibrate {
		s.calibrate()
	}
	return reportErr
}

// Run ticks immediately and then every interval until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context, interval time.Duration) error {
	s.logger.Info("node simulator started", zap.Duration("interval", interval), zap.Int("total_seats", s.total))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_ = s.Tick(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info("node simulator stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Simulator) scan() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetPending {
		s.resetPending = false
		return s.free
	}
	s.free += s.rnd.Intn(3) - 1
	if s.free < 0 {
		s.free = 0
	}
	if s.free > s.total {
		s.free = s.total
	}
	return s.free
}

func (s *Simulator) calibrate() {
	s.mu.Lock()
	s.free = s.total
	s.resetPending = true
	s.calibrations++
	s.mu.Unlock()
	s.logger.Info("calibration performed, baseline reset", zap.Int("free_seats", s.total))
}
