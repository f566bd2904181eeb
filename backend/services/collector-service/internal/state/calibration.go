package state

import (
	"context"
	"sync"
)

// CalibrationState stores one-shot calibration flags by node ID.
type CalibrationState struct {
	mu      sync.Mutex
	pending map[string]bool
}

// NewCalibrationState returns initialized store.
func NewCalibrationState() *CalibrationState {
	return &CalibrationState{
		pending: make(map[string]bool),
	}
}

// Set stores the flag for a node, replacing an unconsumed one.
func (s *CalibrationState) Set(_ context.Context, nodeID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[nodeID] = enabled
	return nil
}

// Take returns and removes the flag in one critical section.
func (s *CalibrationState) Take(_ context.Context, nodeID string) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enabled, ok := s.pending[nodeID]
	if ok {
		delete(s.pending, nodeID)
	}
	return enabled, ok, nil
}

// Len returns the number of pending flags.
func (s *CalibrationState) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
