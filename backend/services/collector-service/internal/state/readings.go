package state

import (
	"context"
	"sync"

	"studyspace/backend/services/collector-service/internal/models"
)

// ReadingState keeps the latest reading per node in memory for the process lifetime.
type ReadingState struct {
	mu       sync.RWMutex
	readings map[string]models.OccupancyReading
}

// NewReadingState returns an empty store.
func NewReadingState() *ReadingState {
	return &ReadingState{
		readings: make(map[string]models.OccupancyReading),
	}
}

// Put replaces the reading of reading.NodeID.
func (s *ReadingState) Put(_ context.Context, reading models.OccupancyReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings[reading.NodeID] = reading
	return nil
}

// Get returns the reading of a node.
func (s *ReadingState) Get(nodeID string) (models.OccupancyReading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reading, ok := s.readings[nodeID]
	return reading, ok
}

// List returns a copy of all readings in map iteration order.
func (s *ReadingState) List(_ context.Context) ([]models.OccupancyReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.OccupancyReading, 0, len(s.readings))
	for _, reading := range s.readings {
		result = append(result, reading)
	}
	return result, nil
}

// Len returns the number of nodes with a reading.
func (s *ReadingState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings)
}
