package simulator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"studyspace/backend/services/node-simulator/internal/clients"
)

type fakeCollector struct {
	mu        sync.Mutex
	reports   []clients.OccupancyReport
	flags     []bool
	reportErr error
	configErr error
}

func (f *fakeCollector) ReportOccupancy(_ context.Context, report clients.OccupancyReport) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reportErr != nil {
		return "", f.reportErr
	}
	f.reports = append(f.reports, report)
	return report.NodeID, nil
}

func (f *fakeCollector) FetchConfig(context.Context, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.configErr != nil {
		return false, f.configErr
	}
	if len(f.flags) == 0 {
		return false, nil
	}
	flag := f.flags[0]
	f.flags = f.flags[1:]
	return flag, nil
}

func (f *fakeCollector) reportCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

func TestTickStaysWithinBounds(t *testing.T) {
	fake := &fakeCollector{}
	sim := New(fake, Options{NodeID: "lb8-node-1", TotalSeats: 4, Seed: 42}, zap.NewNop())

	for i := 0; i < 200; i++ {
		if err := sim.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if len(fake.reports) != 200 {
		t.Fatalf("expected 200 reports, got %d", len(fake.reports))
	}
	for _, r := range fake.reports {
		if r.FreeSeats < 0 || r.FreeSeats > 4 || r.TotalSeats != 4 || r.NodeID != "lb8-node-1" {
			t.Fatalf("report out of range: %+v", r)
		}
	}
}

func TestCalibrationResetsToAllFree(t *testing.T) {
	fake := &fakeCollector{flags: []bool{false, false, true}}
	sim := New(fake, Options{NodeID: "n", TotalSeats: 10, Seed: 7}, zap.NewNop())

	for i := 0; i < 4; i++ {
		if err := sim.Tick(context.Background()); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}
	if sim.Calibrations() != 1 {
		t.Fatalf("expected one calibration, got %d", sim.Calibrations())
	}
	if got := fake.reports[3].FreeSeats; got != 10 {
		t.Fatalf("expected report after calibration to be all free, got %d", got)
	}
}

func TestTickReturnsErrorsButPollsConfig(t *testing.T) {
	fake := &fakeCollector{reportErr: errors.New("connection refused"), flags: []bool{true}}
	sim := New(fake, Options{NodeID: "n", TotalSeats: 2, Seed: 1}, zap.NewNop())

	if err := sim.Tick(context.Background()); err == nil {
		t.Fatalf("expected report error")
	}
	if sim.Calibrations() != 1 {
		t.Fatalf("expected calibration despite report failure")
	}

	fake.reportErr = nil
	fake.configErr = errors.New("timeout")
	if err := sim.Tick(context.Background()); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestZeroSeatsNode(t *testing.T) {
	fake := &fakeCollector{}
	sim := New(fake, Options{NodeID: "n", TotalSeats: 0, Seed: 3}, zap.NewNop())
	for i := 0; i < 10; i++ {
		_ = sim.Tick(context.Background())
	}
	if sim.FreeSeats() != 0 {
		t.Fatalf("expected zero free seats, got %d", sim.FreeSeats())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	fake := &fakeCollector{}
	sim := New(fake, Options{NodeID: "n", TotalSeats: 3, Seed: 5}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx, 10*time.Millisecond) }()

	deadline := time.Now().Add(2 * time.Second)
	for fake.reportCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop after cancel")
	}
	if fake.reportCount() < 3 {
		t.Fatalf("expected at least 3 reports, got %d", fake.reportCount())
	}
}
