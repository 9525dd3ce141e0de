package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dialograph/domain/core/aggregates"
)

// SweepResult summarizes one maintenance pass over the graph
type SweepResult struct {
	Decayed    int
	Pruned     int
	Statistics aggregates.Statistics
}

// MaintenanceService runs the periodic forgetting machinery: edge decay
// for elapsed wall-clock time and pruning of relations that have faded
// below the configured threshold. Reinforcement happens on the hot path
// through the graph facade; only the background weakening lives here.
type MaintenanceService struct {
	graph  *aggregates.Graph
	logger *zap.Logger
	now    func() time.Time

	lastSweep  time.Time
	onSweep    func(SweepResult)
	intervalCh chan time.Duration
}

// MaintenanceOption customizes the service
type MaintenanceOption func(*MaintenanceService)

// WithMaintenanceClock overrides the time source for deterministic tests
func WithMaintenanceClock(now func() time.Time) MaintenanceOption {
	return func(s *MaintenanceService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSweepObserver registers a callback invoked after every sweep,
// used to feed metrics
func WithSweepObserver(fn func(SweepResult)) MaintenanceOption {
	return func(s *MaintenanceService) {
		s.onSweep = fn
	}
}

// NewMaintenanceService creates a maintenance service for one graph
func NewMaintenanceService(graph *aggregates.Graph, logger *zap.Logger, opts ...MaintenanceOption) *MaintenanceService {
	s := &MaintenanceService{
		graph:      graph,
		logger:     logger,
		now:        time.Now,
		intervalCh: make(chan time.Duration, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastSweep = s.now()
	return s
}

// Sweep applies decay for the time elapsed since the previous sweep,
// prunes weak edges at the configured threshold, and reports what
// happened.
func (s *MaintenanceService) Sweep() SweepResult {
	now := s.now()
	elapsed := now.Sub(s.lastSweep)
	s.lastSweep = now

	result := SweepResult{}
	if elapsed > 0 {
		result.Decayed = s.graph.DecayEdges(elapsed)
	}
	result.Pruned = s.graph.PruneWeakEdges(0)
	result.Statistics = s.graph.Statistics()

	s.logger.Info("maintenance sweep completed",
		zap.Duration("elapsed", elapsed),
		zap.Int("decayed", result.Decayed),
		zap.Int("pruned", result.Pruned),
		zap.Int("nodes", result.Statistics.NodeCount),
		zap.Int("edges", result.Statistics.EdgeCount),
		zap.Float64("avgEdgeStrength", result.Statistics.AvgEdgeStrength),
	)

	if s.onSweep != nil {
		s.onSweep(result)
	}
	return result
}

// SetInterval reschedules the sweep loop. Safe to call from any
// goroutine, including before Run starts; non-positive intervals are
// ignored.
func (s *MaintenanceService) SetInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}

	// Keep only the latest pending reschedule
	select {
	case <-s.intervalCh:
	default:
	}
	select {
	case s.intervalCh <- interval:
	default:
	}
}

// Run sweeps at the given interval until the context is cancelled.
// Intended to be launched as a goroutine from the server entrypoint.
func (s *MaintenanceService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("maintenance loop started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("maintenance loop stopped")
			return
		case next := <-s.intervalCh:
			ticker.Reset(next)
			s.logger.Info("maintenance interval updated", zap.Duration("interval", next))
		case <-ticker.C:
			s.Sweep()
		}
	}
}
