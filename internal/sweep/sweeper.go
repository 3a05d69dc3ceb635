// Package sweep runs periodic registry maintenance: an external scheduler
// invoking the core's synchronous operations on a fixed interval. The core
// itself has no background behavior; everything here is a caller like any
// other, and a missed or delayed sweep only delays reporting, never
// correctness.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/workspace-coordinator/internal/conflict"
	"github.com/p-blackswan/workspace-coordinator/internal/metrics"
	"github.com/p-blackswan/workspace-coordinator/internal/session"
)

// Sweeper polls the registry and republishes conflict state as logs and
// gauges.
type Sweeper struct {
	store    session.Store
	metrics  *metrics.Metrics
	interval time.Duration
	logger   zerolog.Logger
}

// New creates a sweeper with the given poll interval.
func New(store session.Store, m *metrics.Metrics, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		metrics:  m,
		interval: interval,
		logger:   logger.With().Str("component", "sweep").Logger(),
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep performs one maintenance pass: snapshot active sessions, recompute
// conflicts, update gauges, and log every conflicting path.
func (s *Sweeper) Sweep() {
	active, err := s.store.List(session.FilterActive)
	if err != nil {
		s.logger.Warn().Err(err).Msg("sweep: listing failed")
		s.metrics.RecordError("sweep", "list")
		return
	}

	conflicts := conflict.Detect(active)
	s.metrics.SetSessions(len(active))
	s.metrics.SetConflicts(len(conflicts))

	for _, c := range conflicts {
		s.logger.Warn().
			Str("path", c.Path).
			Strs("sessions", c.Sessions).
			Msg("file claimed by multiple sessions")
	}
}
