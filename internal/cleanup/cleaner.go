package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/domain-lists/internal/board"
)

// SessionStore is the part of the board hub the sweeper needs
type SessionStore interface {
	Idle(cutoff time.Time) []*board.Session
	Remove(id string)
}

// Sweeper periodically closes board sessions that went idle
type Sweeper struct {
	store       SessionStore
	interval    time.Duration
	idleTimeout time.Duration
	now         func() time.Time
}

// NewSweeper creates a new sweeper
func NewSweeper(store SessionStore, interval, idleTimeout time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}

	return &Sweeper{
		store:       store,
		interval:    interval,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Run sweeps until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context) error {
	slog.Info("session sweeper started", "interval", s.interval, "idle_timeout", s.idleTimeout)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep closes every session idle for longer than the timeout and returns
// how many were closed
func (s *Sweeper) Sweep() int {
	idle := s.store.Idle(s.now().Add(-s.idleTimeout))
	if len(idle) == 0 {
		slog.Debug("no idle sessions found")
		return 0
	}

	slog.Info("closing idle sessions", "count", len(idle))

	for _, sess := range idle {
		s.store.Remove(sess.ID)
		if err := sess.Close(); err != nil {
			slog.Warn("failed to close idle session", "error", err, "session_id", sess.ID)
			continue
		}
		slog.Debug("idle session closed", "session_id", sess.ID, "last_active", sess.LastActive())
	}
	return len(idle)
}
