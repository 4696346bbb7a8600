package core

// scheduler.go runs the background sweep that drops idle sessions.
//
// Sessions hold uploaded lists in memory only, so expiring them is the only
// cleanup the application needs. The sweeper is long-running and stops when
// its context is cancelled.

import (
	"context"
	"log/slog"
	"time"
)

// StartSweeper removes expired sessions every interval until ctx is done.
// It sweeps once immediately on start.
func (st *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	slog.Info("session sweeper started",
		"interval", interval.String(),
		"ttl", st.cfg.TTL.String(),
		"max_sessions", st.cfg.MaxSessions,
	)

	st.runSweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			st.runSweep()
		}
	}
}

func (st *SessionStore) runSweep() {
	start := time.Now()
	removed := st.Sweep()
	if removed == 0 {
		slog.Debug("session sweep completed", "remaining", st.Len())
		return
	}
	slog.Info("expired sessions removed",
		"removed", removed,
		"remaining", st.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
