package worker

import (
	"context"
	"log/slog"
	"time"

	"hn-frontpage/internal/session"
)

// Refresher reloads the front page on a fixed interval. Each tick is one
// ordinary refresh: a failure is logged and the next tick tries again.
type Refresher struct {
	Session  *session.Session
	Interval time.Duration
	Timeout  time.Duration // per-refresh deadline; zero means none
}

func (w *Refresher) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 10 * time.Minute
	}

	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Refresher) runOnce(ctx context.Context) {
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}
	st := w.Session.Refresh(ctx)
	switch st.Phase {
	case session.PhaseSuccess:
		slog.Info("refresher: refreshed front page", "count", len(st.Stories))
	case session.PhaseFailure:
		slog.Error("refresher: refresh failed", "error", st.Err)
	default:
		slog.Debug("refresher: refresh superseded", "phase", st.Phase)
	}
}
