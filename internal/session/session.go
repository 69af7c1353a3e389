// Package session owns the fetched batch of stories and the current query.
//
// A Session is a single slot of fetch state that moves through
// uninitialized → pending → success|failure. Only the most recently started
// fetch may update the slot; an older fetch still in flight is cancelled and
// its result is discarded whenever it arrives.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"hn-frontpage/internal/filter"
	"hn-frontpage/internal/model"
)

// Phase is the lifecycle stage of the fetch slot.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhasePending
	PhaseSuccess
	PhaseFailure
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseSuccess:
		return "success"
	case PhaseFailure:
		return "failure"
	default:
		return "uninitialized"
	}
}

// Status is a snapshot of the fetch slot. Stories is set only on success and
// Err only on failure.
type Status struct {
	Phase     Phase
	Stories   []model.Story
	Err       error
	FetchedAt time.Time
}

// Fetcher produces one batch of stories per call.
type Fetcher interface {
	Fetch(ctx context.Context) ([]model.Story, error)
}

// Cache holds the last successful batch between sessions. LoadStories
// reports when the batch was originally fetched.
type Cache interface {
	LoadStories(ctx context.Context) ([]model.Story, time.Time, bool, error)
	SaveStories(ctx context.Context, stories []model.Story) error
}

// Option configures a Session.
type Option func(*Session)

// WithCache lets Load answer from, and fetches write to, c.
func WithCache(c Cache) Option {
	return func(s *Session) { s.cache = c }
}

// WithClock overrides time.Now for FetchedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session is safe for concurrent use.
type Session struct {
	fetcher Fetcher
	cache   Cache
	now     func() time.Time

	mu      sync.Mutex
	saveMu  sync.Mutex // orders cache writes
	seq     uint64
	cancel  context.CancelFunc
	pending chan struct{} // closed when the fetch numbered seq resolves
	status  Status
	query   string
}

// New creates a session in the uninitialized phase.
func New(f Fetcher, opts ...Option) *Session {
	s := &Session{fetcher: f, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the current snapshot.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Load performs the initial fetch. It is a no-op once a batch is held, and
// waits for a fetch that is already pending instead of starting another.
// A cached batch, when available, satisfies the load without network activity.
// If a Refresh supersedes the load, Load waits for that refresh instead.
func (s *Session) Load(ctx context.Context) Status {
	s.mu.Lock()
	switch s.status.Phase {
	case PhaseSuccess:
		st := s.snapshot()
		s.mu.Unlock()
		return st
	case PhasePending:
		wait := s.pending
		s.mu.Unlock()
		return s.wait(ctx, wait)
	}
	seq, fctx, cancel, done := s.claimLocked(ctx)
	s.mu.Unlock()
	defer cancel()

	if s.cache != nil {
		stories, savedAt, ok, err := s.cache.LoadStories(fctx)
		switch {
		case err != nil:
			slog.Warn("session: cache load failed", "error", err)
		case ok:
			st, applied := s.resolve(ctx, seq, done, stories, nil, savedAt, false)
			if !applied {
				return s.waitLatest(ctx)
			}
			slog.Info("session: loaded stories from cache", "count", len(st.Stories), "saved_at", savedAt)
			return st
		}
	}

	stories, err := s.fetcher.Fetch(fctx)
	st, applied := s.resolve(ctx, seq, done, stories, err, time.Time{}, true)
	if !applied {
		return s.waitLatest(ctx)
	}
	return st
}

// Refresh starts a new fetch, superseding any pending one, and bypasses the
// cache read. It returns the snapshot taken once its own fetch resolves; if a
// newer fetch started meanwhile that snapshot may still be pending.
func (s *Session) Refresh(ctx context.Context) Status {
	s.mu.Lock()
	seq, fctx, cancel, done := s.claimLocked(ctx)
	s.mu.Unlock()
	defer cancel()

	stories, err := s.fetcher.Fetch(fctx)
	st, _ := s.resolve(ctx, seq, done, stories, err, time.Time{}, true)
	return st
}

// claimLocked moves the slot to pending under a new sequence number and
// cancels whatever fetch held it before. s.mu must be held.
func (s *Session) claimLocked(ctx context.Context) (uint64, context.Context, context.CancelFunc, chan struct{}) {
	if s.cancel != nil {
		s.cancel()
		slog.Debug("session: superseding pending fetch", "seq", s.seq)
	}
	s.seq++
	fctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.pending = done
	s.status = Status{Phase: PhasePending}
	return s.seq, fctx, cancel, done
}

// resolve applies the outcome of fetch seq unless a newer one has started.
// A zero at means "now". It reports whether the outcome was applied.
func (s *Session) resolve(ctx context.Context, seq uint64, done chan struct{}, stories []model.Story, err error, at time.Time, save bool) (Status, bool) {
	s.mu.Lock()
	if seq != s.seq {
		st := s.snapshot()
		s.mu.Unlock()
		close(done)
		slog.Debug("session: dropping stale fetch result", "seq", seq, "phase", st.Phase, "error", err)
		return st, false
	}
	s.cancel = nil
	s.pending = nil
	if at.IsZero() {
		at = s.now()
	}
	if err != nil {
		s.status = Status{Phase: PhaseFailure, Err: err, FetchedAt: at}
	} else {
		if stories == nil {
			stories = []model.Story{}
		}
		s.status = Status{Phase: PhaseSuccess, Stories: stories, FetchedAt: at}
	}
	st := s.snapshot()
	s.mu.Unlock()
	close(done)

	if err != nil {
		slog.Error("session: fetch failed", "seq", seq, "error", err)
		return st, true
	}
	if save && s.cache != nil {
		s.save(ctx, seq, stories)
	}
	return st, true
}

// save writes the batch of fetch seq to the cache unless a newer fetch has
// started since, so an older batch never overwrites a newer one.
func (s *Session) save(ctx context.Context, seq uint64, stories []model.Story) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.Lock()
	latest := s.seq
	s.mu.Unlock()
	if latest != seq {
		slog.Debug("session: skipping cache write for superseded batch", "seq", seq, "latest", latest)
		return
	}
	if err := s.cache.SaveStories(ctx, stories); err != nil {
		slog.Warn("session: cache save failed", "error", err)
	}
}

func (s *Session) waitLatest(ctx context.Context) Status {
	s.mu.Lock()
	ch := s.pending
	s.mu.Unlock()
	return s.wait(ctx, ch)
}

// wait blocks until no fetch is pending any more, following supersessions,
// or until ctx ends.
func (s *Session) wait(ctx context.Context, ch chan struct{}) Status {
	for ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return s.Status()
		}
		s.mu.Lock()
		ch = s.pending
		s.mu.Unlock()
	}
	return s.Status()
}

// SetQuery records q as the current query and returns the matching stories.
// It returns nil until a batch has been fetched.
func (s *Session) SetQuery(q string) []model.Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
	return s.visible()
}

// Query returns the current query.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Visible returns the current batch filtered by the current query, or nil
// when no batch is held.
func (s *Session) Visible() []model.Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible()
}

// Search filters the held batch by q without touching the session query.
func (s *Session) Search(q string) ([]model.Story, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.snapshot()
	if st.Phase != PhaseSuccess {
		return nil, st
	}
	return filter.Filter(st.Stories, q), st
}

func (s *Session) visible() []model.Story {
	if s.status.Phase != PhaseSuccess {
		return nil
	}
	return filter.Filter(s.status.Stories, s.query)
}

// snapshot copies the status so callers cannot reach the held batch.
func (s *Session) snapshot() Status {
	st := s.status
	if st.Stories != nil {
		cp := make([]model.Story, len(st.Stories))
		copy(cp, st.Stories)
		st.Stories = cp
	}
	return st
}
