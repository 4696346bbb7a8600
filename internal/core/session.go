package core

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/JonMunkholm/bondcheck/internal/logging"
)

// SessionOptions configures new sessions.
type SessionOptions struct {
	// PrizeLabel is attached to every winning entry (default: DefaultPrizeLabel).
	PrizeLabel string

	// Limiter caps concurrent reads. Nil means unlimited.
	Limiter *Limiter
}

// Session holds the loaded lists and last match results for one user session.
//
// Lists start empty. A successful load replaces its list wholesale and clears
// the match results. A failed load changes nothing.
type Session struct {
	id   string
	opts SessionOptions

	mu       sync.RWMutex
	own      []Identifier
	winning  []WinningEntry
	matches  []MatchResult
	checked  bool
	lastSeen time.Time

	ownLoaded       bool
	winningLoaded   bool
	ownFile         string
	winningFile     string
	ownLoadedAt     time.Time
	winningLoadedAt time.Time
}

// NewSession creates an empty session.
func NewSession(id string, opts SessionOptions) *Session {
	if opts.PrizeLabel == "" {
		opts.PrizeLabel = DefaultPrizeLabel
	}
	return &Session{
		id:       id,
		opts:     opts,
		lastSeen: time.Now(),
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// LoadOwn reads the user's bond list. Only tabular files are accepted.
func (s *Session) LoadOwn(ctx context.Context, fileName string, data []byte) error {
	tokens, err := s.read(ctx, CategoryOwn, fileName, data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.own = ToIdentifiers(tokens)
	s.ownLoaded = true
	s.ownFile = fileName
	s.ownLoadedAt = time.Now()
	s.clearMatchesLocked()
	return nil
}

// LoadWinning reads the winning list. Text files are scanned for 6-digit
// numbers; tabular files are read cell by cell.
func (s *Session) LoadWinning(ctx context.Context, fileName string, data []byte) error {
	tokens, err := s.read(ctx, CategoryWinning, fileName, data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.winning = ToWinningEntries(tokens, s.opts.PrizeLabel)
	s.winningLoaded = true
	s.winningFile = fileName
	s.winningLoadedAt = time.Now()
	s.clearMatchesLocked()
	return nil
}

// Load dispatches to LoadOwn or LoadWinning.
func (s *Session) Load(ctx context.Context, c Category, fileName string, data []byte) error {
	if c == CategoryOwn {
		return s.LoadOwn(ctx, fileName, data)
	}
	return s.LoadWinning(ctx, fileName, data)
}

// read resolves the reader, waits for a limiter slot and awaits the read future.
func (s *Session) read(ctx context.Context, c Category, fileName string, data []byte) ([]string, error) {
	logger := logging.WithFields(ctx,
		"session_id", s.id,
		"category", string(c),
		"file", fileName,
		"bytes", len(data),
		"ip", IPAddressFromContext(ctx),
		"user_agent", UserAgentFromContext(ctx),
	)

	def, err := Lookup(c, fileName)
	if err != nil {
		logger.Warn("load rejected", "error", err)
		return nil, err
	}

	fn := def.Read
	if limiter := s.opts.Limiter; limiter != nil {
		if !limiter.TryAcquire() {
			logger.Debug("waiting for read slot", "active", limiter.ActiveCount())
			if err := limiter.Acquire(ctx); err != nil {
				logger.Warn("no read slot available", "error", err)
				return nil, err
			}
		}
		fn = func(b []byte) ([]string, error) {
			defer limiter.Release()
			return def.Read(b)
		}
	}

	start := time.Now()
	res := Await(ctx, ReadAsync(fn, data))
	if !res.OK() {
		logger.Error("load failed", "reader", def.Name, "error", res.Err)
		return nil, res.Err
	}

	logger.Info("list loaded",
		"reader", def.Name,
		"tokens", len(res.Tokens),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res.Tokens, nil
}

// Check matches the two lists and stores the results.
// Returns ErrNothingToMatch if either list is empty.
func (s *Session) Check() ([]MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.own) == 0 || len(s.winning) == 0 {
		return nil, ErrNothingToMatch
	}

	s.matches = Match(s.own, s.winning)
	s.checked = true
	return slices.Clone(s.matches), nil
}

// Reset returns the session to its empty start state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.own, s.winning = nil, nil
	s.ownLoaded, s.winningLoaded = false, false
	s.ownFile, s.winningFile = "", ""
	s.ownLoadedAt, s.winningLoadedAt = time.Time{}, time.Time{}
	s.clearMatchesLocked()
}

// Snapshot returns copies of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		SessionID:       s.id,
		Own:             cloneNonNil(s.own),
		Winning:         cloneNonNil(s.winning),
		Matches:         cloneNonNil(s.matches),
		OwnLoaded:       s.ownLoaded,
		WinningLoaded:   s.winningLoaded,
		Checked:         s.checked,
		OwnFile:         s.ownFile,
		WinningFile:     s.winningFile,
		OwnLoadedAt:     s.ownLoadedAt,
		WinningLoadedAt: s.winningLoadedAt,
	}
}

// touch records activity for idle expiry.
func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns the time of the last store lookup.
func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

func (s *Session) clearMatchesLocked() {
	s.matches = nil
	s.checked = false
}

// cloneNonNil copies a slice, returning an empty slice for nil so JSON
// renders [] instead of null.
func cloneNonNil[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
