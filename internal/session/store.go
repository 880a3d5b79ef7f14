// Package session holds the process-wide authenticated-session state. The
// store is constructor-injected everywhere it is consumed; there is no
// package-level singleton.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Persistence is the effect surface the store drives after state
// transitions. contentpilot/internal/credentials implements it.
type Persistence interface {
	Persist(token string) error
	Clear() error
	SaveSnapshot(state any) error
	LoadSnapshot(state any) (bool, error)
	ClearSnapshot() error
}

// Snapshot is the partial state written to durable storage. Transient flags
// (IsLoading, HasHydrated) are deliberately excluded.
type Snapshot struct {
	User            *User  `json:"user"`
	Token           string `json:"token"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// Store is the single writer of the credential. All mutation goes through
// the five commands; reads return copies.
type Store struct {
	mu          sync.RWMutex
	state       State
	persistence Persistence
	logger      *slog.Logger

	hydrateOnce sync.Once
	hydrated    chan struct{}
}

// NewStore creates a Store with all-null defaults and HasHydrated=false.
// Call Hydrate to load a previously persisted session.
func NewStore(p Persistence, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		persistence: p,
		logger:      logger,
		hydrated:    make(chan struct{}),
	}
}

// SetAuth installs the user and token together and mirrors the credential
// into persistence. Identical repeated calls leave state and snapshot
// unchanged.
func (s *Store) SetAuth(user User, token string) error {
	s.mu.Lock()
	next, eff := reduceSetAuth(s.state, user, token)
	s.state = next
	snap := snapshotOf(next)
	s.mu.Unlock()

	return s.execute(eff, token, snap)
}

// ClearAuth resets the session to defaults and removes every persisted
// trace of it.
func (s *Store) ClearAuth() error {
	s.mu.Lock()
	next, eff := reduceClearAuth(s.state)
	s.state = next
	s.mu.Unlock()

	return s.execute(eff, "", Snapshot{})
}

// SetUser replaces the user record without touching the credential or
// persistence.
func (s *Store) SetUser(user User) {
	s.mu.Lock()
	s.state, _ = reduceSetUser(s.state, user)
	s.mu.Unlock()
}

// SetLoading flags an in-flight auth operation.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.state, _ = reduceSetLoading(s.state, loading)
	s.mu.Unlock()
}

// UpdateOnboardingStatus marks onboarding completion on the current user.
// Without a user it is a no-op.
func (s *Store) UpdateOnboardingStatus(completed bool) {
	s.mu.Lock()
	s.state, _ = reduceUpdateOnboardingStatus(s.state, completed)
	s.mu.Unlock()
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := s.state
	if state.User != nil {
		user := *state.User
		state.User = &user
	}
	return state
}

// Token reports the held credential, satisfying the query layer's token
// source contract.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token, s.state.Token != ""
}

// Hydrate asynchronously restores the persisted snapshot. It completes the
// hydration latch exactly once whether a snapshot existed, was absent, or
// was corrupt.
func (s *Store) Hydrate(ctx context.Context) {
	go s.hydrate(ctx)
}

// Hydrated closes once the startup rehydration pass has finished. Consumers
// gating on authentication state must wait on it before their first read.
func (s *Store) Hydrated() <-chan struct{} {
	return s.hydrated
}

// AwaitHydration blocks until hydration completes or ctx is done.
func (s *Store) AwaitHydration(ctx context.Context) error {
	select {
	case <-s.hydrated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) hydrate(ctx context.Context) {
	defer s.finishHydration()

	var snap Snapshot
	ok, err := s.persistence.LoadSnapshot(&snap)
	if err != nil {
		s.logger.Warn("session snapshot unreadable, starting signed out", "error", err)
		s.resetPersisted()
		return
	}
	if !ok || ctx.Err() != nil {
		return
	}
	if snap.IsAuthenticated != (snap.Token != "") {
		s.logger.Warn("session snapshot inconsistent, starting signed out")
		s.resetPersisted()
		return
	}

	s.mu.Lock()
	// A login that completed before hydration finished is fresher than any
	// snapshot; never clobber it.
	if s.state.Token == "" && s.state.User == nil {
		s.state.User = snap.User
		s.state.Token = snap.Token
		s.state.IsAuthenticated = snap.Token != ""
	}
	s.mu.Unlock()
}

func (s *Store) finishHydration() {
	s.hydrateOnce.Do(func() {
		s.mu.Lock()
		s.state.HasHydrated = true
		s.mu.Unlock()
		close(s.hydrated)
	})
}

func (s *Store) resetPersisted() {
	if err := s.persistence.Clear(); err != nil {
		s.logger.Warn("clearing credential channels", "error", err)
	}
	if err := s.persistence.ClearSnapshot(); err != nil {
		s.logger.Warn("clearing session snapshot", "error", err)
	}
}

func (s *Store) execute(eff effect, token string, snap Snapshot) error {
	switch eff {
	case effectPersist:
		return errors.Join(
			s.persistence.Persist(token),
			s.persistence.SaveSnapshot(snap),
		)
	case effectClear:
		return errors.Join(
			s.persistence.Clear(),
			s.persistence.ClearSnapshot(),
		)
	default:
		return nil
	}
}

func snapshotOf(state State) Snapshot {
	snap := Snapshot{
		Token:           state.Token,
		IsAuthenticated: state.IsAuthenticated,
	}
	if state.User != nil {
		user := *state.User
		snap.User = &user
	}
	return snap
}
