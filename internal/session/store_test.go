package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakePersistence struct {
	mu           sync.Mutex
	token        string
	hasToken     bool
	snapshot     []byte
	loadErr      error
	loadGate     chan struct{}
	persistCalls int
	clearCalls   int
}

func (f *fakePersistence) Persist(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	f.hasToken = true
	f.persistCalls++
	return nil
}

func (f *fakePersistence) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.hasToken = false
	f.clearCalls++
	return nil
}

func (f *fakePersistence) SaveSnapshot(state any) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = raw
	return nil
}

func (f *fakePersistence) LoadSnapshot(state any) (bool, error) {
	if f.loadGate != nil {
		<-f.loadGate
	}
	f.mu.Lock()
	raw := f.snapshot
	err := f.loadErr
	f.mu.Unlock()
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	return true, json.Unmarshal(raw, state)
}

func (f *fakePersistence) ClearSnapshot() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = nil
	return nil
}

func testUser() User {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return User{
		ID:            "user-1",
		Email:         "maker@example.com",
		Plan:          "pro",
		OAuthProvider: "email",
		IsActive:      true,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func awaitHydration(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.AwaitHydration(ctx); err != nil {
		t.Fatalf("hydration did not complete: %v", err)
	}
}

func TestSetAuthSetsEverythingTogether(t *testing.T) {
	p := &fakePersistence{}
	store := NewStore(p, nil)

	if err := store.SetAuth(testUser(), "tok-1"); err != nil {
		t.Fatalf("SetAuth: %v", err)
	}

	state := store.State()
	if state.User == nil || state.Token != "tok-1" || !state.IsAuthenticated {
		t.Fatalf("auth fields not set together: %+v", state)
	}
	if state.IsLoading {
		t.Fatal("SetAuth must clear IsLoading")
	}
	if !p.hasToken || p.token != "tok-1" {
		t.Fatal("expected token persisted")
	}
	if p.snapshot == nil {
		t.Fatal("expected snapshot persisted")
	}
}

func TestSetAuthIsIdempotent(t *testing.T) {
	p := &fakePersistence{}
	store := NewStore(p, nil)

	if err := store.SetAuth(testUser(), "tok-1"); err != nil {
		t.Fatalf("SetAuth: %v", err)
	}
	firstState := store.State()
	firstSnapshot := append([]byte(nil), p.snapshot...)

	if err := store.SetAuth(testUser(), "tok-1"); err != nil {
		t.Fatalf("second SetAuth: %v", err)
	}

	secondState := store.State()
	if *firstState.User != *secondState.User ||
		firstState.Token != secondState.Token ||
		firstState.IsAuthenticated != secondState.IsAuthenticated {
		t.Fatal("repeated SetAuth changed state")
	}
	if !bytes.Equal(firstSnapshot, p.snapshot) {
		t.Fatal("repeated SetAuth changed persisted snapshot")
	}
}

func TestClearAuthResetsStateAndPersistence(t *testing.T) {
	p := &fakePersistence{}
	store := NewStore(p, nil)

	if err := store.SetAuth(testUser(), "tok-1"); err != nil {
		t.Fatalf("SetAuth: %v", err)
	}
	if err := store.ClearAuth(); err != nil {
		t.Fatalf("ClearAuth: %v", err)
	}

	state := store.State()
	if state.User != nil || state.Token != "" || state.IsAuthenticated || state.IsLoading {
		t.Fatalf("expected defaults after ClearAuth: %+v", state)
	}
	if p.hasToken {
		t.Fatal("expected credential channels cleared")
	}
	if p.snapshot != nil {
		t.Fatal("expected snapshot cleared")
	}
	if _, ok := store.Token(); ok {
		t.Fatal("Token() must report absence after ClearAuth")
	}
}

func TestSetUserTouchesOnlyUser(t *testing.T) {
	p := &fakePersistence{}
	store := NewStore(p, nil)

	store.SetUser(testUser())

	state := store.State()
	if state.User == nil {
		t.Fatal("expected user set")
	}
	if state.IsAuthenticated || state.Token != "" {
		t.Fatal("SetUser must not touch the credential")
	}
	if p.persistCalls != 0 || p.snapshot != nil {
		t.Fatal("SetUser must not persist")
	}
}

func TestUpdateOnboardingStatus(t *testing.T) {
	store := NewStore(&fakePersistence{}, nil)

	// No user yet: command is a no-op, not a panic.
	store.UpdateOnboardingStatus(true)
	if store.State().User != nil {
		t.Fatal("expected no user")
	}

	store.SetUser(testUser())
	store.UpdateOnboardingStatus(true)
	if !store.State().User.OnboardingCompleted {
		t.Fatal("expected onboarding completed")
	}
}

func TestHydrateRestoresSnapshot(t *testing.T) {
	p := &fakePersistence{}
	seed := NewStore(p, nil)
	if err := seed.SetAuth(testUser(), "tok-1"); err != nil {
		t.Fatalf("seed SetAuth: %v", err)
	}

	store := NewStore(p, nil)
	if store.State().HasHydrated {
		t.Fatal("HasHydrated must start false")
	}

	store.Hydrate(context.Background())
	awaitHydration(t, store)

	state := store.State()
	if !state.HasHydrated {
		t.Fatal("expected HasHydrated after hydration")
	}
	if state.Token != "tok-1" || !state.IsAuthenticated || state.User == nil {
		t.Fatalf("expected restored session, got %+v", state)
	}
	if state.User.Email != "maker@example.com" {
		t.Fatalf("unexpected restored user %+v", state.User)
	}
}

func TestHydrateWithoutSnapshotStillCompletes(t *testing.T) {
	store := NewStore(&fakePersistence{}, nil)

	store.Hydrate(context.Background())
	awaitHydration(t, store)

	state := store.State()
	if !state.HasHydrated {
		t.Fatal("expected HasHydrated after empty hydration")
	}
	if state.IsAuthenticated || state.Token != "" || state.User != nil {
		t.Fatalf("expected signed-out defaults, got %+v", state)
	}
}

func TestHydrateCorruptSnapshotResetsPersistence(t *testing.T) {
	p := &fakePersistence{loadErr: errors.New("bad json"), hasToken: true, token: "stale"}
	store := NewStore(p, nil)

	store.Hydrate(context.Background())
	awaitHydration(t, store)

	if !store.State().HasHydrated {
		t.Fatal("corrupt snapshot must still complete hydration")
	}
	if store.State().IsAuthenticated {
		t.Fatal("corrupt snapshot must leave the store signed out")
	}
	if p.clearCalls == 0 {
		t.Fatal("expected credential channels cleared on corruption")
	}
}

func TestHasHydratedLatchesExactlyOnce(t *testing.T) {
	store := NewStore(&fakePersistence{}, nil)

	store.Hydrate(context.Background())
	awaitHydration(t, store)

	// No later command may reset the latch.
	if err := store.SetAuth(testUser(), "tok-1"); err != nil {
		t.Fatalf("SetAuth: %v", err)
	}
	if err := store.ClearAuth(); err != nil {
		t.Fatalf("ClearAuth: %v", err)
	}
	if !store.State().HasHydrated {
		t.Fatal("HasHydrated reset after commands")
	}
}

func TestHydrationDoesNotClobberFresherLogin(t *testing.T) {
	gate := make(chan struct{})
	p := &fakePersistence{loadGate: gate}

	// Seed a stale snapshot directly.
	raw, err := json.Marshal(Snapshot{Token: "stale-token", IsAuthenticated: true})
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	p.snapshot = raw

	store := NewStore(p, nil)
	store.Hydrate(context.Background())

	// Login completes while the snapshot read is still in flight.
	if err := store.SetAuth(testUser(), "fresh-token"); err != nil {
		t.Fatalf("SetAuth: %v", err)
	}
	close(gate)
	awaitHydration(t, store)

	if got := store.State().Token; got != "fresh-token" {
		t.Fatalf("hydration clobbered a fresher login: token=%q", got)
	}
}
