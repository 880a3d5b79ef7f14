// Package credentials mirrors the bearer credential into the two places the
// rest of the system reads it from: a durable token entry consumed by the
// authenticated fetch layer, and a cookie record consumed by server-side
// middleware. Nothing else in the repository touches these keys directly.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"contentpilot/internal/token"
)

const (
	// CookieName is the cookie mirror of the access token, named distinctly
	// from the durable-storage key so the two channels never collide.
	CookieName = "cp_access_token"

	tokenFile    = "access_token"
	cookieFile   = "cp_access_token.cookie.json"
	snapshotFile = "auth-storage.json"

	// fallbackTTL bounds the cookie lifetime when the token carries no
	// decodable expiry.
	fallbackTTL = time.Hour

	snapshotVersion = 1
)

// Store persists the credential across both channels under a single state
// directory. An empty directory turns every operation into a silent no-op so
// the store stays safely callable from contexts without local storage.
type Store struct {
	dir    string
	secure bool
	now    func() time.Time
}

// Option configures the Store during construction.
type Option func(*Store)

// WithClock overrides the time source used to compute cookie lifetimes.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore constructs a Store rooted at dir. secure marks cookie records as
// HTTPS-only and should reflect the transport of the API base URL.
func NewStore(dir string, secure bool, opts ...Option) *Store {
	s := &Store{dir: dir, secure: secure, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type cookieRecord struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path"`
	MaxAge   int       `json:"max_age"`
	Expires  time.Time `json:"expires"`
	Secure   bool      `json:"secure"`
	SameSite string    `json:"same_site"`
}

type snapshotEnvelope struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// Persist writes tok into the durable entry and mirrors it into the cookie
// record. The cookie max-age tracks the token's own claimed expiry; when no
// expiry decodes, a conservative fallback applies. A token that is already
// expired clears the cookie instead of resurrecting it.
func (s *Store) Persist(tok string) error {
	if s.dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	if err := writeFileAtomic(filepath.Join(s.dir, tokenFile), []byte(tok)); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	now := s.now()
	remaining, ok := token.RemainingLifetime(tok, now)
	if !ok {
		remaining = fallbackTTL
	}

	maxAge := int(remaining.Seconds())
	if maxAge <= 0 {
		return s.clearCookie()
	}

	record := cookieRecord{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  now.Add(remaining),
		Secure:   s.secure,
		SameSite: "lax",
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode cookie record: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.dir, cookieFile), payload); err != nil {
		return fmt.Errorf("persist cookie: %w", err)
	}
	return nil
}

// Clear removes the token from both channels. Calling it when nothing is
// persisted is not an error.
func (s *Store) Clear() error {
	if s.dir == "" {
		return nil
	}
	if err := removeIfExists(filepath.Join(s.dir, tokenFile)); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return s.clearCookie()
}

// Token reads the durable channel.
func (s *Store) Token() (string, bool) {
	if s.dir == "" {
		return "", false
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if err != nil || len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}

// Cookie reads the cookie channel, reporting absence for records already past
// their expiry.
func (s *Store) Cookie() (*http.Cookie, bool) {
	if s.dir == "" {
		return nil, false
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, cookieFile))
	if err != nil {
		return nil, false
	}

	var record cookieRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, false
	}
	if !record.Expires.After(s.now()) {
		return nil, false
	}

	return &http.Cookie{
		Name:     record.Name,
		Value:    record.Value,
		Path:     record.Path,
		MaxAge:   record.MaxAge,
		Expires:  record.Expires,
		Secure:   record.Secure,
		SameSite: http.SameSiteLaxMode,
	}, true
}

// SaveSnapshot writes the partial session snapshot inside a versioned
// envelope.
func (s *Store) SaveSnapshot(state any) error {
	if s.dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	inner, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot state: %w", err)
	}
	payload, err := json.Marshal(snapshotEnvelope{State: inner, Version: snapshotVersion})
	if err != nil {
		return fmt.Errorf("encode snapshot envelope: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.dir, snapshotFile), payload); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the persisted snapshot into state. ok=false with a nil
// error means no snapshot exists; a non-nil error means the snapshot exists
// but could not be decoded.
func (s *Store) LoadSnapshot(state any) (bool, error) {
	if s.dir == "" {
		return false, nil
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, snapshotFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read snapshot: %w", err)
	}

	var envelope snapshotEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return false, fmt.Errorf("decode snapshot envelope: %w", err)
	}
	if err := json.Unmarshal(envelope.State, state); err != nil {
		return false, fmt.Errorf("decode snapshot state: %w", err)
	}
	return true, nil
}

// ClearSnapshot removes the persisted snapshot, idempotently.
func (s *Store) ClearSnapshot() error {
	if s.dir == "" {
		return nil
	}
	if err := removeIfExists(filepath.Join(s.dir, snapshotFile)); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

func (s *Store) clearCookie() error {
	if err := removeIfExists(filepath.Join(s.dir, cookieFile)); err != nil {
		return fmt.Errorf("clear cookie: %w", err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// writeFileAtomic writes via a temp file and rename so a concurrent reader
// never observes a torn value.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
