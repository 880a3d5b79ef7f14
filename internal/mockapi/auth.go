package mockapi

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrEmailTaken is returned when a signup reuses an existing address.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned for a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnknownUser is returned when a token references a deleted account.
	ErrUnknownUser = errors.New("unknown user")
)

// User is an account as the mock backend stores and serves it.
type User struct {
	ID                  uuid.UUID
	Email               string
	Plan                string
	OAuthProvider       string
	IsActive            bool
	EmailVerified       bool
	LastLoginAt         *time.Time
	OnboardingCompleted bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type account struct {
	user         User
	passwordHash string
}

// AuthService issues and validates bearer tokens for the mock backend. Real
// HS256 tokens with real expiry claims come out of it so the client's codec
// and cookie mirroring have genuine input to work with.
type AuthService struct {
	mu       sync.Mutex
	byEmail  map[string]*account
	byID     map[uuid.UUID]*account
	secret   []byte
	tokenTTL time.Duration
}

// NewAuthService creates an AuthService signing tokens with secret.
func NewAuthService(secret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL == 0 {
		tokenTTL = 12 * time.Hour
	}
	return &AuthService{
		byEmail:  make(map[string]*account),
		byID:     make(map[uuid.UUID]*account),
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Signup registers a new account on the free plan and signs it in.
func (s *AuthService) Signup(email, password string) (User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, "", ErrInvalidCredentials
	}

	s.mu.Lock()
	if _, exists := s.byEmail[email]; exists {
		s.mu.Unlock()
		return User{}, "", ErrEmailTaken
	}

	now := time.Now().UTC()
	acct := &account{
		user: User{
			ID:            uuid.New(),
			Email:         email,
			Plan:          "free",
			OAuthProvider: "email",
			IsActive:      true,
			EmailVerified: true,
			LastLoginAt:   &now,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		passwordHash: hashPassword(password),
	}
	s.byEmail[email] = acct
	s.byID[acct.user.ID] = acct
	user := acct.user
	s.mu.Unlock()

	token, err := s.issueToken(user.ID)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// Login authenticates an existing account and refreshes its last-login time.
func (s *AuthService) Login(email, password string) (User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	acct, ok := s.byEmail[email]
	if !ok || acct.passwordHash != hashPassword(password) {
		s.mu.Unlock()
		return User{}, "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	acct.user.LastLoginAt = &now
	acct.user.UpdatedAt = now
	user := acct.user
	s.mu.Unlock()

	token, err := s.issueToken(user.ID)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// ValidateToken parses and verifies a bearer token and resolves its account.
func (s *AuthService) ValidateToken(raw string) (User, error) {
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return User{}, ErrInvalidCredentials
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.byID[id]
	if !ok {
		return User{}, ErrUnknownUser
	}
	return acct.user, nil
}

// SetOnboarding records onboarding completion for the account.
func (s *AuthService) SetOnboarding(id uuid.UUID, completed bool) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byID[id]
	if !ok {
		return User{}, ErrUnknownUser
	}
	acct.user.OnboardingCompleted = completed
	acct.user.UpdatedAt = time.Now().UTC()
	return acct.user, nil
}

func (s *AuthService) issueToken(id uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   id.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// hashPassword is good enough for a development mock; it is not a password
// scheme for production use.
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
