package session

import "time"

// User is the authenticated account as the dashboard understands it.
type User struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	Plan                string     `json:"plan"`
	OAuthProvider       string     `json:"oauthProvider"`
	IsActive            bool       `json:"isActive"`
	EmailVerified       bool       `json:"emailVerified"`
	LastLoginAt         *time.Time `json:"lastLoginAt"`
	OnboardingCompleted bool       `json:"onboardingCompleted"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}
