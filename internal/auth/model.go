// Package auth implements signup, login, token refresh, email confirmation
// and password reset for Contactly, plus the bearer middleware that resolves
// the current user on every protected request. Tokens are signed JWTs from
// internal/token; resolved identities are cached in Redis via internal/cache.
//
// The service is constructed once at startup with its store, cache, codec,
// hasher and mailer injected -- there is no package-level singleton.
package auth

import (
	"regexp"
	"time"
)

// User is the persisted account record. This is the domain model used
// throughout the application; database scanning and JSON marshaling use
// this struct directly.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON responses.
	Avatar       *string   `json:"avatar,omitempty"`
	RefreshToken *string   `json:"-"` // Never expose.
	Confirmed    bool      `json:"confirmed"`
	CreatedAt    time.Time `json:"created_at"`
}

// Snapshot is the cache serialization of a User. Unlike User it round-trips
// every field, including the credential columns the JSON API hides, so a
// cache hit is indistinguishable from a store read.
type Snapshot struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Avatar       *string   `json:"avatar"`
	RefreshToken *string   `json:"refresh_token"`
	Confirmed    bool      `json:"confirmed"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewSnapshot copies a User into its cache form.
func NewSnapshot(u *User) Snapshot {
	return Snapshot{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Avatar:       u.Avatar,
		RefreshToken: u.RefreshToken,
		Confirmed:    u.Confirmed,
		CreatedAt:    u.CreatedAt,
	}
}

// User converts the snapshot back into the domain model.
func (s Snapshot) User() *User {
	return &User{
		ID:           s.ID,
		Email:        s.Email,
		PasswordHash: s.PasswordHash,
		Avatar:       s.Avatar,
		RefreshToken: s.RefreshToken,
		Confirmed:    s.Confirmed,
		CreatedAt:    s.CreatedAt,
	}
}

// --- Request DTOs (bound from HTTP requests) ---

// SignupRequest holds the signup payload. The same shape is reused by the
// password reset request, where Password is the desired new password.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest holds the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RequestEmail holds the payload for re-requesting a verification mail.
type RequestEmail struct {
	Email string `json:"email"`
}

// TokenPair is the login/refresh response body.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// --- Validation helpers ---

// emailPattern is a pragmatic address check: one @, no spaces, a dot in the
// domain. Deliverability is proven by the verification mail, not the regex.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// validateCredentials checks an email/password pair for signup and reset.
// Returns an error message or empty string.
func validateCredentials(email, password string) string {
	if email == "" {
		return "email is required"
	}
	if len(email) > 100 || !emailPattern.MatchString(email) {
		return "email is not a valid address"
	}
	if password == "" {
		return "password is required"
	}
	if len(password) < 8 {
		return "password must be at least 8 characters"
	}
	if len(password) > 128 {
		return "password must be at most 128 characters"
	}
	return ""
}
