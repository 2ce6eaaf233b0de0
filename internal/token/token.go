// Package token encodes and decodes the signed, expiring claim sets used
// for authentication. Four token kinds share one HMAC secret and algorithm:
// access and refresh tokens (distinguished by the scope claim), email
// verification tokens (subject only), and password reset tokens (subject
// plus the new password's hash). A token is fully self-contained -- no
// server-side session table is consulted to verify one.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scope distinguishes access from refresh tokens.
type Scope string

const (
	// ScopeAccess marks short-lived tokens presented on every protected request.
	ScopeAccess Scope = "access_token"

	// ScopeRefresh marks tokens exchanged for a fresh pair.
	ScopeRefresh Scope = "refresh_token"
)

// Default lifetimes per token kind. Access/refresh may be overridden per
// mint call; verification and reset lifetimes are fixed per codec.
const (
	DefaultSessionTTL      = 15 * time.Minute
	DefaultVerificationTTL = 7 * 24 * time.Hour
	DefaultResetTTL        = time.Hour
)

// Verification failures. ErrMalformed, ErrInvalidSignature and ErrExpired
// all satisfy errors.Is(err, ErrInvalidToken) so callers reject on the
// umbrella without branching on the sub-case. ErrWrongScope is distinct:
// the token is genuine but presented in the wrong role.
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrMalformed        = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrInvalidSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrExpired          = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrWrongScope       = errors.New("wrong scope for token")
)

// Claims is the decoded payload of a signed token. Subject carries the
// user's email. Scope is set only on access/refresh tokens; PasswordHash
// only on reset tokens.
type Claims struct {
	Scope        Scope  `json:"scope,omitempty"`
	PasswordHash string `json:"pas,omitempty"`
	jwt.RegisteredClaims
}

// Codec mints and verifies tokens with a single shared HMAC-SHA256 secret.
// Safe for concurrent use.
type Codec struct {
	secret          []byte
	verificationTTL time.Duration
	resetTTL        time.Duration
}

// NewCodec creates a codec signing with the given secret. Non-positive TTLs
// fall back to the package defaults.
func NewCodec(secret string, verificationTTL, resetTTL time.Duration) *Codec {
	if verificationTTL <= 0 {
		verificationTTL = DefaultVerificationTTL
	}
	if resetTTL <= 0 {
		resetTTL = DefaultResetTTL
	}
	return &Codec{
		secret:          []byte(secret),
		verificationTTL: verificationTTL,
		resetTTL:        resetTTL,
	}
}

// MintAccess creates an access token for the given email. A non-positive
// ttl defaults to 15 minutes.
func (c *Codec) MintAccess(email string, ttl time.Duration) (string, error) {
	return c.mint(email, ScopeAccess, "", ttl)
}

// MintRefresh creates a refresh token for the given email. A non-positive
// ttl defaults to 15 minutes; callers normally pass a longer lifetime.
func (c *Codec) MintRefresh(email string, ttl time.Duration) (string, error) {
	return c.mint(email, ScopeRefresh, "", ttl)
}

// MintVerification creates an email verification token carrying only the
// subject. Expires after the codec's verification TTL (default 7 days).
func (c *Codec) MintVerification(email string) (string, error) {
	return c.mint(email, "", "", c.verificationTTL)
}

// MintReset creates a password reset token carrying the subject and the
// precomputed hash of the new password -- never the plaintext. Expires
// after the codec's reset TTL (default 1 hour).
func (c *Codec) MintReset(email, passwordHash string) (string, error) {
	return c.mint(email, "", passwordHash, c.resetTTL)
}

// mint builds and signs a claim set.
func (c *Codec) mint(email string, scope Scope, passwordHash string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	now := time.Now()

	claims := Claims{
		Scope:        scope,
		PasswordHash: passwordHash,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// VerifyAccess verifies a token and requires scope=access_token. Returns
// the subject email.
func (c *Codec) VerifyAccess(tokenStr string) (string, error) {
	return c.verifyScoped(tokenStr, ScopeAccess)
}

// VerifyRefresh verifies a token and requires scope=refresh_token. Returns
// the subject email.
func (c *Codec) VerifyRefresh(tokenStr string) (string, error) {
	return c.verifyScoped(tokenStr, ScopeRefresh)
}

// verifyScoped decodes a token and enforces the expected scope.
func (c *Codec) verifyScoped(tokenStr string, want Scope) (string, error) {
	claims, err := c.decode(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Scope != want {
		return "", ErrWrongScope
	}
	if claims.Subject == "" {
		return "", ErrMalformed
	}
	return claims.Subject, nil
}

// DecodeVerification decodes an email verification token and returns the
// subject email.
func (c *Codec) DecodeVerification(tokenStr string) (string, error) {
	claims, err := c.decode(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrMalformed
	}
	return claims.Subject, nil
}

// DecodeReset decodes a password reset token and returns the subject email
// and the new password hash it carries.
func (c *Codec) DecodeReset(tokenStr string) (email, passwordHash string, err error) {
	claims, err := c.decode(tokenStr)
	if err != nil {
		return "", "", err
	}
	if claims.Subject == "" || claims.PasswordHash == "" {
		return "", "", ErrMalformed
	}
	return claims.Subject, claims.PasswordHash, nil
}

// decode parses and validates signature and expiry in one step.
func (c *Codec) decode(tokenStr string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok {
		return nil, ErrMalformed
	}
	return claims, nil
}
