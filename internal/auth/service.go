package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkravets/contactly/internal/apperror"
	"github.com/mkravets/contactly/internal/hash"
	"github.com/mkravets/contactly/internal/token"
)

// mailTimeout bounds a single background mail delivery attempt.
const mailTimeout = 30 * time.Second

// credentialsMessage is the single client-facing text for every
// authentication rejection. Which check failed is never leaked to the
// caller; the specific cause rides in AppError.Internal.
const credentialsMessage = "could not validate credentials"

// Internal rejection causes. All surface externally as the same 401.
var (
	ErrUnknownUser     = errors.New("no account for email")
	ErrNotConfirmed    = errors.New("email not confirmed")
	ErrBadPassword     = errors.New("password mismatch")
	ErrRefreshMismatch = errors.New("presented refresh token does not match stored token")
)

// UserCache is the identity cache contract. Implemented by internal/cache;
// any error from it is treated as transient and the authoritative store is
// consulted instead.
type UserCache interface {
	Get(ctx context.Context, email string) (*User, error)
	Put(ctx context.Context, email string, user *User) error
	Invalidate(ctx context.Context, email string) error
}

// Mailer delivers verification and reset tokens. Best-effort: the service
// dispatches sends in the background and logs failures.
type Mailer interface {
	SendVerification(ctx context.Context, to, tok, baseURL string) error
	SendPasswordReset(ctx context.Context, to, tok, baseURL string) error
}

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the repository directly.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (*User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	CurrentUser(ctx context.Context, accessToken string) (*User, error)

	// ConfirmEmail consumes a verification token. Returns true when the
	// address was already confirmed (a no-op success).
	ConfirmEmail(ctx context.Context, tok string) (alreadyConfirmed bool, err error)

	// RequestVerification re-sends the verification mail. Returns true when
	// the address is already confirmed. Unknown addresses succeed silently
	// so callers can't probe which emails are registered.
	RequestVerification(ctx context.Context, email string) (alreadyConfirmed bool, err error)

	// RequestPasswordReset hashes the desired new password into a reset
	// token and mails it. The plaintext never leaves this call.
	RequestPasswordReset(ctx context.Context, email, newPassword string) error

	// CompletePasswordReset consumes a reset token, installing the password
	// hash it carries and revoking the stored refresh token.
	CompletePasswordReset(ctx context.Context, tok string) error
}

// authService implements AuthService over an injected store, cache, codec,
// hasher and mailer. Constructed once at startup.
type authService struct {
	repo   UserRepository
	cache  UserCache
	codec  *token.Codec
	hasher hash.Hasher
	mailer Mailer // nil disables delivery; tokens are still minted.

	baseURL    string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(repo UserRepository, cache UserCache, codec *token.Codec, hasher hash.Hasher, mailer Mailer, baseURL string, accessTTL, refreshTTL time.Duration) AuthService {
	return &authService{
		repo:       repo,
		cache:      cache,
		codec:      codec,
		hasher:     hasher,
		mailer:     mailer,
		baseURL:    baseURL,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Signup creates a new unconfirmed account and dispatches the verification
// mail. Fails with 409 if the email is already registered.
func (s *authService) Signup(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)

	// Check for duplicates before doing expensive hashing.
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict("an account with this email already exists")
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: digest,
		Confirmed:    false,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	s.sendVerificationMail(user.Email)

	slog.Info("user signed up",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login authenticates an email/password pair and returns a fresh token
// pair. The new refresh token is persisted so Refresh can later match the
// presented token against it.
func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = normalizeEmail(email)

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized(credentialsMessage).WithInternal(ErrUnknownUser)
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}
	if !user.Confirmed {
		return nil, apperror.NewUnauthorized(credentialsMessage).WithInternal(ErrNotConfirmed)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperror.NewUnauthorized(credentialsMessage).WithInternal(ErrBadPassword)
	}

	pair, err := s.issueTokens(ctx, email)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair, rotating the
// stored token. A presented token that doesn't match the stored one is
// treated as theft or reuse: the stored token is cleared so neither party
// can refresh again until a fresh login.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	email, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apperror.NewUnauthorized(credentialsMessage).WithInternal(err)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized(credentialsMessage).WithInternal(ErrUnknownUser)
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		// Lock the account out of refreshing entirely; a stolen token can
		// be used at most once before this trips.
		if err := s.repo.UpdateRefreshToken(ctx, email, nil); err != nil {
			slog.Error("clearing refresh token after mismatch",
				slog.String("email", email),
				slog.Any("error", err),
			)
		}
		s.invalidateCache(ctx, email)

		slog.Warn("refresh token mismatch, stored token revoked",
			slog.String("email", email),
		)
		return nil, apperror.NewUnauthorized(credentialsMessage).WithInternal(ErrRefreshMismatch)
	}

	return s.issueTokens(ctx, email)
}

// CurrentUser resolves the identity behind a bearer access token. This is
// the hottest path in the API: one token verification plus a cache lookup,
// falling back to the store only on a miss or a cache outage.
func (s *authService) CurrentUser(ctx context.Context, accessToken string) (*User, error) {
	email, err := s.codec.VerifyAccess(accessToken)
	if err != nil {
		return nil, apperror.NewUnauthorized(credentialsMessage).WithInternal(err)
	}

	cached, err := s.cache.Get(ctx, email)
	if err != nil {
		// Cache outage must not fail the request; the store still answers.
		slog.Warn("identity cache unavailable, falling back to store",
			slog.Any("error", err),
		)
	}
	if cached != nil {
		return cached, nil
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized(credentialsMessage).WithInternal(ErrUnknownUser)
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if err := s.cache.Put(ctx, email, user); err != nil {
		slog.Warn("populating identity cache", slog.Any("error", err))
	}

	return user, nil
}

// ConfirmEmail consumes a verification token and marks the address confirmed.
func (s *authService) ConfirmEmail(ctx context.Context, tok string) (bool, error) {
	email, err := s.codec.DecodeVerification(tok)
	if err != nil {
		return false, apperror.NewBadRequest("verification error").WithInternal(err)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, apperror.NewBadRequest("verification error").WithInternal(ErrUnknownUser)
		}
		return false, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if user.Confirmed {
		return true, nil
	}

	if err := s.repo.SetConfirmed(ctx, email); err != nil {
		return false, apperror.NewInternal(fmt.Errorf("confirming email: %w", err))
	}
	s.invalidateCache(ctx, email)

	slog.Info("email confirmed", slog.String("email", email))
	return false, nil
}

// RequestVerification re-sends the verification mail for an unconfirmed
// address. Unknown addresses are reported as success so the endpoint can't
// be used to enumerate accounts.
func (s *authService) RequestVerification(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if user.Confirmed {
		return true, nil
	}

	s.sendVerificationMail(user.Email)
	return false, nil
}

// RequestPasswordReset mints a reset token carrying the hash of the desired
// new password and mails it. Existence is checked before the confirmation
// flag so an unknown address is a 400, not a misleading 401.
func (s *authService) RequestPasswordReset(ctx context.Context, email, newPassword string) error {
	email = normalizeEmail(email)

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewBadRequest("no account for this email").WithInternal(ErrUnknownUser)
		}
		return apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}
	if !user.Confirmed {
		return apperror.NewUnauthorized(credentialsMessage).WithInternal(ErrNotConfirmed)
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing new password: %w", err))
	}

	tok, err := s.codec.MintReset(user.Email, digest)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("minting reset token: %w", err))
	}

	s.sendInBackground("password reset", user.Email, func(ctx context.Context, m Mailer) error {
		return m.SendPasswordReset(ctx, user.Email, tok, s.baseURL)
	})

	return nil
}

// CompletePasswordReset consumes a reset token: the hash it carries becomes
// the stored password and every outstanding refresh token is revoked.
func (s *authService) CompletePasswordReset(ctx context.Context, tok string) error {
	email, digest, err := s.codec.DecodeReset(tok)
	if err != nil {
		return apperror.NewBadRequest("verification error").WithInternal(err)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewBadRequest("verification error").WithInternal(ErrUnknownUser)
		}
		return apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if err := s.repo.UpdatePassword(ctx, email, digest); err != nil {
		return apperror.NewInternal(fmt.Errorf("updating password: %w", err))
	}
	if err := s.repo.UpdateRefreshToken(ctx, email, nil); err != nil {
		slog.Error("revoking refresh token after reset",
			slog.String("email", email),
			slog.Any("error", err),
		)
	}
	s.invalidateCache(ctx, email)

	slog.Info("password reset", slog.String("email", email))
	return nil
}

// issueTokens mints an access/refresh pair, persists the refresh token and
// invalidates the cached user (whose snapshot now holds a stale token).
func (s *authService) issueTokens(ctx context.Context, email string) (*TokenPair, error) {
	access, err := s.codec.MintAccess(email, s.accessTTL)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("minting access token: %w", err))
	}
	refresh, err := s.codec.MintRefresh(email, s.refreshTTL)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("minting refresh token: %w", err))
	}

	if err := s.repo.UpdateRefreshToken(ctx, email, &refresh); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("persisting refresh token: %w", err))
	}
	s.invalidateCache(ctx, email)

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

// sendVerificationMail mints a verification token and dispatches delivery.
func (s *authService) sendVerificationMail(email string) {
	tok, err := s.codec.MintVerification(email)
	if err != nil {
		slog.Error("minting verification token",
			slog.String("email", email),
			slog.Any("error", err),
		)
		return
	}

	s.sendInBackground("verification", email, func(ctx context.Context, m Mailer) error {
		return m.SendVerification(ctx, email, tok, s.baseURL)
	})
}

// sendInBackground runs a mail delivery in its own goroutine with a bounded
// lifetime detached from the request. Failures are logged, never surfaced.
func (s *authService) sendInBackground(kind, email string, send func(context.Context, Mailer) error) {
	if s.mailer == nil {
		slog.Warn("mail not configured, skipping delivery",
			slog.String("kind", kind),
			slog.String("email", email),
		)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		if err := send(ctx, s.mailer); err != nil {
			slog.Error("sending mail",
				slog.String("kind", kind),
				slog.String("email", email),
				slog.Any("error", err),
			)
		}
	}()
}

// invalidateCache drops the cached user, logging transient failures. A
// missed invalidation self-heals when the entry's TTL lapses.
func (s *authService) invalidateCache(ctx context.Context, email string) {
	if err := s.cache.Invalidate(ctx, email); err != nil {
		slog.Warn("invalidating identity cache",
			slog.String("email", email),
			slog.Any("error", err),
		)
	}
}

// normalizeEmail lowercases and trims an address so lookups and cache keys
// agree on one spelling.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
