package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mkravets/contactly/internal/apperror"
)

// Handler handles HTTP requests for authentication. Handlers are thin:
// they bind the request, call the service, and render the response. No
// business logic lives here.
type Handler struct {
	service AuthService
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService) *Handler {
	return &Handler{service: service}
}

// Signup creates a new account (POST /api/auth/signup).
func (h *Handler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if msg := validateCredentials(req.Email, req.Password); msg != "" {
		return apperror.NewValidation(msg)
	}

	user, err := h.service.Signup(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"user":   user,
		"detail": "Account created. Check your email for a confirmation link.",
	})
}

// Login exchanges credentials for a token pair (POST /api/auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	pair, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh rotates a refresh token into a new pair (GET /api/auth/refresh_token).
// The refresh token is presented as a bearer credential.
func (h *Handler) Refresh(c echo.Context) error {
	tok := bearerToken(c)
	if tok == "" {
		return apperror.NewUnauthorized(credentialsMessage)
	}

	pair, err := h.service.Refresh(c.Request().Context(), tok)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// ConfirmEmail consumes an emailed verification link
// (GET /api/auth/confirmed_email/:token).
func (h *Handler) ConfirmEmail(c echo.Context) error {
	already, err := h.service.ConfirmEmail(c.Request().Context(), c.Param("token"))
	if err != nil {
		return err
	}

	msg := "Email confirmed."
	if already {
		msg = "Your email is already confirmed."
	}
	return c.JSON(http.StatusOK, map[string]string{"message": msg})
}

// RequestEmail re-sends the confirmation mail (POST /api/auth/request_email).
// The response is identical for known and unknown addresses.
func (h *Handler) RequestEmail(c echo.Context) error {
	var req RequestEmail
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if req.Email == "" {
		return apperror.NewValidation("email is required")
	}

	already, err := h.service.RequestVerification(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}

	msg := "Check your email for a confirmation link."
	if already {
		msg = "Your email is already confirmed."
	}
	return c.JSON(http.StatusOK, map[string]string{"message": msg})
}

// RequestPasswordReset starts the reset flow (POST /api/auth/reset_password).
// The body carries the desired new password; it takes effect only when the
// emailed link is followed.
func (h *Handler) RequestPasswordReset(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if msg := validateCredentials(req.Email, req.Password); msg != "" {
		return apperror.NewValidation(msg)
	}

	if err := h.service.RequestPasswordReset(c.Request().Context(), req.Email, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Check your email for a password reset link.",
	})
}

// CompletePasswordReset consumes an emailed reset link
// (GET /api/auth/reset_password/done/:token).
func (h *Handler) CompletePasswordReset(c echo.Context) error {
	if err := h.service.CompletePasswordReset(c.Request().Context(), c.Param("token")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Password has been reset.",
	})
}
