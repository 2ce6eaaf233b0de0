package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the auth endpoints on the /api/auth group. All of
// them are public -- RequireAuth is exported separately for other packages
// to protect their own groups.
//
// limit is the Redis-backed rate limiter; the credential-accepting POST
// endpoints get it to slow brute-force and enumeration attempts.
func RegisterRoutes(g *echo.Group, h *Handler, limit echo.MiddlewareFunc) {
	g.POST("/signup", h.Signup, limit)
	g.POST("/login", h.Login, limit)
	g.GET("/refresh_token", h.Refresh)

	g.GET("/confirmed_email/:token", h.ConfirmEmail)
	g.POST("/request_email", h.RequestEmail, limit)

	g.POST("/reset_password", h.RequestPasswordReset, limit)
	g.GET("/reset_password/done/:token", h.CompletePasswordReset)
}
