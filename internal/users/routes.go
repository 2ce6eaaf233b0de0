package users

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the profile endpoints on the /api/users group.
// The caller applies the bearer middleware to the group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/me", h.Me)
	g.PATCH("/avatar", h.UpdateAvatar)
}
