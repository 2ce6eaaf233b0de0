package contacts

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the contact endpoints on the /api/contacts group.
// The caller applies the bearer middleware to the group; the mutating
// endpoints additionally get the rate limiter.
func RegisterRoutes(g *echo.Group, h *Handler, limit echo.MiddlewareFunc) {
	g.GET("", h.List)
	g.POST("", h.Create, limit)

	// Static route takes precedence over /:id in echo's router, so
	// "birthdays" is never parsed as a contact ID.
	g.GET("/birthdays", h.UpcomingBirthdays)

	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update, limit)
	g.DELETE("/:id", h.Delete, limit)
}
