package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mkravets/contactly/internal/auth"
	"github.com/mkravets/contactly/internal/cache"
	"github.com/mkravets/contactly/internal/contacts"
	"github.com/mkravets/contactly/internal/hash"
	"github.com/mkravets/contactly/internal/mailer"
	"github.com/mkravets/contactly/internal/middleware"
	"github.com/mkravets/contactly/internal/token"
	"github.com/mkravets/contactly/internal/users"
)

// RegisterRoutes constructs every feature package and wires its routes.
// This is the single place where the dependency graph is assembled.
func (a *App) RegisterRoutes() {
	e := a.Echo
	cfg := a.Config

	// --- Shared collaborators ---

	codec := token.NewCodec(cfg.Auth.SecretKey, cfg.Auth.VerifyTTL, cfg.Auth.ResetTTL)
	hasher := hash.NewBcryptHasher()
	userCache := cache.New(a.Redis, cfg.Auth.CacheTTL)
	limit := middleware.RateLimit(a.Redis, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// mailer.New returns nil when SMTP is unconfigured; the auth service
	// treats a nil mailer as mail-disabled. The typed-nil dance keeps the
	// interface value nil in that case.
	var mail auth.Mailer
	if m := mailer.New(cfg.Mail); m != nil {
		mail = m
	}

	// --- Feature services ---

	userRepo := auth.NewUserRepository(a.DB)
	authService := auth.NewAuthService(userRepo, userCache, codec, hasher, mail,
		cfg.BaseURL, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	authHandler := auth.NewHandler(authService)

	contactRepo := contacts.NewContactRepository(a.DB)
	contactService := contacts.NewContactService(contactRepo)
	contactHandler := contacts.NewHandler(contactService)

	userService := users.NewUserService(userRepo, userCache, cfg.Upload.AvatarPath, cfg.Upload.MaxSize)
	userHandler := users.NewHandler(userService, cfg.Upload.MaxSize)

	// --- Public routes ---

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Welcome to Contactly"})
	})

	// Health check endpoint for container orchestration.
	e.GET("/healthz", a.healthz)

	// --- API routes ---

	requireAuth := auth.RequireAuth(authService)

	auth.RegisterRoutes(e.Group("/api/auth"), authHandler, limit)
	contacts.RegisterRoutes(e.Group("/api/contacts", requireAuth), contactHandler, limit)
	users.RegisterRoutes(e.Group("/api/users", requireAuth), userHandler)
}

// healthz reports liveness plus DB and Redis connectivity.
func (a *App) healthz(c echo.Context) error {
	ctx := c.Request().Context()

	status := http.StatusOK
	checks := map[string]string{"database": "ok", "redis": "ok"}

	if err := a.DB.PingContext(ctx); err != nil {
		checks["database"] = "unreachable"
		status = http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = "unreachable"
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, checks)
}
