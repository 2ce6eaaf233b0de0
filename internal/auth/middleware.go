package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mkravets/contactly/internal/apperror"
)

// contextKeyUser stores the resolved *User in the Echo context. Other
// packages read it via GetUser.
const contextKeyUser = "auth_user"

// RequireAuth returns middleware that resolves the bearer access token into
// a user and injects it into the request context. Requests without a valid
// token get a uniform 401.
func RequireAuth(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok := bearerToken(c)
			if tok == "" {
				return apperror.NewUnauthorized(credentialsMessage)
			}

			user, err := service.CurrentUser(c.Request().Context(), tok)
			if err != nil {
				return err
			}

			c.Set(contextKeyUser, user)
			return next(c)
		}
	}
}

// GetUser retrieves the authenticated user from the Echo context. Returns
// nil when RequireAuth was not applied to the route.
func GetUser(c echo.Context) *User {
	user, ok := c.Get(contextKeyUser).(*User)
	if !ok {
		return nil
	}
	return user
}

// bearerToken extracts the credential from the Authorization header.
// Returns empty string if the header is missing or not a bearer scheme.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
