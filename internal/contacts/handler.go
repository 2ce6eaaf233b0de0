package contacts

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mkravets/contactly/internal/apperror"
	"github.com/mkravets/contactly/internal/auth"
)

// Handler handles HTTP requests for contacts. The owning user comes from
// the bearer middleware; handlers never trust a user ID from the request.
type Handler struct {
	service ContactService
}

// NewHandler creates a new contacts handler with the given service.
func NewHandler(service ContactService) *Handler {
	return &Handler{service: service}
}

// List returns the user's contacts (GET /api/contacts).
// Query params: first_name, last_name, email (equality), skip, limit.
func (h *Handler) List(c echo.Context) error {
	user := auth.GetUser(c)

	filter := ListFilter{
		FirstName: c.QueryParam("first_name"),
		LastName:  c.QueryParam("last_name"),
		Email:     c.QueryParam("email"),
		Skip:      intQueryParam(c, "skip", 0),
		Limit:     intQueryParam(c, "limit", defaultLimit),
	}

	contacts, err := h.service.List(c.Request().Context(), user.ID, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contacts)
}

// Get returns a single contact (GET /api/contacts/:id).
func (h *Handler) Get(c echo.Context) error {
	user := auth.GetUser(c)
	id, err := contactID(c)
	if err != nil {
		return err
	}

	contact, err := h.service.Get(c.Request().Context(), user.ID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contact)
}

// Create adds a contact (POST /api/contacts).
func (h *Handler) Create(c echo.Context) error {
	user := auth.GetUser(c)

	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	contact, err := h.service.Create(c.Request().Context(), user.ID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, contact)
}

// Update rewrites a contact (PUT /api/contacts/:id).
func (h *Handler) Update(c echo.Context) error {
	user := auth.GetUser(c)
	id, err := contactID(c)
	if err != nil {
		return err
	}

	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	contact, err := h.service.Update(c.Request().Context(), user.ID, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contact)
}

// Delete removes a contact (DELETE /api/contacts/:id).
func (h *Handler) Delete(c echo.Context) error {
	user := auth.GetUser(c)
	id, err := contactID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), user.ID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpcomingBirthdays returns contacts with a birthday in the next seven
// days (GET /api/contacts/birthdays).
func (h *Handler) UpcomingBirthdays(c echo.Context) error {
	user := auth.GetUser(c)

	contacts, err := h.service.UpcomingBirthdays(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contacts)
}

// contactID parses the :id path parameter.
func contactID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewBadRequest("invalid contact id")
	}
	return id, nil
}

// intQueryParam parses an optional integer query parameter.
func intQueryParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
