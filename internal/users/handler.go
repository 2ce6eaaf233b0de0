package users

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mkravets/contactly/internal/apperror"
	"github.com/mkravets/contactly/internal/auth"
)

// Handler handles HTTP requests for the current user's profile.
type Handler struct {
	service UserService
	maxSize int64
}

// NewHandler creates a new users handler.
func NewHandler(service UserService, maxSize int64) *Handler {
	return &Handler{service: service, maxSize: maxSize}
}

// Me returns the authenticated user (GET /api/users/me).
func (h *Handler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, auth.GetUser(c))
}

// UpdateAvatar accepts a multipart image upload and installs it as the
// user's avatar (PATCH /api/users/avatar). The form field is "file".
func (h *Handler) UpdateAvatar(c echo.Context) error {
	user := auth.GetUser(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperror.NewBadRequest("missing file upload")
	}
	if fileHeader.Size > h.maxSize {
		return apperror.NewBadRequest("file too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperror.NewBadRequest("could not read file upload")
	}
	defer file.Close()

	// LimitReader guards against a lying Content-Length.
	data, err := io.ReadAll(io.LimitReader(file, h.maxSize+1))
	if err != nil {
		return apperror.NewBadRequest("could not read file upload")
	}
	if int64(len(data)) > h.maxSize {
		return apperror.NewBadRequest("file too large")
	}

	updated, err := h.service.UpdateAvatar(c.Request().Context(), user, data,
		fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}
