// Package users exposes the current user's profile and avatar upload.
package users

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"

	// Register decoders for accepted upload formats.
	_ "image/gif"
	_ "image/png"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"

	"github.com/mkravets/contactly/internal/apperror"
	"github.com/mkravets/contactly/internal/auth"
)

// avatarSize is the edge length of the stored square avatar.
const avatarSize = 250

// jpegQuality for the encoded avatar.
const jpegQuality = 85

// allowedMimeTypes defines which MIME types are accepted for avatar upload.
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UserService handles profile operations beyond what the auth package
// already covers.
type UserService interface {
	// UpdateAvatar processes an uploaded image into a 250x250 JPEG, stores
	// it on disk, and persists the public path on the user record.
	UpdateAvatar(ctx context.Context, user *auth.User, data []byte, mimeType string) (*auth.User, error)
}

// userService implements UserService.
type userService struct {
	repo      auth.UserRepository
	cache     auth.UserCache
	avatarDir string // Root directory for avatar storage.
	maxSize   int64  // Maximum upload size in bytes.
}

// NewUserService creates a new user service.
func NewUserService(repo auth.UserRepository, cache auth.UserCache, avatarDir string, maxSize int64) UserService {
	return &userService{
		repo:      repo,
		cache:     cache,
		avatarDir: avatarDir,
		maxSize:   maxSize,
	}
}

// UpdateAvatar validates, normalizes, and stores an avatar upload. The
// stored file is always a 250x250 JPEG named after the user ID, so a
// re-upload overwrites the previous avatar in place.
func (s *userService) UpdateAvatar(ctx context.Context, user *auth.User, data []byte, mimeType string) (*auth.User, error) {
	if !allowedMimeTypes[mimeType] {
		return nil, apperror.NewBadRequest("unsupported file type: " + mimeType)
	}
	if int64(len(data)) > s.maxSize {
		return nil, apperror.NewBadRequest(fmt.Sprintf("file too large; maximum size is %d MB", s.maxSize/(1024*1024)))
	}
	if !validateMagicBytes(data, mimeType) {
		return nil, apperror.NewBadRequest("file content does not match declared type")
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperror.NewBadRequest("file is not a decodable image")
	}

	avatar := normalizeAvatar(src)

	if err := os.MkdirAll(s.avatarDir, 0755); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating avatar directory: %w", err))
	}

	filename := user.ID + ".jpg"
	fullPath := filepath.Join(s.avatarDir, filename)

	f, err := os.Create(fullPath)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating avatar file: %w", err))
	}
	if err := jpeg.Encode(f, avatar, &jpeg.Options{Quality: jpegQuality}); err != nil {
		f.Close()
		os.Remove(fullPath)
		return nil, apperror.NewInternal(fmt.Errorf("encoding avatar: %w", err))
	}
	if err := f.Close(); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("closing avatar file: %w", err))
	}

	publicPath := "/media/avatars/" + filename
	if err := s.repo.UpdateAvatar(ctx, user.Email, publicPath); err != nil {
		os.Remove(fullPath)
		return nil, apperror.NewInternal(fmt.Errorf("persisting avatar path: %w", err))
	}
	if err := s.cache.Invalidate(ctx, user.Email); err != nil {
		slog.Warn("invalidating identity cache after avatar update",
			slog.String("email", user.Email),
			slog.Any("error", err),
		)
	}

	slog.Info("avatar updated",
		slog.String("user_id", user.ID),
		slog.String("mime_type", mimeType),
	)

	updated := *user
	updated.Avatar = &publicPath
	return &updated, nil
}

// normalizeAvatar center-crops the source to a square and scales it to
// the stored avatar size using Catmull-Rom interpolation.
func normalizeAvatar(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	side := w
	if h < w {
		side = h
	}
	offsetX := bounds.Min.X + (w-side)/2
	offsetY := bounds.Min.Y + (h-side)/2
	crop := image.Rect(offsetX, offsetY, offsetX+side, offsetY+side)

	dst := image.NewRGBA(image.Rect(0, 0, avatarSize, avatarSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	return dst
}

// validateMagicBytes checks that the file content's magic bytes match the
// declared MIME type. Prevents uploading non-image files with a spoofed
// Content-Type header.
func validateMagicBytes(data []byte, declaredMIME string) bool {
	if len(data) < 4 {
		return false
	}
	switch declaredMIME {
	case "image/jpeg":
		return data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
	case "image/png":
		return len(data) >= 8 &&
			data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 &&
			data[4] == 0x0D && data[5] == 0x0A && data[6] == 0x1A && data[7] == 0x0A
	case "image/gif":
		return len(data) >= 6 && string(data[:3]) == "GIF"
	case "image/webp":
		return len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP"
	default:
		return false
	}
}
