package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mkravets/contactly/internal/auth"
)

func newTestCache(t *testing.T) (*UserCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return New(rdb, 0), mr
}

func testUser() *auth.User {
	avatar := "/media/avatars/user-1.jpg"
	refresh := "some.refresh.token"
	return &auth.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		Avatar:       &avatar,
		RefreshToken: &refresh,
		Confirmed:    true,
		CreatedAt:    time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func TestCache_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	want := testUser()

	if err := c.Put(ctx, want.Email, want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := c.Get(ctx, want.Email)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected cache hit, got miss")
	}

	// Every field round-trips, including the ones the JSON API hides.
	if got.ID != want.ID || got.Email != want.Email {
		t.Errorf("identity mismatch: got %+v", got)
	}
	if got.PasswordHash != want.PasswordHash {
		t.Error("password hash did not round-trip")
	}
	if got.Avatar == nil || *got.Avatar != *want.Avatar {
		t.Error("avatar did not round-trip")
	}
	if got.RefreshToken == nil || *got.RefreshToken != *want.RefreshToken {
		t.Error("refresh token did not round-trip")
	}
	if got.Confirmed != want.Confirmed {
		t.Error("confirmed flag did not round-trip")
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("created_at mismatch: got %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}

func TestCache_NilOptionalFields(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	user := testUser()
	user.Avatar = nil
	user.RefreshToken = nil

	if err := c.Put(ctx, user.Email, user); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := c.Get(ctx, user.Email)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Avatar != nil || got.RefreshToken != nil {
		t.Error("expected nil optional fields to stay nil")
	}
}

func TestCache_MissReturnsNil(t *testing.T) {
	c, _ := newTestCache(t)

	got, err := c.Get(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("expected no error on miss, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil on miss, got %+v", got)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	user := testUser()

	if err := c.Put(ctx, user.Email, user); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	mr.FastForward(DefaultTTL + time.Second)

	got, err := c.Get(ctx, user.Email)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Error("expected entry to expire after TTL")
	}
}

func TestCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	user := testUser()

	if err := c.Put(ctx, user.Email, user); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := c.Invalidate(ctx, user.Email); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	got, err := c.Get(ctx, user.Email)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Error("expected miss after invalidation")
	}
}

func TestCache_UnavailableOnConnectionLoss(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	c := New(rdb, 0)

	mr.Close()

	_, err := c.Get(context.Background(), "alice@example.com")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if err := c.Put(context.Background(), "alice@example.com", testUser()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on Put, got %v", err)
	}
}

func TestCache_CorruptEntryIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)

	mr.Set("user:alice@example.com", "{not json")

	got, err := c.Get(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("expected corrupt entry to read as miss, got error %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for corrupt entry, got %+v", got)
	}
}
