package userdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kilianp07/evroute/core/clock"
	"github.com/kilianp07/evroute/core/users"
)

func openStore(t *testing.T, clk clock.Clock) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "users.db"), clk)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_CreateLookup(t *testing.T) {
	now := time.Date(2025, 4, 10, 8, 30, 0, 0, time.UTC)
	store := openStore(t, clock.NewManual(now))
	ctx := context.Background()

	u, err := store.Create(ctx, users.User{
		Name: "Grace", Email: "Grace@Example.com", Role: users.RoleAdmin, Phone: "123", PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" || u.Email != "grace@example.com" || !u.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user %+v", u)
	}

	got, err := store.ByEmail(ctx, "grace@EXAMPLE.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != u {
		t.Fatalf("lookup = %+v, want %+v", got, u)
	}
}

func TestSQLiteStore_Duplicate(t *testing.T) {
	store := openStore(t, nil)
	ctx := context.Background()
	if _, err := store.Create(ctx, users.User{Name: "a", Email: "a@b.c", Role: "user", PasswordHash: "x"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, users.User{Name: "b", Email: "A@B.C", Role: "user", PasswordHash: "y"}); !errors.Is(err, users.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestSQLiteStore_NotFound(t *testing.T) {
	store := openStore(t, nil)
	if _, err := store.ByEmail(context.Background(), "missing@b.c"); !errors.Is(err, users.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	ctx := context.Background()
	s1, err := NewSQLiteStore(ctx, path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s1.Create(ctx, users.User{Name: "a", Email: "a@b.c", Role: "user", PasswordHash: "x"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = s1.Close()

	s2, err := NewSQLiteStore(ctx, path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s2.Close() }()
	if _, err := s2.ByEmail(ctx, "a@b.c"); err != nil {
		t.Fatalf("lookup after reopen: %v", err)
	}
}

var _ users.Store = (*SQLiteStore)(nil)
