package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/community-meetings/internal/persistence"
)

func TestUserService_EnsureUser(t *testing.T) {
	t.Run("validates required attributes", func(t *testing.T) {
		svc := NewUserService(&userStoreStub{}, nil)

		_, err := svc.EnsureUser(context.Background(), UserProfile{ID: 0, Name: "   "})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["user_id"]; !ok {
			t.Errorf("expected user_id validation error, got %v", vErr.FieldErrors)
		}
		if _, ok := vErr.FieldErrors["name"]; !ok {
			t.Errorf("expected name validation error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("stores trimmed profile", func(t *testing.T) {
		store := &userStoreStub{}
		svc := NewUserService(store, nil)

		username := "alice"
		profile, err := svc.EnsureUser(context.Background(), UserProfile{ID: 42, Name: "  Alice  ", Username: &username})
		if err != nil {
			t.Fatalf("EnsureUser failed: %v", err)
		}
		if profile.Name != "Alice" {
			t.Errorf("expected trimmed name, got %q", profile.Name)
		}
		if stored := store.users[42]; stored.Name != "Alice" {
			t.Errorf("expected stored name 'Alice', got %q", stored.Name)
		}
	})
}

func TestUserService_DisplayName(t *testing.T) {
	username := "bob_the_builder"

	t.Run("prefers full name", func(t *testing.T) {
		store := &userStoreStub{users: map[int64]persistence.User{1: {ID: 1, Name: "Bob", Username: &username}}}
		svc := NewUserService(store, nil)

		name, err := svc.DisplayName(context.Background(), 1)
		if err != nil {
			t.Fatalf("DisplayName failed: %v", err)
		}
		if name != "Bob" {
			t.Errorf("expected 'Bob', got %q", name)
		}
	})

	t.Run("falls back to handle", func(t *testing.T) {
		store := &userStoreStub{users: map[int64]persistence.User{1: {ID: 1, Username: &username}}}
		svc := NewUserService(store, nil)

		name, err := svc.DisplayName(context.Background(), 1)
		if err != nil {
			t.Fatalf("DisplayName failed: %v", err)
		}
		if name != "@bob_the_builder" {
			t.Errorf("expected handle fallback, got %q", name)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := NewUserService(&userStoreStub{}, nil)

		if _, err := svc.DisplayName(context.Background(), 1); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
