package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/trgovina/internal/db"
	"github.com/erazemk/trgovina/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, " Ana ", " Ana@Example.com ", "hash123", model.RoleCustomer)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "Ana" {
		t.Errorf("expected username 'Ana', got %q", user.Username)
	}
	if user.Email != "ana@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.Role != model.RoleCustomer {
		t.Errorf("expected role 'customer', got %q", user.Role)
	}
	if user.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != user.Email {
		t.Errorf("expected email %q, got %q", user.Email, got.Email)
	}

	missing, err := GetUser(ctx, database, 999)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "a", "dup@example.com", "hash", model.RoleCustomer); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	_, err := CreateUser(ctx, database, "b", "DUP@example.com", "hash", model.RoleCustomer)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice", "alice@example.com", "hash", model.RoleAdmin)

	user, err := GetUserByEmail(ctx, database, "ALICE@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Username != "alice" {
		t.Errorf("expected 'alice', got %q", user.Username)
	}

	missing, err := GetUserByEmail(ctx, database, "bob@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestGetUserByEmailPrefersActive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	old, _ := CreateUser(ctx, database, "old", "reuse@example.com", "hash", model.RoleCustomer)
	if err := DeleteUser(ctx, database, old.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	deleted, _ := GetUserByEmail(ctx, database, "reuse@example.com")
	if deleted == nil || deleted.DeletedAt == nil {
		t.Fatal("expected the soft-deleted user to be returned")
	}

	fresh, err := CreateUser(ctx, database, "new", "reuse@example.com", "hash", model.RoleCustomer)
	if err != nil {
		t.Fatalf("CreateUser after delete: %v", err)
	}

	got, _ := GetUserByEmail(ctx, database, "reuse@example.com")
	if got.ID != fresh.ID {
		t.Errorf("expected active user %d, got %d", fresh.ID, got.ID)
	}
}

func TestUsersRepository(t *testing.T) {
	users := Users{DB: db.NewTestDB(t)}
	ctx := context.Background()

	created, err := users.Create(ctx, "carol", "carol@example.com", "hash", model.RoleCustomer)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := users.FindByEmail(ctx, "carol@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Errorf("expected user %d, got %+v", created.ID, found)
	}
}
