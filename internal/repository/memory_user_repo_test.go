package repository

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/shopguard/internal/model"
)

func newTestUser(id, email string) *model.User {
	return &model.User{
		ID:           id,
		Username:     "user-" + id,
		Email:        email,
		PasswordHash: "hashed",
		Role:         model.RoleUser,
		CreatedAt:    time.Now(),
	}
}

func TestMemoryUserRepo_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepo()

	if err := repo.Create(ctx, newTestUser("u1", "tanaka@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.FindByID(ctx, "u1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got == nil || got.Email != "tanaka@example.com" {
		t.Errorf("FindByID = %+v, want stored user", got)
	}

	missing, err := repo.FindByID(ctx, "no-such-id")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if missing != nil {
		t.Errorf("missing user = %+v, want nil", missing)
	}
}

func TestMemoryUserRepo_FindByEmailCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepo()
	repo.Create(ctx, newTestUser("u1", "Tanaka@Example.com"))

	for _, email := range []string{"tanaka@example.com", "TANAKA@EXAMPLE.COM", "  tanaka@example.com  "} {
		got, err := repo.FindByEmail(ctx, email)
		if err != nil {
			t.Fatalf("FindByEmail(%q): %v", email, err)
		}
		if got == nil || got.ID != "u1" {
			t.Errorf("FindByEmail(%q) = %+v, want user u1", email, got)
		}
	}
}

func TestMemoryUserRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepo()
	repo.Create(ctx, newTestUser("u1", "tanaka@example.com"))

	got, _ := repo.FindByID(ctx, "u1")
	got.Email = "mutated@example.com"

	again, _ := repo.FindByID(ctx, "u1")
	if again.Email != "tanaka@example.com" {
		t.Error("mutating a returned user must not affect the store")
	}
}

func TestMemoryUserRepo_ListInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepo()
	for _, id := range []string{"u3", "u1", "u2"} {
		repo.Create(ctx, newTestUser(id, id+"@example.com"))
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"u3", "u1", "u2"}
	if len(users) != len(want) {
		t.Fatalf("len = %d, want %d", len(users), len(want))
	}
	for i, u := range users {
		if u.ID != want[i] {
			t.Errorf("users[%d].ID = %q, want %q", i, u.ID, want[i])
		}
	}
}

func TestMemoryUserRepo_UpdateRole(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepo()
	repo.Create(ctx, newTestUser("u1", "tanaka@example.com"))

	updated, err := repo.UpdateRole(ctx, "u1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if updated == nil || updated.Role != model.RoleAdmin {
		t.Errorf("updated = %+v, want admin role", updated)
	}

	stored, _ := repo.FindByID(ctx, "u1")
	if stored.Role != model.RoleAdmin {
		t.Error("role change not persisted")
	}

	missing, err := repo.UpdateRole(ctx, "no-such-id", model.RoleAdmin)
	if err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if missing != nil {
		t.Errorf("UpdateRole on missing user = %+v, want nil", missing)
	}
}

func TestMemoryUserRepo_DeleteByID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepo()
	repo.Create(ctx, newTestUser("u1", "tanaka@example.com"))
	repo.Create(ctx, newTestUser("u2", "sato@example.com"))

	deleted, err := repo.DeleteByID(ctx, "u1")
	if err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if !deleted {
		t.Error("DeleteByID = false, want true")
	}

	if got, _ := repo.FindByID(ctx, "u1"); got != nil {
		t.Error("deleted user still findable")
	}
	users, _ := repo.List(ctx)
	if len(users) != 1 || users[0].ID != "u2" {
		t.Errorf("List after delete = %+v, want only u2", users)
	}

	again, err := repo.DeleteByID(ctx, "u1")
	if err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if again {
		t.Error("second delete = true, want false")
	}
}
