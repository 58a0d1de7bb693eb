package product

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/shopguard/internal/model"
	"github.com/hitoshi/shopguard/internal/repository"
)

func newTestProductService() *Service {
	return NewService(repository.NewMemoryProductRepo(), NewQueryEngine())
}

func testUser(id string, role model.Role) *model.SafeUser {
	return &model.SafeUser{
		ID:       id,
		Username: "user-" + id,
		Email:    id + "@example.com",
		Role:     role,
	}
}

func ptr[T any](v T) *T {
	return &v
}

func TestCreate_AppliesDefaults(t *testing.T) {
	svc := newTestProductService()
	owner := testUser("u1", model.RoleUser)

	p, err := svc.Create(context.Background(), owner, CreateInput{
		Name:  "Kenya AA",
		Price: ptr(1800.0),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if p.ID == "" {
		t.Error("expected generated ID")
	}
	if p.Category != model.CategoryOther {
		t.Errorf("Category = %q, want %q", p.Category, model.CategoryOther)
	}
	if !p.InStock {
		t.Error("InStock should default to true")
	}
	if p.Quantity != 0 {
		t.Errorf("Quantity = %d, want 0", p.Quantity)
	}
	if p.OwnerID != owner.ID {
		t.Errorf("OwnerID = %q, want %q", p.OwnerID, owner.ID)
	}
}

func TestCreate_QuantityZeroWithInStockTrue_NotCorrected(t *testing.T) {
	svc := newTestProductService()

	p, err := svc.Create(context.Background(), testUser("u1", model.RoleUser), CreateInput{
		Name:     "Sencha",
		Price:    ptr(1200.0),
		InStock:  ptr(true),
		Quantity: ptr(0),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// quantity=0とinStock=trueは独立に設定でき、自動補正しない
	if !p.InStock || p.Quantity != 0 {
		t.Errorf("InStock/Quantity = %v/%d, want true/0", p.InStock, p.Quantity)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     CreateInput
		wantField string
	}{
		{"missing name", CreateInput{Price: ptr(100.0)}, "name"},
		{"blank name", CreateInput{Name: "   ", Price: ptr(100.0)}, "name"},
		{"missing price", CreateInput{Name: "Widget"}, "price"},
		{"negative price", CreateInput{Name: "Widget", Price: ptr(-1.0)}, "price"},
		{"unknown category", CreateInput{Name: "Widget", Price: ptr(100.0), Category: "gadgets"}, "category"},
		{"negative quantity", CreateInput{Name: "Widget", Price: ptr(100.0), Quantity: ptr(-5)}, "quantity"},
		{"name too long", CreateInput{Name: strings.Repeat("あ", 101), Price: ptr(100.0)}, "name"},
		{"description too long", CreateInput{Name: "Widget", Description: strings.Repeat("x", 501), Price: ptr(100.0)}, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestProductService()

			_, err := svc.Create(context.Background(), testUser("u1", model.RoleUser), tt.input)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Code != model.ErrCodeValidation {
				t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeValidation)
			}
			found := false
			for _, f := range apiErr.Fields {
				if f.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected field detail for %q, got %+v", tt.wantField, apiErr.Fields)
			}
		})
	}
}

// 長さ上限は境界値を許可する（name 100文字、description 500文字）。
func TestCreate_LengthLimitsAllowBoundary(t *testing.T) {
	svc := newTestProductService()

	_, err := svc.Create(context.Background(), testUser("u1", model.RoleUser), CreateInput{
		Name:        strings.Repeat("あ", 100),
		Description: strings.Repeat("x", 500),
		Price:       ptr(100.0),
	})
	if err != nil {
		t.Fatalf("boundary lengths should be accepted, got %v", err)
	}
}

func TestUpdate_LengthLimits(t *testing.T) {
	svc := newTestProductService()
	ctx := context.Background()
	owner := testUser("owner", model.RoleUser)

	p, err := svc.Create(ctx, owner, CreateInput{Name: "Widget", Price: ptr(100.0)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name      string
		patch     *model.ProductPatch
		wantField string
	}{
		{"name too long", &model.ProductPatch{Name: ptr(strings.Repeat("あ", 101))}, "name"},
		{"description too long", &model.ProductPatch{Description: ptr(strings.Repeat("x", 501))}, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, owner, p.ID, tt.patch)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
				t.Fatalf("got %v, want VALIDATION_ERROR", err)
			}
			found := false
			for _, f := range apiErr.Fields {
				if f.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected field detail for %q, got %+v", tt.wantField, apiErr.Fields)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := newTestProductService()

	_, err := svc.Get(context.Background(), "missing-id")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeNotFound)
	}
}

func TestUpdate_OwnershipEnforcement(t *testing.T) {
	svc := newTestProductService()
	ctx := context.Background()
	owner := testUser("owner", model.RoleUser)
	other := testUser("other", model.RoleUser)
	admin := testUser("admin", model.RoleAdmin)

	p, err := svc.Create(ctx, owner, CreateInput{Name: "Kenya AA", Price: ptr(1800.0)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 非所有者の一般ユーザーは403
	_, err = svc.Update(ctx, other, p.ID, &model.ProductPatch{Price: ptr(1.0)})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
		t.Errorf("non-owner update: got %v, want FORBIDDEN", err)
	}

	// 所有者は成功
	updated, err := svc.Update(ctx, owner, p.ID, &model.ProductPatch{Price: ptr(2000.0)})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Price != 2000.0 {
		t.Errorf("Price = %v, want 2000", updated.Price)
	}

	// 管理者も成功
	updated, err = svc.Update(ctx, admin, p.ID, &model.ProductPatch{Quantity: ptr(7)})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if updated.Quantity != 7 {
		t.Errorf("Quantity = %d, want 7", updated.Quantity)
	}
}

func TestUpdate_PartialPatch_LeavesOtherFields(t *testing.T) {
	svc := newTestProductService()
	ctx := context.Background()
	owner := testUser("owner", model.RoleUser)

	p, err := svc.Create(ctx, owner, CreateInput{
		Name:        "Ethiopia Natural",
		Description: "fruity",
		Price:       ptr(2200.0),
		Category:    model.CategoryCoffee,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, owner, p.ID, &model.ProductPatch{Price: ptr(2400.0)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Name != "Ethiopia Natural" || updated.Description != "fruity" || updated.Category != model.CategoryCoffee {
		t.Errorf("unrelated fields changed: %+v", updated)
	}
	if updated.Price != 2400.0 {
		t.Errorf("Price = %v, want 2400", updated.Price)
	}
}

func TestUpdate_InvalidPatch(t *testing.T) {
	svc := newTestProductService()
	ctx := context.Background()
	owner := testUser("owner", model.RoleUser)

	p, err := svc.Create(ctx, owner, CreateInput{Name: "Widget", Price: ptr(100.0)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Update(ctx, owner, p.ID, &model.ProductPatch{Price: ptr(-10.0)})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Errorf("got %v, want VALIDATION_ERROR", err)
	}
}

func TestDelete_OwnershipEnforcement(t *testing.T) {
	svc := newTestProductService()
	ctx := context.Background()
	owner := testUser("owner", model.RoleUser)
	other := testUser("other", model.RoleUser)

	p, err := svc.Create(ctx, owner, CreateInput{Name: "Kenya AA", Price: ptr(1800.0)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = svc.Delete(ctx, other, p.ID)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
		t.Errorf("non-owner delete: got %v, want FORBIDDEN", err)
	}

	if err := svc.Delete(ctx, owner, p.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}

	// 削除後は404
	_, err = svc.Get(ctx, p.ID)
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNotFound {
		t.Errorf("get after delete: got %v, want NOT_FOUND", err)
	}
}

func TestListByOwner(t *testing.T) {
	svc := newTestProductService()
	ctx := context.Background()
	alice := testUser("alice", model.RoleUser)
	bob := testUser("bob", model.RoleUser)

	if _, err := svc.Create(ctx, alice, CreateInput{Name: "Kenya AA", Price: ptr(1800.0)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, bob, CreateInput{Name: "Sencha", Price: ptr(1200.0)}); err != nil {
		t.Fatalf("create: %v", err)
	}

	items, err := svc.ListByOwner(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Kenya AA" {
		t.Errorf("unexpected items: %+v", items)
	}
}
