package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/shopguard/internal/middleware"
	"github.com/hitoshi/shopguard/internal/model"
	"github.com/hitoshi/shopguard/internal/product"
	"github.com/hitoshi/shopguard/internal/repository"
	"github.com/hitoshi/shopguard/internal/security"
)

type productTestEnv struct {
	handler  *ProductHandler
	service  *product.Service
	products *repository.MemoryProductRepo
}

func newProductTestEnv(t *testing.T) *productTestEnv {
	t.Helper()
	products := repository.NewMemoryProductRepo()
	service := product.NewService(products, product.NewQueryEngine())
	responder := NewResponder(security.NewOutputSanitizer(), false)
	return &productTestEnv{
		handler:  NewProductHandler(service, responder, security.NewInputSanitizer()),
		service:  service,
		products: products,
	}
}

func testIdentity(id string, role model.Role) *model.SafeUser {
	return &model.SafeUser{ID: id, Username: "user-" + id, Email: id + "@example.com", Role: role}
}

func (env *productTestEnv) createProduct(t *testing.T, owner *model.SafeUser, name string) *model.Product {
	t.Helper()
	price := 1500.0
	p, err := env.service.Create(context.Background(), owner, product.CreateInput{
		Name:  name,
		Price: &price,
	})
	if err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return p
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestProductHandler_List(t *testing.T) {
	env := newProductTestEnv(t)
	owner := testIdentity("u1", model.RoleUser)
	env.createProduct(t, owner, "エチオピア ナチュラル")
	env.createProduct(t, owner, "深蒸し煎茶")

	req := httptest.NewRequest(http.MethodGet, "/api/products?limit=1&page=2", nil)
	rec := httptest.NewRecorder()
	env.handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var result product.QueryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if result.TotalItems != 2 || result.Page != 2 || len(result.Items) != 1 {
		t.Errorf("result = %+v, want 1 item on page 2 of 2", result)
	}
}

func TestProductHandler_Get(t *testing.T) {
	env := newProductTestEnv(t)
	owner := testIdentity("u1", model.RoleUser)
	created := env.createProduct(t, owner, "エチオピア ナチュラル")

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/products/"+created.ID, nil), "id", created.ID)
	rec := httptest.NewRecorder()
	env.handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got model.Product
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.ID != created.ID {
		t.Errorf("id = %q, want %q", got.ID, created.ID)
	}
}

func TestProductHandler_GetNotFound(t *testing.T) {
	env := newProductTestEnv(t)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/products/none", nil), "id", "none")
	rec := httptest.NewRecorder()
	env.handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if body := decodeErrorBody(t, rec); body.Code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", body.Code)
	}
}

func TestProductHandler_Create(t *testing.T) {
	env := newProductTestEnv(t)
	owner := testIdentity("u1", model.RoleUser)

	body := `{"name":"ドリップケトル","price":4800}`
	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), owner))
	rec := httptest.NewRecorder()
	env.handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var got model.Product
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.OwnerID != owner.ID {
		t.Errorf("ownerId = %q, want creator %q", got.OwnerID, owner.ID)
	}
	// 省略フィールドの既定値
	if got.Category != "other" || !got.InStock || got.Quantity != 0 {
		t.Errorf("defaults not applied: %+v", got)
	}
}

func TestProductHandler_CreateWithoutIdentity(t *testing.T) {
	env := newProductTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"x","price":1}`))
	rec := httptest.NewRecorder()
	env.handler.Create(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestProductHandler_CreateValidationError(t *testing.T) {
	env := newProductTestEnv(t)
	owner := testIdentity("u1", model.RoleUser)

	body := `{"description":"nameless"}`
	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), owner))
	rec := httptest.NewRecorder()
	env.handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if respBody := decodeErrorBody(t, rec); respBody.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", respBody.Code)
	}
}

func TestProductHandler_UpdateOwnership(t *testing.T) {
	env := newProductTestEnv(t)
	owner := testIdentity("u1", model.RoleUser)
	other := testIdentity("u2", model.RoleUser)
	admin := testIdentity("u3", model.RoleAdmin)
	created := env.createProduct(t, owner, "エチオピア ナチュラル")

	tests := []struct {
		name       string
		actor      *model.SafeUser
		wantStatus int
	}{
		{name: "non-owner forbidden", actor: other, wantStatus: http.StatusForbidden},
		{name: "owner allowed", actor: owner, wantStatus: http.StatusOK},
		{name: "admin allowed", actor: admin, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/products/"+created.ID,
				strings.NewReader(`{"price":2000}`))
			req = withURLParam(req, "id", created.ID)
			req = req.WithContext(middleware.ContextWithIdentity(req.Context(), tt.actor))
			rec := httptest.NewRecorder()
			env.handler.Update(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestProductHandler_Delete(t *testing.T) {
	env := newProductTestEnv(t)
	owner := testIdentity("u1", model.RoleUser)
	created := env.createProduct(t, owner, "エチオピア ナチュラル")

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/products/"+created.ID, nil), "id", created.ID)
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), owner))
	rec := httptest.NewRecorder()
	env.handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["deleted"] != true {
		t.Errorf("body = %v, want deleted:true", resp)
	}

	if got, _ := env.products.FindByID(context.Background(), created.ID); got != nil {
		t.Error("product still exists after delete")
	}
}

func TestProductHandler_MyProducts(t *testing.T) {
	env := newProductTestEnv(t)
	owner := testIdentity("u1", model.RoleUser)
	other := testIdentity("u2", model.RoleUser)
	env.createProduct(t, owner, "mine-1")
	env.createProduct(t, other, "theirs-1")
	env.createProduct(t, owner, "mine-2")

	req := httptest.NewRequest(http.MethodGet, "/api/products/user/my-products", nil)
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), owner))
	rec := httptest.NewRecorder()
	env.handler.MyProducts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Items []*model.Product `json:"items"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resp.Items))
	}
	for _, item := range resp.Items {
		if item.OwnerID != owner.ID {
			t.Errorf("item %s owned by %q, want %q", item.ID, item.OwnerID, owner.ID)
		}
	}
}

// 出力サニタイズ境界の確認。保存時にエスケープ済みのマークアップも
// 応答ではタグなしのプレーンテキストになる。
func TestProductHandler_ResponseStripsMarkup(t *testing.T) {
	env := newProductTestEnv(t)
	owner := testIdentity("u1", model.RoleUser)

	price := 1200.0
	created, err := env.service.Create(context.Background(), owner, product.CreateInput{
		Name:        "お茶",
		Description: "<b>bold</b> description",
		Price:       &price,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/products/"+created.ID, nil), "id", created.ID)
	rec := httptest.NewRecorder()
	env.handler.Get(rec, req)

	var got model.Product
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Description != "bold description" {
		t.Errorf("description = %q, want %q", got.Description, "bold description")
	}
}
