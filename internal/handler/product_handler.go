package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/shopguard/internal/middleware"
	"github.com/hitoshi/shopguard/internal/model"
	"github.com/hitoshi/shopguard/internal/product"
	"github.com/hitoshi/shopguard/internal/security"
)

// ProductServiceInterface はプロダクトハンドラーが必要とするサービスインターフェース。
type ProductServiceInterface interface {
	Create(ctx context.Context, owner *model.SafeUser, input product.CreateInput) (*model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, params product.QueryParams) (*product.QueryResult, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Product, error)
	Update(ctx context.Context, actor *model.SafeUser, id string, patch *model.ProductPatch) (*model.Product, error)
	Delete(ctx context.Context, actor *model.SafeUser, id string) error
}

// ProductHandler はプロダクトカタログのHTTPハンドラー。
type ProductHandler struct {
	service   ProductServiceInterface
	responder *Responder
	input     security.InputSanitizer
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service ProductServiceInterface, responder *Responder, input security.InputSanitizer) *ProductHandler {
	return &ProductHandler{
		service:   service,
		responder: responder,
		input:     input,
	}
}

// List はフィルタ・ソート・ページング付きの一覧を返す。
// GET /api/products?category=&inStock=&q=&sort=&page=&limit=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := product.QueryParams{
		Category: q.Get("category"),
		InStock:  q.Get("inStock"),
		Q:        q.Get("q"),
		Sort:     q.Get("sort"),
		Page:     q.Get("page"),
		Limit:    q.Get("limit"),
	}

	result, err := h.service.List(r.Context(), params)
	if err != nil {
		h.responder.WriteError(w, err)
		return
	}

	h.responder.WriteJSON(w, http.StatusOK, result)
}

// MyProducts は認証済みユーザーが所有するプロダクト一覧を返す。
// GET /api/products/user/my-products
// 汎用の /{id} ルートより先に登録すること（idマッチャーによる遮蔽を防ぐ）。
func (h *ProductHandler) MyProducts(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		h.responder.WriteError(w, model.NewUnauthenticatedError())
		return
	}

	items, err := h.service.ListByOwner(r.Context(), identity.ID)
	if err != nil {
		h.responder.WriteError(w, err)
		return
	}

	h.responder.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Get はプロダクト詳細を返す。
// GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := h.input.SanitizeString(chi.URLParam(r, "id"))

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.responder.WriteError(w, err)
		return
	}

	h.responder.WriteJSON(w, http.StatusOK, p)
}

// Create はプロダクトを作成する。作成者が所有者になる。
// POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		h.responder.WriteError(w, model.NewUnauthenticatedError())
		return
	}

	var req product.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.WriteError(w, invalidBodyError())
		return
	}

	p, err := h.service.Create(r.Context(), identity, req)
	if err != nil {
		h.responder.WriteError(w, err)
		return
	}

	h.responder.WriteJSON(w, http.StatusCreated, p)
}

// Update はプロダクトを部分更新する。所有者または管理者専用。
// PUT /api/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		h.responder.WriteError(w, model.NewUnauthenticatedError())
		return
	}

	id := h.input.SanitizeString(chi.URLParam(r, "id"))

	var patch model.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.responder.WriteError(w, invalidBodyError())
		return
	}

	p, err := h.service.Update(r.Context(), identity, id, &patch)
	if err != nil {
		h.responder.WriteError(w, err)
		return
	}

	h.responder.WriteJSON(w, http.StatusOK, p)
}

// Delete はプロダクトを削除する。所有者または管理者専用。
// DELETE /api/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		h.responder.WriteError(w, model.NewUnauthenticatedError())
		return
	}

	id := h.input.SanitizeString(chi.URLParam(r, "id"))

	if err := h.service.Delete(r.Context(), identity, id); err != nil {
		h.responder.WriteError(w, err)
		return
	}

	h.responder.WriteJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
