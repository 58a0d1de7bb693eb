package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/shopguard/internal/auth"
	"github.com/hitoshi/shopguard/internal/middleware"
	"github.com/hitoshi/shopguard/internal/model"
	"github.com/hitoshi/shopguard/internal/security"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, input auth.RegisterInput) (*model.SafeUser, string, error)
	Login(ctx context.Context, email, password string) (*model.SafeUser, string, error)
	Logout(ctx context.Context, tokenValue string) error
	Profile(ctx context.Context, userID string) (*model.SafeUser, error)
	ListUsers(ctx context.Context) ([]*model.SafeUser, error)
	DeleteUser(ctx context.Context, userID string) error
	UpdateRole(ctx context.Context, userID string, role model.Role) (*model.SafeUser, error)
}

// AuthHandler は認証・ユーザー管理のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	responder *Responder
	input     security.InputSanitizer
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, responder *Responder, input security.InputSanitizer) *AuthHandler {
	return &AuthHandler{
		service:   service,
		responder: responder,
		input:     input,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse は登録・ログイン成功時のレスポンス。
type authResponse struct {
	Success bool            `json:"success"`
	User    *model.SafeUser `json:"user"`
	Token   string          `json:"token"`
}

// updateRoleRequest はロール変更リクエストのボディ。
type updateRoleRequest struct {
	Role string `json:"role"`
}

// Register はユーザー登録を処理する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.WriteError(w, invalidBodyError())
		return
	}

	user, token, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.responder.WriteError(w, err)
		return
	}

	h.responder.WriteJSON(w, http.StatusCreated, authResponse{
		Success: true,
		User:    user,
		Token:   token,
	})
}

// Login はログインを処理する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.WriteError(w, invalidBodyError())
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.responder.WriteError(w, err)
		return
	}

	h.responder.WriteJSON(w, http.StatusOK, authResponse{
		Success: true,
		User:    user,
		Token:   token,
	})
}

// Logout は提示されたトークンを失効させる。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerTokenFromContext(r.Context())
	if err != nil {
		h.responder.WriteError(w, model.NewUnauthenticatedError())
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		h.responder.WriteError(w, err)
		return
	}

	h.responder.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Profile は認証済みユーザー自身のプロフィールを返す。
// GET /api/auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		h.responder.WriteError(w, model.NewUnauthenticatedError())
		return
	}

	user, err := h.service.Profile(r.Context(), identity.ID)
	if err != nil {
		h.responder.WriteError(w, err)
		return
	}

	h.responder.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}

// ListUsers は全ユーザー一覧を返す。管理者専用。
// GET /api/auth/users
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.responder.WriteError(w, err)
		return
	}

	h.responder.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

// DeleteUser は指定ユーザーを削除する。管理者専用。
// DELETE /api/auth/users/{id}
func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := h.input.SanitizeString(chi.URLParam(r, "id"))

	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		h.responder.WriteError(w, err)
		return
	}

	h.responder.WriteJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// UpdateRole は指定ユーザーのロールを変更する。管理者専用。
// PUT /api/auth/users/{id}/role
func (h *AuthHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID := h.input.SanitizeString(chi.URLParam(r, "id"))

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.WriteError(w, invalidBodyError())
		return
	}

	user, err := h.service.UpdateRole(r.Context(), userID, model.Role(req.Role))
	if err != nil {
		h.responder.WriteError(w, err)
		return
	}

	h.responder.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}
