// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/shopguard/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var identityContextKey = contextKey("identity")

// bearerTokenContextKey は提示されたトークン値を格納するためのキー。
// ログアウト時の失効処理で使用する。
var bearerTokenContextKey = contextKey("bearer_token")

// TokenResolver はトークン値の解決に必要なインターフェース。
// repository.TokenRepositoryの部分集合として定義する。
type TokenResolver interface {
	Resolve(ctx context.Context, value string) (*model.AccessToken, error)
}

// UserFinder はユーザー検索に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// AuthGate はBearerトークンを認証済みユーザーに解決するゲート。
// トークンからユーザーへの解決を一手に担う。
type AuthGate struct {
	tokens TokenResolver
	users  UserFinder
}

// NewAuthGate はAuthGateを生成する。
func NewAuthGate(tokens TokenResolver, users UserFinder) *AuthGate {
	return &AuthGate{
		tokens: tokens,
		users:  users,
	}
}

// Middleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// ヘッダー欠落・形式不正は401、解決不能なトークンも401を返す。
// 成功時はパスワードハッシュを除いたユーザーをリクエストコンテキストに注入する。
func (g *AuthGate) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenValue, ok := bearerToken(r)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			token, err := g.tokens.Resolve(r.Context(), tokenValue)
			if err != nil {
				slog.Error("failed to resolve access token", slog.String("error", err.Error()))
				WriteInternalServerError(w, err, false)
				return
			}
			if token == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
				return
			}

			user, err := g.users.FindByID(r.Context(), token.UserID)
			if err != nil {
				slog.Error("failed to find user for token", slog.String("error", err.Error()))
				WriteInternalServerError(w, err, false)
				return
			}
			if user == nil {
				// トークンは解決できたがユーザーが削除済みの場合も無効扱いとする
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, user.SafeView())
			ctx = context.WithValue(ctx, bearerTokenContextKey, tokenValue)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin は管理者ロールを要求するミドルウェアを返す。
// Middlewareの後段に配置すること。
func (g *AuthGate) RequireAdmin() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := IdentityFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}
			if identity.Role != model.RoleAdmin {
				WriteErrorResponse(w, http.StatusForbidden, model.NewAdminOnlyError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", false
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// IdentityFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// AuthGateミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (*model.SafeUser, error) {
	identity, ok := ctx.Value(identityContextKey).(*model.SafeUser)
	if !ok || identity == nil {
		return nil, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

// ContextWithIdentity はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.SafeUser) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// BearerTokenFromContext はリクエストコンテキストから提示トークン値を取得する。
func BearerTokenFromContext(ctx context.Context) (string, error) {
	token, ok := ctx.Value(bearerTokenContextKey).(string)
	if !ok || token == "" {
		return "", fmt.Errorf("bearer token not found in context")
	}
	return token, nil
}

// ContextWithBearerToken はコンテキストに提示トークン値を注入する。テスト用。
func ContextWithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenContextKey, token)
}
