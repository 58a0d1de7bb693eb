package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/shopguard/internal/model"
	"github.com/hitoshi/shopguard/internal/repository"
	"github.com/hitoshi/shopguard/internal/security"
)

const (
	// csrfCookieName はCSRFセッションIDを保持するCookieの名前。
	// セッションIDはサーバー側のシークレットへの参照であり、HttpOnlyで配布する。
	csrfCookieName = "csrf_session"

	// csrfHeaderName はリクエストヘッダーからCSRFトークンを読み取る際のヘッダー名。
	csrfHeaderName = "X-CSRF-Token"

	// csrfQueryParam はヘッダーの代わりにトークンを渡すクエリパラメータ名。
	// フォーム送信クライアント向けの代替チャネル。
	csrfQueryParam = "_csrf"
)

// CsrfGuard は二重送信方式のCSRF保護を提供する。
// セッションスコープのシークレットをサーバー側に保存し、HTTP Only Cookieで
// セッションを参照する。状態変更リクエストでは同じシークレットを
// ヘッダー（またはクエリフィールド）で提示しなければならない。
type CsrfGuard struct {
	sessions     repository.CsrfSessionRepository
	issuer       security.TokenIssuer
	cookieSecure bool
	metrics      SecurityEventRecorder
}

// NewCsrfGuard はCsrfGuardを生成する。
// cookieSecureは本番モードでtrueにする（Secure属性の制御）。
// metricsはnilでもよい。
func NewCsrfGuard(sessions repository.CsrfSessionRepository, issuer security.TokenIssuer, cookieSecure bool, metrics SecurityEventRecorder) *CsrfGuard {
	return &CsrfGuard{
		sessions:     sessions,
		issuer:       issuer,
		cookieSecure: cookieSecure,
		metrics:      metrics,
	}
}

// Middleware はCSRFトークン検証ミドルウェアを返す。
// 安全なメソッド（GET, HEAD, OPTIONS）は検証をスキップする。
// トークン未提示と不一致は別のエラーコードで返し、クライアントが
// 「トークン取得忘れ」を他の403と判別できるようにする。
func (g *CsrfGuard) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(csrfCookieName)
			if err != nil || cookie.Value == "" {
				slog.Warn("CSRF validation failed: missing session cookie",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				g.reject(w, model.NewCsrfMissingError())
				return
			}

			session, err := g.sessions.FindByCookie(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find CSRF session", slog.String("error", err.Error()))
				WriteInternalServerError(w, err, false)
				return
			}
			if session == nil {
				g.reject(w, model.NewCsrfMissingError())
				return
			}

			presented := r.Header.Get(csrfHeaderName)
			if presented == "" {
				presented = r.URL.Query().Get(csrfQueryParam)
			}
			if presented == "" {
				slog.Warn("CSRF validation failed: missing token",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				g.reject(w, model.NewCsrfMissingError())
				return
			}

			if subtle.ConstantTimeCompare([]byte(session.Secret), []byte(presented)) != 1 {
				slog.Warn("CSRF validation failed: token mismatch",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				g.reject(w, model.NewCsrfMismatchError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// reject はCSRF拒否をメトリクスに記録して403レスポンスを書き込む。
func (g *CsrfGuard) reject(w http.ResponseWriter, apiErr *model.APIError) {
	if g.metrics != nil {
		g.metrics.RecordSecurityRejection("csrf")
	}
	WriteErrorResponse(w, http.StatusForbidden, apiErr)
}

// TokenHandler はCSRFトークン取得エンドポイントのハンドラーを返す。
// GET /api/csrf-token
// 既存セッションがあればそのシークレットを返し、なければセッションを
// 新規作成してHTTP Only Cookieを設定する。
func (g *CsrfGuard) TokenHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 既存セッションの確認
		if cookie, err := r.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
			session, err := g.sessions.FindByCookie(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find CSRF session", slog.String("error", err.Error()))
				WriteInternalServerError(w, err, false)
				return
			}
			if session != nil {
				writeCsrfToken(w, session.Secret)
				return
			}
		}

		// 新規セッションの作成
		cookieValue, err := g.issuer.NewToken()
		if err != nil {
			slog.Error("failed to generate CSRF session ID", slog.String("error", err.Error()))
			WriteInternalServerError(w, err, false)
			return
		}
		secret, err := g.issuer.NewToken()
		if err != nil {
			slog.Error("failed to generate CSRF secret", slog.String("error", err.Error()))
			WriteInternalServerError(w, err, false)
			return
		}

		session := &model.CsrfSession{
			CookieValue: cookieValue,
			Secret:      secret,
			CreatedAt:   time.Now(),
		}
		if err := g.sessions.Save(r.Context(), session); err != nil {
			slog.Error("failed to save CSRF session", slog.String("error", err.Error()))
			WriteInternalServerError(w, err, false)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     csrfCookieName,
			Value:    cookieValue,
			Path:     "/",
			MaxAge:   86400, // 24時間
			HttpOnly: true,
			Secure:   g.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})

		writeCsrfToken(w, secret)
	})
}

// writeCsrfToken はCSRFトークンをJSONで返す。
func writeCsrfToken(w http.ResponseWriter, token string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"csrfToken": token,
	})
}

// isSafeMethod はHTTPメソッドが安全（読み取り専用）かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
