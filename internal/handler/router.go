package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/shopguard/internal/middleware"
	"github.com/hitoshi/shopguard/internal/security"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	RateLimiter      *middleware.RateLimiter
	RequestSanitizer *middleware.RequestSanitizer
	InputSanitizer   security.InputSanitizer
	CsrfGuard        *middleware.CsrfGuard
	AuthGate         *middleware.AuthGate
	AllowedOrigins   []string
	Metrics          middleware.HTTPMetricsRecorder
	SecurityMetrics  middleware.SecurityEventRecorder

	// サービス
	AuthService    AuthServiceInterface
	ProductService ProductServiceInterface

	// レスポンス
	Responder *Responder

	// ヘルスチェック用データストア（インメモリ構成ではnil）
	DB Pinger

	// /metrics エンドポイントのハンドラー
	MetricsHandler http.Handler

	Logger *slog.Logger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// 変更系リクエストのパイプライン実行順序:
//
//	RateLimiter → OriginCheck → CsrfGuard → Sanitize(入力サニタイズ+インジェクション検査) → AuthGate → handler → 出力サニタイズ
//
// 読み取り専用の公開ルートはCsrfGuard/AuthGateを通らない。
// CSRF検証はプロダクト変更ルートにのみ適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewCORSMiddleware(deps.AllowedOrigins))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(deps.RateLimiter.Middleware(middleware.RouteClassGeneral))
	r.Use(middleware.NewOriginCheckMiddleware(deps.AllowedOrigins, deps.SecurityMetrics))
	r.Use(middleware.NewContentTypeCheckMiddleware())

	// 入力サニタイズはCSRF検証より後に実行するため、グローバルチェーンではなく
	// ルートグループごとに適用する
	sanitize := deps.RequestSanitizer.Middleware()

	authHandler := NewAuthHandler(deps.AuthService, deps.Responder, deps.InputSanitizer)
	productHandler := NewProductHandler(deps.ProductService, deps.Responder, deps.InputSanitizer)
	systemHandler := NewSystemHandler(deps.Responder, deps.DB)

	// --- 認証不要のルート ---

	r.Group(func(r chi.Router) {
		r.Use(sanitize)

		r.Get("/", systemHandler.Index)
		r.Get("/health", systemHandler.Health)
		r.Get("/api/status", systemHandler.Status)
		r.Method(http.MethodGet, "/api/csrf-token", deps.CsrfGuard.TokenHandler())
	})

	// Prometheusのテキスト形式を返すため出力サニタイズ系の対象外
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// 認証ルート（登録・ログインは専用レート制限を追加）
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(sanitize)

		r.With(deps.RateLimiter.Middleware(middleware.RouteClassAuth)).
			Post("/register", authHandler.Register)
		r.With(deps.RateLimiter.Middleware(middleware.RouteClassAuth)).
			Post("/login", authHandler.Login)

		// --- Bearer認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthGate.Middleware())

			r.Post("/logout", authHandler.Logout)
			r.Get("/profile", authHandler.Profile)

			// 管理者専用
			r.Group(func(r chi.Router) {
				r.Use(deps.AuthGate.RequireAdmin())

				r.Get("/users", authHandler.ListUsers)
				r.Delete("/users/{id}", authHandler.DeleteUser)
				r.Put("/users/{id}/role", authHandler.UpdateRole)
			})
		})
	})

	// プロダクトルート
	r.Route("/api/products", func(r chi.Router) {
		// 公開の読み取りルート
		r.With(sanitize).Get("/", productHandler.List)

		// /user/my-products は /{id} より先に登録する
		r.With(sanitize, deps.AuthGate.Middleware()).
			Get("/user/my-products", productHandler.MyProducts)

		r.With(sanitize).Get("/{id}", productHandler.Get)

		// --- 変更系ルート: CSRF → サニタイズ → Bearer認証 ---
		r.Group(func(r chi.Router) {
			r.Use(deps.CsrfGuard.Middleware())
			r.Use(sanitize)
			r.Use(deps.AuthGate.Middleware())

			// 作成は専用レート制限を追加
			r.With(deps.RateLimiter.Middleware(middleware.RouteClassProductCreate)).
				Post("/", productHandler.Create)
			r.Put("/{id}", productHandler.Update)
			r.Delete("/{id}", productHandler.Delete)
		})
	})

	return r
}
