package middleware

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/shopguard/internal/model"
)

// defaultAllowedOrigins は許可リストの既定値。
// 環境変数からの追加分とマージされる。
var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5000",
}

// mergedOriginSet は既定の許可Originと追加分を重複排除してマージする。
func mergedOriginSet(extraOrigins []string) map[string]bool {
	allowed := make(map[string]bool, len(defaultAllowedOrigins)+len(extraOrigins))
	for _, o := range defaultAllowedOrigins {
		allowed[o] = true
	}
	for _, o := range extraOrigins {
		if o != "" {
			allowed[o] = true
		}
	}
	return allowed
}

// NewOriginCheckMiddleware はOriginヘッダーを許可リストと照合するミドルウェアを返す。
// Originヘッダーを持たないリクエスト（CLIクライアント等）は無条件で許可する。
// これは非ブラウザクライアントをOrigin検査できないことへの互換性上の譲歩であり、
// セキュリティホールではない。
// extraOriginsは環境変数から供給される追加許可Originで、既定値と重複排除してマージする。
// metricsはnilでもよい。
func NewOriginCheckMiddleware(extraOrigins []string, metrics SecurityEventRecorder) func(next http.Handler) http.Handler {
	allowed := mergedOriginSet(extraOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !allowed[origin] {
				if metrics != nil {
					metrics.RecordSecurityRejection("origin")
				}
				slog.Warn("origin rejected",
					slog.String("origin", origin),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewOriginRejectedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
