package middleware

import (
	"net/http"
	"strings"

	"github.com/hitoshi/shopguard/internal/model"
)

// allowedContentTypes は状態変更リクエストで受け付けるContent-Type。
var allowedContentTypes = []string{
	"application/json",
	"application/x-www-form-urlencoded",
}

// NewContentTypeCheckMiddleware はPOST/PUT/PATCHリクエストのContent-Typeを
// 検査するミドルウェアを返す。未対応の型には415を返す。
func NewContentTypeCheckMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
				contentType := r.Header.Get("Content-Type")
				if !isAllowedContentType(contentType) {
					WriteErrorResponse(w, http.StatusUnsupportedMediaType, &model.APIError{
						Code:     "UNSUPPORTED_CONTENT_TYPE",
						Message:  "サポートされていないContent-Typeです。",
						Category: "validation",
						Action:   "application/json でリクエストしてください。",
					})
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isAllowedContentType はContent-Typeが許可リストに含まれるか判定する。
// charset等のパラメータ付きも受け付ける。
func isAllowedContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	for _, allowed := range allowedContentTypes {
		if strings.Contains(contentType, allowed) {
			return true
		}
	}
	return false
}
