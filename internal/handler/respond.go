// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/shopguard/internal/middleware"
	"github.com/hitoshi/shopguard/internal/model"
	"github.com/hitoshi/shopguard/internal/security"
)

// Responder は成功レスポンスの書き込みを担う。
// すべてのJSONボディは送信前に出力サニタイズを通過する。
// どのハンドラーが生成したボディかに関わらず一律に適用される
// 境界保証であり、ルートごとのオプトインではない。
type Responder struct {
	sanitizer security.OutputSanitizer
	verbose   bool
}

// NewResponder はResponderを生成する。
// verboseは開発モードでのエラー詳細表示を制御する。
func NewResponder(sanitizer security.OutputSanitizer, verbose bool) *Responder {
	return &Responder{
		sanitizer: sanitizer,
		verbose:   verbose,
	}
}

// WriteJSON はボディを出力サニタイズしてJSONレスポンスを書き込む。
// 一度JSONにシリアライズしてから汎用構造に戻し、全文字列リーフを
// サニタイズして送信する。構造体のフィールドを直接書き換えないため、
// 呼び出し側が渡した値は変更されない。
func (rp *Responder) WriteJSON(w http.ResponseWriter, statusCode int, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		slog.Error("failed to marshal response body", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w, err, rp.verbose)
		return
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		slog.Error("failed to remarshal response body", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w, err, rp.verbose)
		return
	}

	cleaned := rp.sanitizer.SanitizeValue(generic)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(cleaned); err != nil {
		slog.Error("failed to encode response body", slog.String("error", err.Error()))
	}
}

// WriteError はサービス層から返されたエラーをHTTPレスポンスに変換する。
// APIError以外のエラーは内部エラーとして扱い、本番モードでは
// 詳細をログのみに記録する。
func (rp *Responder) WriteError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w, err, rp.verbose)
}

// statusForAPIError はAPIErrorコードからHTTPステータスコードにマッピングする。
func statusForAPIError(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeInjectionRejected:
		return http.StatusBadRequest
	case model.ErrCodeUnauthenticated, model.ErrCodeInvalidToken:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden, model.ErrCodeOriginRejected,
		model.ErrCodeCsrfMissing, model.ErrCodeCsrfMismatch:
		return http.StatusForbidden
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeEmailTaken:
		return http.StatusConflict
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// invalidBodyError はリクエストボディの解析失敗時のエラーを生成する。
func invalidBodyError() *model.APIError {
	return &model.APIError{
		Code:     model.ErrCodeValidation,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}
