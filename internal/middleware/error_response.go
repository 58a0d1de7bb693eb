package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hitoshi/shopguard/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一エンベロープ。
// 失敗レスポンスは常に success=false を含む。
type ErrorResponseBody struct {
	Success  bool                `json:"success"`
	Code     string              `json:"code"`
	Message  string              `json:"message"`
	Category string              `json:"category"`
	Action   string              `json:"action,omitempty"`
	Errors   []model.FieldDetail `json:"errors,omitempty"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントとミドルウェアで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Success:  false,
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
		Errors:   apiErr.Fields,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// verboseがtrue（開発モード）の場合のみエラー詳細をメッセージに含める。
// 本番モードでは詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter, err error, verbose bool) {
	apiErr := model.NewInternalError()
	if verbose && err != nil {
		apiErr.Message = fmt.Sprintf("%s (%s)", apiErr.Message, err.Error())
	}
	WriteErrorResponse(w, http.StatusInternalServerError, apiErr)
}
