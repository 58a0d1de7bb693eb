// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string        // エラーコード
	Message  string        // エラーメッセージ
	Category string        // カテゴリ: auth, validation, security, product, system
	Action   string        // ユーザー向け対処方法
	Fields   []FieldDetail // バリデーションエラーのフィールド別詳細（任意）
}

// FieldDetail はバリデーションエラーのフィールド単位の詳細。
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeUnauthenticated   = "UNAUTHENTICATED"
	ErrCodeInvalidToken      = "INVALID_TOKEN"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeOriginRejected    = "ORIGIN_REJECTED"
	ErrCodeCsrfMissing       = "CSRF_TOKEN_MISSING"
	ErrCodeCsrfMismatch      = "CSRF_TOKEN_MISMATCH"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeInjectionRejected = "UNSAFE_REQUEST"
	ErrCodeEmailTaken        = "EMAIL_TAKEN"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// NewValidationError はフィールド別詳細付きのバリデーションエラーを生成する。
func NewValidationError(fields []FieldDetail) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  "入力値の検証に失敗しました。",
		Category: "validation",
		Action:   "各フィールドのエラー内容を確認して再送信してください。",
		Fields:   fields,
	}
}

// NewUnauthenticatedError は認証情報欠落エラーを生成する。
// フィールド詳細は含めない（資格情報に関する情報漏えいを避ける）。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "Authorization: Bearer <token> ヘッダーを付与してください。",
	}
}

// NewInvalidTokenError は無効なトークンのエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "認証トークンが無効です。",
		Category: "auth",
		Action:   "再度ログインしてトークンを取得し直してください。",
	}
}

// NewInvalidCredentialsError はログイン失敗のエラーを生成する。
// メールとパスワードのどちらが誤りかは開示しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewForbiddenError はロール・所有権による拒否エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "リソースの所有者または管理者のみが実行できます。",
	}
}

// NewAdminOnlyError は管理者限定操作の拒否エラーを生成する。
func NewAdminOnlyError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "管理者のみが実行できる操作です。",
		Category: "auth",
		Action:   "管理者アカウントでログインしてください。",
	}
}

// NewOriginRejectedError はOriginヘッダー拒否のエラーを生成する。
func NewOriginRejectedError() *APIError {
	return &APIError{
		Code:     ErrCodeOriginRejected,
		Message:  "このOriginからのリクエストは許可されていません。",
		Category: "security",
		Action:   "許可リストに登録されたOriginからアクセスしてください。",
	}
}

// NewCsrfMissingError はCSRFトークン未取得のエラーを生成する。
// 「トークンの取得忘れ」をクライアントが判別できるよう専用コードを持つ。
func NewCsrfMissingError() *APIError {
	return &APIError{
		Code:     ErrCodeCsrfMissing,
		Message:  "CSRFトークンがありません。",
		Category: "security",
		Action:   "GET /api/csrf-token でトークンを取得し、X-CSRF-Tokenヘッダーで送信してください。",
	}
}

// NewCsrfMismatchError はCSRFトークン不一致のエラーを生成する。
func NewCsrfMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodeCsrfMismatch,
		Message:  "CSRFトークンが一致しません。",
		Category: "security",
		Action:   "トークンを再取得して再度お試しください。",
	}
}

// NewProductNotFoundError はプロダクト未検出エラーを生成する。
func NewProductNotFoundError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("指定されたプロダクトが見つかりません: %s", productID),
		Category: "product",
		Action:   "プロダクトIDを確認してください。",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewRateLimitedError はレート制限超過のエラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。しばらくしてから再度お試しください。",
		Category: "system",
		Action:   "Retry-Afterヘッダーに示された秒数だけ待ってから再試行してください。",
	}
}

// NewInjectionRejectedError は危険なクエリ演算子検出のエラーを生成する。
// どのフィールドが原因かは意図的に開示しない（オラクル化を防ぐ）。
func NewInjectionRejectedError() *APIError {
	return &APIError{
		Code:     ErrCodeInjectionRejected,
		Message:  "潜在的に危険なリクエストです。",
		Category: "security",
		Action:   "リクエスト内容を見直してください。",
	}
}

// NewEmailTakenError はメールアドレス重複のエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
