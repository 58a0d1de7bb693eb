// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限ロールを表す。
type Role string

const (
	// RoleUser は一般ユーザーのロール。
	RoleUser Role = "user"
	// RoleAdmin は管理者のロール。全ユーザーの閲覧・削除、任意プロダクトの更新が可能。
	RoleAdmin Role = "admin"
)

// User はサービス利用ユーザーを表す。
// PasswordHashは外部に一切シリアライズしない（SafeViewを経由すること）。
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// SafeUser はパスワードハッシュを除いた外部公開用のユーザー表現。
type SafeUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// SafeView はPasswordHashを除いた公開用ビューを返す。
func (u *User) SafeView() *SafeUser {
	if u == nil {
		return nil
	}
	return &SafeUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// IsAdmin はユーザーが管理者ロールを持つかどうかを返す。
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// AccessToken はBearer認証で提示される不透明トークンを表す。
// 1つのトークンは高々1人のユーザーに解決される。
// 1人のユーザーは複数のトークン（複数セッション）を保持できる。
type AccessToken struct {
	Value    string
	UserID   string
	IssuedAt time.Time
}

// CsrfSession はCSRF二重送信方式のセッションを表す。
// CookieValueはHTTP Only Cookieで配布し、Secretはヘッダーで照合する。
type CsrfSession struct {
	CookieValue string
	Secret      string
	CreatedAt   time.Time
}
