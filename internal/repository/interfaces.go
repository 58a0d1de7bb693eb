// Package repository はデータストアのインターフェースを定義する。
//
// 本番環境ではPostgreSQL実装、テストおよびスタンドアロン起動では
// インメモリ実装を使用する。どちらの実装もプロセス内の並行リクエストから
// 安全に呼び出せること。
package repository

import (
	"context"

	"github.com/hitoshi/shopguard/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。
	// 比較は大文字小文字を区別しない。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// List は全ユーザーを返す。
	List(ctx context.Context) ([]*model.User, error)

	// UpdateRole は指定ユーザーのロールを更新する。
	// 見つからない場合はnilを返す。
	UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。削除が行われた場合trueを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// ProductRepository はプロダクトデータの永続化インターフェース。
// 読み取り操作はコレクションを変更しない。
type ProductRepository interface {
	// FindByID は指定IDのプロダクトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// List は全プロダクトのスナップショットを返す。
	List(ctx context.Context) ([]*model.Product, error)

	// ListByOwner は指定ユーザーが所有するプロダクトを返す。
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Product, error)

	// Create はプロダクトを作成する。
	Create(ctx context.Context, product *model.Product) error

	// Update は部分パッチを適用して更新後のプロダクトを返す。
	// パッチの適用は単一の排他区間で行う。見つからない場合はnilを返す。
	Update(ctx context.Context, id string, patch *model.ProductPatch) (*model.Product, error)

	// DeleteByID は指定IDのプロダクトを削除する。削除が行われた場合trueを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// TokenRepository はアクセストークンのセッションストア。
// issue / resolve / revoke の明示的な操作を提供する。
type TokenRepository interface {
	// Issue はトークンを保存する。
	Issue(ctx context.Context, token *model.AccessToken) error

	// Resolve はトークン値からAccessTokenを解決する。
	// 未知のトークンの場合はnilを返す。
	Resolve(ctx context.Context, value string) (*model.AccessToken, error)

	// Revoke は指定トークンを失効させる。
	Revoke(ctx context.Context, value string) error

	// RevokeAllForUser は指定ユーザーの全トークンを失効させる。
	// ユーザー削除時に使用する。
	RevokeAllForUser(ctx context.Context, userID string) error
}

// CsrfSessionRepository はCSRFセッションの保存インターフェース。
// セッションはエフェメラルで、プロセス再起動で消えてよい。
type CsrfSessionRepository interface {
	// Save はCSRFセッションを保存する。
	Save(ctx context.Context, session *model.CsrfSession) error

	// FindByCookie はCookie値からCSRFセッションを取得する。
	// 見つからない場合はnilを返す。
	FindByCookie(ctx context.Context, cookieValue string) (*model.CsrfSession, error)
}
