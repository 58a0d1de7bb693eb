package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/shopguard/internal/model"
)

// PostgresTokenRepo はPostgreSQLを使用したアクセストークンストア。
type PostgresTokenRepo struct {
	db *sql.DB
}

// NewPostgresTokenRepo はPostgresTokenRepoを生成する。
func NewPostgresTokenRepo(db *sql.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

// Issue はトークンを保存する。
func (r *PostgresTokenRepo) Issue(ctx context.Context, token *model.AccessToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_tokens (value, user_id, issued_at) VALUES ($1, $2, $3)`,
		token.Value, token.UserID, token.IssuedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert access token: %w", err)
	}
	return nil
}

// Resolve はトークン値からAccessTokenを解決する。未知の場合はnilを返す。
func (r *PostgresTokenRepo) Resolve(ctx context.Context, value string) (*model.AccessToken, error) {
	token := &model.AccessToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT value, user_id, issued_at FROM access_tokens WHERE value = $1`,
		value,
	).Scan(&token.Value, &token.UserID, &token.IssuedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve access token: %w", err)
	}

	return token, nil
}

// Revoke は指定トークンを失効させる。
func (r *PostgresTokenRepo) Revoke(ctx context.Context, value string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM access_tokens WHERE value = $1`, value)
	if err != nil {
		return fmt.Errorf("failed to revoke access token: %w", err)
	}
	return nil
}

// RevokeAllForUser は指定ユーザーの全トークンを失効させる。
func (r *PostgresTokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM access_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// compile-time interface check
var _ TokenRepository = (*PostgresTokenRepo)(nil)
