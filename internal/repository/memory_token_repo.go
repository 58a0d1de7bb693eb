package repository

import (
	"context"
	"sync"

	"github.com/hitoshi/shopguard/internal/model"
)

// MemoryTokenRepo はインメモリのアクセストークンストア。
type MemoryTokenRepo struct {
	mu     sync.RWMutex
	tokens map[string]*model.AccessToken
}

// NewMemoryTokenRepo はMemoryTokenRepoを生成する。
func NewMemoryTokenRepo() *MemoryTokenRepo {
	return &MemoryTokenRepo{
		tokens: make(map[string]*model.AccessToken),
	}
}

// Issue はトークンを保存する。
func (r *MemoryTokenRepo) Issue(ctx context.Context, token *model.AccessToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *token
	r.tokens[token.Value] = &cp
	return nil
}

// Resolve はトークン値からAccessTokenを解決する。未知の場合はnilを返す。
func (r *MemoryTokenRepo) Resolve(ctx context.Context, value string) (*model.AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tokens[value]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

// Revoke は指定トークンを失効させる。
func (r *MemoryTokenRepo) Revoke(ctx context.Context, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, value)
	return nil
}

// RevokeAllForUser は指定ユーザーの全トークンを失効させる。
func (r *MemoryTokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for value, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, value)
		}
	}
	return nil
}

// compile-time interface check
var _ TokenRepository = (*MemoryTokenRepo)(nil)
