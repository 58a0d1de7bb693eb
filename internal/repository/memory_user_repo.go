package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/hitoshi/shopguard/internal/model"
)

// MemoryUserRepo はインメモリのユーザーリポジトリ。
// 並行リクエストからの読み書きをRWMutexで保護する。
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]*model.User
	order []string // 挿入順を保持する
}

// NewMemoryUserRepo はMemoryUserRepoを生成する。
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		users: make(map[string]*model.User),
	}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。大文字小文字を区別しない。
func (r *MemoryUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	needle := strings.ToLower(strings.TrimSpace(email))

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		u := r.users[id]
		if strings.ToLower(u.Email) == needle {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Create はユーザーを作成する。
func (r *MemoryUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *user
	r.users[user.ID] = &cp
	r.order = append(r.order, user.ID)
	return nil
}

// List は全ユーザーを挿入順で返す。
func (r *MemoryUserRepo) List(ctx context.Context) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.User, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.users[id]
		out = append(out, &cp)
	}
	return out, nil
}

// UpdateRole は指定ユーザーのロールを更新する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

// DeleteByID は指定IDのユーザーを削除する。削除が行われた場合trueを返す。
func (r *MemoryUserRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// compile-time interface check
var _ UserRepository = (*MemoryUserRepo)(nil)
