package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/shopguard/internal/model"
)

// csrfSessionTTL はCSRFセッションの有効期間。
// 配布するCookieのMaxAge（24時間）に合わせる。
const csrfSessionTTL = 24 * time.Hour

// MemoryCsrfRepo はインメモリのCSRFセッションストア。
// CSRFセッションはエフェメラルなため、永続実装は提供しない。
// 期限切れセッションは参照時に破棄し、保存時に一括で掃除する。
type MemoryCsrfRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.CsrfSession
	now      func() time.Time
}

// NewMemoryCsrfRepo はMemoryCsrfRepoを生成する。
func NewMemoryCsrfRepo() *MemoryCsrfRepo {
	return &MemoryCsrfRepo{
		sessions: make(map[string]*model.CsrfSession),
		now:      time.Now,
	}
}

// Save はCSRFセッションを保存する。あわせて期限切れセッションを破棄する。
func (r *MemoryCsrfRepo) Save(ctx context.Context, session *model.CsrfSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictExpiredLocked()

	cp := *session
	r.sessions[session.CookieValue] = &cp
	return nil
}

// FindByCookie はCookie値からCSRFセッションを取得する。
// 見つからない場合と期限切れの場合はnilを返す。
func (r *MemoryCsrfRepo) FindByCookie(ctx context.Context, cookieValue string) (*model.CsrfSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[cookieValue]
	if !ok {
		return nil, nil
	}
	if r.expired(s) {
		delete(r.sessions, cookieValue)
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

// SessionCount は保存中のセッション数を返す。テスト用。
func (r *MemoryCsrfRepo) SessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *MemoryCsrfRepo) expired(s *model.CsrfSession) bool {
	return r.now().Sub(s.CreatedAt) > csrfSessionTTL
}

// evictExpiredLocked は期限切れセッションをすべて削除する。呼び出し側でロックを取る。
func (r *MemoryCsrfRepo) evictExpiredLocked() {
	for cookie, s := range r.sessions {
		if r.expired(s) {
			delete(r.sessions, cookie)
		}
	}
}

// compile-time interface check
var _ CsrfSessionRepository = (*MemoryCsrfRepo)(nil)
