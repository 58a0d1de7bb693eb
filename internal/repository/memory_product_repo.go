package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/hitoshi/shopguard/internal/model"
)

// MemoryProductRepo はインメモリのプロダクトリポジトリ。
// 並行リクエストからの読み書きをRWMutexで保護する。
type MemoryProductRepo struct {
	mu       sync.RWMutex
	products map[string]*model.Product
	order    []string // 挿入順を保持する
}

// NewMemoryProductRepo はMemoryProductRepoを生成する。
func NewMemoryProductRepo() *MemoryProductRepo {
	return &MemoryProductRepo{
		products: make(map[string]*model.Product),
	}
}

// FindByID は指定IDのプロダクトを取得する。見つからない場合はnilを返す。
func (r *MemoryProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// List は全プロダクトのスナップショットを挿入順で返す。
func (r *MemoryProductRepo) List(ctx context.Context) ([]*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Product, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.products[id]
		out = append(out, &cp)
	}
	return out, nil
}

// ListByOwner は指定ユーザーが所有するプロダクトを挿入順で返す。
func (r *MemoryProductRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Product
	for _, id := range r.order {
		p := r.products[id]
		if p.OwnerID == ownerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Create はプロダクトを作成する。
func (r *MemoryProductRepo) Create(ctx context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *product
	r.products[product.ID] = &cp
	r.order = append(r.order, product.ID)
	return nil
}

// Update は部分パッチを単一の排他区間で適用し、更新後のプロダクトを返す。
// 見つからない場合はnilを返す。
func (r *MemoryProductRepo) Update(ctx context.Context, id string, patch *model.ProductPatch) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.InStock != nil {
		p.InStock = *patch.InStock
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}

	cp := *p
	return &cp, nil
}

// DeleteByID は指定IDのプロダクトを削除する。削除が行われた場合trueを返す。
func (r *MemoryProductRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return false, nil
	}
	delete(r.products, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// compile-time interface check
var _ ProductRepository = (*MemoryProductRepo)(nil)
