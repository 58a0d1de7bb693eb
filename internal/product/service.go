// Package product はプロダクトカタログのドメインロジックを提供する。
package product

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/shopguard/internal/model"
	"github.com/hitoshi/shopguard/internal/repository"
)

const (
	nameMaxLen        = 100
	descriptionMaxLen = 500
)

// Service はプロダクトCRUDと一覧クエリのサービス層。
// 更新・削除は所有者または管理者のみが実行できる。
type Service struct {
	products repository.ProductRepository
	engine   *QueryEngine
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(products repository.ProductRepository, engine *QueryEngine) *Service {
	return &Service{
		products: products,
		engine:   engine,
	}
}

// CreateInput はプロダクト作成の入力。
// PriceはJSONでの「フィールド省略」と「0指定」を区別するためポインタにする。
type CreateInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Category    string   `json:"category"`
	InStock     *bool    `json:"inStock"`
	Quantity    *int     `json:"quantity"`
}

// Create はプロダクトを作成する。作成者が所有者になる。
// 必須はnameとpriceのみ。categoryの省略時は"other"、
// inStockの省略時はtrue、quantityの省略時は0を設定する。
func (s *Service) Create(ctx context.Context, owner *model.SafeUser, input CreateInput) (*model.Product, error) {
	if fields := validateCreateInput(input); len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	p := &model.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       *input.Price,
		Category:    model.CategoryOther,
		InStock:     true,
		Quantity:    0,
		OwnerID:     owner.ID,
		CreatedAt:   time.Now(),
	}
	if input.Category != "" {
		p.Category = input.Category
	}
	if input.InStock != nil {
		p.InStock = *input.InStock
	}
	if input.Quantity != nil {
		p.Quantity = *input.Quantity
	}

	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("プロダクトの作成に失敗しました: %w", err)
	}

	slog.Info("プロダクトを作成しました",
		slog.String("product_id", p.ID),
		slog.String("owner_id", owner.ID),
	)

	return p, nil
}

// Get は指定IDのプロダクトを取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("プロダクトの取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProductNotFoundError(id)
	}
	return p, nil
}

// List はフィルタ・ソート・ページングを適用した一覧を返す。
func (s *Service) List(ctx context.Context, params QueryParams) (*QueryResult, error) {
	all, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("プロダクト一覧の取得に失敗しました: %w", err)
	}
	return s.engine.Query(all, params), nil
}

// ListByOwner は指定ユーザーが所有するプロダクトを返す。
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*model.Product, error) {
	items, err := s.products.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("プロダクト一覧の取得に失敗しました: %w", err)
	}
	return items, nil
}

// Update は部分パッチを適用してプロダクトを更新する。
// 所有者または管理者のみが実行できる。存在確認を所有権チェックより
// 先に行うため、他人のプロダクトの存在は404/403の区別から漏れる
// （一覧APIが公開のため、存在の秘匿は要件ではない）。
func (s *Service) Update(ctx context.Context, actor *model.SafeUser, id string, patch *model.ProductPatch) (*model.Product, error) {
	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("プロダクトの取得に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewProductNotFoundError(id)
	}
	if !canModify(actor, existing) {
		return nil, model.NewForbiddenError()
	}

	if fields := validatePatch(patch); len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	updated, err := s.products.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("プロダクトの更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewProductNotFoundError(id)
	}

	slog.Info("プロダクトを更新しました",
		slog.String("product_id", id),
		slog.String("actor_id", actor.ID),
	)

	return updated, nil
}

// Delete はプロダクトを削除する。所有者または管理者のみが実行できる。
func (s *Service) Delete(ctx context.Context, actor *model.SafeUser, id string) error {
	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("プロダクトの取得に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewProductNotFoundError(id)
	}
	if !canModify(actor, existing) {
		return model.NewForbiddenError()
	}

	deleted, err := s.products.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("プロダクトの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewProductNotFoundError(id)
	}

	slog.Info("プロダクトを削除しました",
		slog.String("product_id", id),
		slog.String("actor_id", actor.ID),
	)

	return nil
}

// canModify は更新・削除の所有者または管理者チェック。
func canModify(actor *model.SafeUser, p *model.Product) bool {
	if actor == nil {
		return false
	}
	return actor.Role == model.RoleAdmin || actor.ID == p.OwnerID
}

// validateCreateInput は作成入力を検査し、フィールド別のエラー詳細を返す。
func validateCreateInput(input CreateInput) []model.FieldDetail {
	var fields []model.FieldDetail

	if strings.TrimSpace(input.Name) == "" {
		fields = append(fields, model.FieldDetail{
			Field:   "name",
			Message: "nameは必須です。",
		})
	} else if utf8.RuneCountInString(strings.TrimSpace(input.Name)) > nameMaxLen {
		fields = append(fields, model.FieldDetail{
			Field:   "name",
			Message: fmt.Sprintf("nameは%d文字以内で指定してください。", nameMaxLen),
		})
	}
	if utf8.RuneCountInString(input.Description) > descriptionMaxLen {
		fields = append(fields, model.FieldDetail{
			Field:   "description",
			Message: fmt.Sprintf("descriptionは%d文字以内で指定してください。", descriptionMaxLen),
		})
	}
	if input.Price == nil {
		fields = append(fields, model.FieldDetail{
			Field:   "price",
			Message: "priceは必須です。",
		})
	} else if *input.Price < 0 {
		fields = append(fields, model.FieldDetail{
			Field:   "price",
			Message: "priceは0以上で指定してください。",
		})
	}
	if input.Category != "" && !model.ValidCategories[input.Category] {
		fields = append(fields, model.FieldDetail{
			Field:   "category",
			Message: "不明なカテゴリです。",
		})
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		fields = append(fields, model.FieldDetail{
			Field:   "quantity",
			Message: "quantityは0以上で指定してください。",
		})
	}

	return fields
}

// validatePatch は更新パッチを検査し、フィールド別のエラー詳細を返す。
// nilフィールドは「変更なし」なので検査しない。
func validatePatch(patch *model.ProductPatch) []model.FieldDetail {
	if patch == nil {
		return nil
	}

	var fields []model.FieldDetail

	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" {
			fields = append(fields, model.FieldDetail{
				Field:   "name",
				Message: "nameは空にできません。",
			})
		} else if utf8.RuneCountInString(trimmed) > nameMaxLen {
			fields = append(fields, model.FieldDetail{
				Field:   "name",
				Message: fmt.Sprintf("nameは%d文字以内で指定してください。", nameMaxLen),
			})
		}
	}
	if patch.Description != nil && utf8.RuneCountInString(*patch.Description) > descriptionMaxLen {
		fields = append(fields, model.FieldDetail{
			Field:   "description",
			Message: fmt.Sprintf("descriptionは%d文字以内で指定してください。", descriptionMaxLen),
		})
	}
	if patch.Price != nil && *patch.Price < 0 {
		fields = append(fields, model.FieldDetail{
			Field:   "price",
			Message: "priceは0以上で指定してください。",
		})
	}
	if patch.Category != nil && !model.ValidCategories[*patch.Category] {
		fields = append(fields, model.FieldDetail{
			Field:   "category",
			Message: "不明なカテゴリです。",
		})
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		fields = append(fields, model.FieldDetail{
			Field:   "quantity",
			Message: "quantityは0以上で指定してください。",
		})
	}

	return fields
}
