package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/shopguard/internal/model"
	"github.com/hitoshi/shopguard/internal/repository"
	"github.com/hitoshi/shopguard/internal/security"
)

// seedDemoData はインメモリ構成での動作確認用にデモユーザーと
// デモプロダクトを投入する。永続ストア構成では呼び出さない。
// 投入セット: 管理者1名 + 一般ユーザー2名、プロダクト5件。
func seedDemoData(
	ctx context.Context,
	users repository.UserRepository,
	products repository.ProductRepository,
	hasher security.PasswordHasher,
) error {
	adminHash, err := hasher.Hash("admin123")
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}
	userHash, err := hasher.Hash("user123")
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	now := time.Now()

	admin := &model.User{
		ID:           uuid.NewString(),
		Username:     "admin",
		Email:        "admin@demo.com",
		PasswordHash: adminHash,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
	}
	user1 := &model.User{
		ID:           uuid.NewString(),
		Username:     "user1",
		Email:        "user1@demo.com",
		PasswordHash: userHash,
		Role:         model.RoleUser,
		CreatedAt:    now,
	}
	user2 := &model.User{
		ID:           uuid.NewString(),
		Username:     "user2",
		Email:        "user2@demo.com",
		PasswordHash: userHash,
		Role:         model.RoleUser,
		CreatedAt:    now,
	}

	for _, u := range []*model.User{admin, user1, user2} {
		if err := users.Create(ctx, u); err != nil {
			return fmt.Errorf("failed to create seed user %s: %w", u.Email, err)
		}
	}

	seedProducts := []*model.Product{
		{
			ID:          uuid.NewString(),
			Name:        "Espresso",
			Description: "クラシックなエスプレッソ",
			Price:       50,
			Category:    model.CategoryCoffee,
			InStock:     true,
			Quantity:    20,
			OwnerID:     admin.ID,
			CreatedAt:   now,
		},
		{
			ID:          uuid.NewString(),
			Name:        "Cappuccino",
			Description: "エスプレッソ + ミルクフォーム",
			Price:       70,
			Category:    model.CategoryCoffee,
			InStock:     true,
			Quantity:    15,
			OwnerID:     user1.ID,
			CreatedAt:   now.Add(time.Second),
		},
		{
			ID:          uuid.NewString(),
			Name:        "Latte",
			Description: "ミルクのまろやかな味わい",
			Price:       75,
			Category:    model.CategoryCoffee,
			InStock:     true,
			Quantity:    12,
			OwnerID:     user1.ID,
			CreatedAt:   now.Add(2 * time.Second),
		},
		{
			ID:          uuid.NewString(),
			Name:        "Tea",
			Description: "紅茶",
			Price:       40,
			Category:    model.CategoryTea,
			InStock:     true,
			Quantity:    30,
			OwnerID:     user2.ID,
			CreatedAt:   now.Add(3 * time.Second),
		},
		{
			ID:          uuid.NewString(),
			Name:        "Croissant",
			Description: "焼きたてのペストリー",
			Price:       55,
			Category:    model.CategoryFood,
			InStock:     false,
			Quantity:    0,
			OwnerID:     admin.ID,
			CreatedAt:   now.Add(4 * time.Second),
		},
	}

	for _, p := range seedProducts {
		if err := products.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to create seed product %s: %w", p.Name, err)
		}
	}

	slog.Info("seeded demo data",
		slog.Int("users", 3),
		slog.Int("products", len(seedProducts)),
	)

	return nil
}
