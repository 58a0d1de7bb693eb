package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/shopguard/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用したプロダクトリポジトリ。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

const productColumns = `id, name, description, price, category, in_stock, quantity, owner_id, created_at`

// scanProduct は1行をProductに読み込む。
func scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.InStock, &p.Quantity, &p.OwnerID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindByID は指定IDのプロダクトを取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return p, nil
}

// List は全プロダクトを作成日時順で返す。
func (r *PostgresProductRepo) List(ctx context.Context) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// ListByOwner は指定ユーザーが所有するプロダクトを作成日時順で返す。
func (r *PostgresProductRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE owner_id = $1 ORDER BY created_at`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list products by owner: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// collectProducts は結果セットをProductのスライスに読み込む。
func collectProducts(rows *sql.Rows) ([]*model.Product, error) {
	var products []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// Create はプロダクトを作成する。
func (r *PostgresProductRepo) Create(ctx context.Context, product *model.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, price, category, in_stock, quantity, owner_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		product.ID, product.Name, product.Description, product.Price, product.Category,
		product.InStock, product.Quantity, product.OwnerID, product.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// Update は部分パッチを1文のUPDATEで適用し、更新後のプロダクトを返す。
// 見つからない場合はnilを返す。
func (r *PostgresProductRepo) Update(ctx context.Context, id string, patch *model.ProductPatch) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE products SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			price       = COALESCE($4, price),
			category    = COALESCE($5, category),
			in_stock    = COALESCE($6, in_stock),
			quantity    = COALESCE($7, quantity)
		 WHERE id = $1
		 RETURNING `+productColumns,
		id, patch.Name, patch.Description, patch.Price, patch.Category, patch.InStock, patch.Quantity,
	)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

// DeleteByID は指定IDのプロダクトを削除する。削除が行われた場合trueを返す。
func (r *PostgresProductRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
