package model

import "time"

// 有効なプロダクトカテゴリの一覧。
const (
	CategoryElectronics = "electronics"
	CategoryClothing    = "clothing"
	CategoryBooks       = "books"
	CategoryFood        = "food"
	CategoryCoffee      = "coffee"
	CategoryTea         = "tea"
	CategoryOther       = "other"
)

// ValidCategories は登録時に許可されるカテゴリの集合。
var ValidCategories = map[string]bool{
	CategoryElectronics: true,
	CategoryClothing:    true,
	CategoryBooks:       true,
	CategoryFood:        true,
	CategoryCoffee:      true,
	CategoryTea:         true,
	CategoryOther:       true,
}

// Product はカタログ上のプロダクトを表す。
// QuantityとInStockは独立に設定可能で、quantity=0かつinStock=trueの
// 状態も許容する（自動補正しない仕様）。
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	InStock     bool      `json:"inStock"`
	Quantity    int       `json:"quantity"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProductPatch はプロダクト更新の部分パッチを表す。
// nilフィールドは変更しない。
type ProductPatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	InStock     *bool    `json:"inStock"`
	Quantity    *int     `json:"quantity"`
}
