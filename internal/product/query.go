package product

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hitoshi/shopguard/internal/model"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// QueryParams はプロダクト一覧のクエリパラメータを表す。
// すべて文字列のまま受け取り、解釈はエンジン側で行う。
// 解釈できない値はエラーにせず「指定なし」として扱う。
type QueryParams struct {
	Category string
	InStock  string
	Q        string
	Sort     string
	Page     string
	Limit    string
}

// QueryResult はフィルタ・ソート・ページング適用後の結果を表す。
// TotalItems / TotalPages はフィルタ適用後の件数であり、
// ページングの影響を受けない。
type QueryResult struct {
	Items       []*model.Product `json:"items"`
	Page        int              `json:"page"`
	Limit       int              `json:"limit"`
	TotalItems  int              `json:"totalItems"`
	TotalPages  int              `json:"totalPages"`
	HasNextPage bool             `json:"hasNextPage"`
	HasPrevPage bool             `json:"hasPrevPage"`
}

// QueryEngine はプロダクトコレクションに対するフィルタ・ソート・
// ページングを提供する。コレクションを変更しない読み取り専用の演算。
type QueryEngine struct{}

// NewQueryEngine はQueryEngineを生成する。
func NewQueryEngine() *QueryEngine {
	return &QueryEngine{}
}

// Query はフィルタ → ソート → ページングの順で適用した結果を返す。
// 各ステップは全域関数であり、どんなパラメータ値でもpanicしない。
func (e *QueryEngine) Query(products []*model.Product, params QueryParams) *QueryResult {
	filtered := e.filter(products, params)
	e.sortItems(filtered, params.Sort)
	return e.paginate(filtered, params.Page, params.Limit)
}

// filter はcategory・inStock・フリーテキストの3段フィルタを適用する。
func (e *QueryEngine) filter(products []*model.Product, params QueryParams) []*model.Product {
	out := make([]*model.Product, 0, len(products))

	// inStockは明確にtrue/falseへ解釈できる場合のみフィルタする
	inStockFilter := false
	inStockWant := false
	if params.InStock != "" {
		if v, err := strconv.ParseBool(params.InStock); err == nil {
			inStockFilter = true
			inStockWant = v
		}
	}

	q := strings.ToLower(params.Q)

	for _, p := range products {
		if params.Category != "" && p.Category != params.Category {
			continue
		}
		if inStockFilter && p.InStock != inStockWant {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// sortItems は `field_direction` 形式のソート指定を適用する。
// field ∈ {name, price, date}, direction ∈ {asc, desc}。
// 不明な指定は順序を変更しない。同値の要素は入力順を保持する（安定ソート）。
func (e *QueryEngine) sortItems(products []*model.Product, sortParam string) {
	if sortParam == "" {
		return
	}

	field, direction, ok := strings.Cut(sortParam, "_")
	if !ok || (direction != "asc" && direction != "desc") {
		return
	}

	var less func(a, b *model.Product) bool
	switch field {
	case "name":
		less = func(a, b *model.Product) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	case "price":
		less = func(a, b *model.Product) bool {
			return a.Price < b.Price
		}
	case "date":
		less = func(a, b *model.Product) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}
	default:
		return
	}

	if direction == "desc" {
		asc := less
		less = func(a, b *model.Product) bool { return asc(b, a) }
	}

	sort.SliceStable(products, func(i, j int) bool {
		return less(products[i], products[j])
	})
}

// paginate はページングを適用する。
// limitは[1,100]にクランプ（デフォルト10）、pageは1以上。
// 最終ページを超えるpage指定は最終ページにクランプし、
// 件数が1件以上ある限り空ページを返さない。
func (e *QueryEngine) paginate(products []*model.Product, pageParam, limitParam string) *QueryResult {
	limit := defaultPageLimit
	if v, err := strconv.Atoi(limitParam); err == nil {
		limit = v
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	page := 1
	if v, err := strconv.Atoi(pageParam); err == nil && v > 1 {
		page = v
	}

	totalItems := len(products)
	totalPages := (totalItems + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * limit
	end := start + limit
	if start > totalItems {
		start = totalItems
	}
	if end > totalItems {
		end = totalItems
	}

	return &QueryResult{
		Items:       products[start:end],
		Page:        page,
		Limit:       limit,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}
