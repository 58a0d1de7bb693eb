package security

import (
	"errors"
	"strings"
)

// ErrInjectionDetected は拒否リスト上のクエリ演算子が検出されたことを示す。
// どのフィールドで検出されたかは呼び出し側にも開示しない。
var ErrInjectionDetected = errors.New("potentially unsafe request")

// queryOperatorDenylist はドキュメントクエリ言語の構造演算子の拒否リスト。
// 部分文字列として一致した時点でリクエスト全体を拒否する。
var queryOperatorDenylist = []string{
	"$where",
	"$ne",
	"$gt",
	"$gte",
	"$lt",
	"$lte",
	"$in",
	"$nin",
	"$and",
	"$or",
	"$not",
	"$nor",
	"$exists",
	"$type",
	"$mod",
	"$regex",
	"$text",
	"$expr",
	"$jsonSchema",
	"$all",
	"$elemMatch",
	"$size",
}

// structuralCharReplacer は付随的な構造文字（$ [ ] { }）を除去する。
// 演算子キーワードと異なり、これらは拒否せず黙って取り除く。
var structuralCharReplacer = strings.NewReplacer(
	"$", "",
	"[", "",
	"]", "",
	"{", "",
	"}", "",
)

// InjectionGuard はクエリ演算子インジェクションの検査を行うインターフェース。
type InjectionGuard interface {
	// Inspect はJSONデコード済みの値を再帰的に検査する。
	// 拒否リストの演算子を含む文字列があればErrInjectionDetectedを返す。
	// 演算子がなければ構造文字を除去した値を返す。
	Inspect(v any) (any, error)
}

// injectionGuard はInjectionGuardの実装。
// 完全一致の演算子キーワードは悪意の可能性が高いため拒否し、
// 単独の構造文字は誤検知を避けるため除去にとどめる二段構えのポリシー。
type injectionGuard struct{}

// NewInjectionGuard はInjectionGuardの新しいインスタンスを生成する。
func NewInjectionGuard() *injectionGuard {
	return &injectionGuard{}
}

// Inspect は値を再帰的に検査し、サニタイズ済みの値またはエラーを返す。
func (g *injectionGuard) Inspect(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return g.inspectString(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			cleaned, err := g.Inspect(elem)
			if err != nil {
				return nil, err
			}
			out[i] = cleaned
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			cleaned, err := g.Inspect(elem)
			if err != nil {
				return nil, err
			}
			out[k] = cleaned
		}
		return out, nil
	default:
		return v, nil
	}
}

// inspectString は単一の文字列を検査する。
func (g *injectionGuard) inspectString(s string) (string, error) {
	for _, op := range queryOperatorDenylist {
		if strings.Contains(s, op) {
			return "", ErrInjectionDetected
		}
	}
	if strings.ContainsAny(s, "$[]{}") {
		return structuralCharReplacer.Replace(s), nil
	}
	return s, nil
}
