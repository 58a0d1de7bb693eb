package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// OutputSanitizer はレスポンスボディの文字列から実行可能なマークアップを
// 除去するインターフェース。どのハンドラーが生成したボディかに関わらず、
// シリアライズ境界で一律に適用される。
type OutputSanitizer interface {
	// SanitizeString は文字列から全てのタグと属性を除去する。
	SanitizeString(s string) string
	// SanitizeValue はJSONデコード済みの値を再帰的にサニタイズする。
	// 配列は要素単位、オブジェクトはキー単位に再構築し、
	// 文字列以外の型はそのまま通過させる。
	SanitizeValue(v any) any
}

// outputSanitizer はOutputSanitizerの実装。
// bluemondayのStrictPolicy（許可タグ・許可属性ゼロ）を使用する。
type outputSanitizer struct {
	policy *bluemonday.Policy
}

// NewOutputSanitizer はOutputSanitizerの新しいインスタンスを生成する。
func NewOutputSanitizer() *outputSanitizer {
	return &outputSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeString は文字列から全てのタグと属性を除去する。
func (s *outputSanitizer) SanitizeString(in string) string {
	return s.policy.Sanitize(in)
}

// SanitizeValue はJSONデコード済みの値を再帰的にサニタイズする。
func (s *outputSanitizer) SanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return s.SanitizeString(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = s.SanitizeValue(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = s.SanitizeValue(elem)
		}
		return out
	default:
		return v
	}
}
