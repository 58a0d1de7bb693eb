// Package security はアプリケーションのセキュリティ機能を提供する。
//
// リクエスト入力のサニタイズ（InputSanitizer）、クエリ演算子インジェクションの
// 検査（InjectionGuard）、レスポンス出力のサニタイズ（OutputSanitizer）、
// パスワードハッシュとトークン発行の戦略を含む。
package security

import (
	"html"
	"regexp"
)

// scriptTagPattern は<script>...</script>断片を検出する正規表現。
// 大文字小文字を区別せず、タグをまたぐ改行にもマッチする。
var scriptTagPattern = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)

// InputSanitizer は文字列入力のマークアップを無害化するインターフェース。
// リクエストのbody・query・pathパラメータに適用される。
type InputSanitizer interface {
	// SanitizeString は単一の文字列をサニタイズする。
	SanitizeString(s string) string
	// SanitizeValue はJSONデコード済みの任意の値を再帰的にサニタイズし、
	// 構造的に同一の値を返す。文字列以外のリーフは変更しない。
	SanitizeValue(v any) any
}

// inputSanitizer はInputSanitizerの実装。
// <script>ブロックをパターン除去した上で、< > & 引用符をHTMLエスケープする。
type inputSanitizer struct{}

// NewInputSanitizer はInputSanitizerの新しいインスタンスを生成する。
func NewInputSanitizer() *inputSanitizer {
	return &inputSanitizer{}
}

// SanitizeString は単一の文字列をサニタイズする。
// 先にスクリプトブロックを除去し、残りをエスケープする。
// 除去を先に行わないと、エスケープ後の文字列にパターンが一致しなくなる。
func (s *inputSanitizer) SanitizeString(in string) string {
	cleaned := scriptTagPattern.ReplaceAllString(in, "")
	return html.EscapeString(cleaned)
}

// SanitizeValue はJSONデコード済みの値を再帰的にサニタイズする。
// 配列・ネストされたオブジェクトは入力サイズ以外の深さ制限なしに走査する。
// 文字列・配列・オブジェクト以外の型（数値、真偽値、null等）はそのまま返す。
func (s *inputSanitizer) SanitizeValue(v any) any {
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
