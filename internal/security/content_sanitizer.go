// Package security はアプリケーションのセキュリティ機能を提供する。
//
// NoteSanitizer はノート本文のHTMLをサニタイズし、
// 保存されたノートを表示するクライアントをXSSから保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// リッチテキストエディタが出力するタグと属性のみを通過させる。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
// ノートの作成時および本文更新時、保存前に使用される。
type ContentSanitizer interface {
	// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string
}

// NoteSanitizer はContentSanitizerの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type NoteSanitizer struct {
	policy *bluemonday.Policy
}

// NewNoteSanitizer はNoteSanitizerの新しいインスタンスを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, hr, h1-h3, strong, em, s, u, mark, code, pre, ul, ol, li, blockquote, a
//   - 禁止タグ: script, iframe, style, img および全てのon*イベント属性
//   - aのhref: http, https, mailto スキームのみ許可
//   - aタグ: target="_blank" と rel="noopener noreferrer" を自動付与
func NewNoteSanitizer() *NoteSanitizer {
	p := bluemonday.NewPolicy()

	// script, iframe, style等は許可リストに含めないことで除去される
	p.AllowElements(
		"p", "br", "hr",
		"h1", "h2", "h3",
		"strong", "em", "s", "u", "mark",
		"code", "pre",
		"ul", "ol", "li",
		"blockquote",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(false)
	p.RequireParseableURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &NoteSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *NoteSanitizer) Sanitize(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}
	return s.policy.Sanitize(rawHTML)
}

// compile-time interface check
var _ ContentSanitizer = (*NoteSanitizer)(nil)
