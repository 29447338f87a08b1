// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は出品者が入力した物品説明やメッセージ本文をサニタイズし、
// 画面に埋め込んでもXSSにならないHTMLへ変換する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はユーザー入力テキストのサニタイズ機能のインターフェースを定義する。
type ContentSanitizerService interface {
	// Sanitize はHTMLをサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, a, ul, ol, li, strong, em）のみを通過させ、
	// script, iframe, style, imgタグおよびon*イベント属性を除去する。
	// aタグのhrefはhttp/httpsのみ許可し、target="_blank"とrel="noopener noreferrer"を付与する。
	// 空文字列の入力には空文字列を返す。
	Sanitize(rawHTML string) string
	// Render は改行を<br>に置き換えてからサニタイズする。物品説明の表示に使う。
	Render(text string) string
	// StripTags はすべてのタグを除去したテキストを返す。タイトルやメッセージの要約に使う。
	StripTags(text string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type contentSanitizer struct {
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"strong", "em",
	)

	// 物品画像は説明文とは別に表示するためimgは許可しない
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.AllowRelativeURLs(false)
	p.RequireParseableURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		policy: p,
		strict: bluemonday.StrictPolicy(),
	}
}

// Sanitize はHTMLをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

// Render は改行を保ったまま説明文をサニタイズする。
func (s *contentSanitizer) Render(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return s.policy.Sanitize(strings.ReplaceAll(text, "\n", "<br>"))
}

// StripTags はすべてのタグを除去する。
func (s *contentSanitizer) StripTags(text string) string {
	return s.strict.Sanitize(text)
}
