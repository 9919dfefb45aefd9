package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer は利用者が入力したテキストを無害化する。
// 出品・区画・通知の文字列を保存前に通す。
type Sanitizer interface {
	// Text はすべてのタグを除去した1行テキストを返す。名前やタイトル向け。
	Text(raw string) string
	// Description は段落・改行・リスト・強調のみを残した説明文を返す。
	Description(raw string) string
}

// contentSanitizer はbluemondayによるSanitizerの実装。
type contentSanitizer struct {
	strict      *bluemonday.Policy
	description *bluemonday.Policy
}

// NewContentSanitizer はSanitizerを生成する。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "ul", "ol", "li", "strong", "em")

	return &contentSanitizer{
		strict:      bluemonday.StrictPolicy(),
		description: p,
	}
}

// Text はタグをすべて除去し、前後の空白を取り除く。
func (s *contentSanitizer) Text(raw string) string {
	return strings.TrimSpace(s.strict.Sanitize(raw))
}

// Description は許可したタグ以外を除去する。
func (s *contentSanitizer) Description(raw string) string {
	return strings.TrimSpace(s.description.Sanitize(raw))
}

var _ Sanitizer = (*contentSanitizer)(nil)
