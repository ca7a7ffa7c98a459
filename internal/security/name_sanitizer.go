// Package security はアプリケーションのセキュリティ機能を提供する。
//
// NameSanitizer は管理者が登録する従業員の表示名からHTMLを除去する。
// 表示名はテンプレートでエスケープ済みの状態で描画されるため、
// タグを一切許可しないbluemondayのStrictPolicyで平文にしてから保存する。
package security

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxNameLength は表示名の最大文字数（employee.nameカラムの長さ）。
const MaxNameLength = 255

// NameSanitizerService は表示名のサニタイズ機能のインターフェース。
type NameSanitizerService interface {
	// Sanitize はHTMLタグを除去し、連続する空白を1つにまとめた表示名を返す。
	// script, styleタグは中身ごと除去される。
	// MaxNameLengthを超える部分は切り捨てる。
	Sanitize(raw string) string
}

// NameSanitizer はNameSanitizerServiceの実装。
type NameSanitizer struct {
	policy *bluemonday.Policy
}

// NewNameSanitizer はNameSanitizerを生成する。
func NewNameSanitizer() *NameSanitizer {
	return &NameSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize は表示名を平文にして返す。
func (s *NameSanitizer) Sanitize(raw string) string {
	// StrictPolicyは & などをエンティティにするので、保存前に元の文字へ戻す
	cleaned := html.UnescapeString(s.policy.Sanitize(raw))
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if utf8.RuneCountInString(cleaned) > MaxNameLength {
		cleaned = string([]rune(cleaned)[:MaxNameLength])
	}
	return cleaned
}

var _ NameSanitizerService = (*NameSanitizer)(nil)
