package candidates

import (
	"regexp"

	"github.com/shouni/go-happyhour-scout/pkg/types"
)

const (
	// MaxCandidates は、抽出コラボレーターへ渡す抜粋の上限数です。
	// 下流へ送るペイロードサイズの明示的な上限となります。
	MaxCandidates = 8

	// FallbackTextLength は、パターンが一致しなかった場合に
	// 各Snippetから切り出す先頭文字数です。
	FallbackTextLength = 2000
)

// happyHourPattern は、ハッピーアワーの指示語に時刻範囲が続く箇所を検出します。
// 大文字小文字を区別せず、改行を含む任意の文字を非貪欲にまたぎます。
// 時刻範囲は「H[:MM] [am|pm]? 区切り H[:MM] [am|pm]?」、区切りはハイフン・
// エンダッシュ・"to" のいずれかです。
var happyHourPattern = regexp.MustCompile(
	`(?is)(?:happy hour|hh).*?\d{1,2}(?::\d{2})?\s*(?:am|pm)?\s*(?:-|–|to)\s*\d{1,2}(?::\d{2})?\s*(?:am|pm)?`,
)

// Select は、Snippet列を走査して抽出コラボレーター向けの Candidate 列を返します。
// パターンに一致した箇所はすべて採用されます。全Snippetで一致がゼロの場合は、
// 各Snippetの先頭テキストを1件ずつ採用するフォールバックに切り替わります
// (明示的なパターンが見つからなくても下流へ必ず何らかの本文を渡すため)。
func Select(snippets []types.Snippet) []types.Candidate {
	var selected []types.Candidate

	for _, snippet := range snippets {
		for _, matched := range happyHourPattern.FindAllString(snippet.Text, -1) {
			selected = append(selected, types.Candidate{
				URL:  snippet.SourceURL,
				Text: matched,
			})
		}
	}

	if len(selected) == 0 {
		for _, snippet := range snippets {
			selected = append(selected, types.Candidate{
				URL:  snippet.SourceURL,
				Text: truncate(snippet.Text, FallbackTextLength),
			})
		}
	}

	if len(selected) > MaxCandidates {
		selected = selected[:MaxCandidates]
	}
	return selected
}

// truncate は、先頭 limit 文字 (バイトではなくルーン単位) を返します。
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
