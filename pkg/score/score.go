package score

import (
	"net/url"
	"strings"
)

// ----------------------------------------------------------------------
// 定数定義 (スコアリング関連のみ)
// ----------------------------------------------------------------------

// keywordWeights は、URL文字列に含まれるキーワードと加算する重みの固定マップです。
// 複数のキーワードが同時に出現した場合はすべて加算されます。
var keywordWeights = map[string]int{
	"happy":   5,
	"hour":    5,
	"special": 3,
	"deal":    3,
	"menu":    2,
	"drink":   2,
	"food":    1,
}

// PDFBonus は、URLのパスが .pdf で終わる場合に加算する固定ボーナスです。
const PDFBonus = 4

// ----------------------------------------------------------------------
// メイン関数
// ----------------------------------------------------------------------

// Score は、URL文字列のトピック関連度を整数スコアへ写像する純粋関数です。
// URLを小文字化し、部分文字列として出現するキーワードの重みを合算します。
// 不明なURLや空文字列は 0 を返し、エラーは発生しません。
func Score(rawURL string) int {
	lower := strings.ToLower(rawURL)

	total := 0
	for keyword, weight := range keywordWeights {
		if strings.Contains(lower, keyword) {
			total += weight
		}
	}

	if IsPDF(rawURL) {
		total += PDFBonus
	}

	return total
}

// IsPDF は、URLのパスが .pdf で終わるかどうかを判定します (大文字小文字を区別しない)。
// URLとして解釈できない文字列の場合は、文字列全体の末尾で判定します。
func IsPDF(rawURL string) bool {
	target := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		target = parsed.Path
	}
	return strings.HasSuffix(strings.ToLower(target), ".pdf")
}
