package candidates_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shouni/go-happyhour-scout/pkg/candidates"
	"github.com/shouni/go-happyhour-scout/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snippet(url, text string) types.Snippet {
	return types.Snippet{SourceURL: url, Text: text}
}

func TestSelect_PatternMatches(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "基本形 (ハイフン区切り)",
			text:     "Join us! Happy Hour runs 3pm-6pm daily at the bar.",
			expected: "Happy Hour runs 3pm-6pm",
		},
		{
			name:     "分表記とスペースを含む",
			text:     "Our happy hour is 4:30 pm - 7:00 pm on weekdays.",
			expected: "happy hour is 4:30 pm - 7:00 pm",
		},
		{
			name:     "エンダッシュ区切り",
			text:     "HAPPY HOUR 5–8pm every night",
			expected: "HAPPY HOUR 5–8pm",
		},
		{
			name:     "to 区切り",
			text:     "Happy hour from 3 to 6, in the lounge",
			expected: "Happy hour from 3 to 6",
		},
		{
			name:     "HH の略記",
			text:     "HH specials: 4-7pm, half-price wings",
			expected: "HH specials: 4-7pm",
		},
		{
			name:     "指示語と時刻が改行をまたぐ",
			text:     "Happy Hour\nEvery weekday\n4pm - 6pm",
			expected: "Happy Hour\nEvery weekday\n4pm - 6pm",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cands := candidates.Select([]types.Snippet{snippet("https://site.test/menu", tc.text)})
			require.Len(t, cands, 1)
			assert.Equal(t, "https://site.test/menu", cands[0].URL)
			assert.Equal(t, tc.expected, cands[0].Text, "抜粋の範囲が期待値と異なります")
		})
	}
}

func TestSelect_MultipleMatchesPerSnippet(t *testing.T) {
	text := "Happy Hour 3-5pm at the bar. Also HH 9pm-11pm late night."
	cands := candidates.Select([]types.Snippet{snippet("https://site.test/specials", text)})

	require.Len(t, cands, 2, "1つのSnippet内の複数一致がすべて採用されていません")
	assert.Equal(t, "Happy Hour 3-5pm", cands[0].Text)
	assert.Equal(t, "HH 9pm-11pm", cands[1].Text)
}

func TestSelect_Fallback(t *testing.T) {
	t.Run("一致ゼロなら各Snippetの先頭テキストを採用", func(t *testing.T) {
		snippets := []types.Snippet{
			snippet("https://site.test/", "Welcome to our restaurant."),
			snippet("https://site.test/menu", "Dinner menu and wine list."),
		}
		cands := candidates.Select(snippets)

		require.Len(t, cands, 2)
		assert.Equal(t, "https://site.test/", cands[0].URL)
		assert.Equal(t, "Welcome to our restaurant.", cands[0].Text)
		assert.Equal(t, "https://site.test/menu", cands[1].URL)
		assert.Equal(t, "Dinner menu and wine list.", cands[1].Text)
	})

	t.Run("フォールバックはルーン単位で上限まで切り詰める", func(t *testing.T) {
		long := strings.Repeat("あ", candidates.FallbackTextLength+500)
		cands := candidates.Select([]types.Snippet{snippet("https://site.test/", long)})

		require.Len(t, cands, 1)
		assert.Equal(t, candidates.FallbackTextLength, len([]rune(cands[0].Text)),
			"切り詰めがルーン単位になっていません")
	})

	t.Run("1件でも一致があればフォールバックは発動しない", func(t *testing.T) {
		snippets := []types.Snippet{
			snippet("https://site.test/", "No specials here."),
			snippet("https://site.test/bar", "Happy Hour 4-7pm Mon-Fri $5 beers"),
		}
		cands := candidates.Select(snippets)

		require.Len(t, cands, 1)
		assert.Equal(t, "https://site.test/bar", cands[0].URL)
		assert.Equal(t, "Happy Hour 4-7pm", cands[0].Text)
	})
}

func TestSelect_Cap(t *testing.T) {
	var snippets []types.Snippet
	for i := 0; i < 5; i++ {
		snippets = append(snippets, snippet(
			fmt.Sprintf("https://site.test/page-%d", i),
			"Happy Hour 3-5pm. HH 5-7pm. Happy hour 9-11pm.",
		))
	}
	cands := candidates.Select(snippets)

	assert.Len(t, cands, candidates.MaxCandidates, "候補数が上限で打ち切られていません")
}

func TestSelect_Empty(t *testing.T) {
	assert.Empty(t, candidates.Select(nil))
	assert.Empty(t, candidates.Select([]types.Snippet{}))
}
