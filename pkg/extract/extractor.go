package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	textUtils "github.com/shouni/go-utils/text"
)

// ----------------------------------------------------------------------
// 定数定義 (解析関連のみ)
// ----------------------------------------------------------------------

const (
	// noiseSelectors は、本文抽出の前にドキュメントから丸ごと除去する要素です。
	// これらの要素内のテキストは出力にもリンク探索にも一切現れません。
	noiseSelectors = "script, style, nav, footer, header"

	// feedLinkSelector は、ページが宣言する代替フィード (RSS/Atom) のセレクターです。
	feedLinkSelector = `link[rel="alternate"]`

	// phraseSeparator は、1行内の論理的な区切りと見なす区切り文字です。
	phraseSeparator = "  "
)

// feedMIMETypes は、フィードとして扱う type 属性の値です。
var feedMIMETypes = map[string]bool{
	"application/rss+xml":  true,
	"application/atom+xml": true,
}

// ----------------------------------------------------------------------
// 型定義
// ----------------------------------------------------------------------

// HTMLResult は、1ページぶんのHTML抽出結果です。
type HTMLResult struct {
	Text  string   // 整形済みのプレーンテキスト
	Links []string // baseURL解決済みの絶対URL。同一ドメイン判定は呼び出し側の責務です。
	Feeds []string // rel="alternate" で宣言されたフィードURL (絶対URL)
}

// Extractor は、取得済みの生バイト列からテキストとリンクを抽出します。
// ネットワークI/Oは一切行いません (取得はトランスポートコラボレーターの責務)。
type Extractor struct{}

// NewExtractor は、新しいExtractorのインスタンスを生成します。
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ----------------------------------------------------------------------
// メイン関数
// ----------------------------------------------------------------------

// ExtractHTML は、HTMLの生バイト列からプレーンテキストとリンク一覧を抽出します。
// script/style/nav/footer/header はテキスト化の前に除去され、空白の連続は
// 単一の改行へ畳み込まれます (下流へ送るトークン量を最小化するため)。
func (e *Extractor) ExtractHTML(data []byte, baseURL string) (*HTMLResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("HTML解析に失敗しました: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ベースURLの解析に失敗しました (URL: %s): %w", baseURL, err)
	}

	// フィード宣言は <head> 内にあるため、ノイズ除去の影響を受けないが、
	// リンクと同様に除去前へ置いても結果は変わらない。先に収集しておく。
	feeds := e.collectFeedLinks(doc, base)

	doc.Find(noiseSelectors).Remove()

	return &HTMLResult{
		Text:  collapseWhitespace(doc.Text()),
		Links: e.collectAnchorLinks(doc, base),
		Feeds: feeds,
	}, nil
}

// collectAnchorLinks は、すべてのアンカーの href を baseURL に対して解決し、
// 絶対URLの一覧を出現順に返します。解決できないアンカーはスキップします。
func (e *Extractor) collectAnchorLinks(doc *goquery.Document, base *url.URL) []string {
	var links []string
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		links = append(links, base.ResolveReference(ref).String())
	})
	return links
}

// collectFeedLinks は、rel="alternate" で宣言されたRSS/AtomフィードのURLを返します。
func (e *Extractor) collectFeedLinks(doc *goquery.Document, base *url.URL) []string {
	var feeds []string
	doc.Find(feedLinkSelector).Each(func(i int, s *goquery.Selection) {
		mimeType, _ := s.Attr("type")
		if !feedMIMETypes[strings.ToLower(strings.TrimSpace(mimeType))] {
			return
		}
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		feeds = append(feeds, base.ResolveReference(ref).String())
	})
	return feeds
}

// collapseWhitespace は、空白の連続を単一の改行に畳み込みます。
// 行内の2連スペースも論理的な区切りとして改行に変換し、空行は除去します。
func collapseWhitespace(text string) string {
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		for _, phrase := range strings.Split(line, phraseSeparator) {
			if normalized := textUtils.NormalizeText(phrase); normalized != "" {
				parts = append(parts, normalized)
			}
		}
	}
	return strings.Join(parts, "\n")
}
