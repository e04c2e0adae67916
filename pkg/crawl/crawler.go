package crawl

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sort"
	"time"

	"github.com/shouni/go-happyhour-scout/pkg/extract"
	"github.com/shouni/go-happyhour-scout/pkg/feed"
	"github.com/shouni/go-happyhour-scout/pkg/score"
	"github.com/shouni/go-happyhour-scout/pkg/types"
)

// ----------------------------------------------------------------------
// 定数定義 (トラバーサルポリシー関連のみ)
// ----------------------------------------------------------------------

const (
	// DefaultPageBudget は、1回のクロールで訪問する最大ページ数です。
	// 発見したリンクの数にかかわらず、この上限が総作業量を抑えます。
	DefaultPageBudget = 6

	// DefaultPageTimeout は、ページ単位の取得タイムアウトです。
	// リトライを含むページ1枚の処理はこの時間で打ち切られます。
	DefaultPageTimeout = 10 * time.Second

	// entryLinkLimit は、エントリページから展開するスコア上位リンクの数です。
	entryLinkLimit = 3
)

// ----------------------------------------------------------------------
// 依存性の定義 (DIP)
// ----------------------------------------------------------------------

// Fetcher は、URLから生バイト列を取得するトランスポートのインターフェースです。
// Crawler はこの抽象に依存し、自身ではネットワークI/Oを行いません。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// PDFTextFunc は、PDFバイト列からテキストを抽出するコラボレーターです。
// 機能が利用できない場合も空文字列を返すだけでよく、エラーにはなりません。
type PDFTextFunc func(data []byte) string

// ----------------------------------------------------------------------
// 設定とコンストラクタ
// ----------------------------------------------------------------------

// Config は、クロールの資源上限を設定します。
type Config struct {
	PageBudget  int           // 訪問ページ数の上限 (0以下ならデフォルト)
	PageTimeout time.Duration // ページ単位のタイムアウト (0以下ならデフォルト)
	Verbose     bool          // スキップ理由などの診断ログを出力するか
}

// Crawler は、エントリURLを起点とした有界のBFSクロールを駆動します。
// フロンティアと訪問済み集合は1回の Run の中だけで生存し、横断的な状態は持ちません。
type Crawler struct {
	fetcher Fetcher
	html    *extract.Extractor
	pdfText PDFTextFunc
	feeds   *feed.Parser // nil の場合、フィード探索は行わない
	cfg     Config
}

// New は、新しいCrawlerを生成します。
func New(fetcher Fetcher, cfg Config) (*Crawler, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("crawl.New: Fetcher cannot be nil")
	}
	if cfg.PageBudget <= 0 {
		cfg.PageBudget = DefaultPageBudget
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = DefaultPageTimeout
	}
	return &Crawler{
		fetcher: fetcher,
		html:    extract.NewExtractor(),
		pdfText: extract.PDFText,
		cfg:     cfg,
	}, nil
}

// WithPDFText は、PDFテキスト抽出コラボレーターを差し替えます。
func (c *Crawler) WithPDFText(fn PDFTextFunc) *Crawler {
	c.pdfText = fn
	return c
}

// WithFeedParser は、エントリページでの代替フィード探索を有効にします。
func (c *Crawler) WithFeedParser(p *feed.Parser) *Crawler {
	c.feeds = p
	return c
}

// ----------------------------------------------------------------------
// メイン関数
// ----------------------------------------------------------------------

// pageResult は、1ページの取得・抽出ステップの明示的な結果型です。
// ページ単位の失敗は skipReason として返し、例外的な制御フローは使いません。
type pageResult struct {
	snippet    *types.Snippet
	nextLinks  []string
	skipReason string
}

// Run は、entryURL を起点にページ上限までクロールし、処理順の Snippet 列を返します。
// ページ単位の失敗はクロール全体には伝播せず、そのページだけが切り捨てられます。
func (c *Crawler) Run(ctx context.Context, entryURL string) ([]types.Snippet, error) {
	entry, err := url.Parse(entryURL)
	if err != nil {
		return nil, fmt.Errorf("エントリURLの解析に失敗しました (URL: %s): %w", entryURL, err)
	}
	if entry.Host == "" {
		return nil, fmt.Errorf("エントリURLにホストがありません: %s", entryURL)
	}

	// フロンティアはFIFO。ページ上限が小さいため線形走査の containment で十分。
	frontier := []string{entryURL}
	visited := make(map[string]bool)
	var snippets []types.Snippet

	for len(frontier) > 0 && len(visited) < c.cfg.PageBudget {
		current := frontier[0]
		frontier = frontier[1:]

		// 訪問済みURLはページ予算を消費せずに読み飛ばす
		if visited[current] {
			continue
		}
		visited[current] = true

		result := c.visitPage(ctx, current, current == entryURL, entry.Host)

		if result.skipReason != "" {
			if c.cfg.Verbose {
				log.Printf("ページをスキップしました (URL: %s): %s", current, result.skipReason)
			}
			continue
		}

		if result.snippet != nil {
			snippets = append(snippets, *result.snippet)
		}

		for _, link := range result.nextLinks {
			if !visited[link] && !contains(frontier, link) {
				frontier = append(frontier, link)
			}
		}
	}

	return snippets, nil
}

// visitPage は、1ページぶんの取得と抽出を実行します。
// PDFページは葉として扱い、そのテキストから更なるリンク探索は行いません。
func (c *Crawler) visitPage(ctx context.Context, pageURL string, isEntry bool, host string) pageResult {
	pageCtx, cancel := context.WithTimeout(ctx, c.cfg.PageTimeout)
	defer cancel()

	// PDFの分岐: テキストが空なら「Snippetなし」であってクロールの失敗ではない
	if score.IsPDF(pageURL) {
		data, err := c.fetcher.FetchBytes(pageCtx, pageURL)
		if err != nil {
			return pageResult{skipReason: fmt.Sprintf("PDFの取得失敗: %v", err)}
		}
		text := c.pdfText(data)
		if text == "" {
			return pageResult{skipReason: "PDFからテキストを抽出できませんでした"}
		}
		return pageResult{snippet: &types.Snippet{SourceURL: pageURL, Text: text}}
	}

	data, err := c.fetcher.FetchBytes(pageCtx, pageURL)
	if err != nil {
		return pageResult{skipReason: fmt.Sprintf("取得失敗: %v", err)}
	}

	htmlResult, err := c.html.ExtractHTML(data, pageURL)
	if err != nil {
		return pageResult{skipReason: fmt.Sprintf("抽出失敗: %v", err)}
	}

	links := htmlResult.Links
	if isEntry && c.feeds != nil {
		// フィード経由で発見したリンクもエントリページの候補集合に合流させ、
		// 以降は通常のスコアリングポリシーに委ねる
		links = append(links, c.feedItemLinks(pageCtx, htmlResult.Feeds)...)
	}

	var next []string
	if isEntry {
		next = topScoredLinks(links, host, entryLinkLimit)
	} else {
		next = positiveScoreLinks(links, host)
	}

	return pageResult{
		snippet:   &types.Snippet{SourceURL: pageURL, Text: htmlResult.Text},
		nextLinks: next,
	}
}

// feedItemLinks は、宣言されたフィードを取得・パースし、記事リンクを集めます。
// フィードの失敗はページの失敗と同様に握りつぶします。
func (c *Crawler) feedItemLinks(ctx context.Context, feedURLs []string) []string {
	var links []string
	for _, feedURL := range feedURLs {
		parsed, err := c.feeds.FetchAndParse(ctx, feedURL)
		if err != nil {
			if c.cfg.Verbose {
				log.Printf("フィードをスキップしました (URL: %s): %v", feedURL, err)
			}
			continue
		}
		links = append(links, feed.GetAllLinks(feed.NewFeedAdapter(parsed))...)
	}
	return links
}

// ----------------------------------------------------------------------
// リンク展開ポリシー
// ----------------------------------------------------------------------

// topScoredLinks は、エントリページ用の展開ポリシーです。
// 同一ドメインかつスコア正のリンクをスコア降順 (同点は発見順) に並べ、上位 limit 件を返します。
func topScoredLinks(links []string, host string, limit int) []string {
	candidates := dedupe(sameHostPositive(links, host))

	sort.SliceStable(candidates, func(i, j int) bool {
		return score.Score(candidates[i]) > score.Score(candidates[j])
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// positiveScoreLinks は、2ページ目以降の展開ポリシーです。
// 同一ドメインかつスコア正のリンクを、ページ上の発見順のまますべて返します。
// エントリページと異なり、並べ替えも件数制限も行いません。
func positiveScoreLinks(links []string, host string) []string {
	return dedupe(sameHostPositive(links, host))
}

// sameHostPositive は、ホストが一致しスコアが正のリンクだけを残します。
// ドメイン外のリンクはここで完全に破棄され、フロンティアにも訪問済み集合にも入りません。
func sameHostPositive(links []string, host string) []string {
	var kept []string
	for _, link := range links {
		parsed, err := url.Parse(link)
		if err != nil || parsed.Host != host {
			continue
		}
		if score.Score(link) > 0 {
			kept = append(kept, link)
		}
	}
	return kept
}

// dedupe は、最初の出現を残して重複を取り除きます (発見順を保存)。
func dedupe(links []string) []string {
	seen := make(map[string]bool, len(links))
	var unique []string
	for _, link := range links {
		if !seen[link] {
			seen[link] = true
			unique = append(unique, link)
		}
	}
	return unique
}

// contains は、フロンティア内の線形走査による containment チェックです。
func contains(frontier []string, target string) bool {
	for _, queued := range frontier {
		if queued == target {
			return true
		}
	}
	return false
}
