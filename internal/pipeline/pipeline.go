package pipeline

import (
	"context"

	"github.com/shouni/go-happyhour-scout/pkg/candidates"
	"github.com/shouni/go-happyhour-scout/pkg/crawl"
	"github.com/shouni/go-happyhour-scout/pkg/feed"
	"github.com/shouni/go-happyhour-scout/pkg/llm"
	"github.com/shouni/go-happyhour-scout/pkg/types"
)

// Fetcher は、パイプライン全体で共有するトランスポートのインターフェースです。
// クローラとフィードパーサーの両方の要件を満たします。
type Fetcher interface {
	crawl.Fetcher
	feed.Fetcher
}

// CollectCandidates は、エントリURLを起点としたクロールと候補抜粋の選定までを
// 実行します (抽出コラボレーターは関与しません)。
func CollectCandidates(ctx context.Context, fetcher Fetcher, cfg crawl.Config, entryURL string) ([]types.Candidate, error) {
	crawler, err := crawl.New(fetcher, cfg)
	if err != nil {
		return nil, err
	}
	crawler.WithFeedParser(feed.NewParser(fetcher))

	snippets, err := crawler.Run(ctx, entryURL)
	if err != nil {
		return nil, err
	}

	return candidates.Select(snippets), nil
}

// RunHappyHour は、クロールから抽出コラボレーターまでの全パイプラインを実行し、
// 最終のJSONオブジェクトに相当する結果を返します。
func RunHappyHour(ctx context.Context, fetcher Fetcher, crawlCfg crawl.Config, llmCfg llm.Config, entryURL string) (types.Result, error) {
	cands, err := CollectCandidates(ctx, fetcher, crawlCfg, entryURL)
	if err != nil {
		return types.Result{}, err
	}

	extractor, err := llm.New(llmCfg)
	if err != nil {
		return types.Result{}, err
	}

	return extractor.Extract(ctx, cands)
}
