package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/go-happyhour-scout/internal/pipeline"
	"github.com/shouni/go-happyhour-scout/pkg/crawl"
	"github.com/shouni/go-happyhour-scout/pkg/types"
)

var scanMaxPages int // --max-pages 訪問ページ数の上限

var scanCmd = &cobra.Command{
	Use:   "scan [URL]",
	Short: "クロールと候補抜粋の選定までを実行し、抜粋の一覧をJSONで出力します",
	Long: `エントリURLを起点とした有界クロールとパターンマッチによる候補選定だけを実行し、
抽出コラボレーターへ渡される予定の抜粋一覧を標準出力へ書き出します。
APIキーを必要としないため、クロール対象やスコアリングの挙動確認に使えます。`,
	Args: cobra.MaximumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {

		if len(args) == 0 {
			return failWithJSON(fmt.Errorf("No URL provided"))
		}

		entryURL, err := ensureScheme(args[0])
		if err != nil {
			return failWithJSON(err)
		}

		fetcher := GetGlobalFetcher()
		if fetcher == nil {
			return failWithJSON(fmt.Errorf("HTTPクライアントが初期化されていません"))
		}

		crawlCfg := crawl.Config{
			PageBudget:  scanMaxPages,
			PageTimeout: time.Duration(Flags.TimeoutSec) * time.Second,
			Verbose:     clibase.Flags.Verbose,
		}

		overallTimeout := overallHuntTimeout(crawlCfg.PageBudget)
		ctx, cancel := context.WithTimeout(context.Background(), overallTimeout)
		defer cancel()

		if clibase.Flags.Verbose {
			log.Printf("処理対象URL: %s (全体タイムアウト: %s)", entryURL, overallTimeout)
		}

		cands, err := pipeline.CollectCandidates(ctx, fetcher, crawlCfg, entryURL)
		if err != nil {
			return failWithJSON(err)
		}
		if cands == nil {
			cands = []types.Candidate{}
		}

		return printJSON(cands)
	},
}

func init() {
	scanCmd.Flags().IntVar(&scanMaxPages, "max-pages", crawl.DefaultPageBudget,
		"1回のクロールで訪問するページ数の上限")
}
