package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/go-happyhour-scout/internal/pipeline"
	"github.com/shouni/go-happyhour-scout/pkg/crawl"
	"github.com/shouni/go-happyhour-scout/pkg/llm"
)

// コマンドラインフラグ変数を定義
var (
	huntMaxPages int    // --max-pages 訪問ページ数の上限
	huntModel    string // --model 抽出に使用するモデル
)

// llmTimeout は、クロール完了後の抽出コラボレーター呼び出しに割り当てる時間です。
const llmTimeout = 60 * time.Second

// overallHuntTimeout は、パイプライン全体のタイムアウトを計算します。
// クロールの上限 (ページ予算 × ページタイムアウト) に抽出の時間を加えたものです。
func overallHuntTimeout(maxPages int) time.Duration {
	if maxPages <= 0 {
		maxPages = crawl.DefaultPageBudget
	}
	pageTimeout := time.Duration(Flags.TimeoutSec) * time.Second
	if Flags.TimeoutSec <= 0 {
		pageTimeout = crawl.DefaultPageTimeout
	}
	return time.Duration(maxPages)*pageTimeout + llmTimeout
}

var huntCmd = &cobra.Command{
	Use:   "hunt [URL]",
	Short: "エントリURLを起点にサイトをクロールし、ハッピーアワー情報をJSONで出力します",
	Long: `エントリURLから到達可能な同一ドメインのページを有界クロールし、
ハッピーアワー情報を含む可能性が高い抜粋を抽出コラボレーター (OpenAI API) へ渡して、
構造化されたJSONオブジェクトを標準出力へ書き出します。OPENAI_API_KEY が必要です。`,
	Args: cobra.MaximumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {

		// 1. セットアップエラーの検査 (致命的: クロールは開始しない)
		if len(args) == 0 {
			return failWithJSON(fmt.Errorf("No URL provided"))
		}

		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return failWithJSON(fmt.Errorf("OPENAI_API_KEY environment variable not set"))
		}

		entryURL, err := ensureScheme(args[0])
		if err != nil {
			return failWithJSON(err)
		}

		// 2. 依存性の初期化
		fetcher := GetGlobalFetcher()
		if fetcher == nil {
			return failWithJSON(fmt.Errorf("HTTPクライアントが初期化されていません"))
		}

		crawlCfg := crawl.Config{
			PageBudget:  huntMaxPages,
			PageTimeout: time.Duration(Flags.TimeoutSec) * time.Second,
			Verbose:     clibase.Flags.Verbose,
		}
		llmCfg := llm.Config{
			APIKey: apiKey,
			Model:  huntModel,
		}

		// 3. 全体処理のコンテキストを設定
		overallTimeout := overallHuntTimeout(crawlCfg.PageBudget)
		ctx, cancel := context.WithTimeout(context.Background(), overallTimeout)
		defer cancel()

		if clibase.Flags.Verbose {
			log.Printf("処理対象URL: %s (全体タイムアウト: %s)", entryURL, overallTimeout)
		}

		// 4. メインロジックの実行
		result, err := pipeline.RunHappyHour(ctx, fetcher, crawlCfg, llmCfg, entryURL)
		if err != nil {
			return failWithJSON(err)
		}

		// 5. 結果の出力
		return printJSON(result)
	},
}

func init() {
	huntCmd.Flags().IntVar(&huntMaxPages, "max-pages", crawl.DefaultPageBudget,
		"1回のクロールで訪問するページ数の上限")
	huntCmd.Flags().StringVar(&huntModel, "model", llm.DefaultModel,
		"抽出に使用するモデル名")
}
