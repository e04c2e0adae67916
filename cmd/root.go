package cmd

import (
	"log"
	"time"

	clibase "github.com/shouni/go-cli-base"

	"github.com/shouni/go-happyhour-scout/pkg/httpclient"
	"github.com/spf13/cobra"
)

// --- グローバル定数 ---

const (
	appName           = "happyhour-scout"
	defaultTimeoutSec = 10 // 秒 (ページ単位の取得タイムアウト)
	defaultMaxRetries = 2  // デフォルトのリトライ回数
)

// --- グローバル変数とフラグ構造体 ---

// AppFlags はこのアプリケーション固有の永続フラグを保持
type AppFlags struct {
	TimeoutSec int // --timeout タイムアウト
	MaxRetries int // --max-retries リトライ回数
}

var Flags AppFlags // アプリケーション固有フラグにアクセスするためのグローバル変数
var globalFetcher *httpclient.Client

// --- 初期化とロジック (clibaseへのコールバックとして利用) ---

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加します。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().IntVar(
		&Flags.TimeoutSec,
		"timeout",
		defaultTimeoutSec,
		"HTTPリクエストのタイムアウト時間（秒）",
	)
	rootCmd.PersistentFlags().IntVar(
		&Flags.MaxRetries,
		"max-retries",
		defaultMaxRetries,
		"HTTPリクエストのリトライ最大回数",
	)
}

// initAppPreRunE は、clibase共通処理の後に実行される、アプリケーション固有のPersistentPreRunEです。
// NOTE: clibaseの PersistentPreRunE チェーンにより、clibase.Flags.Verbose はこの関数実行前に設定済み
func initAppPreRunE(cmd *cobra.Command, args []string) error {

	timeout := time.Duration(Flags.TimeoutSec) * time.Second

	if clibase.Flags.Verbose {
		log.Printf("HTTPクライアントのタイムアウトを設定しました (Timeout: %s)。", timeout)
		log.Printf("HTTPクライアントのリトライ回数を設定しました (MaxRetries: %d)。", Flags.MaxRetries)
	}

	// 共有フェッチャーの初期化
	globalFetcher = httpclient.New(
		timeout,
		httpclient.WithMaxRetries(uint64(Flags.MaxRetries)),
	)

	return nil
}

// GetGlobalFetcher は、初期化されたフェッチャーを返す関数 (DIの代わり)
func GetGlobalFetcher() *httpclient.Client {
	return globalFetcher
}

// --- エントリポイント ---

// Execute は、clibaseを使用してアプリケーションの初期化、フラグ設定、
// サブコマンドの登録を一括で行います。
func Execute() {
	clibase.Execute(
		appName,
		addAppPersistentFlags, // カスタムフラグの追加コールバック
		initAppPreRunE,        // カスタムPersistentPreRunEコールバック
		huntCmd,
		scanCmd,
	)
	// clibase.Execute() の中で os.Exit(1) が処理されるため、ここでは不要
}
