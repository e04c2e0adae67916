package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-happyhour-scout/pkg/retry"
)

// ----------------------------------------------------------------------
// 定数とインターフェース
// ----------------------------------------------------------------------

const (
	// DefaultHTTPTimeout は、デフォルトのHTTPタイムアウトです。
	DefaultHTTPTimeout = 10 * time.Second

	// MaxBodySize は、レスポンスボディの最大読み込みサイズです。
	MaxBodySize = int64(10 * 1024 * 1024) // 10MB

	// UserAgent は、すべてのリクエストに付与するカスタムUser-Agentです。
	// サイトからのブロックを避けるためブラウザ相当の値を使用します。
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Doer は、標準の *http.Client.Do() と互換性のあるHTTPクライアントのインターフェースです。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NonRetryableHTTPError は、HTTP 4xx系のステータスコードエラーを示すカスタムエラー型です。
type NonRetryableHTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *NonRetryableHTTPError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("HTTPクライアントエラー (非リトライ対象): ステータスコード %d, ボディ: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
	}
	return fmt.Sprintf("HTTPクライアントエラー (非リトライ対象): ステータスコード %d, ボディなし", e.StatusCode)
}

// ----------------------------------------------------------------------
// 設定とコンストラクタ
// ----------------------------------------------------------------------

// Client は、HTTPのGETリクエストと指数バックオフによるリトライロジックを管理します。
type Client struct {
	httpClient  Doer
	retryConfig retry.Config
	userAgent   string
}

// Option は、Clientの設定を行うための関数型です。
type Option func(*Client)

// WithHTTPClient は、カスタムのDoerを設定します (主にテスト用途)。
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithMaxRetries は、最大リトライ回数を設定します。
func WithMaxRetries(max uint64) Option {
	return func(c *Client) {
		c.retryConfig.MaxRetries = max
	}
}

// WithUserAgent は、User-Agentヘッダーを差し替えます。
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New は、新しいClientを生成します。timeout が 0 以下の場合はデフォルト値を適用します。
func New(timeout time.Duration, options ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryConfig: retry.DefaultConfig(),
		userAgent:   UserAgent,
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// ----------------------------------------------------------------------
// メイン関数
// ----------------------------------------------------------------------

// FetchBytes は、URLからコンテンツを取得し、生のバイト配列として返します。
// リトライの総時間は ctx によって打ち切られます。
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	var bodyBytes []byte

	op := func() error {
		var fetchErr error
		bodyBytes, fetchErr = c.doFetch(ctx, url)
		return fetchErr
	}

	err := retry.Do(
		ctx,
		c.retryConfig,
		fmt.Sprintf("URL(%s)のフェッチ", url),
		op,
		isHTTPRetryableError,
	)

	if err != nil {
		return nil, err
	}
	return bodyBytes, nil
}

// doFetch は、実際の一度のHTTP GETリクエストを実行し、レスポンスボディを返します。
func (c *Client) doFetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("GETリクエスト作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗しました (ネットワーク/接続エラー): %w", err)
	}

	defer resp.Body.Close()

	if err := checkResponseForRetry(resp); err != nil {
		return nil, err
	}

	limitedReader := io.LimitReader(resp.Body, MaxBodySize)
	bodyBytes, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました: %w", err)
	}

	return bodyBytes, nil
}

// checkResponseForRetry は、ステータスコードを評価し、リトライすべきエラーか、
// 非リトライ対象のエラーかを返します。ボディを閉じる責務は呼び出し元にあります。
func checkResponseForRetry(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	limitedReader := io.LimitReader(resp.Body, MaxBodySize)
	bodyBytes, readErr := io.ReadAll(limitedReader)

	// 5xx 系: リトライ対象のサーバーエラー
	if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
		if readErr != nil {
			return fmt.Errorf("HTTPステータスコードエラー (5xx リトライ対象, ボディ読み込み失敗): %d, 原因: %w", resp.StatusCode, readErr)
		}
		return fmt.Errorf("HTTPステータスコードエラー (5xx リトライ対象): %d, 詳細: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	// 4xx 系: 非リトライ対象のクライアントエラー
	if readErr != nil {
		return &NonRetryableHTTPError{
			StatusCode: resp.StatusCode,
		}
	}
	return &NonRetryableHTTPError{
		StatusCode: resp.StatusCode,
		Body:       bodyBytes,
	}
}

// IsNonRetryableError は、与えられたエラーが非リトライ対象のHTTPエラーであるかを判断します。
func IsNonRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var nonRetryable *NonRetryableHTTPError
	return errors.As(err, &nonRetryable)
}

// isHTTPRetryableError は、エラーがHTTPリトライ対象かどうかを判定します。
// retry.ShouldRetryFunc 型のシグネチャを満たします。
func isHTTPRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// 非リトライ対象エラー (4xx) はリトライしない
	if IsNonRetryableError(err) {
		return false
	}

	// コンテキストの打ち切りはリトライしても成功しない
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// 5xxエラーやネットワークエラーはすべてリトライ対象
	return true
}
