package httpclient_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/shouni/go-happyhour-scout/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ======================================================================
// モック (Mock) の定義
// ======================================================================

// scriptedResponse は、MockDoer が1回の呼び出しで返す応答を表します。
type scriptedResponse struct {
	statusCode int
	body       string
	err        error
}

// MockDoer は、呼び出し順に固定の応答を返す httpclient.Doer 実装です。
type MockDoer struct {
	script   []scriptedResponse
	requests []*http.Request
}

func (m *MockDoer) Do(req *http.Request) (*http.Response, error) {
	m.requests = append(m.requests, req)

	idx := len(m.requests) - 1
	if idx >= len(m.script) {
		idx = len(m.script) - 1 // 最後の応答を繰り返す
	}
	res := m.script[idx]

	if res.err != nil {
		return nil, res.err
	}
	return &http.Response{
		StatusCode: res.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(res.body)),
	}, nil
}

// ======================================================================
// テスト関数
// ======================================================================

func TestFetchBytes_Success(t *testing.T) {
	mock := &MockDoer{script: []scriptedResponse{
		{statusCode: http.StatusOK, body: "<html>hello</html>"},
	}}
	client := httpclient.New(0, httpclient.WithHTTPClient(mock))

	body, err := client.FetchBytes(context.Background(), "https://site.test/")

	require.NoError(t, err)
	assert.Equal(t, []byte("<html>hello</html>"), body)
	require.Len(t, mock.requests, 1)
	assert.Equal(t, httpclient.UserAgent, mock.requests[0].Header.Get("User-Agent"),
		"User-Agentヘッダーが設定されていません")
	assert.Equal(t, http.MethodGet, mock.requests[0].Method)
}

func TestFetchBytes_ClientErrorIsNotRetried(t *testing.T) {
	mock := &MockDoer{script: []scriptedResponse{
		{statusCode: http.StatusNotFound, body: "not found"},
	}}
	client := httpclient.New(0,
		httpclient.WithHTTPClient(mock),
		httpclient.WithMaxRetries(3),
	)

	body, err := client.FetchBytes(context.Background(), "https://site.test/missing")

	require.Error(t, err)
	assert.Nil(t, body)
	assert.Len(t, mock.requests, 1, "4xxエラーがリトライされています")
	assert.True(t, httpclient.IsNonRetryableError(err), "エラー型がNonRetryableHTTPErrorではありません")

	var httpErr *httpclient.NonRetryableHTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestFetchBytes_ServerErrorIsRetried(t *testing.T) {
	t.Run("リトライ上限まで試行して失敗", func(t *testing.T) {
		mock := &MockDoer{script: []scriptedResponse{
			{statusCode: http.StatusInternalServerError, body: "boom"},
		}}
		client := httpclient.New(0,
			httpclient.WithHTTPClient(mock),
			httpclient.WithMaxRetries(1),
		)

		_, err := client.FetchBytes(context.Background(), "https://site.test/")

		require.Error(t, err)
		assert.Len(t, mock.requests, 2, "初回 + リトライ1回の計2回試行されるべきです")
		assert.False(t, httpclient.IsNonRetryableError(err))
	})

	t.Run("リトライで回復して成功", func(t *testing.T) {
		mock := &MockDoer{script: []scriptedResponse{
			{statusCode: http.StatusServiceUnavailable, body: "try later"},
			{statusCode: http.StatusOK, body: "recovered"},
		}}
		client := httpclient.New(0,
			httpclient.WithHTTPClient(mock),
			httpclient.WithMaxRetries(1),
		)

		body, err := client.FetchBytes(context.Background(), "https://site.test/")

		require.NoError(t, err)
		assert.Equal(t, []byte("recovered"), body)
		assert.Len(t, mock.requests, 2)
	})
}

func TestFetchBytes_NetworkErrorIsRetried(t *testing.T) {
	mock := &MockDoer{script: []scriptedResponse{
		{err: errors.New("connection refused")},
		{statusCode: http.StatusOK, body: "ok"},
	}}
	client := httpclient.New(0,
		httpclient.WithHTTPClient(mock),
		httpclient.WithMaxRetries(1),
	)

	body, err := client.FetchBytes(context.Background(), "https://site.test/")

	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), body)
	assert.Len(t, mock.requests, 2)
}

func TestFetchBytes_ContextCancellation(t *testing.T) {
	mock := &MockDoer{script: []scriptedResponse{
		{err: context.Canceled},
	}}
	client := httpclient.New(0,
		httpclient.WithHTTPClient(mock),
		httpclient.WithMaxRetries(3),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchBytes(ctx, "https://site.test/")

	require.Error(t, err)
	assert.Len(t, mock.requests, 1, "キャンセル済みコンテキストでリトライされています")
}

func TestWithUserAgent(t *testing.T) {
	mock := &MockDoer{script: []scriptedResponse{
		{statusCode: http.StatusOK, body: "ok"},
	}}
	client := httpclient.New(0,
		httpclient.WithHTTPClient(mock),
		httpclient.WithUserAgent("custom-agent/1.0"),
	)

	_, err := client.FetchBytes(context.Background(), "https://site.test/")

	require.NoError(t, err)
	require.Len(t, mock.requests, 1)
	assert.Equal(t, "custom-agent/1.0", mock.requests[0].Header.Get("User-Agent"))
}

func TestNonRetryableHTTPError_Error(t *testing.T) {
	t.Run("ボディあり", func(t *testing.T) {
		err := &httpclient.NonRetryableHTTPError{StatusCode: 403, Body: []byte("forbidden\n")}
		assert.Contains(t, err.Error(), "403")
		assert.Contains(t, err.Error(), "forbidden")
	})

	t.Run("ボディなし", func(t *testing.T) {
		err := &httpclient.NonRetryableHTTPError{StatusCode: 404}
		assert.Contains(t, err.Error(), "404")
		assert.Contains(t, err.Error(), "ボディなし")
	})
}
