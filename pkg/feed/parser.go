package feed

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// Fetcher は、Parserが依存するべき取得機能のインターフェースです。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Parser は、フィード (RSS/Atom) の取得とパースを担当します。
type Parser struct {
	client Fetcher // インターフェースに依存
}

// NewParser は、新しい Parser インスタンスを初期化し、依存関係を注入します。
func NewParser(client Fetcher) *Parser {
	return &Parser{client: client}
}

// FetchAndParse は、指定されたURLからフィードを取得し、パースします。
func (p *Parser) FetchAndParse(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	body, err := p.client.FetchBytes(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("フィードの取得失敗 (URL: %s): %w", feedURL, err)
	}

	fp := gofeed.NewParser()
	parsed, parseErr := fp.Parse(bytes.NewReader(body))
	if parseErr != nil {
		return nil, fmt.Errorf("フィードのパース失敗 (URL: %s): %w", feedURL, parseErr)
	}
	return parsed, nil
}
