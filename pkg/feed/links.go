package feed

import (
	"github.com/mmcdole/gofeed"
)

// 汎用抽出のためのインターフェースとアダプター

// LinkSource は、リンクの一覧を提供できる任意の型を表します。
// このインターフェースが gofeed への依存を閉じ込める境界線となります。
type LinkSource interface {
	GetLinks() []string
}

// FeedAdapter は、gofeed.Feed を LinkSource に適合させるためのアダプターです。
type FeedAdapter struct {
	*gofeed.Feed
}

// NewFeedAdapter は、gofeed.Feed から新しいアダプターを作成します。
func NewFeedAdapter(feed *gofeed.Feed) *FeedAdapter {
	return &FeedAdapter{Feed: feed}
}

// GetLinks は LinkSource インターフェースを満たし、各記事のリンクを抽出します。
func (a *FeedAdapter) GetLinks() []string {
	if a.Feed == nil || len(a.Items) == 0 {
		return []string{}
	}

	urls := make([]string, 0, len(a.Items))
	for _, item := range a.Items {
		if item.Link != "" {
			urls = append(urls, item.Link)
		}
	}
	return urls
}

// GetAllLinks は、LinkSource からリンクを抽出する汎用関数です。
// 呼び出し側は LinkSource 実装の詳細を知る必要がありません。
func GetAllLinks(source LinkSource) []string {
	if source == nil {
		return []string{}
	}
	return source.GetLinks()
}
