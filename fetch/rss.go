package fetch

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/poiesic/recall/core"
)

// RSS feeds publish on slower cadences than aggregators, so the
// default window is a week.
const defaultRSSLookback = 168 * time.Hour

// RSSAdapter fetches items from a set of RSS/Atom feeds.
type RSSAdapter struct {
	feedURLs []string
	parser   *gofeed.Parser
	logger   *slog.Logger
}

var _ SourceAdapter = (*RSSAdapter)(nil)

// RSSOption configures an RSSAdapter.
type RSSOption func(*RSSAdapter)

// WithRSSLogger sets a custom logger. Default is slog.Default().
func WithRSSLogger(logger *slog.Logger) RSSOption {
	return func(a *RSSAdapter) {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
	}
}

// WithRSSUserAgent sets the User-Agent header sent to feed servers.
func WithRSSUserAgent(userAgent string) RSSOption {
	return func(a *RSSAdapter) {
		a.parser.UserAgent = userAgent
	}
}

// NewRSSAdapter creates an RSS source adapter for the given feeds.
// A nil or empty feed list selects DefaultRSSFeeds.
func NewRSSAdapter(feedURLs []string, opts ...RSSOption) *RSSAdapter {
	if len(feedURLs) == 0 {
		feedURLs = DefaultRSSFeeds
	}
	a := &RSSAdapter{
		feedURLs: feedURLs,
		parser:   gofeed.NewParser(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Source identifies this adapter as the RSS source.
func (a *RSSAdapter) Source() core.Source {
	return core.SourceRSS
}

// FetchItems retrieves entries published within the lookback window.
// A failing feed is logged and skipped so the remaining feeds still
// contribute.
func (a *RSSAdapter) FetchItems(ctx context.Context, lookback time.Duration) ([]core.RawItem, error) {
	if lookback <= 0 {
		lookback = defaultRSSLookback
	}
	a.logger.Info("fetching rss feeds", "feeds", len(a.feedURLs), "lookback", lookback)

	items := fetchFeeds(ctx, a.parser, a.feedURLs, a.logger, lookback, core.SourceRSS)

	a.logger.Info("fetched rss items", "count", len(items))
	return items, nil
}

// fetchFeeds pulls every feed through the parser and converts entries
// newer than the cutoff. Shared by the RSS and Reddit adapters.
func fetchFeeds(ctx context.Context, parser *gofeed.Parser, feedURLs []string, logger *slog.Logger, lookback time.Duration, source core.Source) []core.RawItem {
	var items []core.RawItem
	cutoff := time.Now().UTC().Add(-lookback)

	for _, feedURL := range feedURLs {
		feed, err := parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			logger.Warn("failed to fetch feed", "url", feedURL, "err", err)
			continue
		}

		for _, entry := range feed.Items {
			item := feedEntryToItem(feed, entry, source)
			if item.PublishedAt.Before(cutoff) {
				continue
			}
			items = append(items, item)
		}
	}

	return items
}

// feedEntryToItem converts one feed entry to a RawItem.
func feedEntryToItem(feed *gofeed.Feed, entry *gofeed.Item, source core.Source) core.RawItem {
	publishedAt := time.Now().UTC()
	if entry.PublishedParsed != nil {
		publishedAt = entry.PublishedParsed.UTC()
	} else if entry.UpdatedParsed != nil {
		publishedAt = entry.UpdatedParsed.UTC()
	}

	content := entry.Description
	if content == "" {
		content = entry.Content
	}

	author := feed.Title
	if entry.Author != nil && entry.Author.Name != "" {
		author = entry.Author.Name
	}

	externalID := entry.GUID
	if externalID == "" {
		externalID = entry.Link
	}

	return core.RawItem{
		Source:      source,
		ExternalID:  externalID,
		Title:       entry.Title,
		URL:         entry.Link,
		Content:     content,
		Author:      author,
		PublishedAt: publishedAt,
		FetchedAt:   time.Now().UTC(),
	}
}
