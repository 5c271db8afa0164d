package fetch

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/poiesic/recall/core"
)

const defaultRedditLookback = 24 * time.Hour

// Reddit serves a bot-check page to unknown clients; a browser
// User-Agent keeps the .rss endpoints readable.
const redditUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// RedditAdapter fetches posts from subreddit .rss feeds.
type RedditAdapter struct {
	feedURLs []string
	parser   *gofeed.Parser
	logger   *slog.Logger
}

var _ SourceAdapter = (*RedditAdapter)(nil)

// RedditOption configures a RedditAdapter.
type RedditOption func(*RedditAdapter)

// WithRedditLogger sets a custom logger. Default is slog.Default().
func WithRedditLogger(logger *slog.Logger) RedditOption {
	return func(a *RedditAdapter) {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
	}
}

// NewRedditAdapter creates a Reddit source adapter for the given
// subreddit feeds. A nil or empty feed list selects DefaultSubreddits.
func NewRedditAdapter(feedURLs []string, opts ...RedditOption) *RedditAdapter {
	if len(feedURLs) == 0 {
		feedURLs = DefaultSubreddits
	}
	parser := gofeed.NewParser()
	parser.UserAgent = redditUserAgent

	a := &RedditAdapter{
		feedURLs: feedURLs,
		parser:   parser,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Source identifies this adapter as the Reddit source.
func (a *RedditAdapter) Source() core.Source {
	return core.SourceReddit
}

// FetchItems retrieves posts published within the lookback window.
// A failing subreddit is logged and skipped.
func (a *RedditAdapter) FetchItems(ctx context.Context, lookback time.Duration) ([]core.RawItem, error) {
	if lookback <= 0 {
		lookback = defaultRedditLookback
	}
	a.logger.Info("fetching reddit feeds", "feeds", len(a.feedURLs), "lookback", lookback)

	items := fetchFeeds(ctx, a.parser, a.feedURLs, a.logger, lookback, core.SourceReddit)

	a.logger.Info("fetched reddit items", "count", len(items))
	return items, nil
}
