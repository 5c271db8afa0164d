package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/recall/core"
)

const (
	defaultHNBaseURL  = "https://hacker-news.firebaseio.com/v0"
	defaultHNLookback = 24 * time.Hour

	// First 30 stories from each list keeps the fetch fast but broad.
	hnStoriesPerList = 30

	hnFetchWorkers = 8
)

var hnStoryLists = []string{"topstories", "showstories"}

// HackerNewsAdapter fetches stories from the Hacker News Firebase API.
type HackerNewsAdapter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

var _ SourceAdapter = (*HackerNewsAdapter)(nil)

// HNOption configures a HackerNewsAdapter.
type HNOption func(*HackerNewsAdapter)

// WithHNBaseURL overrides the Firebase API base URL. Used in tests.
func WithHNBaseURL(baseURL string) HNOption {
	return func(a *HackerNewsAdapter) {
		a.baseURL = baseURL
	}
}

// WithHNHTTPClient sets a custom HTTP client.
func WithHNHTTPClient(client *http.Client) HNOption {
	return func(a *HackerNewsAdapter) {
		a.client = client
	}
}

// WithHNLogger sets a custom logger. Default is slog.Default().
func WithHNLogger(logger *slog.Logger) HNOption {
	return func(a *HackerNewsAdapter) {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
	}
}

// NewHackerNewsAdapter creates a Hacker News source adapter.
func NewHackerNewsAdapter(opts ...HNOption) *HackerNewsAdapter {
	a := &HackerNewsAdapter{
		baseURL: defaultHNBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Source identifies this adapter as the Hacker News source.
func (a *HackerNewsAdapter) Source() core.Source {
	return core.SourceHackerNews
}

// hnStory is the Firebase API item payload.
type hnStory struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
}

// FetchItems retrieves top and show stories published within the
// lookback window. Individual story failures are logged and skipped.
func (a *HackerNewsAdapter) FetchItems(ctx context.Context, lookback time.Duration) ([]core.RawItem, error) {
	if lookback <= 0 {
		lookback = defaultHNLookback
	}
	a.logger.Info("fetching hacker news stories", "lookback", lookback)

	ids, err := a.fetchStoryIDs(ctx)
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(hnFetchWorkers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		items []core.RawItem
	)
	cutoff := time.Now().UTC().Add(-lookback)

	for _, id := range ids {
		id := id
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			item, err := a.fetchStory(ctx, id)
			if err != nil {
				a.logger.Warn("failed to fetch story", "id", id, "err", err)
				return
			}
			if item == nil || item.PublishedAt.Before(cutoff) {
				return
			}
			mu.Lock()
			items = append(items, *item)
			mu.Unlock()
		}); err != nil {
			wg.Done()
			return nil, err
		}
	}
	wg.Wait()

	a.logger.Info("fetched hacker news stories", "count", len(items))
	return items, nil
}

// fetchStoryIDs collects the deduplicated story IDs across the tracked
// lists, capped per list.
func (a *HackerNewsAdapter) fetchStoryIDs(ctx context.Context) ([]int, error) {
	seen := make(map[int]bool)
	var ids []int

	for _, list := range hnStoryLists {
		var listIDs []int
		if err := a.getJSON(ctx, fmt.Sprintf("%s/%s.json", a.baseURL, list), &listIDs); err != nil {
			a.logger.Warn("failed to fetch story list", "list", list, "err", err)
			continue
		}
		if len(listIDs) > hnStoriesPerList {
			listIDs = listIDs[:hnStoriesPerList]
		}
		for _, id := range listIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no story lists reachable", ErrSourceUnavailable)
	}
	return ids, nil
}

// fetchStory retrieves one story. Non-story items (jobs, polls,
// comments) return nil without error.
func (a *HackerNewsAdapter) fetchStory(ctx context.Context, id int) (*core.RawItem, error) {
	var story hnStory
	if err := a.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", a.baseURL, id), &story); err != nil {
		return nil, err
	}
	if story.Type != "story" {
		return nil, nil
	}

	url := story.URL
	if url == "" {
		// Ask HN and text posts have no external URL
		url = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", id)
	}

	return &core.RawItem{
		Source:      core.SourceHackerNews,
		ExternalID:  fmt.Sprintf("%d", id),
		Title:       story.Title,
		URL:         url,
		Content:     story.Text,
		Author:      story.By,
		SourceScore: story.Score,
		PublishedAt: time.Unix(story.Time, 0).UTC(),
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func (a *HackerNewsAdapter) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", ErrSourceUnavailable, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
