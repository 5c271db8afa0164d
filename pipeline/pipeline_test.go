package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/fetch"
	"github.com/poiesic/recall/storage"
	badgerstore "github.com/poiesic/recall/storage/badger"
)

type stubAdapter struct {
	source core.Source
	items  []core.RawItem
	called bool
}

func (s *stubAdapter) Source() core.Source { return s.source }

func (s *stubAdapter) FetchItems(ctx context.Context, lookback time.Duration) ([]core.RawItem, error) {
	s.called = true
	return s.items, nil
}

// pipelineFixture wires a full pipeline against in-memory storage and
// a keyword-routed mock provider: texts mentioning "alpha" embed onto
// the ALPHA anchor, "beta" onto BETA, everything else orthogonal to
// both.
func pipelineFixture(t *testing.T, adapters ...fetch.SourceAdapter) (*Pipeline, storage.ItemRepository, storage.PreferenceRepository, storage.DigestRepository, *mock.MockScorer) {
	t.Helper()

	items, prefs, digests, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			lower := strings.ToLower(text)
			switch {
			case strings.Contains(lower, "alpha"):
				vectors[i] = []float32{1, 0, 0}
			case strings.Contains(lower, "beta"):
				vectors[i] = []float32{0, 1, 0}
			default:
				vectors[i] = []float32{0, 0, 1}
			}
		}
		return vectors, nil
	}

	scorer := mock.NewMockScorer()
	keep := keepAllScorer(8)
	scorer.GenerateTextFunc = func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "INPUT ITEMS:") {
			return keep(ctx, prompt)
		}
		return "A productive day in both topics.", nil
	}

	cfg := DefaultConfig()
	cfg.Personas = []core.PersonaProfile{
		{
			Id: "ALPHA", Title: "Alpha Topics",
			Brief:      "You are the alpha analyst.",
			AnchorText: "alpha anchor interests",
			MinRelevance: 0.35, EvalThreshold: 0.15,
			MinScore: 4, TopK: 5, Enabled: true,
		},
		{
			Id: "BETA", Title: "Beta Topics",
			Brief:      "You are the beta analyst.",
			AnchorText: "beta anchor interests",
			MinRelevance: 0.35, EvalThreshold: 0.15,
			MinScore: 4, TopK: 5, Enabled: true,
		},
	}

	pipeline, err := NewPipeline(items, prefs, digests,
		mock.NewMockProviderWithServices(embedder, scorer),
		WithConfig(cfg),
		WithAdapters(adapters...),
	)
	require.NoError(t, err)

	return pipeline, items, prefs, digests, scorer
}

func rawStory(title, url string) core.RawItem {
	return core.RawItem{
		Source: core.SourceHackerNews,
		Title:  title,
		URL:    url,
	}
}

func TestPipelineRun(t *testing.T) {
	adapter := &stubAdapter{source: core.SourceHackerNews, items: []core.RawItem{
		rawStory("Major alpha breakthrough", "https://example.com/alpha"),
		rawStory("New beta development", "https://example.com/beta"),
		rawStory("Unrelated gossip", "https://example.com/gossip"),
	}}

	pipeline, items, _, digests, _ := pipelineFixture(t, adapter)
	ctx := context.Background()

	digest, err := pipeline.Run(ctx)
	require.NoError(t, err)

	// Each relevant item landed in exactly its matching section; the
	// irrelevant one was filtered before any evaluation.
	assert.Contains(t, digest.Markdown, "## Alpha Topics")
	assert.Contains(t, digest.Markdown, "Major alpha breakthrough")
	assert.Contains(t, digest.Markdown, "## Beta Topics")
	assert.Contains(t, digest.Markdown, "New beta development")
	assert.NotContains(t, digest.Markdown, "Unrelated gossip")
	assert.Contains(t, digest.Markdown, "> A productive day in both topics.")

	// The relevant items were persisted, the irrelevant one was not.
	_, err = items.GetItem(ctx, core.IDFromContent("https://example.com/alpha"))
	require.NoError(t, err)
	_, err = items.GetItem(ctx, core.IDFromContent("https://example.com/gossip"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// The digest was persisted under its run date.
	markdown, err := digests.GetDigest(ctx, digest.Date)
	require.NoError(t, err)
	assert.Equal(t, digest.Markdown, markdown)
}

// A second run over the same feed window ingests nothing new but still
// produces a digest from the stored candidates.
func TestPipelineRunIsIdempotent(t *testing.T) {
	adapter := &stubAdapter{source: core.SourceHackerNews, items: []core.RawItem{
		rawStory("Major alpha breakthrough", "https://example.com/alpha"),
	}}

	pipeline, _, _, _, _ := pipelineFixture(t, adapter)
	ctx := context.Background()

	first, err := pipeline.Run(ctx)
	require.NoError(t, err)

	cfg, err := pipeline.Snapshot(ctx)
	require.NoError(t, err)
	accepted, stats, err := pipeline.Ingest(ctx, &cfg)
	require.NoError(t, err)
	assert.Empty(t, accepted)
	assert.Equal(t, 1, stats.Duplicates)

	second, err := pipeline.Generate(ctx, &cfg, accepted)
	require.NoError(t, err)
	assert.Contains(t, second.Markdown, "Major alpha breakthrough")
	assert.Contains(t, first.Markdown, "Major alpha breakthrough")
}

func TestPipelineSkipsDisabledSource(t *testing.T) {
	hn := &stubAdapter{source: core.SourceHackerNews, items: []core.RawItem{
		rawStory("Major alpha breakthrough", "https://example.com/alpha"),
	}}
	reddit := &stubAdapter{source: core.SourceReddit, items: []core.RawItem{
		{Source: core.SourceReddit, Title: "Beta from reddit", URL: "https://reddit.com/beta"},
	}}

	pipeline, _, prefs, _, _ := pipelineFixture(t, hn, reddit)
	ctx := context.Background()
	require.NoError(t, prefs.SetPreference(ctx, PrefSourceRedditEnabled, "false"))

	digest, err := pipeline.Run(ctx)
	require.NoError(t, err)

	assert.True(t, hn.called)
	assert.False(t, reddit.called)
	assert.NotContains(t, digest.Markdown, "Beta from reddit")
}

func TestPipelineNoSourcesEnabled(t *testing.T) {
	adapter := &stubAdapter{source: core.SourceHackerNews, items: []core.RawItem{
		rawStory("Major alpha breakthrough", "https://example.com/alpha"),
	}}

	pipeline, _, prefs, _, _ := pipelineFixture(t, adapter)
	ctx := context.Background()
	require.NoError(t, prefs.SetPreference(ctx, PrefSourceHNEnabled, "false"))
	require.NoError(t, prefs.SetPreference(ctx, PrefSourceRedditEnabled, "false"))
	require.NoError(t, prefs.SetPreference(ctx, PrefSourceRSSEnabled, "false"))

	_, err := pipeline.Run(ctx)
	assert.ErrorIs(t, err, ErrNoSourcesEnabled)
	assert.False(t, adapter.called)
}

func TestPipelineNoPersonasEnabled(t *testing.T) {
	adapter := &stubAdapter{source: core.SourceHackerNews, items: []core.RawItem{
		rawStory("Major alpha breakthrough", "https://example.com/alpha"),
	}}

	pipeline, _, prefs, _, _ := pipelineFixture(t, adapter)
	ctx := context.Background()
	require.NoError(t, prefs.SetPreference(ctx, "PERSONA_ALPHA_ENABLED", "false"))
	require.NoError(t, prefs.SetPreference(ctx, "PERSONA_BETA_ENABLED", "false"))

	_, err := pipeline.Run(ctx)
	assert.ErrorIs(t, err, ErrNoPersonasEnabled)
}

func TestPipelineAllEvaluationsFailed(t *testing.T) {
	adapter := &stubAdapter{source: core.SourceHackerNews, items: []core.RawItem{
		rawStory("Major alpha breakthrough", "https://example.com/alpha"),
	}}

	pipeline, _, _, digests, scorer := pipelineFixture(t, adapter)
	scorer.GenerateTextFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("service down")
	}

	ctx := context.Background()
	_, err := pipeline.Run(ctx)
	assert.ErrorIs(t, err, ErrAllEvaluationsFailed)

	// No digest is published on a fully failed evaluation round.
	_, err = digests.GetDigest(ctx, time.Now().UTC())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// Candidates are capped per source by popularity so one noisy source
// cannot crowd out the others.
func TestPipelinePerSourceCap(t *testing.T) {
	var noisy []core.RawItem
	for i := 0; i < 8; i++ {
		item := rawStory(
			fmt.Sprintf("Alpha story number %d", i),
			fmt.Sprintf("https://example.com/alpha-%d", i))
		item.SourceScore = i
		noisy = append(noisy, item)
	}
	adapter := &stubAdapter{source: core.SourceHackerNews, items: noisy}

	pipeline, _, _, _, _ := pipelineFixture(t, adapter)
	ctx := context.Background()

	cfg, err := pipeline.Snapshot(ctx)
	require.NoError(t, err)
	cfg.PerSourceCap = 3
	cfg.Personas[0].TopK = 8
	// Every stub story embeds identically; disarm the near-dup check
	// so all eight reach candidate selection.
	cfg.NearDupThreshold = 1.1

	accepted, _, err := pipeline.Ingest(ctx, &cfg)
	require.NoError(t, err)
	require.Len(t, accepted, 8)

	digest, err := pipeline.Generate(ctx, &cfg, accepted)
	require.NoError(t, err)

	// Only the three highest-scored survive candidate selection.
	require.Len(t, digest.Sections, 1)
	assert.Len(t, digest.Sections[0].Entries, 3)
	assert.Contains(t, digest.Markdown, "Alpha story number 7")
	assert.NotContains(t, digest.Markdown, "Alpha story number 0")
}

func TestNewPipelineValidation(t *testing.T) {
	items, prefs, digests, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	provider := mock.NewMockProvider()

	_, err = NewPipeline(nil, prefs, digests, provider)
	assert.ErrorIs(t, err, ErrItemRepositoryRequired)
	_, err = NewPipeline(items, nil, digests, provider)
	assert.ErrorIs(t, err, ErrPreferenceRepositoryRequired)
	_, err = NewPipeline(items, prefs, nil, provider)
	assert.ErrorIs(t, err, ErrDigestRepositoryRequired)
	_, err = NewPipeline(items, prefs, digests, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
	_, err = NewPipeline(items, prefs, digests, provider, WithRetry(0, 0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}
