package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/fetch"
	"github.com/poiesic/recall/storage"
)

// Pipeline orchestrates one selection run: ingestion (fetch,
// deduplicate, gate, persist) followed by generation (evaluate,
// assign, compile). Each run takes an immutable configuration
// snapshot up front and is independently restartable.
type Pipeline struct {
	items    storage.ItemRepository
	prefs    storage.PreferenceRepository
	digests  storage.DigestRepository
	provider ai.AIProvider
	adapters []fetch.SourceAdapter

	base           RunConfig
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithConfig replaces the base run configuration. Preferences are
// still layered on top at snapshot time.
func WithConfig(cfg RunConfig) Option {
	return func(p *Pipeline) error {
		p.base = cfg
		return nil
	}
}

// WithAdapters sets the source adapters used by the ingestion phase.
func WithAdapters(adapters ...fetch.SourceAdapter) Option {
	return func(p *Pipeline) error {
		p.adapters = adapters
		return nil
	}
}

// WithRetry configures embedding-call retries.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxRetries <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxRetries = maxRetries
		p.retryBaseDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a selection pipeline.
func NewPipeline(
	items storage.ItemRepository,
	prefs storage.PreferenceRepository,
	digests storage.DigestRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if prefs == nil {
		return nil, ErrPreferenceRepositoryRequired
	}
	if digests == nil {
		return nil, ErrDigestRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	p := &Pipeline{
		items:          items,
		prefs:          prefs,
		digests:        digests,
		provider:       provider,
		base:           DefaultConfig(),
		maxRetries:     3,
		retryBaseDelay: time.Second,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Snapshot takes the immutable run configuration: base config layered
// with persisted preferences, anchor texts embedded into anchor
// vectors. Everything downstream reads this value only.
func (p *Pipeline) Snapshot(ctx context.Context) (RunConfig, error) {
	cfg, err := Snapshot(ctx, p.prefs, p.base)
	if err != nil {
		return RunConfig{}, err
	}

	// Embed anchors once per run
	var texts []string
	var indexes []int
	for i, persona := range cfg.Personas {
		if persona.Enabled && len(persona.AnchorVector) == 0 {
			texts = append(texts, persona.AnchorText)
			indexes = append(indexes, i)
		}
	}
	if len(texts) > 0 {
		var vectors [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var embedErr error
			vectors, embedErr = p.provider.Embedder().EmbedTexts(ctx, texts)
			return embedErr
		}, p.maxRetries, p.retryBaseDelay)
		if err != nil {
			return RunConfig{}, err
		}
		for j, i := range indexes {
			cfg.Personas[i].AnchorVector = core.NormalizeVector(vectors[j])
		}
	}

	return cfg, nil
}

// IngestStats reports what the ingestion phase did with the fetched
// items.
type IngestStats struct {
	Fetched      int
	Saved        int
	Duplicates   int
	Irrelevant   int
	SaveFailures int
}

// Run executes a full pipeline run: snapshot, ingestion, generation.
// Items that were accepted during ingestion are passed through to
// generation in memory, so an item whose save failed is still
// eligible for this run's digest.
func (p *Pipeline) Run(ctx context.Context) (*core.Digest, error) {
	cfg, err := p.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	accepted, stats, err := p.Ingest(ctx, &cfg)
	if err != nil {
		return nil, err
	}
	p.logger.Info("ingestion complete",
		"fetched", stats.Fetched, "saved", stats.Saved,
		"duplicates", stats.Duplicates, "irrelevant", stats.Irrelevant,
		"saveFailures", stats.SaveFailures)

	return p.Generate(ctx, &cfg, accepted)
}

// Ingest fetches from the enabled sources and runs the accepted items
// through normalize, embed, dedup, and the ingestion gate, persisting
// the survivors. Adapter failures degrade the fetch; they never fail
// the phase. A snapshot that leaves no source enabled does fail it:
// there is nothing to ingest from.
func (p *Pipeline) Ingest(ctx context.Context, cfg *RunConfig) ([]*core.CandidateItem, IngestStats, error) {
	var enabled []fetch.SourceAdapter
	for _, adapter := range p.adapters {
		if cfg.Sources[adapter.Source()] {
			enabled = append(enabled, adapter)
		}
	}
	if len(enabled) == 0 {
		return nil, IngestStats{}, ErrNoSourcesEnabled
	}

	raw, failures := fetch.FetchAll(ctx, 0, enabled...)
	for source, err := range failures {
		p.logger.Error("source fetch failed", "source", source, "err", err)
	}

	return p.IngestItems(ctx, cfg, raw)
}

// IngestItems runs pre-fetched raw items through the ingestion phase
// and returns every accepted candidate, persisted or not.
func (p *Pipeline) IngestItems(ctx context.Context, cfg *RunConfig, raw []core.RawItem) ([]*core.CandidateItem, IngestStats, error) {
	stats := IngestStats{Fetched: len(raw)}

	// Normalize
	candidates := make([]*core.CandidateItem, 0, len(raw))
	for _, item := range raw {
		candidate, err := Normalize(item)
		if err != nil {
			p.logger.Warn("dropping invalid item", "title", item.Title, "err", err)
			continue
		}
		candidates = append(candidates, candidate)
	}

	// Embed in one batch
	if len(candidates) > 0 {
		texts := make([]string, len(candidates))
		for i, candidate := range candidates {
			texts[i] = EmbedText(candidate)
		}
		var vectors [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var embedErr error
			vectors, embedErr = p.provider.Embedder().EmbedTexts(ctx, texts)
			return embedErr
		}, p.maxRetries, p.retryBaseDelay)
		if err != nil {
			return nil, stats, err
		}
		for i := range candidates {
			candidates[i].Vector = core.NormalizeVector(vectors[i])
		}
	}

	dedup, err := NewDeduplicator(p.items, cfg.NearDupThreshold, p.logger)
	if err != nil {
		return nil, stats, err
	}
	gate := NewPrefilter(cfg)

	var accepted []*core.CandidateItem
	for _, candidate := range candidates {
		decision, err := dedup.Accept(ctx, candidate)
		if err != nil {
			return nil, stats, err
		}
		if decision == DedupDuplicate {
			stats.Duplicates++
			continue
		}

		if !gate.PassesIngestion(candidate) {
			stats.Irrelevant++
			continue
		}

		// A failed save is logged, not fatal: the item stays in this
		// run's candidate set and will be re-evaluated next run since
		// it never joined the duplicate history.
		if err := p.items.SaveItem(ctx, candidate); err != nil {
			stats.SaveFailures++
			p.logger.Error("failed to persist item", "id", candidate.Id, "err", err)
		} else {
			stats.Saved++
		}
		accepted = append(accepted, candidate)
	}

	return accepted, stats, nil
}

// Generate runs the generation phase: select candidates, evaluate
// them in bounded-concurrency batches, assign each survivor to its
// best-fit persona, and compile the digest. seed items (from this
// run's ingestion) take precedence over their stored copies.
func (p *Pipeline) Generate(ctx context.Context, cfg *RunConfig, seed []*core.CandidateItem) (*core.Digest, error) {
	personas := cfg.EnabledPersonas()
	if len(personas) == 0 {
		return nil, ErrNoPersonasEnabled
	}

	candidates, err := p.selectCandidates(ctx, cfg, seed)
	if err != nil {
		return nil, err
	}
	p.logger.Info("generation candidates selected", "count", len(candidates))

	// Pre-evaluation gate per persona
	gate := NewPrefilter(cfg)
	for _, candidate := range candidates {
		gate.GateForEvaluation(candidate)
	}

	batches, err := Partition(candidates, cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	evaluator, err := NewEvaluator(p.provider.Scorer(), cfg.EvalTimeout, p.logger)
	if err != nil {
		return nil, err
	}
	scheduler, err := NewScheduler(evaluator, cfg.MaxConcurrency, p.logger)
	if err != nil {
		return nil, err
	}

	set, err := scheduler.Run(ctx, batches, personas)
	if err != nil {
		return nil, err
	}
	if set.AllFailed() {
		// A digest built on zero evaluations would be misleading.
		return nil, ErrAllEvaluationsFailed
	}

	assigner := NewAssigner(cfg)
	assignments := assigner.AssignAll(set)
	p.logger.Info("assignment complete", "assigned", len(assignments))

	compiler, err := NewCompiler(cfg, p.provider.Scorer(), p.logger)
	if err != nil {
		return nil, err
	}
	digest := compiler.Compile(ctx, candidates, assignments, set)

	if err := p.digests.SaveDigest(ctx, digest.Date, digest.Markdown); err != nil {
		p.logger.Error("failed to persist digest", "err", err)
	}

	return digest, nil
}

// selectCandidates builds the generation candidate list: recent stored
// items merged with this run's in-memory accepts, filtered to enabled
// sources, capped per source by popularity, title-deduplicated.
func (p *Pipeline) selectCandidates(ctx context.Context, cfg *RunConfig, seed []*core.CandidateItem) ([]*core.CandidateItem, error) {
	stored, err := p.items.RecentItems(ctx, cfg.CandidateLimit)
	if err != nil {
		return nil, err
	}

	// Seed items win over their stored copies
	merged := make([]*core.CandidateItem, 0, len(seed)+len(stored))
	seen := make(map[core.ID]bool, len(seed))
	for _, item := range seed {
		merged = append(merged, item)
		seen[item.Id] = true
	}
	for _, item := range stored {
		if !seen[item.Id] {
			merged = append(merged, item)
			seen[item.Id] = true
		}
	}

	// Mix sources: cap each so one noisy source cannot crowd out the
	// others. Sort within a source by popularity.
	bySource := make(map[core.Source][]*core.CandidateItem)
	for _, item := range merged {
		if !cfg.Sources[item.Source] {
			continue
		}
		bySource[item.Source] = append(bySource[item.Source], item)
	}

	var candidates []*core.CandidateItem
	for _, source := range []core.Source{core.SourceHackerNews, core.SourceReddit, core.SourceRSS} {
		items := bySource[source]
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].SourceScore > items[j].SourceScore
		})
		if len(items) > cfg.PerSourceCap {
			items = items[:cfg.PerSourceCap]
		}
		candidates = append(candidates, items...)
	}

	// Final title dedup across sources, first wins
	seenTitles := make(map[core.ID]bool, len(candidates))
	unique := candidates[:0]
	for _, item := range candidates {
		if seenTitles[item.TitleHash] {
			continue
		}
		seenTitles[item.TitleHash] = true
		unique = append(unique, item)
	}

	return unique, nil
}
