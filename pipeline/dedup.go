package pipeline

import (
	"context"
	"log/slog"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// DedupDecision is the deduplicator's verdict for one item.
type DedupDecision int

const (
	// DedupNew admits the item.
	DedupNew DedupDecision = iota
	// DedupDuplicate rejects the item as already known. Not an error.
	DedupDuplicate
)

// DedupCounts reports what the deduplicator rejected, for logging only.
type DedupCounts struct {
	New        int
	URLDups    int
	TitleDups  int
	VectorDups int
}

// Deduplicator rejects items already known by URL, normalized-title
// hash, or near-duplicate embedding. It keeps a session index of items
// admitted during the current run so duplicates arriving in the same
// run are caught before anything is persisted.
//
// Not safe for concurrent use; ingestion feeds it sequentially.
type Deduplicator struct {
	items     storage.ItemRepository
	threshold float32

	sessionURLs   map[core.ID]bool
	sessionTitles map[core.ID]bool
	sessionVecs   [][]float32

	counts DedupCounts
	logger *slog.Logger
}

// NewDeduplicator creates a deduplicator over the stored item history.
func NewDeduplicator(items storage.ItemRepository, nearDupThreshold float32, logger *slog.Logger) (*Deduplicator, error) {
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Deduplicator{
		items:         items,
		threshold:     nearDupThreshold,
		sessionURLs:   make(map[core.ID]bool),
		sessionTitles: make(map[core.ID]bool),
		logger:        logger,
	}, nil
}

// Accept decides whether a candidate is new. Checks run in order and
// short-circuit: exact URL, normalized-title hash, then near-duplicate
// embedding against both the session index and the stored history.
// New items join the session index immediately, so a second copy
// within the same run is still caught.
func (d *Deduplicator) Accept(ctx context.Context, item *core.CandidateItem) (DedupDecision, error) {
	urlHash := core.IDFromContent(core.NormalizeURL(item.URL))

	if d.sessionURLs[urlHash] {
		d.counts.URLDups++
		return DedupDuplicate, nil
	}
	known, err := d.items.ExistsURL(ctx, item.URL)
	if err != nil {
		return DedupNew, err
	}
	if known {
		d.counts.URLDups++
		return DedupDuplicate, nil
	}

	if d.sessionTitles[item.TitleHash] {
		d.counts.TitleDups++
		return DedupDuplicate, nil
	}
	known, err = d.items.ExistsTitleHash(ctx, item.TitleHash)
	if err != nil {
		return DedupNew, err
	}
	if known {
		d.counts.TitleDups++
		return DedupDuplicate, nil
	}

	if len(item.Vector) > 0 {
		nearest := d.sessionNearest(item.Vector)
		if nearest < d.threshold {
			stored, err := d.items.NearestEmbedding(ctx, item.Vector)
			if err != nil {
				return DedupNew, err
			}
			if stored > nearest {
				nearest = stored
			}
		}
		if nearest >= d.threshold {
			d.counts.VectorDups++
			d.logger.Debug("near-duplicate item", "title", item.Title, "similarity", nearest)
			return DedupDuplicate, nil
		}
	}

	d.sessionURLs[urlHash] = true
	d.sessionTitles[item.TitleHash] = true
	if len(item.Vector) > 0 {
		d.sessionVecs = append(d.sessionVecs, item.Vector)
	}
	d.counts.New++
	return DedupNew, nil
}

// Counts returns the running tallies for this session.
func (d *Deduplicator) Counts() DedupCounts {
	return d.counts
}

// sessionNearest returns the best similarity against items admitted
// this session, or -1 when the session index is empty.
func (d *Deduplicator) sessionNearest(vector []float32) float32 {
	best := float32(-1)
	for _, v := range d.sessionVecs {
		if sim := core.DotProduct(vector, v); sim > best {
			best = sim
		}
	}
	return best
}
