package storage

import (
	"context"
	"time"

	"github.com/poiesic/recall/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ItemRepository provides operations for the candidate item history.
// The pipeline treats it as append-mostly: historical rows are read for
// duplicate lookups but never rewritten by later stages.
type ItemRepository interface {
	Repository

	// SaveItem persists a candidate item. Saving an item whose ID already
	// exists is a no-op (the history keeps the original row).
	SaveItem(ctx context.Context, item *core.CandidateItem) error

	// GetItem retrieves a single item by ID.
	// Returns ErrNotFound if the item doesn't exist.
	GetItem(ctx context.Context, id core.ID) (*core.CandidateItem, error)

	// ExistsURL reports whether an item with the given URL (case/scheme
	// normalized) is already stored.
	ExistsURL(ctx context.Context, url string) (bool, error)

	// ExistsTitleHash reports whether an item with the given normalized
	// title hash is already stored.
	ExistsTitleHash(ctx context.Context, hash core.ID) (bool, error)

	// NearestEmbedding returns the highest cosine similarity between the
	// given vector and any stored item embedding. Returns -1 when the
	// history holds no embeddings.
	NearestEmbedding(ctx context.Context, vector []float32) (float32, error)

	// RecentItems retrieves up to limit items ordered by insertion time,
	// most recent first.
	RecentItems(ctx context.Context, limit int) ([]*core.CandidateItem, error)
}

// PreferenceRepository provides the persisted runtime preferences
// (source toggles, persona toggles). Readers take a snapshot at run
// start; mid-run writes never affect an in-flight run.
type PreferenceRepository interface {
	Repository

	// GetPreference returns the stored value for key, or def when unset.
	GetPreference(ctx context.Context, key, def string) (string, error)

	// SetPreference stores a preference value.
	SetPreference(ctx context.Context, key, value string) error

	// AllPreferences returns every stored key/value pair.
	AllPreferences(ctx context.Context) (map[string]string, error)
}

// DigestRepository stores compiled digest documents by run date.
type DigestRepository interface {
	Repository

	// SaveDigest stores the rendered digest for its run date,
	// replacing any digest previously stored for that date.
	SaveDigest(ctx context.Context, date time.Time, markdown string) error

	// GetDigest retrieves the digest stored for the given date.
	// Returns ErrNotFound if no digest exists for that date.
	GetDigest(ctx context.Context, date time.Time) (string, error)
}
