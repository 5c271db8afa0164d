package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recall/storage"
)

// DigestRepository implements storage.DigestRepository for BadgerDB.
type DigestRepository struct {
	backend *Backend
}

var _ storage.DigestRepository = (*DigestRepository)(nil)

// NewDigestRepository creates a new DigestRepository.
func NewDigestRepository(backend *Backend) (*DigestRepository, error) {
	return &DigestRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *DigestRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DigestRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveDigest stores the rendered digest for its run date, replacing any
// digest previously stored for that date.
func (r *DigestRepository) SaveDigest(ctx context.Context, date time.Time, markdown string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeDigestKey(date), []byte(markdown)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetDigest retrieves the digest stored for the given date.
func (r *DigestRepository) GetDigest(ctx context.Context, date time.Time) (string, error) {
	var markdown string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDigestKey(date))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			markdown = string(val)
			return nil
		})
	}, false)
	return markdown, err
}
