package badger

import (
	"context"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recall/storage"
)

// PreferenceRepository implements storage.PreferenceRepository for BadgerDB.
type PreferenceRepository struct {
	backend *Backend
}

var _ storage.PreferenceRepository = (*PreferenceRepository)(nil)

// NewPreferenceRepository creates a new PreferenceRepository.
func NewPreferenceRepository(backend *Backend) (*PreferenceRepository, error) {
	return &PreferenceRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *PreferenceRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *PreferenceRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// GetPreference returns the stored value for key, or def when unset.
func (r *PreferenceRepository) GetPreference(ctx context.Context, key, def string) (string, error) {
	value := def
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makePreferenceKey(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	}, false)
	return value, err
}

// SetPreference stores a preference value.
func (r *PreferenceRepository) SetPreference(ctx context.Context, key, value string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makePreferenceKey(key), []byte(value)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// AllPreferences returns every stored key/value pair.
func (r *PreferenceRepository) AllPreferences(ctx context.Context) (map[string]string, error) {
	prefix := preferencePrefix + ":"
	result := make(map[string]string)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := strings.TrimPrefix(string(iter.Item().Key()), prefix)
			if err := iter.Item().Value(func(val []byte) error {
				result[key] = string(val)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	}, false)
	return result, err
}
