package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// ItemRepository implements storage.ItemRepository for BadgerDB.
type ItemRepository struct {
	backend *Backend
}

var _ storage.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(backend *Backend) (*ItemRepository, error) {
	return &ItemRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *ItemRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ItemRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveItem persists a candidate item along with its URL, title, and
// insertion-date index entries. Saving an ID that already exists is a
// no-op so the history keeps the original row.
func (r *ItemRepository) SaveItem(ctx context.Context, item *core.CandidateItem) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeItemKey(item.Id)

		existing, err := r.readItem(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		if item.InsertedAt.IsZero() {
			item.InsertedAt = time.Now().UTC()
		}
		if item.TitleHash == 0 {
			item.TitleHash = core.TitleHashOf(item.Title)
		}

		value := storage.MarshalCandidateItem(item)
		if err := tx.Set(key, value); err != nil {
			return err
		}

		urlHash := core.IDFromContent(core.NormalizeURL(item.URL))
		if err := tx.Set(makeItemURLKey(urlHash), storage.MarshalID(item.Id)); err != nil {
			return err
		}

		if err := tx.Set(makeItemTitleKey(item.TitleHash), storage.MarshalID(item.Id)); err != nil {
			return err
		}

		dateKey := makeItemDateKey(item.InsertedAt, item.Id)
		if err := tx.Set(dateKey, storage.MarshalID(item.Id)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// GetItem retrieves a single candidate item by ID.
func (r *ItemRepository) GetItem(ctx context.Context, id core.ID) (*core.CandidateItem, error) {
	var result *core.CandidateItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readItem(tx, makeItemKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ExistsURL reports whether an item with the given URL is already stored.
// The URL is normalized before lookup.
func (r *ItemRepository) ExistsURL(ctx context.Context, url string) (bool, error) {
	urlHash := core.IDFromContent(core.NormalizeURL(url))
	return r.existsKey(makeItemURLKey(urlHash))
}

// ExistsTitleHash reports whether an item with the given normalized
// title hash is already stored.
func (r *ItemRepository) ExistsTitleHash(ctx context.Context, hash core.ID) (bool, error) {
	return r.existsKey(makeItemTitleKey(hash))
}

// NearestEmbedding delegates to the backend.
func (r *ItemRepository) NearestEmbedding(ctx context.Context, vector []float32) (float32, error) {
	return r.backend.NearestEmbedding(ctx, vector)
}

// RecentItems retrieves up to limit items ordered by insertion time,
// most recent first.
func (r *ItemRepository) RecentItems(ctx context.Context, limit int) ([]*core.CandidateItem, error) {
	var results []*core.CandidateItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Use reverse iterator to get most recent items first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek to the last possible key in the date index
		startKey := makePartialItemDateKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(itemDatePrefix + ":")

		count := 0
		for iter.Seek(startKey); iter.Valid() && count < limit; iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			var itemID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				itemID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			item, err := r.readItem(tx, makeItemKey(itemID))
			if err != nil {
				return err
			}
			if item != nil {
				results = append(results, item)
				count++
			}
		}
		return nil
	}, false)

	return results, err
}

// readItem reads a candidate item from the transaction.
func (r *ItemRepository) readItem(tx *badger.Txn, key []byte) (*core.CandidateItem, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.CandidateItem
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalCandidateItem(val)
		return unmarshalErr
	})
	return record, err
}

// existsKey reports whether a key is present.
func (r *ItemRepository) existsKey(key []byte) (bool, error) {
	var found bool
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		found = true
		return nil
	}, false)
	return found, err
}
