package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sketchdex/core"
	"github.com/poiesic/sketchdex/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) storage.EmbeddingRepository {
	return &EmbeddingRepository{backend: backend}
}

// Close releases repository resources.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// PutEmbeddings stores one or more embedding records. Writing the same
// (doc, page, model) key again replaces the prior vector.
func (r *EmbeddingRepository) PutEmbeddings(ctx context.Context, records ...*core.EmbeddingRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, rec := range records {
			if err := core.ValidateEmbeddingRecord(rec); err != nil {
				return err
			}
			key := makeEmbeddingKey(rec.DocId, rec.PageNum, rec.Model)
			if err := tx.Set(key, storage.MarshalEmbeddingRecord(rec)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetEmbedding retrieves the embedding for one page and model.
func (r *EmbeddingRepository) GetEmbedding(ctx context.Context, ref core.PageRef, model string) (*core.EmbeddingRecord, error) {
	var rec *core.EmbeddingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(ref.DocId, ref.PageNum, model))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			rec, err = storage.UnmarshalEmbeddingRecord(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, storage.ErrNotFound
	}
	return rec, nil
}

// DeleteByDocument removes every embedding belonging to a document.
func (r *EmbeddingRepository) DeleteByDocument(ctx context.Context, docID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteByPrefix(tx, makePartialEmbeddingKey(docID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ForEach iterates over all stored embedding records.
func (r *EmbeddingRepository) ForEach(ctx context.Context, fn func(*core.EmbeddingRecord) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(embeddingPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var rec *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				rec, err = storage.UnmarshalEmbeddingRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
		return nil
	}, false)
}
