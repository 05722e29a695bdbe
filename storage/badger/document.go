package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sketchdex/core"
	"github.com/poiesic/sketchdex/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) storage.DocumentRepository {
	return &DocumentRepository{backend: backend}
}

// Close releases repository resources.
func (r *DocumentRepository) Close() error {
	return nil
}

// Register adds a document to the catalog, keyed by its content hash.
func (r *DocumentRepository) Register(ctx context.Context, doc *core.Document, force bool) (*core.Document, bool, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, false, err
	}

	var (
		result *core.Document
		stored bool
	)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := r.readDocumentByHash(tx, doc.ContentHash)
		if err != nil {
			return err
		}

		if existing != nil && !force {
			// Identical bytes already registered: idempotent no-op.
			result = existing
			stored = false
			return nil
		}

		// Stored timestamps carry microsecond precision, so stamp at that
		// precision and the round trip through the codec is exact.
		now := time.Now().UTC().Truncate(time.Microsecond)
		if existing != nil {
			// Forced replacement keeps the original catalog position.
			doc.InsertedAt = existing.InsertedAt
			doc.UpdatedAt = now

			// Cascade: the replaced document's pages and embeddings go away
			// in the same transaction, so readers never see a mix of old
			// and new entries.
			if err := deleteByPrefix(tx, makePartialPageKey(existing.Id)); err != nil {
				return err
			}
			if err := deleteByPrefix(tx, makePartialEmbeddingKey(existing.Id)); err != nil {
				return err
			}
		} else {
			doc.InsertedAt = now
			doc.UpdatedAt = now
			seqKey := makeDocumentSeqKey(doc.InsertedAt, doc.Id)
			if err := tx.Set(seqKey, storage.MarshalID(doc.Id)); err != nil {
				return err
			}
		}

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		if err := tx.Set(makeDocumentHashKey(doc.ContentHash), storage.MarshalID(doc.Id)); err != nil {
			return err
		}

		result = doc
		stored = true
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, false, err
	}
	return result, stored, nil
}

// GetDocument retrieves a document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = r.readDocument(tx, makeDocumentKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

// GetDocumentByHash retrieves a document by its content hash.
func (r *DocumentRepository) GetDocumentByHash(ctx context.Context, contentHash string) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = r.readDocumentByHash(tx, contentHash)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

// ListDocuments returns all documents in insertion order.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	var docs []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentSeqPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			doc, err := r.readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				docs = append(docs, doc)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// RemoveDocuments deletes documents with their pages and embeddings.
// Each document is removed in its own transaction so a concurrent reader
// sees either the whole document or none of it.
func (r *DocumentRepository) RemoveDocuments(ctx context.Context, ids ...core.ID) (int, error) {
	removed := 0
	for _, id := range ids {
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			doc, err := r.readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc == nil {
				// Unknown IDs are skipped, not an error.
				return nil
			}

			if err := tx.Delete(makeDocumentSeqKey(doc.InsertedAt, doc.Id)); err != nil {
				return err
			}
			if err := tx.Delete(makeDocumentHashKey(doc.ContentHash)); err != nil {
				return err
			}
			if err := deleteByPrefix(tx, makePartialPageKey(doc.Id)); err != nil {
				return err
			}
			if err := deleteByPrefix(tx, makePartialEmbeddingKey(doc.Id)); err != nil {
				return err
			}
			if err := tx.Delete(makeDocumentKey(doc.Id)); err != nil {
				return err
			}

			removed++
			return tx.Commit()
		}, true)
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// PutPages stores rendered pages for a document.
func (r *DocumentRepository) PutPages(ctx context.Context, pages ...*core.Page) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, page := range pages {
			key := makePageKey(page.DocId, page.PageNum)
			if err := tx.Set(key, storage.MarshalPage(page)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetPages retrieves the stored pages of a document ordered by page number.
func (r *DocumentRepository) GetPages(ctx context.Context, docID core.ID) ([]*core.Page, error) {
	var pages []*core.Page
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialPageKey(docID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var page *core.Page
			err := iter.Item().Value(func(val []byte) error {
				var err error
				page, err = storage.UnmarshalPage(val)
				return err
			})
			if err != nil {
				return err
			}
			pages = append(pages, page)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return pages, nil
}

// ForEachPage iterates over every stored page across all documents.
func (r *DocumentRepository) ForEachPage(ctx context.Context, fn func(*core.Page) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(pagePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var page *core.Page
			err := iter.Item().Value(func(val []byte) error {
				var err error
				page, err = storage.UnmarshalPage(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(page); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// readDocument reads a document by primary key. Returns nil, nil when missing.
func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// readDocumentByHash resolves the hash index. Returns nil, nil when missing.
func (r *DocumentRepository) readDocumentByHash(tx *badger.Txn, contentHash string) (*core.Document, error) {
	item, err := tx.Get(makeDocumentHashKey(contentHash))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var id core.ID
	err = item.Value(func(val []byte) error {
		var err error
		id, err = storage.UnmarshalID(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.readDocument(tx, makeDocumentKey(id))
}

// deleteByPrefix removes every key under a prefix within the transaction.
func deleteByPrefix(tx *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
