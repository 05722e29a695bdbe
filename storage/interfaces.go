package storage

import (
	"context"

	"github.com/poiesic/sketchdex/core"
)

// DocumentRepository is the content-addressed catalog of ingested files.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// Register adds a document to the catalog, keyed by its content hash.
	// If a document with the same hash already exists and force is false,
	// the existing record is returned unchanged and stored is false.
	// With force, the prior document and everything referencing it (pages,
	// embeddings) is replaced atomically. Sets InsertedAt/UpdatedAt.
	Register(ctx context.Context, doc *core.Document, force bool) (result *core.Document, stored bool, err error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocumentByHash retrieves a document by its content hash.
	// Returns ErrNotFound if no document has that hash.
	GetDocumentByHash(ctx context.Context, contentHash string) (*core.Document, error)

	// ListDocuments returns all documents in insertion order.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// RemoveDocuments deletes documents with their pages and embeddings.
	// Each document is removed in a single transaction, so a concurrent
	// reader never observes a half-removed document. Unknown IDs are
	// skipped. Returns the number of documents actually removed.
	RemoveDocuments(ctx context.Context, ids ...core.ID) (int, error)

	// PutPages stores rendered pages for a document.
	PutPages(ctx context.Context, pages ...*core.Page) error

	// GetPages retrieves the stored pages of a document ordered by page number.
	GetPages(ctx context.Context, docID core.ID) ([]*core.Page, error)

	// ForEachPage iterates over every stored page across all documents.
	// Used to rebuild the lexical index on startup.
	ForEachPage(ctx context.Context, fn func(*core.Page) error) error

	// Close closes the repository and releases resources.
	Close() error
}

// EmbeddingRepository persists page embeddings keyed by (doc, page, model).
// Writing a key that already exists replaces the prior vector, so a page
// never holds more than one embedding per model.
type EmbeddingRepository interface {
	// PutEmbeddings stores one or more embedding records.
	PutEmbeddings(ctx context.Context, records ...*core.EmbeddingRecord) error

	// GetEmbedding retrieves the embedding for one page and model.
	// Returns ErrNotFound if it doesn't exist.
	GetEmbedding(ctx context.Context, ref core.PageRef, model string) (*core.EmbeddingRecord, error)

	// DeleteByDocument removes every embedding belonging to a document.
	DeleteByDocument(ctx context.Context, docID core.ID) error

	// ForEach iterates over all stored embedding records.
	// Used to load the in-memory vector index on startup.
	ForEach(ctx context.Context, fn func(*core.EmbeddingRecord) error) error

	// Close closes the repository and releases resources.
	Close() error
}
