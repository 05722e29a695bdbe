package core

import (
	"encoding/binary"
	"encoding/hex"
	"path/filepath"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Document IDs are derived from content hashes so that identical bytes
// always map to the same document.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// HashContent computes the 256-bit BLAKE2b digest of raw bytes as a hex string.
// It is the idempotency key for ingestion: re-registering identical bytes is a no-op.
func HashContent(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Document represents one ingested PDF file in the catalog.
type Document struct {
	Id          ID
	Path        string
	DisplayName string
	ContentHash string // hex BLAKE2b-256 of the file bytes
	PageCount   int
	InsertedAt  time.Time
	UpdatedAt   time.Time
}

// NewDocument builds a Document from a file path and its content hash.
// The ID is derived from the hash, never from the path.
func NewDocument(path, contentHash string, pageCount int) *Document {
	return &Document{
		Id:          IDFromContent(contentHash),
		Path:        path,
		DisplayName: filepath.Base(path),
		ContentHash: contentHash,
		PageCount:   pageCount,
	}
}

// Page is one rendered page of a document. PageNum is 1-indexed and
// unique within its document. Text holds the extracted text layer, if any.
type Page struct {
	DocId   ID
	PageNum int
	Text    string
}

// EmbeddingRecord is a fixed-dimension vector produced by a named model
// for one page. A page holds at most one embedding per model.
type EmbeddingRecord struct {
	DocId   ID
	PageNum int
	Model   string
	Vector  []float32
}

// PageRef identifies a page independent of any model.
type PageRef struct {
	DocId   ID
	PageNum int
}

// Less orders page references by (DocId, PageNum) ascending. Equal scores
// break ties in this order so result ordering stays reproducible.
func (p PageRef) Less(other PageRef) bool {
	if p.DocId != other.DocId {
		return p.DocId < other.DocId
	}
	return p.PageNum < other.PageNum
}

// SearchMode selects the retrieval protocol.
type SearchMode string

const (
	// ModeFast runs only the first-stage vector search.
	ModeFast SearchMode = "fast"
	// ModeAccurate reranks the first-stage candidates with the accurate model.
	ModeAccurate SearchMode = "accurate"
)

// ResultStage marks which stage produced a result's final score.
type ResultStage string

const (
	// StageFast means the fast-stage score was retained.
	StageFast ResultStage = "fast"
	// StageReranked means the accurate model re-scored a fast-stage candidate.
	StageReranked ResultStage = "reranked"
	// StageAccurate is reserved for scores produced by a full accurate-model
	// search with no fast-stage contribution.
	StageAccurate ResultStage = "accurate"
)

// SearchQuery is an ephemeral search request. It is never persisted.
type SearchQuery struct {
	Sketch []byte // encoded sketch image bytes
	Text   string // optional text to boost results
	Mode   SearchMode
	TopK   int
}

// SearchResult is one ranked output item.
type SearchResult struct {
	DocId   ID
	DocName string
	PageNum int
	Score   float32
	Stage   ResultStage
}
