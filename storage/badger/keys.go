package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/sketchdex/core"
)

// Key prefixes for different data types
const (
	documentPrefix     = "docrec"
	documentHashPrefix = "dochsh"
	documentSeqPrefix  = "docseq"
	pagePrefix         = "pagrec"
	embeddingPrefix    = "embrec"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentHashKey generates a key for the content-hash index.
// Format: prefix:hash
func makeDocumentHashKey(contentHash string) []byte {
	return []byte(documentHashPrefix + ":" + contentHash)
}

// makeDocumentSeqKey generates a composite key for the insertion-order index.
// Format: prefix:insertedAt:id
func makeDocumentSeqKey(insertedAt time.Time, id core.ID) []byte {
	prefix := documentSeqPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(insertedAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePageKey generates a composite key for a page.
// Format: prefix:docID:pageNum
func makePageKey(docID core.ID, pageNum int) []byte {
	prefix := pagePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for docID + 8 bytes for pageNum
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(pageNum))
	return buf
}

// makePartialPageKey generates a partial key for per-document page scans.
// Format: prefix:docID
func makePartialPageKey(docID core.ID) []byte {
	prefix := pagePrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for docID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	return buf
}

// makeEmbeddingKey generates a composite key for an embedding record.
// Format: prefix:docID:pageNum:model
// The model name comes last so per-document and per-page prefix scans work.
func makeEmbeddingKey(docID core.ID, pageNum int, model string) []byte {
	prefix := embeddingPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 + len(model)
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(pageNum))
	offset += 8
	copy(buf[offset:], []byte(model))
	return buf
}

// makePartialEmbeddingKey generates a partial key for per-document embedding scans.
// Format: prefix:docID
func makePartialEmbeddingKey(docID core.ID) []byte {
	prefix := embeddingPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for docID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	return buf
}
