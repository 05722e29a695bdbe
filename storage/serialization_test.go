package storage

import (
	"testing"
	"time"

	"github.com/poiesic/sketchdex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := &core.Document{
		Id:          core.IDFromContent("hash"),
		Path:        "/data/papers/attention.pdf",
		DisplayName: "attention.pdf",
		ContentHash: core.HashContent([]byte("pdf bytes")),
		PageCount:   12,
		InsertedAt:  now,
		UpdatedAt:   now,
	}

	decoded, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestPageRoundTrip(t *testing.T) {
	page := &core.Page{DocId: 42, PageNum: 7, Text: "résumé of chapter seven"}

	decoded, err := UnmarshalPage(MarshalPage(page))
	require.NoError(t, err)
	assert.Equal(t, page, decoded)
}

func TestEmbeddingRecordRoundTrip(t *testing.T) {
	rec := &core.EmbeddingRecord{
		DocId:   42,
		PageNum: 7,
		Model:   "google/siglip-so400m-patch14-384",
		Vector:  []float32{0.25, -0.5, 0.125, 1.0},
	}

	decoded, err := UnmarshalEmbeddingRecord(MarshalEmbeddingRecord(rec))
	require.NoError(t, err)
	assert.Equal(t, rec, decoded)
}

func TestUnmarshalTruncatedData(t *testing.T) {
	data := MarshalDocument(&core.Document{
		Id: 1, Path: "/a.pdf", DisplayName: "a.pdf", ContentHash: "abc", PageCount: 1,
	})

	_, err := UnmarshalDocument(data[:len(data)/2])
	assert.Error(t, err)
}
