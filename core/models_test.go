package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContentDeterministic(t *testing.T) {
	id1 := IDFromContent("some content hash")
	id2 := IDFromContent("some content hash")
	id3 := IDFromContent("different content hash")

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
	assert.NotZero(t, id1)
}

func TestHashContent(t *testing.T) {
	h1 := HashContent([]byte("file bytes"))
	h2 := HashContent([]byte("file bytes"))
	h3 := HashContent([]byte("other bytes"))

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64) // 256 bits hex-encoded
}

func TestNewDocument(t *testing.T) {
	hash := HashContent([]byte("pdf bytes"))
	doc := NewDocument("/data/papers/attention.pdf", hash, 12)

	require.NotNil(t, doc)
	assert.Equal(t, IDFromContent(hash), doc.Id)
	assert.Equal(t, "attention.pdf", doc.DisplayName)
	assert.Equal(t, hash, doc.ContentHash)
	assert.Equal(t, 12, doc.PageCount)
}

func TestNewDocumentIdenticalBytesSameID(t *testing.T) {
	hash := HashContent([]byte("same bytes"))
	a := NewDocument("/one/copy.pdf", hash, 3)
	b := NewDocument("/another/copy.pdf", hash, 3)

	// Identity follows content, not location.
	assert.Equal(t, a.Id, b.Id)
}

func TestPageRefLess(t *testing.T) {
	assert.True(t, PageRef{DocId: 1, PageNum: 9}.Less(PageRef{DocId: 2, PageNum: 1}))
	assert.True(t, PageRef{DocId: 1, PageNum: 1}.Less(PageRef{DocId: 1, PageNum: 2}))
	assert.False(t, PageRef{DocId: 1, PageNum: 2}.Less(PageRef{DocId: 1, PageNum: 2}))
	assert.False(t, PageRef{DocId: 2, PageNum: 1}.Less(PageRef{DocId: 1, PageNum: 9}))
}
