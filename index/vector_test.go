package index

import (
	"context"
	"testing"

	"github.com/poiesic/sketchdex/core"
	badgerstore "github.com/poiesic/sketchdex/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFlatIndex(t *testing.T) *FlatIndex {
	t.Helper()
	docRepo, embRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		embRepo.Close()
		docRepo.Close()
		backend.Close()
	})
	return NewFlatIndex(embRepo)
}

func rec(doc core.ID, page int, model string, vec ...float32) *core.EmbeddingRecord {
	return &core.EmbeddingRecord{DocId: doc, PageNum: page, Model: model, Vector: vec}
}

func TestFlatIndexAddAndSearch(t *testing.T) {
	ix := setupFlatIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Add(ctx,
		rec(1, 1, "fast", 1, 0),
		rec(1, 2, "fast", 0, 1),
		rec(2, 1, "fast", 0.9, 0.1)))

	matches, err := ix.Search("fast", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Exact match first, the near match second.
	assert.Equal(t, core.PageRef{DocId: 1, PageNum: 1}, matches[0].Ref)
	assert.Equal(t, core.PageRef{DocId: 2, PageNum: 1}, matches[1].Ref)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestFlatIndexTieBreakDeterministic(t *testing.T) {
	ix := setupFlatIndex(t)
	ctx := context.Background()

	// Identical vectors: scores tie, (doc, page) ascending decides.
	require.NoError(t, ix.Add(ctx,
		rec(9, 1, "fast", 1, 0),
		rec(2, 5, "fast", 1, 0),
		rec(2, 3, "fast", 1, 0)))

	for i := 0; i < 5; i++ {
		matches, err := ix.Search("fast", []float32{1, 0}, 3)
		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, core.PageRef{DocId: 2, PageNum: 3}, matches[0].Ref)
		assert.Equal(t, core.PageRef{DocId: 2, PageNum: 5}, matches[1].Ref)
		assert.Equal(t, core.PageRef{DocId: 9, PageNum: 1}, matches[2].Ref)
	}
}

func TestFlatIndexReplaceSameKey(t *testing.T) {
	ix := setupFlatIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Add(ctx, rec(1, 1, "fast", 1, 0)))
	require.NoError(t, ix.Add(ctx, rec(1, 1, "fast", 0, 1)))

	assert.Equal(t, 1, ix.Pages("fast"))

	vec, ok := ix.Get(core.PageRef{DocId: 1, PageNum: 1}, "fast")
	require.True(t, ok)
	assert.InDelta(t, 0, vec[0], 1e-6)
	assert.InDelta(t, 1, vec[1], 1e-6)
}

func TestFlatIndexDimensionMismatch(t *testing.T) {
	ix := setupFlatIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Add(ctx, rec(1, 1, "fast", 1, 0)))

	err := ix.Add(ctx, rec(1, 2, "fast", 1, 0, 0))
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = ix.Search("fast", []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFlatIndexModelsAreIndependent(t *testing.T) {
	ix := setupFlatIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Add(ctx,
		rec(1, 1, "fast", 1, 0),
		rec(1, 1, "accurate", 0, 1, 0, 0)))

	assert.Equal(t, 1, ix.Pages("fast"))
	assert.Equal(t, 1, ix.Pages("accurate"))
	assert.Equal(t, 0, ix.Pages("unknown"))
}

func TestFlatIndexRemoveDocument(t *testing.T) {
	ix := setupFlatIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Add(ctx,
		rec(1, 1, "fast", 1, 0),
		rec(1, 2, "fast", 0.8, 0.2),
		rec(2, 1, "fast", 0, 1)))

	require.NoError(t, ix.RemoveDocument(ctx, 1))

	assert.Equal(t, 1, ix.Pages("fast"))
	matches, err := ix.Search("fast", []float32{1, 0}, 10)
	require.NoError(t, err)
	for _, m := range matches {
		assert.NotEqual(t, core.ID(1), m.Ref.DocId)
	}
}

func TestFlatIndexLoadRoundTrip(t *testing.T) {
	docRepo, embRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		embRepo.Close()
		docRepo.Close()
		backend.Close()
	})

	ctx := context.Background()
	ix := NewFlatIndex(embRepo)
	require.NoError(t, ix.Add(ctx,
		rec(1, 1, "fast", 1, 0),
		rec(1, 2, "fast", 0, 1)))

	// A fresh index over the same repository sees the persisted vectors.
	reloaded := NewFlatIndex(embRepo)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, 2, reloaded.Pages("fast"))

	matches, err := reloaded.Search("fast", []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, core.PageRef{DocId: 1, PageNum: 1}, matches[0].Ref)
}

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := NormalizeVector([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}
