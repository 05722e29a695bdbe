package search

import (
	"context"
	"testing"

	"github.com/poiesic/sketchdex/ai/mock"
	"github.com/poiesic/sketchdex/core"
	"github.com/poiesic/sketchdex/index"
	"github.com/poiesic/sketchdex/storage"
	badgerstore "github.com/poiesic/sketchdex/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchEnv struct {
	docs     storage.DocumentRepository
	vectors  *index.FlatIndex
	lexical  *index.LexicalIndex
	provider *mock.MockProvider
	searcher *Searcher
}

func setupSearch(t *testing.T) *searchEnv {
	t.Helper()

	docRepo, embRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		embRepo.Close()
		docRepo.Close()
		backend.Close()
	})

	env := &searchEnv{
		docs:     docRepo,
		vectors:  index.NewFlatIndex(embRepo),
		lexical:  index.NewLexicalIndex(),
		provider: mock.NewMockProvider(),
	}

	env.searcher, err = NewSearcher(docRepo, env.vectors, env.lexical, env.provider)
	require.NoError(t, err)
	return env
}

// addDoc registers a document and indexes fast-model vectors for its pages.
func (env *searchEnv) addDoc(t *testing.T, name string, vectors [][]float32) core.ID {
	t.Helper()
	ctx := context.Background()

	doc, _, err := env.docs.Register(ctx,
		core.NewDocument("/data/"+name, core.HashContent([]byte(name)), len(vectors)), false)
	require.NoError(t, err)

	for i, vec := range vectors {
		require.NoError(t, env.vectors.Add(ctx, &core.EmbeddingRecord{
			DocId: doc.Id, PageNum: i + 1, Model: env.provider.FastModel(), Vector: vec,
		}))
	}
	return doc.Id
}

// fixQueryEmbeddings pins both mock embedders to fixed query vectors so
// tests control similarity exactly.
func (env *searchEnv) fixQueryEmbeddings(fast, accurate []float32) {
	env.provider.GetFastEmbedder().EmbedImageFunc = func(context.Context, []byte) ([]float32, error) {
		return fast, nil
	}
	env.provider.GetFastEmbedder().EmbedImageWithTextFunc = func(context.Context, []byte, string) ([]float32, error) {
		return fast, nil
	}
	env.provider.GetAccurateEmbedder().EmbedImageFunc = func(context.Context, []byte) ([]float32, error) {
		return accurate, nil
	}
}

func fastQuery(topK int) *core.SearchQuery {
	return &core.SearchQuery{Sketch: []byte{1, 2, 3}, Mode: core.ModeFast, TopK: topK}
}

func TestSearchEmptySketchRejectedBeforeIndexAccess(t *testing.T) {
	env := setupSearch(t)

	_, err := env.searcher.Search(context.Background(),
		&core.SearchQuery{Mode: core.ModeFast, TopK: 5})

	assert.ErrorIs(t, err, core.ErrEmptySketch)
	// Validation failed before the models were touched.
	assert.Zero(t, env.provider.GetFastEmbedder().CallCount())
	assert.False(t, env.provider.FastLoaded())
}

func TestSearchEmptyIndexReturnsEmptyResults(t *testing.T) {
	env := setupSearch(t)

	resp, err := env.searcher.Search(context.Background(), fastQuery(5))
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Zero(t, resp.TotalIndexedPages)
	assert.False(t, resp.Degraded)
}

func TestFastSearchFindsMatchingPage(t *testing.T) {
	env := setupSearch(t)

	// One matching page among nine dissimilar ones.
	env.addDoc(t, "match.pdf", [][]float32{{1, 0}})
	env.addDoc(t, "noise.pdf", [][]float32{
		{0, 1}, {0, 1}, {0, 1}, {0, 1}, {0, 1}, {0, 1}, {0, 1}, {0, 1}, {0, 1},
	})
	env.fixQueryEmbeddings([]float32{1, 0}, nil)

	resp, err := env.searcher.Search(context.Background(), fastQuery(5))
	require.NoError(t, err)
	require.Len(t, resp.Results, 5)
	assert.Equal(t, 10, resp.TotalIndexedPages)

	top := resp.Results[0]
	assert.Equal(t, "match.pdf", top.DocName)
	assert.Equal(t, 1, top.PageNum)
	assert.Equal(t, core.StageFast, top.Stage)
}

func TestSearchDeterministicOrdering(t *testing.T) {
	env := setupSearch(t)

	// All pages identical: everything ties, (doc, page) ascending decides.
	env.addDoc(t, "a.pdf", [][]float32{{1, 0}, {1, 0}})
	env.addDoc(t, "b.pdf", [][]float32{{1, 0}, {1, 0}})
	env.fixQueryEmbeddings([]float32{1, 0}, nil)

	first, err := env.searcher.Search(context.Background(), fastQuery(4))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := env.searcher.Search(context.Background(), fastQuery(4))
		require.NoError(t, err)
		assert.Equal(t, first.Results, again.Results)
	}

	for i := 1; i < len(first.Results); i++ {
		prev, cur := first.Results[i-1], first.Results[i]
		ordered := prev.DocId < cur.DocId ||
			(prev.DocId == cur.DocId && prev.PageNum < cur.PageNum)
		assert.True(t, ordered, "tie-break must order by (doc, page) ascending")
	}
}

func TestTextQueryBoostsLexicalMatches(t *testing.T) {
	env := setupSearch(t)

	// Two pages equally similar to the sketch; only one mentions the text.
	pumpDoc := env.addDoc(t, "pump.pdf", [][]float32{{1, 0}})
	env.addDoc(t, "valve.pdf", [][]float32{{1, 0}})
	env.lexical.Add(core.PageRef{DocId: pumpDoc, PageNum: 1}, "hydraulic pump cross section")
	env.fixQueryEmbeddings([]float32{1, 0}, nil)

	resp, err := env.searcher.Search(context.Background(), &core.SearchQuery{
		Sketch: []byte{1}, Text: "pump", Mode: core.ModeFast, TopK: 2,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, pumpDoc, resp.Results[0].DocId)
	assert.Greater(t, resp.Results[0].Score, resp.Results[1].Score)
}

func TestAccurateModeRerankReordersCandidates(t *testing.T) {
	env := setupSearch(t)
	ctx := context.Background()

	// Page A wins the fast stage, page B wins under the accurate model.
	docA := env.addDoc(t, "a.pdf", [][]float32{{1, 0}})
	docB := env.addDoc(t, "b.pdf", [][]float32{{0.9, 0.1}})
	require.NoError(t, env.vectors.Add(ctx,
		&core.EmbeddingRecord{DocId: docA, PageNum: 1, Model: env.provider.AccurateModel(), Vector: []float32{0, 1, 0}},
		&core.EmbeddingRecord{DocId: docB, PageNum: 1, Model: env.provider.AccurateModel(), Vector: []float32{1, 0, 0}}))

	env.fixQueryEmbeddings([]float32{1, 0}, []float32{1, 0, 0})

	resp, err := env.searcher.Search(ctx, &core.SearchQuery{
		Sketch: []byte{1}, Mode: core.ModeAccurate, TopK: 2,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.False(t, resp.Degraded)

	assert.Equal(t, docB, resp.Results[0].DocId)
	assert.Equal(t, core.StageReranked, resp.Results[0].Stage)
	assert.Equal(t, docA, resp.Results[1].DocId)
}

func TestAccurateModeFallsBackWhenModelUnavailable(t *testing.T) {
	env := setupSearch(t)
	env.provider.FailAccurate = true

	env.addDoc(t, "a.pdf", [][]float32{{1, 0}})
	env.provider.GetFastEmbedder().EmbedImageFunc = func(context.Context, []byte) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	resp, err := env.searcher.Search(context.Background(), &core.SearchQuery{
		Sketch: []byte{1}, Mode: core.ModeAccurate, TopK: 5,
	})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, core.StageFast, resp.Results[0].Stage)
}

func TestAccurateModeFallsBackWithoutAccurateEmbeddings(t *testing.T) {
	env := setupSearch(t)

	// Fast embeddings only: nothing for the reranker to score.
	env.addDoc(t, "a.pdf", [][]float32{{1, 0}})
	env.fixQueryEmbeddings([]float32{1, 0}, []float32{1, 0, 0})

	resp, err := env.searcher.Search(context.Background(), &core.SearchQuery{
		Sketch: []byte{1}, Mode: core.ModeAccurate, TopK: 5,
	})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, core.StageFast, resp.Results[0].Stage)
}

func TestRemovedDocumentNeverSurfaces(t *testing.T) {
	env := setupSearch(t)
	ctx := context.Background()

	gone := env.addDoc(t, "gone.pdf", [][]float32{{1, 0}, {1, 0}})
	env.addDoc(t, "kept.pdf", [][]float32{{1, 0}})
	env.lexical.Add(core.PageRef{DocId: gone, PageNum: 1}, "secret diagram")

	_, err := env.docs.RemoveDocuments(ctx, gone)
	require.NoError(t, err)
	require.NoError(t, env.vectors.RemoveDocument(ctx, gone))
	env.lexical.RemoveDocument(gone)

	env.fixQueryEmbeddings([]float32{1, 0}, nil)
	resp, err := env.searcher.Search(ctx, &core.SearchQuery{
		Sketch: []byte{1}, Text: "secret", Mode: core.ModeFast, TopK: 10,
	})
	require.NoError(t, err)
	for _, r := range resp.Results {
		assert.NotEqual(t, gone, r.DocId)
	}
	assert.Equal(t, 1, resp.TotalIndexedPages)
}

func TestSearchReportsQueryTime(t *testing.T) {
	env := setupSearch(t)
	env.addDoc(t, "a.pdf", [][]float32{{1, 0}})
	env.fixQueryEmbeddings([]float32{1, 0}, nil)

	resp, err := env.searcher.Search(context.Background(), fastQuery(1))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, resp.QueryTimeMS, int64(0))
}
