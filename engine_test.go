package sketchdex

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/sketchdex/ai/mock"
	"github.com/poiesic/sketchdex/core"
	"github.com/poiesic/sketchdex/ingestion"
	"github.com/poiesic/sketchdex/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRasterizer renders deterministic page images so the mock embedder
// produces stable vectors: searching with a page's exact bytes finds it.
type fixedRasterizer struct {
	pages map[string]int // keyed by file base name
}

func (r *fixedRasterizer) PageCount(ctx context.Context, path string) (int, error) {
	return r.pages[filepath.Base(path)], nil
}

func (r *fixedRasterizer) RenderPage(ctx context.Context, path string, pageNum int) ([]byte, error) {
	return pageImage(filepath.Base(path), pageNum), nil
}

func (r *fixedRasterizer) ExtractText(ctx context.Context, path string, pageNum int) (string, error) {
	if filepath.Base(path) == "pump.pdf" && pageNum == 1 {
		return "hydraulic pump assembly", nil
	}
	return "", nil
}

func pageImage(name string, pageNum int) []byte {
	return []byte(name + "#" + string(rune('0'+pageNum)))
}

func newTestEngine(t *testing.T, dataDir string) *Engine {
	t.Helper()
	engine, err := NewEngine(dataDir, WithModelProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func ingestAll(t *testing.T, engine *Engine, root string, raster ingestion.Rasterizer) jobs.Snapshot {
	t.Helper()
	pipeline, err := engine.NewIngestionPipeline(raster,
		ingestion.WithPoolSize(2),
		ingestion.WithRetry(2, time.Millisecond))
	require.NoError(t, err)
	defer pipeline.Release()

	jobID := engine.Tracker().Start()
	pipeline.Run(context.Background(), jobID, root, false)

	snap, err := engine.Tracker().Get(jobID)
	require.NoError(t, err)
	return snap
}

func TestEngineEndToEnd(t *testing.T) {
	dataDir := t.TempDir()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "pump.pdf"), []byte("pump doc"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "valve.pdf"), []byte("valve doc"), 0o644))
	raster := &fixedRasterizer{pages: map[string]int{"pump.pdf": 2, "valve.pdf": 1}}

	engine := newTestEngine(t, dataDir)

	snap := ingestAll(t, engine, root, raster)
	require.Equal(t, jobs.StatusCompleted, snap.Status)
	assert.Equal(t, 2, snap.DocsDone)
	assert.Equal(t, 3, snap.PagesDone)

	health := engine.Health()
	assert.True(t, health.FastModelLoaded)
	assert.Equal(t, 3, health.IndexedPages)

	// Searching with a page's own bytes must surface that page first.
	searcher, err := engine.NewSearcher()
	require.NoError(t, err)
	resp, err := searcher.Search(context.Background(), &core.SearchQuery{
		Sketch: pageImage("pump.pdf", 2),
		Mode:   core.ModeFast,
		TopK:   3,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "pump.pdf", resp.Results[0].DocName)
	assert.Equal(t, 2, resp.Results[0].PageNum)
	assert.Equal(t, 3, resp.TotalIndexedPages)

	// Text-boosted search leans on the extracted page text.
	boosted, err := searcher.Search(context.Background(), &core.SearchQuery{
		Sketch: pageImage("pump.pdf", 1),
		Text:   "hydraulic",
		Mode:   core.ModeFast,
		TopK:   3,
	})
	require.NoError(t, err)
	require.NotEmpty(t, boosted.Results)
	assert.Equal(t, "pump.pdf", boosted.Results[0].DocName)
	assert.Equal(t, 1, boosted.Results[0].PageNum)
}

func TestEnginePersistsAcrossReopen(t *testing.T) {
	dataDir := t.TempDir()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "pump.pdf"), []byte("pump doc"), 0o644))
	raster := &fixedRasterizer{pages: map[string]int{"pump.pdf": 2}}

	engine, err := NewEngine(dataDir, WithModelProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	snap := ingestAll(t, engine, root, raster)
	require.Equal(t, jobs.StatusCompleted, snap.Status)
	require.NoError(t, engine.Close())

	// A fresh engine over the same data dir rebuilds both indices from the store.
	reopened := newTestEngine(t, dataDir)
	assert.Equal(t, 2, reopened.Health().IndexedPages)

	searcher, err := reopened.NewSearcher()
	require.NoError(t, err)
	resp, err := searcher.Search(context.Background(), &core.SearchQuery{
		Sketch: pageImage("pump.pdf", 1),
		Mode:   core.ModeFast,
		TopK:   2,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, 1, resp.Results[0].PageNum)

	// The lexical index was rebuilt from stored page text.
	assert.NotEmpty(t, reopened.LexicalIndex().Search("hydraulic", 5))
}

func TestEngineRemoveDocuments(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "pump.pdf"), []byte("pump doc"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "valve.pdf"), []byte("valve doc"), 0o644))
	raster := &fixedRasterizer{pages: map[string]int{"pump.pdf": 1, "valve.pdf": 1}}

	engine, err := NewEngine(t.TempDir(), WithModelProvider(mock.NewMockProvider()), WithInMemory())
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	snap := ingestAll(t, engine, root, raster)
	require.Equal(t, jobs.StatusCompleted, snap.Status)

	ctx := context.Background()
	docs, err := engine.DocumentRepository().ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	removed, err := engine.RemoveDocuments(ctx, docs[0].Id, core.ID(0xdead))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	remaining, err := engine.DocumentRepository().ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
	assert.Equal(t, 1, engine.Health().IndexedPages)
}
