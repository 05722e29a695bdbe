package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/sketchdex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, contents []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, contents, 0o644))
}

func TestDiscoverPDFs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), []byte("doc a"))
	writeFile(t, filepath.Join(root, "sub", "b.PDF"), []byte("doc b"))
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("ignored"))
	writeFile(t, filepath.Join(root, "sub", "deep", "c.pdf"), []byte("doc c"))

	candidates, err := DiscoverPDFs(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = filepath.Base(c.Path)
		assert.NotEmpty(t, c.Hash)
	}
	assert.ElementsMatch(t, []string{"a.pdf", "b.PDF", "c.pdf"}, paths)
}

func TestDiscoverPDFsRootMustBeDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "single.pdf")
	writeFile(t, file, []byte("doc"))

	_, err := DiscoverPDFs(context.Background(), file)
	assert.ErrorIs(t, err, ErrRootNotDirectory)
}

func TestDiscoverPDFsMissingRoot(t *testing.T) {
	_, err := DiscoverPDFs(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestHashFileMatchesContentHash(t *testing.T) {
	contents := []byte("identical bytes, identical hash")
	path := filepath.Join(t.TempDir(), "x.pdf")
	writeFile(t, path, contents)

	hash, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, core.HashContent(contents), hash)
}
