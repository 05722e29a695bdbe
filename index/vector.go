package index

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/poiesic/sketchdex/core"
	"github.com/poiesic/sketchdex/storage"
)

// Match is a scored page reference returned by an index search.
// Score is a normalized similarity: higher is always better.
type Match struct {
	Ref   core.PageRef
	Score float32
}

// VectorIndex is the narrow adapter contract over the similarity store.
// Implementations translate (doc, page, model) keys to their native ids
// and normalize distances so consumers only ever see "higher is better".
type VectorIndex interface {
	// Add inserts embedding records, replacing any prior vector stored
	// under the same (doc, page, model) key.
	Add(ctx context.Context, records ...*core.EmbeddingRecord) error

	// Search returns up to k matches for the query vector under the given
	// model, ordered by descending similarity with (doc, page) ascending
	// tie-break.
	Search(model string, query []float32, k int) ([]Match, error)

	// Get returns the stored vector for a page under the given model.
	Get(ref core.PageRef, model string) ([]float32, bool)

	// RemoveDocument drops every vector belonging to a document.
	RemoveDocument(ctx context.Context, docID core.ID) error

	// Load populates the index from persisted embedding records.
	Load(ctx context.Context) error

	// Pages returns the number of distinct pages indexed under a model.
	Pages(model string) int
}

// FlatIndex is an exact cosine-similarity index held in process memory and
// persisted through an EmbeddingRepository. Vectors are L2-normalized on
// insert, so the dot product is cosine similarity.
//
// Write discipline: the ingestion pipeline is the only writer. Readers
// proceed under a shared lock and observe the index as of the last
// committed Add batch, never a torn write.
type FlatIndex struct {
	repo   storage.EmbeddingRepository
	logger *slog.Logger

	mu     sync.RWMutex
	models map[string]*modelVectors
}

type modelVectors struct {
	dim     int
	slots   map[core.PageRef]int
	refs    []core.PageRef
	vectors [][]float32
}

var _ VectorIndex = (*FlatIndex)(nil)

// NewFlatIndex creates an empty index backed by the given repository.
func NewFlatIndex(repo storage.EmbeddingRepository) *FlatIndex {
	return &FlatIndex{
		repo:   repo,
		logger: slog.Default().With("component", "vector-index"),
		models: make(map[string]*modelVectors),
	}
}

// Load populates the index from the repository. Called once on startup,
// before any writer runs.
func (ix *FlatIndex) Load(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.models = make(map[string]*modelVectors)
	count := 0
	err := ix.repo.ForEach(ctx, func(rec *core.EmbeddingRecord) error {
		ix.insertLocked(rec)
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading vector index: %w", err)
	}

	ix.logger.Info("vector index loaded", "vectors", count, "models", len(ix.models))
	return nil
}

// Add inserts embedding records: persists them, then publishes the whole
// batch to readers under one write lock.
func (ix *FlatIndex) Add(ctx context.Context, records ...*core.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	normalized := make([]*core.EmbeddingRecord, len(records))
	for i, rec := range records {
		if err := core.ValidateEmbeddingRecord(rec); err != nil {
			return err
		}
		if mv, ok := ix.model(rec.Model); ok && mv.dim != len(rec.Vector) {
			return fmt.Errorf("%w: model %s expects %d, got %d",
				ErrDimensionMismatch, rec.Model, mv.dim, len(rec.Vector))
		}
		normalized[i] = &core.EmbeddingRecord{
			DocId:   rec.DocId,
			PageNum: rec.PageNum,
			Model:   rec.Model,
			Vector:  NormalizeVector(rec.Vector),
		}
	}

	// Persist first: the in-memory view must never be ahead of disk.
	if err := ix.repo.PutEmbeddings(ctx, normalized...); err != nil {
		return fmt.Errorf("persisting embeddings: %w", err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, rec := range normalized {
		ix.insertLocked(rec)
	}
	return nil
}

// Search scans the model's vectors and returns the top k by cosine similarity.
func (ix *FlatIndex) Search(model string, query []float32, k int) ([]Match, error) {
	if len(query) == 0 {
		return nil, core.ErrEmptyVector
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	mv := ix.models[model]
	if mv == nil || len(mv.refs) == 0 {
		return nil, nil
	}
	if mv.dim != len(query) {
		return nil, fmt.Errorf("%w: model %s expects %d, got %d",
			ErrDimensionMismatch, model, mv.dim, len(query))
	}

	q := NormalizeVector(query)
	matches := make([]Match, len(mv.refs))
	for i, vec := range mv.vectors {
		matches[i] = Match{Ref: mv.refs[i], Score: dotProduct(q, vec)}
	}

	SortMatches(matches)
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// Get returns the stored (normalized) vector for a page under a model.
func (ix *FlatIndex) Get(ref core.PageRef, model string) ([]float32, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	mv := ix.models[model]
	if mv == nil {
		return nil, false
	}
	slot, ok := mv.slots[ref]
	if !ok {
		return nil, false
	}
	return mv.vectors[slot], true
}

// RemoveDocument drops a document's vectors from disk and memory.
func (ix *FlatIndex) RemoveDocument(ctx context.Context, docID core.ID) error {
	if err := ix.repo.DeleteByDocument(ctx, docID); err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, mv := range ix.models {
		mv.removeDocument(docID)
	}
	return nil
}

// Pages returns the number of distinct pages indexed under a model.
func (ix *FlatIndex) Pages(model string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	mv := ix.models[model]
	if mv == nil {
		return 0
	}
	return len(mv.refs)
}

func (ix *FlatIndex) model(name string) (*modelVectors, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	mv, ok := ix.models[name]
	return mv, ok
}

// insertLocked stores a normalized record. Must be called with the write lock held.
func (ix *FlatIndex) insertLocked(rec *core.EmbeddingRecord) {
	mv := ix.models[rec.Model]
	if mv == nil {
		mv = &modelVectors{
			dim:   len(rec.Vector),
			slots: make(map[core.PageRef]int),
		}
		ix.models[rec.Model] = mv
	}

	ref := core.PageRef{DocId: rec.DocId, PageNum: rec.PageNum}
	if slot, ok := mv.slots[ref]; ok {
		// At most one embedding per page and model: replace in place.
		mv.vectors[slot] = rec.Vector
		return
	}

	mv.slots[ref] = len(mv.refs)
	mv.refs = append(mv.refs, ref)
	mv.vectors = append(mv.vectors, rec.Vector)
}

func (mv *modelVectors) removeDocument(docID core.ID) {
	refs := mv.refs[:0]
	vectors := mv.vectors[:0]
	slots := make(map[core.PageRef]int, len(mv.slots))
	for i, ref := range mv.refs {
		if ref.DocId == docID {
			continue
		}
		slots[ref] = len(refs)
		refs = append(refs, ref)
		vectors = append(vectors, mv.vectors[i])
	}
	mv.refs = refs
	mv.vectors = vectors
	mv.slots = slots
}

// SortMatches orders matches by descending score, then (doc, page) ascending.
// Identical inputs against an unchanged index therefore always produce the
// same ordering.
func SortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Ref.Less(matches[j].Ref)
	})
}

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	// Can't normalize zero vector
	if magnitude == 0 {
		result := make([]float32, len(v))
		return result
	}

	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
