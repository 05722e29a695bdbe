package mock

import (
	"context"
	"hash/fnv"
	"sync/atomic"
)

// MockEmbedder is a test double for ai.ImageEmbedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedImageFunc is called by EmbedImage if set.
	// If nil, uses default deterministic behavior.
	EmbedImageFunc func(ctx context.Context, image []byte) ([]float32, error)

	// EmbedImageWithTextFunc is called by EmbedImageWithText if set.
	// If nil, uses default deterministic behavior.
	EmbedImageWithTextFunc func(ctx context.Context, image []byte, text string) ([]float32, error)

	// Dim is the dimension of generated vectors. Defaults to 64 when zero.
	Dim int

	// callCount is atomic: the ingestion pipeline calls embedders from
	// concurrent workers.
	callCount atomic.Int64
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via call counts.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedImage generates a deterministic embedding based on the image bytes.
func (m *MockEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	m.callCount.Add(1)

	if m.EmbedImageFunc != nil {
		return m.EmbedImageFunc(ctx, image)
	}

	return generateDeterministicVector(image, m.dim()), nil
}

// EmbedImageWithText generates a deterministic embedding covering both inputs.
func (m *MockEmbedder) EmbedImageWithText(ctx context.Context, image []byte, text string) ([]float32, error) {
	m.callCount.Add(1)

	if m.EmbedImageWithTextFunc != nil {
		return m.EmbedImageWithTextFunc(ctx, image, text)
	}

	seed := make([]byte, 0, len(image)+len(text))
	seed = append(seed, image...)
	seed = append(seed, []byte(text)...)
	return generateDeterministicVector(seed, m.dim()), nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected functions.
func (m *MockEmbedder) Reset() {
	m.callCount.Store(0)
	m.EmbedImageFunc = nil
	m.EmbedImageWithTextFunc = nil
}

func (m *MockEmbedder) dim() int {
	if m.Dim > 0 {
		return m.Dim
	}
	return 64
}

// generateDeterministicVector creates a deterministic embedding vector from bytes.
// It uses FNV hash to ensure the same input always produces the same vector.
func generateDeterministicVector(data []byte, dim int) []float32 {
	h := fnv.New32a()
	h.Write(data)
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		// Simple pseudo-random generation based on seed and index
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}

	return vector
}
