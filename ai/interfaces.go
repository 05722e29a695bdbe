package ai

import "context"

// ImageEmbedder generates vector embeddings from encoded images for visual
// similarity search. Implementations must be thread-safe for concurrent use.
type ImageEmbedder interface {
	// EmbedImage generates a vector embedding for a single encoded image.
	// The returned vector represents the visual content of the image.
	// Returns an error if the embedding generation fails.
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)

	// EmbedImageWithText generates a joint embedding for an image and a
	// text hint. Implementations that cannot embed jointly may combine the
	// two modalities themselves; callers only rely on the result living in
	// the same vector space as EmbedImage.
	EmbedImageWithText(ctx context.Context, image []byte, text string) ([]float32, error)
}

// ModelProvider manages the fast and accurate embedding models.
//
// Models are loaded lazily: the first caller needing a model triggers the
// load under a load-specific lock, and every later caller reuses the cached
// instance for the life of the process. The provider is injected into the
// ingestion and search components rather than accessed as global state.
type ModelProvider interface {
	// FastEmbedder returns the first-stage, low-latency embedder,
	// loading it on first use.
	FastEmbedder(ctx context.Context) (ImageEmbedder, error)

	// AccurateEmbedder returns the second-stage, high-fidelity embedder,
	// loading it on first use.
	AccurateEmbedder(ctx context.Context) (ImageEmbedder, error)

	// FastModel returns the fast model's name, used to key index entries.
	FastModel() string

	// AccurateModel returns the accurate model's name.
	AccurateModel() string

	// FastLoaded reports whether the fast model has been loaded.
	FastLoaded() bool

	// AccurateLoaded reports whether the accurate model has been loaded.
	AccurateLoaded() bool

	// Close releases resources held by the provider and its embedders.
	Close() error
}
