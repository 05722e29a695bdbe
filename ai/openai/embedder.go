package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math"

	"github.com/poiesic/sketchdex/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.ImageEmbedder against OpenAI-compatible multimodal
// embedding APIs (Infinity, vLLM and similar). Images are sent as base64
// data URIs, which these servers accept in place of plain text inputs.
type Embedder struct {
	embedder embeddings.Embedder
	model    string
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(host, model string) (*Embedder, error) {
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		model:    model,
		logger:   slog.Default().With("component", "openai-embedder", "model", model),
	}, nil
}

// NewEmbedder creates an embedder for one model on one host.
//
// Returns ai.ImageEmbedder interface to enforce abstraction.
func NewEmbedder(host, model string) (ai.ImageEmbedder, error) {
	return newEmbedder(host, model)
}

// EmbedImage generates a vector embedding for a single encoded image.
func (e *Embedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	e.logger.Debug("generating image embedding", "bytes", len(image))

	vecs, err := e.embedder.EmbedDocuments(ctx, []string{imageDataURI(image)})
	if err != nil {
		e.logger.Error("failed to generate image embedding", "err", err)
		return nil, err
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("embedding service returned empty vector for model %s", e.model)
	}

	return vecs[0], nil
}

// EmbedImageWithText generates a joint embedding for an image and a text hint.
// The service embeds both inputs in one batch and the results are averaged
// and renormalized, which keeps the output in the image embedding space.
func (e *Embedder) EmbedImageWithText(ctx context.Context, image []byte, text string) ([]float32, error) {
	if text == "" {
		return e.EmbedImage(ctx, image)
	}

	e.logger.Debug("generating joint image+text embedding", "bytes", len(image), "text_length", len(text))

	vecs, err := e.embedder.EmbedDocuments(ctx, []string{imageDataURI(image), text})
	if err != nil {
		e.logger.Error("failed to generate joint embedding", "err", err)
		return nil, err
	}
	if len(vecs) < 2 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("embedding service returned incomplete batch for model %s", e.model)
	}
	if len(vecs[0]) != len(vecs[1]) {
		return nil, fmt.Errorf("image and text embeddings have mismatched dimensions: %d vs %d", len(vecs[0]), len(vecs[1]))
	}

	return meanNormalized(vecs[0], vecs[1]), nil
}

// imageDataURI encodes raw image bytes as a PNG data URI.
func imageDataURI(image []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
}

// meanNormalized averages two equal-length vectors and scales the result to
// unit length. Returns the raw mean when its norm is zero.
func meanNormalized(a, b []float32) []float32 {
	out := make([]float32, len(a))
	var sumSquares float64
	for i := range a {
		out[i] = (a[i] + b[i]) / 2
		sumSquares += float64(out[i]) * float64(out[i])
	}
	if sumSquares == 0 {
		return out
	}
	norm := float32(math.Sqrt(sumSquares))
	for i := range out {
		out[i] /= norm
	}
	return out
}
