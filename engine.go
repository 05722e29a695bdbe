// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package sketchdex

import (
	"context"
	"log/slog"

	"github.com/poiesic/sketchdex/ai"
	"github.com/poiesic/sketchdex/ai/openai"
	"github.com/poiesic/sketchdex/core"
	"github.com/poiesic/sketchdex/index"
	"github.com/poiesic/sketchdex/ingestion"
	"github.com/poiesic/sketchdex/jobs"
	"github.com/poiesic/sketchdex/search"
	"github.com/poiesic/sketchdex/storage"
	"github.com/poiesic/sketchdex/storage/badger"
)

// Engine owns the retrieval engine's shared state: the durable store, both
// indices, the model provider and the job tracker. Pipelines and searchers
// are constructed from it and share that state.
type Engine struct {
	backend  *badger.Backend
	docRepo  storage.DocumentRepository
	embRepo  storage.EmbeddingRepository
	vectors  *index.FlatIndex
	lexical  *index.LexicalIndex
	provider ai.ModelProvider
	tracker  *jobs.Tracker
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	provider ai.ModelProvider
	inMemory bool
}

// WithAIConfig sets the embedding model configuration.
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithModelProvider injects a model provider directly, bypassing the
// OpenAI-compatible default. Used by tests and embedding hosts.
func WithModelProvider(provider ai.ModelProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the store in memory, with no files on disk.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// Health reports the engine's operational state.
type Health struct {
	FastModelLoaded     bool
	AccurateModelLoaded bool
	IndexedPages        int
	IndexSizeBytes      int64
}

// NewEngine opens the store under dataDir and loads both indices.
func NewEngine(dataDir string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(dataDir, options.inMemory)
	if err != nil {
		return nil, err
	}

	docRepo := badger.NewDocumentRepository(backend)
	embRepo := badger.NewEmbeddingRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	vectors := index.NewFlatIndex(embRepo)
	if err := vectors.Load(context.Background()); err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	lexical := index.NewLexicalIndex()
	if err := lexical.Load(context.Background(), docRepo); err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:  backend,
		docRepo:  docRepo,
		embRepo:  embRepo,
		vectors:  vectors,
		lexical:  lexical,
		provider: provider,
		tracker:  jobs.NewTracker(),
		logger:   slog.Default(),
	}, nil
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing model provider", "err", err)
	}

	if err := e.docRepo.Close(); err != nil {
		e.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := e.embRepo.Close(); err != nil {
		e.logger.Error("error closing embedding repository", "err", err)
		return err
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// DocumentRepository exposes the catalog.
func (e *Engine) DocumentRepository() storage.DocumentRepository {
	return e.docRepo
}

// VectorIndex exposes the vector index adapter.
func (e *Engine) VectorIndex() index.VectorIndex {
	return e.vectors
}

// LexicalIndex exposes the BM25 text index.
func (e *Engine) LexicalIndex() *index.LexicalIndex {
	return e.lexical
}

// Tracker exposes the job tracker for status polling.
func (e *Engine) Tracker() *jobs.Tracker {
	return e.tracker
}

// NewIngestionPipeline builds a pipeline over the engine's shared state.
// The rasterizer is the host's PDF boundary.
func (e *Engine) NewIngestionPipeline(rasterizer ingestion.Rasterizer, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(e.docRepo, e.vectors, e.lexical, e.provider, rasterizer, e.tracker, opts...)
}

// NewSearcher builds a searcher over the engine's shared state.
func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(e.docRepo, e.vectors, e.lexical, e.provider, opts...)
}

// RemoveDocuments deletes documents from the catalog and both indices.
// Returns the number of documents removed; unknown ids are skipped.
func (e *Engine) RemoveDocuments(ctx context.Context, ids ...core.ID) (int, error) {
	count, err := e.docRepo.RemoveDocuments(ctx, ids...)
	if err != nil {
		return count, err
	}
	for _, id := range ids {
		if err := e.vectors.RemoveDocument(ctx, id); err != nil {
			return count, err
		}
		e.lexical.RemoveDocument(id)
	}
	return count, nil
}

// Health reports model load state and index size.
func (e *Engine) Health() Health {
	return Health{
		FastModelLoaded:     e.provider.FastLoaded(),
		AccurateModelLoaded: e.provider.AccurateLoaded(),
		IndexedPages:        e.vectors.Pages(e.provider.FastModel()),
		IndexSizeBytes:      e.backend.DiskSize(),
	}
}
