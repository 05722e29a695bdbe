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


package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/sketchdex/ai"
	"github.com/poiesic/sketchdex/core"
	"github.com/poiesic/sketchdex/index"
	"github.com/poiesic/sketchdex/storage"
)

// minCandidates is the floor for the stage-1 candidate pool, so small top_k
// values still give the reranker something to work with.
const minCandidates = 20

// Response is the outcome of one search call.
type Response struct {
	Results []core.SearchResult

	// QueryTimeMS is the total elapsed query time in milliseconds.
	QueryTimeMS int64

	// TotalIndexedPages is the number of pages searchable under the fast model.
	TotalIndexedPages int

	// Degraded is set when an accurate-mode request fell back to fast-only
	// results because the accurate model or its embeddings were unavailable.
	Degraded bool
}

// Searcher executes the two-stage retrieval protocol: a fast vector stage
// with an optional lexical boost, then an accurate-model rerank of the
// stage-1 candidates.
type Searcher struct {
	docs     storage.DocumentRepository
	vectors  index.VectorIndex
	lexical  *index.LexicalIndex
	provider ai.ModelProvider

	vectorWeight  float32
	lexicalWeight float32
	candidateMult int
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithWeights sets the fusion weights for the vector and lexical signals.
// Defaults are 0.7 and 0.3.
func WithWeights(vector, lexical float32) Option {
	return func(s *Searcher) error {
		s.vectorWeight = vector
		s.lexicalWeight = lexical
		return nil
	}
}

// WithCandidateMultiplier sets how many stage-1 candidates to retrieve per
// requested result. Default is 5, with a minimum of 1.
func WithCandidateMultiplier(mult int) Option {
	return func(s *Searcher) error {
		if mult < 1 {
			mult = 1
		}
		s.candidateMult = mult
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher. The lexical index may be nil, in which
// case text queries only influence the sketch embedding.
func NewSearcher(
	docs storage.DocumentRepository,
	vectors index.VectorIndex,
	lexical *index.LexicalIndex,
	provider ai.ModelProvider,
	opts ...Option,
) (*Searcher, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorIndexRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	s := &Searcher{
		docs:          docs,
		vectors:       vectors,
		lexical:       lexical,
		provider:      provider,
		vectorWeight:  0.7,
		lexicalWeight: 0.3,
		candidateMult: 5,
		logger:        slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search runs the retrieval protocol for one query.
func (s *Searcher) Search(ctx context.Context, query *core.SearchQuery) (*Response, error) {
	return s.SearchWithMonitor(ctx, query, nil)
}

// SearchWithMonitor runs the retrieval protocol with stage callbacks.
//
// Validation failures are returned before any index access. An empty index
// yields an empty response, not an error. In accurate mode, an unavailable
// accurate model or missing accurate embeddings degrade the response to
// fast-only results with Degraded set.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query *core.SearchQuery, monitor SearchMonitor) (*Response, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if err := core.ValidateSearchQuery(query); err != nil {
		return nil, err
	}

	monitor.Start(query)
	start := time.Now()

	totalPages := s.vectors.Pages(s.provider.FastModel())
	if totalPages == 0 {
		return &Response{
			Results:     []core.SearchResult{},
			QueryTimeMS: time.Since(start).Milliseconds(),
		}, nil
	}

	fastMatches, err := s.fastStage(ctx, query, monitor)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches := fastMatches
	stages := map[core.PageRef]core.ResultStage{}
	degraded := false

	if query.Mode == core.ModeAccurate {
		reranked, ok := s.rerank(ctx, query, fastMatches, stages, monitor)
		if ok {
			matches = reranked
		} else {
			degraded = true
		}
	}

	if query.TopK < len(matches) {
		matches = matches[:query.TopK]
	}

	results := s.buildResults(ctx, matches, stages)
	monitor.Finish(results)

	resp := &Response{
		Results:           results,
		QueryTimeMS:       time.Since(start).Milliseconds(),
		TotalIndexedPages: totalPages,
		Degraded:          degraded,
	}
	s.logger.Debug("search completed",
		"mode", query.Mode, "results", len(results),
		"degraded", degraded, "elapsed_ms", resp.QueryTimeMS)
	return resp, nil
}

// fastStage embeds the sketch with the fast model and retrieves the
// candidate pool, boosted by the lexical index when a text query is present.
func (s *Searcher) fastStage(ctx context.Context, query *core.SearchQuery, monitor SearchMonitor) ([]index.Match, error) {
	embedder, err := s.provider.FastEmbedder(ctx)
	if err != nil {
		return nil, err
	}

	var sketchVec []float32
	if query.Text != "" {
		sketchVec, err = embedder.EmbedImageWithText(ctx, query.Sketch, query.Text)
	} else {
		sketchVec, err = embedder.EmbedImage(ctx, query.Sketch)
	}
	if err != nil {
		s.logger.Error("failed to embed sketch", "err", err)
		return nil, err
	}

	candidateK := query.TopK * s.candidateMult
	if candidateK < minCandidates {
		candidateK = minCandidates
	}

	matches, err := s.vectors.Search(s.provider.FastModel(), sketchVec, candidateK)
	if err != nil {
		return nil, err
	}
	monitor.AfterFastStage(matches)

	if query.Text != "" && s.lexical != nil {
		lexMatches := s.lexical.Search(query.Text, candidateK)
		matches = FuseScores(matches, lexMatches, s.vectorWeight, s.lexicalWeight)
		monitor.AfterLexicalBoost(matches)
	}

	return matches, nil
}

// rerank re-scores the stage-1 candidates against their precomputed
// accurate-model embeddings. The accurate score fully supersedes the fast
// score; candidates without an accurate embedding keep their fast score and
// rank below every reranked candidate. Returns ok=false when reranking was
// impossible, signalling a degraded fast-only response.
func (s *Searcher) rerank(ctx context.Context, query *core.SearchQuery, candidates []index.Match, stages map[core.PageRef]core.ResultStage, monitor SearchMonitor) ([]index.Match, bool) {
	embedder, err := s.provider.AccurateEmbedder(ctx)
	if err != nil {
		s.logger.Warn("accurate model unavailable, falling back to fast results", "err", err)
		monitor.Degraded("accurate model unavailable")
		return nil, false
	}

	var sketchVec []float32
	if query.Text != "" {
		sketchVec, err = embedder.EmbedImageWithText(ctx, query.Sketch, query.Text)
	} else {
		sketchVec, err = embedder.EmbedImage(ctx, query.Sketch)
	}
	if err != nil {
		s.logger.Warn("accurate sketch embedding failed, falling back to fast results", "err", err)
		monitor.Degraded("accurate sketch embedding failed")
		return nil, false
	}
	sketchVec = index.NormalizeVector(sketchVec)

	model := s.provider.AccurateModel()
	reranked := make([]index.Match, 0, len(candidates))
	var missing []index.Match
	for _, m := range candidates {
		pageVec, ok := s.vectors.Get(m.Ref, model)
		if !ok {
			missing = append(missing, m)
			continue
		}
		stages[m.Ref] = core.StageReranked
		reranked = append(reranked, index.Match{Ref: m.Ref, Score: dot(sketchVec, pageVec)})
	}

	if len(reranked) == 0 {
		monitor.Degraded("no accurate embeddings for candidate set")
		return nil, false
	}

	index.SortMatches(reranked)
	// Candidates the accurate model never saw rank after every reranked one,
	// keeping their fast-stage relative order.
	reranked = append(reranked, missing...)
	monitor.AfterRerank(reranked)
	return reranked, true
}

// buildResults resolves display names and stage tags for the final matches.
func (s *Searcher) buildResults(ctx context.Context, matches []index.Match, stages map[core.PageRef]core.ResultStage) []core.SearchResult {
	names := make(map[core.ID]string, len(matches))
	results := make([]core.SearchResult, 0, len(matches))

	for _, m := range matches {
		name, ok := names[m.Ref.DocId]
		if !ok {
			if doc, err := s.docs.GetDocument(ctx, m.Ref.DocId); err == nil {
				name = doc.DisplayName
			}
			names[m.Ref.DocId] = name
		}

		stage, ok := stages[m.Ref]
		if !ok {
			stage = core.StageFast
		}

		results = append(results, core.SearchResult{
			DocId:   m.Ref.DocId,
			DocName: name,
			PageNum: m.Ref.PageNum,
			Score:   m.Score,
			Stage:   stage,
		})
	}
	return results
}
