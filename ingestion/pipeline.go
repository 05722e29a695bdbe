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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/sketchdex/ai"
	"github.com/poiesic/sketchdex/core"
	"github.com/poiesic/sketchdex/index"
	"github.com/poiesic/sketchdex/jobs"
	"github.com/poiesic/sketchdex/storage"
)

// Pipeline turns a root filesystem path into catalog entries and index
// entries: discover → register → rasterize → embed → index. Each run is a
// background job supervised by the jobs.Tracker.
type Pipeline struct {
	docs       storage.DocumentRepository
	vectors    index.VectorIndex
	lexical    *index.LexicalIndex
	provider   ai.ModelProvider
	rasterizer Rasterizer
	tracker    *jobs.Tracker

	pagePool       *ants.Pool
	maxRetries     int
	retryDelay     time.Duration
	maxPagesPerDoc int
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent page processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pagePool != nil {
			p.pagePool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pagePool = pool
		return nil
	}
}

// WithRetry sets the per-page retry bound and the base backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxRetries = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithMaxPagesPerDoc caps how many pages of one document are indexed.
// Zero means no cap.
func WithMaxPagesPerDoc(max int) Option {
	return func(p *Pipeline) error {
		if max < 0 {
			max = 0
		}
		p.maxPagesPerDoc = max
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(
	docs storage.DocumentRepository,
	vectors index.VectorIndex,
	lexical *index.LexicalIndex,
	provider ai.ModelProvider,
	rasterizer Rasterizer,
	tracker *jobs.Tracker,
	opts ...Option,
) (*Pipeline, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorIndexRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if rasterizer == nil {
		return nil, ErrRasterizerRequired
	}
	if tracker == nil {
		return nil, ErrTrackerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		docs:       docs,
		vectors:    vectors,
		lexical:    lexical,
		provider:   provider,
		rasterizer: rasterizer,
		tracker:    tracker,
		pagePool:   pool,
		maxRetries: 3,
		retryDelay: time.Second,
		logger:     slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Start accepts an ingest request and returns its job id immediately.
// Processing runs in the background; callers poll the tracker for progress.
func (p *Pipeline) Start(root string, force bool) string {
	jobID := p.tracker.Start()

	go p.run(context.Background(), jobID, root, force)

	return jobID
}

// Run executes an ingest synchronously. Used by the CLI and by tests;
// Start wraps it for the asynchronous path.
func (p *Pipeline) Run(ctx context.Context, jobID, root string, force bool) {
	p.run(ctx, jobID, root, force)
}

// docWork is one discovered document with its pre-scanned page count.
type docWork struct {
	cand      Candidate
	pageCount int
	err       error
}

func (p *Pipeline) run(ctx context.Context, jobID, root string, force bool) {
	logger := p.logger.With("job_id", jobID, "root", root)

	candidates, err := DiscoverPDFs(ctx, root)
	if err != nil {
		logger.Error("discovery failed", "err", err)
		p.tracker.Fail(jobID, err)
		return
	}

	// The fast model is required; without it nothing can be indexed.
	fast, err := p.provider.FastEmbedder(ctx)
	if err != nil {
		logger.Error("fast model unavailable", "err", err)
		p.tracker.Fail(jobID, fmt.Errorf("fast model unavailable: %w", err))
		return
	}

	// The accurate model is optional at index time: pages indexed without
	// it are still searchable in fast mode, and accurate-mode searches
	// over them degrade to fast-only.
	accurate, err := p.provider.AccurateEmbedder(ctx)
	if err != nil {
		logger.Warn("accurate model unavailable, indexing fast embeddings only", "err", err)
		accurate = nil
	}

	// Pre-scan: page-count every candidate so totals are exact before
	// counters start advancing. A candidate that cannot be opened is a
	// document-level failure, recorded and carried as zero pages.
	work := make([]docWork, len(candidates))
	pagesTotal := 0
	for i, cand := range candidates {
		n, err := p.rasterizer.PageCount(ctx, cand.Path)
		if err != nil {
			logger.Warn("failed to count pages", "path", cand.Path, "err", err)
			work[i] = docWork{cand: cand, err: err}
			continue
		}
		if p.maxPagesPerDoc > 0 && n > p.maxPagesPerDoc {
			n = p.maxPagesPerDoc
		}
		work[i] = docWork{cand: cand, pageCount: n}
		pagesTotal += n
	}

	p.tracker.SetTotals(jobID, len(candidates), pagesTotal)
	logger.Info("ingest started", "docs", len(candidates), "pages", pagesTotal, "force", force)

	for _, w := range work {
		if ctx.Err() != nil {
			p.tracker.Fail(jobID, ctx.Err())
			return
		}
		if w.err != nil {
			// Already logged during pre-scan; proceed to the next document.
			p.tracker.DocDone(jobID)
			continue
		}

		if err := p.processDocument(ctx, jobID, w, force, fast, accurate); err != nil {
			logger.Error("infrastructure failure, aborting job", "path", w.cand.Path, "err", err)
			p.tracker.Fail(jobID, err)
			return
		}
		p.tracker.DocDone(jobID)
	}

	p.tracker.Complete(jobID)
}

// processDocument registers one document and indexes its pages.
// The returned error is job-fatal (index or catalog unavailable); page-level
// failures are absorbed into the tracker's failed_pages count.
func (p *Pipeline) processDocument(ctx context.Context, jobID string, w docWork, force bool, fast, accurate ai.ImageEmbedder) error {
	doc, stored, err := p.docs.Register(ctx, core.NewDocument(w.cand.Path, w.cand.Hash, w.pageCount), force)
	if err != nil {
		return fmt.Errorf("registering %s: %w", w.cand.Path, err)
	}
	if !stored {
		// Unchanged content: already indexed, credit its pages and move on.
		p.logger.Debug("document unchanged, skipping", "path", w.cand.Path, "doc_id", doc.Id)
		p.tracker.SkipPages(jobID, w.pageCount)
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		fatalErr error
	)

	for pageNum := 1; pageNum <= w.pageCount; pageNum++ {
		pageNum := pageNum

		wg.Add(1)
		submitErr := p.pagePool.Submit(func() {
			defer wg.Done()

			mu.Lock()
			aborted := fatalErr != nil
			mu.Unlock()
			if aborted || ctx.Err() != nil {
				return
			}

			start := time.Now()
			err := p.processPage(ctx, doc, pageNum, fast, accurate)
			switch {
			case err == nil:
				p.tracker.PageDone(jobID, time.Since(start))
			case isInfrastructureError(err):
				mu.Lock()
				if fatalErr == nil {
					fatalErr = err
				}
				mu.Unlock()
			default:
				p.logger.Warn("page failed after retries",
					"doc_id", doc.Id, "page", pageNum, "err", err)
				p.tracker.PageFailed(jobID)
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if fatalErr == nil {
				fatalErr = fmt.Errorf("submitting page work: %w", submitErr)
			}
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	return fatalErr
}

// processPage rasterizes, embeds and indexes one page. Rasterization and
// model calls are retried with backoff; index and catalog writes are not,
// their failure is job-fatal.
func (p *Pipeline) processPage(ctx context.Context, doc *core.Document, pageNum int, fast, accurate ai.ImageEmbedder) error {
	var image []byte
	err := RetryWithBackoff(ctx, func() error {
		var renderErr error
		image, renderErr = p.rasterizer.RenderPage(ctx, doc.Path, pageNum)
		return renderErr
	}, p.maxRetries, p.retryDelay)
	if err != nil {
		return fmt.Errorf("rendering page %d: %w", pageNum, err)
	}

	// Text extraction is best-effort: a page without a text layer simply
	// contributes nothing to the lexical index.
	text, err := p.rasterizer.ExtractText(ctx, doc.Path, pageNum)
	if err != nil {
		p.logger.Debug("text extraction failed", "doc_id", doc.Id, "page", pageNum, "err", err)
		text = ""
	}

	var fastVec []float32
	err = RetryWithBackoff(ctx, func() error {
		var embErr error
		fastVec, embErr = fast.EmbedImage(ctx, image)
		return embErr
	}, p.maxRetries, p.retryDelay)
	if err != nil {
		return fmt.Errorf("fast embedding page %d: %w", pageNum, err)
	}

	records := []*core.EmbeddingRecord{{
		DocId:   doc.Id,
		PageNum: pageNum,
		Model:   p.provider.FastModel(),
		Vector:  fastVec,
	}}

	if accurate != nil {
		var accVec []float32
		err = RetryWithBackoff(ctx, func() error {
			var embErr error
			accVec, embErr = accurate.EmbedImage(ctx, image)
			return embErr
		}, p.maxRetries, p.retryDelay)
		if err != nil {
			return fmt.Errorf("accurate embedding page %d: %w", pageNum, err)
		}
		records = append(records, &core.EmbeddingRecord{
			DocId:   doc.Id,
			PageNum: pageNum,
			Model:   p.provider.AccurateModel(),
			Vector:  accVec,
		})
	}

	if err := p.docs.PutPages(ctx, &core.Page{DocId: doc.Id, PageNum: pageNum, Text: text}); err != nil {
		return infrastructureError{fmt.Errorf("storing page %d: %w", pageNum, err)}
	}
	if err := p.vectors.Add(ctx, records...); err != nil {
		return infrastructureError{fmt.Errorf("indexing page %d: %w", pageNum, err)}
	}
	if p.lexical != nil {
		p.lexical.Add(core.PageRef{DocId: doc.Id, PageNum: pageNum}, text)
	}

	return nil
}

// Release releases the worker pool. The pipeline must not be used afterwards.
func (p *Pipeline) Release() {
	if p.pagePool != nil {
		p.pagePool.Release()
	}
}

// infrastructureError marks failures of the index or catalog itself, which
// are fatal to the whole job rather than absorbed as a skipped page.
type infrastructureError struct {
	err error
}

func (e infrastructureError) Error() string { return e.err.Error() }
func (e infrastructureError) Unwrap() error { return e.err }

func isInfrastructureError(err error) bool {
	_, ok := err.(infrastructureError)
	return ok
}
