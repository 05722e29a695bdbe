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


package openai

import (
	"context"
	"log/slog"
	"sync"

	"github.com/poiesic/sketchdex/ai"
)

// Provider implements ai.ModelProvider using OpenAI-compatible services.
//
// Each embedder is built lazily on first request under a per-model mutex,
// so concurrent first callers trigger exactly one construction and a failed
// construction is retried on the next call rather than cached.
type Provider struct {
	config *ai.Config
	logger *slog.Logger

	fastMu   sync.Mutex
	fast     *Embedder
	accurMu  sync.Mutex
	accurate *Embedder
}

// NewProvider creates a model provider over OpenAI-compatible services.
// The config is validated and normalized before use. No model is contacted
// until the first embedder request.
//
// Returns ai.ModelProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.ModelProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Provider{
		config: config,
		logger: slog.Default().With("component", "openai-provider"),
	}, nil
}

// FastEmbedder returns the first-stage embedder, building it on first use.
func (p *Provider) FastEmbedder(ctx context.Context) (ai.ImageEmbedder, error) {
	p.fastMu.Lock()
	defer p.fastMu.Unlock()

	if p.fast == nil {
		p.logger.Info("loading fast embedding model", "model", p.config.FastModel, "host", p.config.FastHost)
		emb, err := newEmbedder(p.config.FastHost, p.config.FastModel)
		if err != nil {
			return nil, err
		}
		p.fast = emb
	}
	return p.fast, nil
}

// AccurateEmbedder returns the second-stage embedder, building it on first use.
func (p *Provider) AccurateEmbedder(ctx context.Context) (ai.ImageEmbedder, error) {
	p.accurMu.Lock()
	defer p.accurMu.Unlock()

	if p.accurate == nil {
		p.logger.Info("loading accurate embedding model", "model", p.config.AccurateModel, "host", p.config.AccurateHost)
		emb, err := newEmbedder(p.config.AccurateHost, p.config.AccurateModel)
		if err != nil {
			return nil, err
		}
		p.accurate = emb
	}
	return p.accurate, nil
}

// FastModel returns the fast model's name.
func (p *Provider) FastModel() string {
	return p.config.FastModel
}

// AccurateModel returns the accurate model's name.
func (p *Provider) AccurateModel() string {
	return p.config.AccurateModel
}

// FastLoaded reports whether the fast embedder has been built.
func (p *Provider) FastLoaded() bool {
	p.fastMu.Lock()
	defer p.fastMu.Unlock()
	return p.fast != nil
}

// AccurateLoaded reports whether the accurate embedder has been built.
func (p *Provider) AccurateLoaded() bool {
	p.accurMu.Lock()
	defer p.accurMu.Unlock()
	return p.accurate != nil
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
