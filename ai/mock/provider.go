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


package mock

import (
	"context"
	"errors"

	"github.com/poiesic/sketchdex/ai"
)

// MockProvider is a test double for ai.ModelProvider.
// It aggregates mock embedders for both models and mirrors the lazy-loading
// contract: the loaded flags flip when the matching embedder is first requested.
type MockProvider struct {
	fast     *MockEmbedder
	accurate *MockEmbedder

	// FailAccurate makes AccurateEmbedder return an error, simulating an
	// unavailable accurate model for degraded-search tests.
	FailAccurate bool

	fastLoaded     bool
	accurateLoaded bool
}

// NewMockProvider creates a new mock provider with default mock embedders.
// The two embedders use different dimensions so tests catch model mixups.
//
// Returns the concrete type so tests can reach the embedders for assertions.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		fast:     &MockEmbedder{Dim: 64},
		accurate: &MockEmbedder{Dim: 128},
	}
}

// NewMockProviderWithEmbedders creates a mock provider with custom embedders.
// This allows full control over the behavior of each model.
func NewMockProviderWithEmbedders(fast, accurate *MockEmbedder) *MockProvider {
	return &MockProvider{
		fast:     fast,
		accurate: accurate,
	}
}

// FastEmbedder returns the mock fast embedder and marks the model loaded.
func (p *MockProvider) FastEmbedder(ctx context.Context) (ai.ImageEmbedder, error) {
	p.fastLoaded = true
	return p.fast, nil
}

// AccurateEmbedder returns the mock accurate embedder and marks the model
// loaded, or fails when FailAccurate is set.
func (p *MockProvider) AccurateEmbedder(ctx context.Context) (ai.ImageEmbedder, error) {
	if p.FailAccurate {
		return nil, errors.New("mock: accurate model unavailable")
	}
	p.accurateLoaded = true
	return p.accurate, nil
}

// FastModel returns a fixed fast model name.
func (p *MockProvider) FastModel() string {
	return "mock-fast"
}

// AccurateModel returns a fixed accurate model name.
func (p *MockProvider) AccurateModel() string {
	return "mock-accurate"
}

// FastLoaded reports whether FastEmbedder has been called.
func (p *MockProvider) FastLoaded() bool {
	return p.fastLoaded
}

// AccurateLoaded reports whether AccurateEmbedder has been called successfully.
func (p *MockProvider) AccurateLoaded() bool {
	return p.accurateLoaded
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetFastEmbedder returns the underlying fast mock for test assertions.
func (p *MockProvider) GetFastEmbedder() *MockEmbedder {
	return p.fast
}

// GetAccurateEmbedder returns the underlying accurate mock for test assertions.
func (p *MockProvider) GetAccurateEmbedder() *MockEmbedder {
	return p.accurate
}
