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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for the embedding model services.
type Config struct {
	// FastHost is the base URL for the fast model's embedding API.
	// Example: "http://localhost:7997/v1" for a local OpenAI-compatible server
	FastHost string

	// AccurateHost is the base URL for the accurate model's embedding API.
	// May equal FastHost when one server hosts both models.
	AccurateHost string

	// FastModel is the model identifier for first-stage embeddings.
	// Example: "google/siglip-so400m-patch14-384"
	FastModel string

	// AccurateModel is the model identifier for second-stage reranking embeddings.
	// Example: "vidore/colqwen2-v1"
	AccurateModel string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithFastHost sets the fast model's service host URL.
func WithFastHost(host string) ConfigOption {
	return func(c *Config) {
		c.FastHost = host
	}
}

// WithAccurateHost sets the accurate model's service host URL.
func WithAccurateHost(host string) ConfigOption {
	return func(c *Config) {
		c.AccurateHost = host
	}
}

// WithHost sets both hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.FastHost = host
		c.AccurateHost = host
	}
}

// WithFastModel sets the fast model identifier.
func WithFastModel(model string) ConfigOption {
	return func(c *Config) {
		c.FastModel = model
	}
}

// WithAccurateModel sets the accurate model identifier.
func WithAccurateModel(model string) ConfigOption {
	return func(c *Config) {
		c.AccurateModel = model
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// OpenAI-compatible embedding server hosting both models.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:7997/v1"
	return &Config{
		FastHost:      defaultHost,
		AccurateHost:  defaultHost,
		FastModel:     "google/siglip-so400m-patch14-384",
		AccurateModel: "vidore/colqwen2-v1",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:7997/v1"),
//	    WithFastModel("google/siglip2-base-patch16-384"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Infinity, Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.FastHost != "" && !strings.HasSuffix(c.FastHost, "/v1") {
		c.FastHost = strings.TrimSuffix(c.FastHost, "/")
		c.FastHost = c.FastHost + "/v1"
	}
	if c.AccurateHost != "" && !strings.HasSuffix(c.AccurateHost, "/v1") {
		c.AccurateHost = strings.TrimSuffix(c.AccurateHost, "/")
		c.AccurateHost = c.AccurateHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.FastHost == "" {
		return errors.New("ai config: FastHost is required")
	}
	if c.FastModel == "" {
		return errors.New("ai config: FastModel is required")
	}
	if c.AccurateHost == "" {
		return errors.New("ai config: AccurateHost is required")
	}
	if c.AccurateModel == "" {
		return errors.New("ai config: AccurateModel is required")
	}
	if c.FastModel == c.AccurateModel {
		return errors.New("ai config: fast and accurate models must differ")
	}
	return nil
}
