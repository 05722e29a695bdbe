// Package mock provides deterministic test doubles for the ai package.
//
// MockEmbedder generates reproducible vectors from input bytes, so tests
// can ingest and search without an embedding service. MockProvider wires
// two embedders with distinct dimensions behind the ai.ModelProvider
// interface and can simulate an unavailable accurate model.
package mock
