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


// Package storage provides the storage abstraction layer for sketchdex.
//
// This package defines repository interfaces that decouple storage implementation
// from the ingestion and search logic. It allows for different storage backends
// (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - DocumentRepository: the content-addressed catalog (documents + pages)
//   - EmbeddingRepository: per-page embedding records keyed by (doc, page, model)
//
// Public constructors return interfaces to prevent accidental coupling to
// BadgerDB specifics and to keep the backend swappable.
//
// # Usage
//
// Create repositories on a shared backend:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	docs := badger.NewDocumentRepository(backend)
//	embs := badger.NewEmbeddingRepository(backend)
//	defer backend.Close()
//
// Use in tests with in-memory storage:
//
//	docs, embs, backend, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
