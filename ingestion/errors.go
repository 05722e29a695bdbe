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

import "errors"

var (
	// ErrDocumentRepositoryRequired indicates a nil document repository was provided.
	ErrDocumentRepositoryRequired = errors.New("document repository is required")

	// ErrVectorIndexRequired indicates a nil vector index was provided.
	ErrVectorIndexRequired = errors.New("vector index is required")

	// ErrProviderRequired indicates a nil model provider was provided.
	ErrProviderRequired = errors.New("model provider is required")

	// ErrRasterizerRequired indicates a nil rasterizer was provided.
	ErrRasterizerRequired = errors.New("rasterizer is required")

	// ErrTrackerRequired indicates a nil job tracker was provided.
	ErrTrackerRequired = errors.New("job tracker is required")

	// ErrInvalidMaxAttempts indicates a retry bound that is zero or negative.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRootNotDirectory indicates an ingest root that is not a directory.
	ErrRootNotDirectory = errors.New("ingest root is not a directory")
)
