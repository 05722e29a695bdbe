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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidEmbedding indicates an EmbeddingRecord failed validation.
	ErrInvalidEmbedding = errors.New("invalid embedding record")

	// ErrInvalidQuery indicates a SearchQuery failed validation.
	ErrInvalidQuery = errors.New("invalid search query")

	// ErrEmptyPath indicates the Path field is empty.
	ErrEmptyPath = errors.New("path cannot be empty")

	// ErrEmptyContentHash indicates the ContentHash field is empty.
	ErrEmptyContentHash = errors.New("content hash cannot be empty")

	// ErrInvalidPageCount indicates a negative page count.
	ErrInvalidPageCount = errors.New("page count cannot be negative")

	// ErrInvalidPageNum indicates a page number outside 1..PageCount.
	ErrInvalidPageNum = errors.New("page number must be 1-indexed")

	// ErrEmptyModel indicates the Model field is empty.
	ErrEmptyModel = errors.New("model name cannot be empty")

	// ErrEmptyVector indicates an embedding with no components.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrEmptySketch indicates a search query with no sketch bytes.
	ErrEmptySketch = errors.New("sketch image cannot be empty")

	// ErrInvalidTopK indicates a non-positive top_k.
	ErrInvalidTopK = errors.New("top_k must be positive")

	// ErrInvalidSearchMode indicates an unknown SearchMode value.
	ErrInvalidSearchMode = errors.New("invalid search mode")
)
