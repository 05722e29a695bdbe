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

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Path must not be empty
//   - ContentHash must not be empty
//   - PageCount must not be negative
//
// NOT validated:
//   - ID (always derived from ContentHash by NewDocument)
//   - DisplayName (derived from Path)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Path == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyPath)
	}

	if doc.ContentHash == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContentHash)
	}

	if doc.PageCount < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidPageCount)
	}

	return nil
}

// ValidateEmbeddingRecord validates an EmbeddingRecord according to domain rules.
//
// Validation rules:
//   - PageNum must be >= 1
//   - Model must not be empty
//   - Vector must not be empty
func ValidateEmbeddingRecord(rec *EmbeddingRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidEmbedding)
	}

	if rec.PageNum < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidEmbedding, ErrInvalidPageNum)
	}

	if rec.Model == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEmbedding, ErrEmptyModel)
	}

	if len(rec.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEmbedding, ErrEmptyVector)
	}

	return nil
}

// ValidateSearchQuery validates a SearchQuery before any index access.
//
// Validation rules:
//   - Sketch must not be empty
//   - TopK must be positive
//   - Mode must be fast or accurate
func ValidateSearchQuery(query *SearchQuery) error {
	if query == nil {
		return fmt.Errorf("%w: query is nil", ErrInvalidQuery)
	}

	if len(query.Sketch) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrEmptySketch)
	}

	if query.TopK < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrInvalidTopK)
	}

	if query.Mode != ModeFast && query.Mode != ModeAccurate {
		return fmt.Errorf("%w: %w: %q", ErrInvalidQuery, ErrInvalidSearchMode, query.Mode)
	}

	return nil
}
