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


// Package index provides the in-process retrieval indices.
//
// FlatIndex is an exact cosine-similarity store over page embeddings,
// persisted through the embedding repository and fully resident in memory.
// LexicalIndex is a BM25 term index over extracted page text, rebuilt from
// storage on startup.
//
// Both follow a single-writer, multiple-reader discipline: the ingestion
// pipeline is the only writer, and concurrent searches observe the index
// as of the last completed write batch.
package index
