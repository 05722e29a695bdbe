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


// Package search implements two-stage sketch retrieval.
//
// Stage 1 embeds the sketch with the fast model and pulls a candidate pool
// from the vector index, mixing in a weighted BM25 boost when the query
// carries text. Stage 2, in accurate mode, re-scores those candidates
// against their precomputed accurate-model embeddings.
//
// Ordering is deterministic: score descending, ties broken by
// (doc, page) ascending. Identical queries against an unchanged index
// return identical result lists.
package search
