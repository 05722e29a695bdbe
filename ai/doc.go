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


// Package ai defines the embedding model abstractions.
//
// The engine uses two image embedding models: a fast model for first-stage
// candidate retrieval and an accurate model for second-stage reranking.
// ModelProvider owns both and loads each lazily on first use, so a process
// that never searches in accurate mode never pays for the accurate model.
//
// Implementations live in subpackages: openai for OpenAI-compatible
// embedding services, mock for deterministic test doubles.
package ai
