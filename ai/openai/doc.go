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


// Package openai provides embedding model access over OpenAI-compatible APIs.
//
// This package implements the ai.ModelProvider interface using the
// langchaingo library against multimodal embedding servers such as
// Infinity or vLLM. Images are submitted as base64 data URIs.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithHost("http://localhost:7997"),  // /v1 added automatically
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	embedder, err := provider.FastEmbedder(ctx)
//	vector, err := embedder.EmbedImage(ctx, pngBytes)
package openai
