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


// Package ingestion converts a filesystem root into catalog and index
// entries.
//
// The pipeline discovers PDF files recursively, registers each by content
// hash (unchanged documents are skipped unless forced), then renders,
// embeds and indexes every page through a worker pool. Page counters and
// ETA flow into the jobs tracker after each page.
//
// Failure policy: render and embedding failures are retried with bounded
// exponential backoff and then skip the page; an unreadable document is
// recorded and the job continues; only index or catalog unavailability
// fails the whole job.
package ingestion
