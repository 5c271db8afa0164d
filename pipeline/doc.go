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


// Package pipeline implements the content selection pipeline: the
// ingestion phase that normalizes, deduplicates, gates, and persists
// fetched items, and the generation phase that evaluates candidates
// against personas in bounded-concurrency batches, assigns each kept
// item to its single best-fit persona, and compiles the daily digest.
//
// A run begins with an immutable configuration snapshot (Snapshot):
// persisted preferences are layered over the base RunConfig once, so
// preference writes during a run never affect it. The phases are
// independently callable; Pipeline.Run chains them.
//
// Evaluation cost is controlled in two stages. A cheap embedding
// similarity gate (Prefilter) decides which items reach the LLM at
// all and which personas each item is evaluated against. The
// Scheduler then fans the surviving batch/persona pairs out over a
// bounded worker pool and barriers before assignment, because
// best-fit assignment needs every verdict for an item before it can
// pick a winner.
package pipeline
