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


// Package fetch provides source adapters that pull raw content items
// from upstream services: the Hacker News Firebase API, subreddit
// .rss feeds, and general RSS/Atom feeds.
//
// Adapters implement the SourceAdapter interface and are
// fault-isolated: a single unreachable feed or story degrades the
// result instead of failing the fetch. The selection pipeline itself
// never talks to upstream services; it consumes whatever RawItems the
// adapters hand it.
package fetch
