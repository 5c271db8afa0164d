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


package fetch

import (
	"context"
	"time"

	"github.com/poiesic/recall/core"
)

// SourceAdapter fetches raw items from one upstream source. Adapters
// are fault-isolated: a failing feed or story yields a warning and a
// shorter result, never a failed fetch, so one broken upstream cannot
// starve a run.
type SourceAdapter interface {
	// Source identifies the upstream this adapter reads from.
	Source() core.Source

	// FetchItems retrieves items published within the lookback window.
	// A non-positive lookback selects the adapter's default window.
	FetchItems(ctx context.Context, lookback time.Duration) ([]core.RawItem, error)
}

// FetchAll runs every adapter in order and concatenates the results.
// Adapter errors are collected per source; items from healthy sources
// are still returned alongside the error map.
func FetchAll(ctx context.Context, lookback time.Duration, adapters ...SourceAdapter) ([]core.RawItem, map[core.Source]error) {
	var items []core.RawItem
	failures := make(map[core.Source]error)

	for _, adapter := range adapters {
		fetched, err := adapter.FetchItems(ctx, lookback)
		if err != nil {
			failures[adapter.Source()] = err
			continue
		}
		items = append(items, fetched...)
	}

	return items, failures
}
