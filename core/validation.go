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

import (
	"fmt"
	"time"
)

// ValidateRawItem validates a RawItem according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//   - URL must not be empty
//   - Source must be a known value
//   - FetchedAt must not be in the future
//
// NOT validated (populated by later stages):
//   - Content (many sources carry title-only items)
//   - SourceScore (0 is valid for sources without scoring)
func ValidateRawItem(item *RawItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidItem)
	}

	if item.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyTitle)
	}

	if item.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyURL)
	}

	if err := ValidateSource(item.Source); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}

	if !IsValidTimestamp(item.FetchedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrInvalidTimestamp)
	}

	return nil
}

// ValidatePersonaProfile validates a PersonaProfile according to domain rules.
//
// Validation rules:
//   - Id must not be empty
//   - AnchorText must not be empty
//   - MinRelevance and EvalThreshold must be cosine similarities in [-1, 1]
//   - MinScore must be in [0, 10]
//   - TopK must be positive
//
// NOT validated:
//   - AnchorVector (computed once per run from AnchorText)
func ValidatePersonaProfile(persona *PersonaProfile) error {
	if persona == nil {
		return fmt.Errorf("%w: persona is nil", ErrInvalidPersona)
	}

	if persona.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPersona, ErrEmptyPersonaID)
	}

	if persona.AnchorText == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPersona, ErrEmptyAnchorText)
	}

	if !isValidThreshold(persona.MinRelevance) || !isValidThreshold(persona.EvalThreshold) {
		return fmt.Errorf("%w: %w", ErrInvalidPersona, ErrInvalidThreshold)
	}

	if persona.MinScore < 0 || persona.MinScore > 10 {
		return fmt.Errorf("%w: %w", ErrInvalidPersona, ErrInvalidScoreBound)
	}

	if persona.TopK <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPersona, ErrInvalidTopK)
	}

	return nil
}

// ValidateSource validates that a Source has a known value.
func ValidateSource(source Source) error {
	if source != SourceHackerNews && source != SourceReddit && source != SourceRSS {
		return fmt.Errorf("%w: value %d", ErrInvalidSource, source)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}

func isValidThreshold(v float32) bool {
	return v >= -1 && v <= 1
}
