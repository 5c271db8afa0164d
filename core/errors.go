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

import "errors"

// Domain validation errors
var (
	// ErrInvalidItem indicates a RawItem failed validation.
	ErrInvalidItem = errors.New("invalid item")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyURL indicates the URL field is empty.
	ErrEmptyURL = errors.New("url cannot be empty")

	// ErrInvalidSource indicates an invalid Source value.
	ErrInvalidSource = errors.New("invalid source")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrInvalidPersona indicates a PersonaProfile failed validation.
	ErrInvalidPersona = errors.New("invalid persona profile")

	// ErrEmptyPersonaID indicates the persona Id field is empty.
	ErrEmptyPersonaID = errors.New("persona id cannot be empty")

	// ErrEmptyAnchorText indicates the persona AnchorText field is empty.
	ErrEmptyAnchorText = errors.New("persona anchor text cannot be empty")

	// ErrInvalidThreshold indicates a similarity threshold outside [-1, 1].
	ErrInvalidThreshold = errors.New("similarity threshold must be in [-1, 1]")

	// ErrInvalidScoreBound indicates a score bound outside [0, 10].
	ErrInvalidScoreBound = errors.New("score bound must be between 0 and 10")

	// ErrInvalidTopK indicates a non-positive digest cap.
	ErrInvalidTopK = errors.New("topK must be positive")
)
