package pipeline

import "errors"

var (
	// ErrItemRepositoryRequired is returned when an item repository is not provided.
	ErrItemRepositoryRequired = errors.New("item repository required")

	// ErrPreferenceRepositoryRequired is returned when a preference repository is not provided.
	ErrPreferenceRepositoryRequired = errors.New("preference repository required")

	// ErrDigestRepositoryRequired is returned when a digest repository is not provided.
	ErrDigestRepositoryRequired = errors.New("digest repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrScoringService indicates the scoring service call failed.
	ErrScoringService = errors.New("scoring service call failed")

	// ErrScoringTimeout indicates a scoring call exceeded its deadline.
	ErrScoringTimeout = errors.New("scoring call timed out")

	// ErrAllEvaluationsFailed indicates every batch/persona evaluation
	// call failed, so the run cannot produce a trustworthy digest.
	ErrAllEvaluationsFailed = errors.New("all evaluation calls failed")

	// ErrNoPersonasEnabled indicates the preference snapshot left no
	// persona active.
	ErrNoPersonasEnabled = errors.New("no personas enabled")

	// ErrNoSourcesEnabled indicates the preference snapshot left no
	// source active.
	ErrNoSourcesEnabled = errors.New("no sources enabled")

	// ErrInvalidMaxAttempts is returned when retry attempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidBatchSize is returned for a non-positive batch size.
	ErrInvalidBatchSize = errors.New("batch size must be greater than 0")

	// ErrInvalidConcurrency is returned for a non-positive concurrency cap.
	ErrInvalidConcurrency = errors.New("max concurrency must be greater than 0")
)
