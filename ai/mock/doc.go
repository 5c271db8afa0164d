// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Scorer,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vec, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	scorer := mock.NewMockScorer()
//	scorer.GenerateTextFunc = func(ctx context.Context, prompt string) (string, error) {
//	    return "ID: 1 | SCORE: 8 | DECISION: KEEP | INSIGHT: relevant", nil
//	}
//
//	// Check call counts
//	count := scorer.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockScorer: Returns a canned Response string and records prompts
//   - MockProvider: Aggregates mock embedder and scorer
package mock
