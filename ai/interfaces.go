package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity checks.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Scorer is the scoring service: a stateless prompt-in, text-out contract.
// The caller owns prompt construction and response parsing; implementations
// must tolerate arbitrary latency and report failures as errors, never panic.
// Implementations must be thread-safe for concurrent use.
type Scorer interface {
	// GenerateText sends a prompt to the scoring model and returns its raw
	// text response. The response may be malformed; callers parse tolerantly.
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Scorer instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Scorer returns the scoring service.
	// The returned Scorer is safe for concurrent use.
	Scorer() Scorer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
