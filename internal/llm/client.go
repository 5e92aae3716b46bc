// Package llm holds the model clients and the wire contract for the
// structural-event responses they must produce.
package llm

import "context"

// GenerationParams are the per-call generation knobs.
type GenerationParams struct {
	MaxTokens   int
	Temperature float64
}

// Client generates a raw model response for a system+user prompt pair.
// Implementations handle transport-level retries themselves; semantic
// validation and corrective retries belong to the caller.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, params GenerationParams) (string, error)

	// Name returns the client identifier (e.g. "openai", "mock").
	Name() string
}
