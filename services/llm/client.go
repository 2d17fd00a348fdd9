package llm

import (
	"context"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/datatypes"
)

// EmbeddingResult is one embedding vector plus the model that produced it.
// The pair travels together so stored vectors stay attributable.
type EmbeddingResult struct {
	Vector []float32
	Model  string
}

// GenerationResult is one generated answer plus the model that produced it.
type GenerationResult struct {
	Text  string
	Model string
}

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Generator produces an answer from a system instruction and an ordered
// message history. Implementations map the closed user/assistant role
// vocabulary to whatever the backend expects.
type Generator interface {
	Chat(ctx context.Context, instructions string, messages []datatypes.Message) (GenerationResult, error)
}
