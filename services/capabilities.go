package services

import (
	"context"

	"findocgpt/models"
)

// External AI capabilities consumed by the pipeline. The Gemini client
// in internal/ai implements all three; tests substitute fakes. Every
// call site degrades on error instead of propagating it (empty context,
// default intent, apology text).

// EmbeddingProvider turns text into a fixed-dimension vector.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generator produces the primary answer, grounded on retrieval context
// when one is supplied.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, message, ragContext string) (string, error)
}

// IntentClassifier determines what a query needs.
type IntentClassifier interface {
	Classify(ctx context.Context, message string) (models.Intent, error)
}
