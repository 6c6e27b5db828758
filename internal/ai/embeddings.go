package ai

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// Embed returns an embedding vector for the given text using the
// configured embeddings model (text-embedding-004, 768 dimensions).
// One model per deployment; mixing models would make stored vectors
// incomparable.
func (gc *GeminiClient) Embed(ctx context.Context, text string) ([]float64, error) {
	model := gc.client.EmbeddingModel(gc.cfg.EmbeddingsModel)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	// genai SDK returns []float32 for Embedding.Values
	vec := make([]float64, len(resp.Embedding.Values))
	for i, v := range resp.Embedding.Values {
		vec[i] = float64(v)
	}
	return vec, nil
}
