package ai

import (
	"context"
	"os"
	"testing"

	"findocgpt/internal/config"
)

func TestEmbedLive(t *testing.T) {
	if os.Getenv("GEMINI_API_KEY") == "" {
		t.Skip("GEMINI_API_KEY not set")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Skipf("config load failed: %v", err)
	}
	client, err := NewGeminiClient(cfg)
	if err != nil {
		t.Fatalf("client init error: %v", err)
	}
	defer client.Close()

	vec, err := client.Embed(context.Background(), "quarterly revenue trends")
	if err != nil {
		t.Fatalf("embedding error: %v", err)
	}
	if len(vec) == 0 {
		t.Fatalf("empty embedding")
	}
}
