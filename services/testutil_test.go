package services

import (
	"context"
	"database/sql"
	"errors"
	"hash/fnv"
	"math"
	"path/filepath"
	"testing"

	"findocgpt/internal/config"
	"findocgpt/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := config.OpenDatabase(&config.Config{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// stubEmbedder returns a deterministic vector per input so similar
// texts map to identical vectors and different texts rarely collide.
type stubEmbedder struct {
	fail bool
}

func (s stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if s.fail {
		return nil, errors.New("embedding service unavailable")
	}
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float64, 8)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = math.Sin(float64(seed%10007) + float64(i))
	}
	return vec, nil
}

type stubGenerator struct {
	reply string
	fail  bool
}

func (s stubGenerator) Generate(_ context.Context, _, _, _ string) (string, error) {
	if s.fail {
		return "", errors.New("generation service unavailable")
	}
	if s.reply == "" {
		return "stub answer", nil
	}
	return s.reply, nil
}

type stubClassifier struct {
	intent models.Intent
	fail   bool
}

func (s stubClassifier) Classify(_ context.Context, _ string) (models.Intent, error) {
	if s.fail {
		return models.Intent{}, errors.New("classification service unavailable")
	}
	return s.intent, nil
}

// fakePages feeds canned page text in place of PDF parsing.
type fakePages struct {
	pages map[string][]string
	err   error
}

func (f fakePages) ExtractPages(path string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[filepath.Base(path)], nil
}
