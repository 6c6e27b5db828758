package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"findocgpt/models"
)

// VectorStore persists document chunks with their embeddings in SQLite
// and ranks them by cosine similarity with a full linear scan. O(n) per
// query; acceptable for knowledge bases of a few thousand chunks, which
// is the scaling limit of this design.
type VectorStore struct {
	db *sql.DB
}

func NewVectorStore(db *sql.DB) *VectorStore {
	return &VectorStore{db: db}
}

// Add persists a single chunk. The id is assigned here if empty.
func (vs *VectorStore) Add(ctx context.Context, chunk models.DocumentChunk) error {
	return vs.AddBatch(ctx, []models.DocumentChunk{chunk})
}

// AddBatch persists chunks in one transaction; any failure rolls back
// the whole batch.
func (vs *VectorStore) AddBatch(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := vs.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO document_chunks (id, content, embedding, content_type, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		id := chunk.ID
		if id == "" {
			id = uuid.NewString()
		}

		embJSON, err := json.Marshal(chunk.Embedding)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encoding embedding: %w", err)
		}

		var metaJSON []byte
		if len(chunk.Metadata) > 0 {
			if metaJSON, err = json.Marshal(chunk.Metadata); err != nil {
				tx.Rollback()
				return fmt.Errorf("encoding metadata: %w", err)
			}
		}

		createdAt := chunk.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		if _, err := stmt.ExecContext(ctx, id, chunk.Content, string(embJSON),
			chunk.ContentType, nullableString(metaJSON), createdAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting chunk: %w", err)
		}
	}

	return tx.Commit()
}

// Retrieve returns the top-k stored chunks by cosine similarity to the
// query embedding, descending. Ties keep insertion order. k larger than
// the store returns everything.
func (vs *VectorStore) Retrieve(ctx context.Context, queryEmbedding []float64, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := vs.db.QueryContext(ctx,
		`SELECT id, content, embedding, content_type, metadata, created_at
		 FROM document_chunks ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("scanning chunks: %w", err)
	}
	defer rows.Close()

	var scored []models.ScoredChunk
	for rows.Next() {
		var (
			chunk    models.DocumentChunk
			embJSON  string
			metaJSON sql.NullString
		)
		if err := rows.Scan(&chunk.ID, &chunk.Content, &embJSON,
			&chunk.ContentType, &metaJSON, &chunk.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}

		if err := json.Unmarshal([]byte(embJSON), &chunk.Embedding); err != nil {
			// a corrupt row must not poison retrieval
			continue
		}
		if metaJSON.Valid && metaJSON.String != "" {
			_ = json.Unmarshal([]byte(metaJSON.String), &chunk.Metadata)
		}

		scored = append(scored, models.ScoredChunk{
			Chunk:      chunk,
			Similarity: CosineSimilarity(queryEmbedding, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Count returns the number of stored chunks.
func (vs *VectorStore) Count(ctx context.Context) (int, error) {
	var n int
	err := vs.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&n)
	return n, err
}

// CosineSimilarity is dot(a,b)/(|a||b|). Mismatched lengths compare only
// the shared prefix; a zero-norm vector yields 0 rather than dividing
// by zero.
func CosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func nullableString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
