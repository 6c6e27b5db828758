package models

import "time"

// Content types stored in the vector store. One tag per ingestion path.
const (
	ContentTypePDFPage   = "pdf_page"
	ContentTypeJSONL     = "jsonl_evidence"
	ContentTypeKnowledge = "financial_knowledge"
)

// DocumentChunk is a bounded slice of source text with its embedding and
// provenance metadata. Chunks are immutable once stored and never deleted;
// the knowledge base is append-only.
type DocumentChunk struct {
	ID          string            `json:"id"`
	Content     string            `json:"content"`
	Embedding   []float64         `json:"embedding,omitempty"`
	ContentType string            `json:"content_type"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ScoredChunk pairs a retrieved chunk with its cosine similarity to the
// query embedding.
type ScoredChunk struct {
	Chunk      DocumentChunk `json:"chunk"`
	Similarity float64       `json:"similarity"`
}
