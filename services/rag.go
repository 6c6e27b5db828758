package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"findocgpt/internal/logger"
	"findocgpt/models"
)

const (
	knowledgeChunkSize    = 500 // words
	knowledgeChunkOverlap = 50
	contextCacheTTL       = 10 * time.Minute
)

// RAGService builds retrieval context for queries and owns the knowledge
// base seeding. An optional Redis client caches formatted context per
// query; cache errors are treated as misses.
type RAGService struct {
	store    *VectorStore
	embedder EmbeddingProvider
	cache    *redis.Client
	topK     int

	seedOnce sync.Once
}

func NewRAGService(store *VectorStore, embedder EmbeddingProvider, cache *redis.Client, topK int) *RAGService {
	if topK <= 0 {
		topK = 3
	}
	return &RAGService{store: store, embedder: embedder, cache: cache, topK: topK}
}

// GetContext embeds the query and returns the top-k matches formatted as
// newline-joined "[type] content (key: value, ...)" blocks. Any failure
// degrades to an empty context; the pipeline still answers without
// augmentation.
func (rs *RAGService) GetContext(ctx context.Context, query string) string {
	rs.seedOnce.Do(func() { rs.seedFinancialKnowledge(ctx) })

	if cached, ok := rs.cachedContext(ctx, query); ok {
		return cached
	}

	queryEmbedding, err := rs.embedder.Embed(ctx, strings.ReplaceAll(query, "\n", " "))
	if err != nil {
		logger.Warn("query embedding failed, answering without context", "error", err)
		return ""
	}

	similar, err := rs.store.Retrieve(ctx, queryEmbedding, rs.topK)
	if err != nil {
		logger.Error("retrieval failed", "error", err)
		return ""
	}

	context := combineContext(similar)
	rs.storeCachedContext(ctx, query, context)
	return context
}

// AddDocument chunks free text with the word-window policy, embeds each
// chunk, and stores the batch. Chunks whose embedding fails are skipped,
// never fatal to the batch.
func (rs *RAGService) AddDocument(ctx context.Context, content, contentType string, metadata map[string]string) error {
	chunks := ChunkWords(content, knowledgeChunkSize, knowledgeChunkOverlap)

	var records []models.DocumentChunk
	for _, chunk := range chunks {
		embedding, err := rs.embedder.Embed(ctx, chunk)
		if err != nil {
			logger.Warn("skipping chunk, embedding failed", "error", err)
			continue
		}
		records = append(records, models.DocumentChunk{
			Content:     chunk,
			Embedding:   embedding,
			ContentType: contentType,
			Metadata:    metadata,
		})
	}

	if err := rs.store.AddBatch(ctx, records); err != nil {
		return fmt.Errorf("storing document: %w", err)
	}
	logger.Info("added document to knowledge base", "chunks", len(records), "content_type", contentType)
	return nil
}

// seedFinancialKnowledge populates an empty store with the built-in
// financial corpus. Check-count-then-seed keeps it idempotent across
// restarts.
func (rs *RAGService) seedFinancialKnowledge(ctx context.Context) {
	count, err := rs.store.Count(ctx)
	if err != nil {
		logger.Error("knowledge base count failed, skipping seed", "error", err)
		return
	}
	if count > 0 {
		return
	}

	for _, doc := range financialKnowledge {
		if err := rs.AddDocument(ctx, doc.content, models.ContentTypeKnowledge, doc.metadata); err != nil {
			logger.Error("seeding knowledge base failed", "topic", doc.metadata["topic"], "error", err)
		}
	}
	logger.Info("initialized knowledge base with built-in financial corpus")
}

var financialKnowledge = []struct {
	content  string
	metadata map[string]string
}{
	{
		content: `Financial KPIs (Key Performance Indicators) are quantifiable measures used to evaluate a company's financial performance.
Common financial KPIs include Revenue (total income), Profit Margin (percentage of revenue that becomes profit),
Earnings Per Share (EPS), Return on Investment (ROI), Debt-to-Equity Ratio, Current Ratio,
Price-to-Earnings Ratio (P/E), Market Capitalization, and Cash Flow.`,
		metadata: map[string]string{"topic": "kpis", "category": "fundamentals"},
	},
	{
		content: `FinanceBench is a comprehensive dataset containing financial information from public companies.
It includes quarterly and annual financial statements, earnings reports, balance sheets,
cash flow statements, and various financial metrics across different industries and time periods.`,
		metadata: map[string]string{"source": "financebench", "category": "dataset"},
	},
	{
		content: `Financial forecasting involves predicting future financial performance based on historical data,
market trends, and economic indicators. Common methods include time series analysis,
regression analysis, moving averages, and machine learning models. Forecasts typically cover
revenue projections, expense estimates, cash flow predictions, and profitability analysis.`,
		metadata: map[string]string{"topic": "forecasting", "category": "methodology"},
	},
}

func combineContext(similar []models.ScoredChunk) string {
	if len(similar) == 0 {
		return ""
	}

	parts := make([]string, 0, len(similar))
	for _, doc := range similar {
		part := fmt.Sprintf("[%s] %s", doc.Chunk.ContentType, doc.Chunk.Content)
		if len(doc.Chunk.Metadata) > 0 {
			keys := make([]string, 0, len(doc.Chunk.Metadata))
			for k := range doc.Chunk.Metadata {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			kv := make([]string, 0, len(keys))
			for _, k := range keys {
				kv = append(kv, fmt.Sprintf("%s: %s", k, doc.Chunk.Metadata[k]))
			}
			part += fmt.Sprintf(" (%s)", strings.Join(kv, ", "))
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "\n\n")
}

func (rs *RAGService) cachedContext(ctx context.Context, query string) (string, bool) {
	if rs.cache == nil {
		return "", false
	}
	val, err := rs.cache.Get(ctx, contextCacheKey(query)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (rs *RAGService) storeCachedContext(ctx context.Context, query, context string) {
	if rs.cache == nil || context == "" {
		return
	}
	if err := rs.cache.Set(ctx, contextCacheKey(query), context, contextCacheTTL).Err(); err != nil {
		logger.Debug("context cache write failed", "error", err)
	}
}

func contextCacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return "ragctx:" + hex.EncodeToString(sum[:16])
}
