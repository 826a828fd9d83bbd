package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/visabuddy/ai-service/internal/metrics"
	"github.com/visabuddy/ai-service/pkg/logger"
)

type Query struct {
	Text         string
	CountryCode  string
	VisaCategory string
}

// Extract is a knowledge-base passage handed to the enrichment prompt.
type Extract struct {
	Source  string
	Content string
}

type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Retriever answers policy queries from the vector store, falling back to
// the local cache when the store is down or not configured. Both sides
// failing yields an error the caller is expected to absorb.
type Retriever struct {
	embedder Embedder
	store    *MilvusStore
	cache    *LocalCache
	topK     int
}

func NewRetriever(embedder Embedder, store *MilvusStore, cache *LocalCache, topK int) *Retriever {
	if topK <= 0 {
		topK = 10
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		cache:    cache,
		topK:     topK,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, q Query) ([]Extract, error) {
	embedding, err := r.embedder.GenerateEmbedding(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	if r.store != nil {
		matches, err := r.store.Search(ctx, embedding, r.topK, q.CountryCode, q.VisaCategory)
		if err == nil {
			metrics.RetrievalResults.WithLabelValues("milvus").Observe(float64(len(matches)))
			return toExtracts(matches), nil
		}

		logger.Warn("vector store search failed, trying local cache",
			zap.String("country", q.CountryCode),
			zap.String("visa_category", q.VisaCategory),
			zap.Error(err),
		)
	}

	if r.cache != nil {
		matches := r.cache.Search(embedding, r.topK, q.CountryCode, q.VisaCategory)
		metrics.RetrievalResults.WithLabelValues("local_cache").Observe(float64(len(matches)))
		return toExtracts(matches), nil
	}

	return nil, fmt.Errorf("no retrieval backend available")
}

func toExtracts(matches []chunkMatch) []Extract {
	extracts := make([]Extract, len(matches))
	for i, m := range matches {
		extracts[i] = Extract{
			Source:  m.Chunk.Source,
			Content: m.Chunk.Text,
		}
	}
	return extracts
}
