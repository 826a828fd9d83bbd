package rag

import (
	"math"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/visabuddy/ai-service/pkg/logger"
)

// LocalCache is an in-process cosine-similarity index over recently ingested
// chunks. It answers retrieval when the vector store is unreachable, trading
// recall for availability.
type LocalCache struct {
	mu       sync.RWMutex
	chunks   []Chunk
	maxItems int
}

func NewLocalCache(maxItems int) *LocalCache {
	if maxItems <= 0 {
		maxItems = 1000
	}
	return &LocalCache{maxItems: maxItems}
}

func (c *LocalCache) Add(chunks []Chunk) {
	if len(chunks) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.chunks = append(c.chunks, chunks...)
	if len(c.chunks) > c.maxItems {
		c.chunks = c.chunks[len(c.chunks)-c.maxItems:]
	}
}

func (c *LocalCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.chunks)
}

// Search ranks cached chunks by cosine similarity against the query
// embedding, restricted to the country/category scope when metadata matches.
func (c *LocalCache) Search(queryEmbedding []float32, topK int, countryCode, visaCategory string) []chunkMatch {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matches := make([]chunkMatch, 0, topK)
	for _, chunk := range c.chunks {
		if countryCode != "" && !strings.EqualFold(chunk.CountryCode, countryCode) {
			continue
		}
		if visaCategory != "" && !strings.EqualFold(chunk.VisaCategory, visaCategory) {
			continue
		}

		score := cosineSimilarity(queryEmbedding, chunk.Embedding)
		if score <= 0 {
			continue
		}

		matches = append(matches, chunkMatch{Chunk: chunk, Score: score})
	}

	sort.Slice(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}

	logger.Debug("local cache search completed",
		zap.Int("cached_chunks", len(c.chunks)),
		zap.Int("results", len(matches)),
	)

	return matches
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
