package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cachedChunk(id, country, category string, embedding []float32) Chunk {
	return Chunk{
		ID:           id,
		Embedding:    embedding,
		Text:         "policy text " + id,
		Source:       "kb/" + id,
		CountryCode:  country,
		VisaCategory: category,
	}
}

func TestLocalCacheRanksBySimilarity(t *testing.T) {
	cache := NewLocalCache(10)
	cache.Add([]Chunk{
		cachedChunk("close", "DE", "tourist", []float32{1, 0, 0}),
		cachedChunk("far", "DE", "tourist", []float32{0, 1, 0}),
		cachedChunk("mid", "DE", "tourist", []float32{0.7, 0.7, 0}),
	})

	matches := cache.Search([]float32{1, 0, 0}, 2, "DE", "tourist")

	require.Len(t, matches, 2)
	assert.Equal(t, "close", matches[0].Chunk.ID)
	assert.Equal(t, "mid", matches[1].Chunk.ID)
}

func TestLocalCacheFiltersByScope(t *testing.T) {
	cache := NewLocalCache(10)
	cache.Add([]Chunk{
		cachedChunk("de", "DE", "tourist", []float32{1, 0}),
		cachedChunk("fr", "FR", "tourist", []float32{1, 0}),
		cachedChunk("de_student", "DE", "student", []float32{1, 0}),
	})

	matches := cache.Search([]float32{1, 0}, 10, "DE", "tourist")

	require.Len(t, matches, 1)
	assert.Equal(t, "de", matches[0].Chunk.ID)
}

func TestLocalCacheScopeIsCaseInsensitive(t *testing.T) {
	cache := NewLocalCache(10)
	cache.Add([]Chunk{
		cachedChunk("de", "DE", "Tourist", []float32{1, 0}),
	})

	matches := cache.Search([]float32{1, 0}, 10, "de", "tourist")

	assert.Len(t, matches, 1)
}

func TestLocalCacheEvictsOldest(t *testing.T) {
	cache := NewLocalCache(2)
	cache.Add([]Chunk{
		cachedChunk("first", "DE", "tourist", []float32{1, 0}),
		cachedChunk("second", "DE", "tourist", []float32{1, 0}),
		cachedChunk("third", "DE", "tourist", []float32{1, 0}),
	})

	assert.Equal(t, 2, cache.Size())

	matches := cache.Search([]float32{1, 0}, 10, "DE", "tourist")
	ids := []string{matches[0].Chunk.ID, matches[1].Chunk.ID}
	assert.NotContains(t, ids, "first")
}

func TestLocalCacheMismatchedDimensions(t *testing.T) {
	cache := NewLocalCache(10)
	cache.Add([]Chunk{
		cachedChunk("threedim", "DE", "tourist", []float32{1, 0, 0}),
	})

	matches := cache.Search([]float32{1, 0}, 10, "DE", "tourist")

	assert.Empty(t, matches)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, float64(cosineSimilarity([]float32{1, 0}, []float32{1, 0})), 1e-6)
	assert.InDelta(t, 0.0, float64(cosineSimilarity([]float32{1, 0}, []float32{0, 1})), 1e-6)
	assert.Zero(t, cosineSimilarity(nil, nil))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}
