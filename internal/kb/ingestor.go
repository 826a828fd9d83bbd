package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/visabuddy/ai-service/internal/rag"
	"github.com/visabuddy/ai-service/pkg/logger"
	"github.com/visabuddy/ai-service/pkg/utils"
)

// Document is one knowledge-base entry: a policy page or excerpt scoped to a
// country and visa category. HTML content is cleaned before chunking.
type Document struct {
	Source       string `json:"source"`
	CountryCode  string `json:"countryCode"`
	VisaCategory string `json:"visaCategory"`
	Content      string `json:"content"`
	HTML         bool   `json:"html,omitempty"`
}

type BatchEmbedder interface {
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

type Ingestor struct {
	embedder     BatchEmbedder
	store        *rag.MilvusStore
	cache        *rag.LocalCache
	chunkSize    int
	chunkOverlap int
}

func NewIngestor(embedder BatchEmbedder, store *rag.MilvusStore, cache *rag.LocalCache, chunkSize, chunkOverlap int) *Ingestor {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 100
	}
	return &Ingestor{
		embedder:     embedder,
		store:        store,
		cache:        cache,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Ingest cleans, chunks and embeds a document, then writes the chunks to the
// vector store and the local cache. The local cache write always happens so
// retrieval keeps working if the store goes down later.
func (ing *Ingestor) Ingest(ctx context.Context, doc Document) (int, error) {
	text := doc.Content
	if doc.HTML {
		text = cleanHTML(text)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("no content extracted from document %q", doc.Source)
	}

	chunks := chunkText(text, ing.chunkSize, ing.chunkOverlap)
	logger.Info("KB document chunked",
		zap.String("source", doc.Source),
		zap.String("country", doc.CountryCode),
		zap.String("visa_category", doc.VisaCategory),
		zap.Int("chunks", len(chunks)),
	)

	embeddings, err := ing.embedder.GenerateBatchEmbeddings(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(embeddings), len(chunks))
	}

	docID := utils.DocumentID(doc.Source, doc.CountryCode, doc.VisaCategory)
	now := time.Now()

	ragChunks := make([]rag.Chunk, len(chunks))
	for i, chunkContent := range chunks {
		ragChunks[i] = rag.Chunk{
			ID:           fmt.Sprintf("%s_chunk_%d", docID, i),
			Embedding:    embeddings[i],
			Text:         chunkContent,
			Source:       doc.Source,
			CountryCode:  doc.CountryCode,
			VisaCategory: doc.VisaCategory,
			Timestamp:    now,
		}
	}

	if ing.cache != nil {
		ing.cache.Add(ragChunks)
	}

	if ing.store != nil {
		if err := ing.store.Insert(ctx, ragChunks); err != nil {
			return 0, fmt.Errorf("failed to store chunks: %w", err)
		}
	}

	logger.Info("KB document ingested",
		zap.String("doc_id", docID),
		zap.Int("chunks", len(ragChunks)),
	)

	return len(ragChunks), nil
}

// LoadSeedFile ingests the bundled knowledge base, a JSON array of documents.
// Individual document failures are logged and skipped so one bad entry does
// not block startup.
func (ing *Ingestor) LoadSeedFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read KB seed file: %w", err)
	}

	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("failed to parse KB seed file: %w", err)
	}

	ingested := 0
	for _, doc := range docs {
		if _, err := ing.Ingest(ctx, doc); err != nil {
			logger.Warn("skipping KB seed document",
				zap.String("source", doc.Source),
				zap.Error(err),
			)
			continue
		}
		ingested++
	}

	logger.Info("KB seed loaded",
		zap.String("path", path),
		zap.Int("documents", ingested),
		zap.Int("total", len(docs)),
	)

	return nil
}

func cleanHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer, header, aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Find("body").Text()

	text = regexp.MustCompile(`\s+`).ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
