package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "visabuddy_generation_duration_seconds",
			Help:    "Checklist generation duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"generation_mode"},
	)

	GenerationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visabuddy_generation_total",
			Help: "Total checklist generations by serving mode",
		},
		[]string{"generation_mode", "status"},
	)

	EnrichmentRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "visabuddy_enrichment_retries_total",
			Help: "Total AI enrichment retry attempts",
		},
	)

	ValidationCorrections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visabuddy_validation_corrections_total",
			Help: "Total auto-corrections applied to model replies",
		},
		[]string{"kind"},
	)

	ExtrasTrimmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "visabuddy_ai_extras_trimmed_total",
			Help: "Total supplementary items trimmed over the cap",
		},
	)

	UnknownDocumentTypes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visabuddy_unknown_document_types_total",
			Help: "Document type spellings the normalizer could not resolve",
		},
		[]string{"where"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visabuddy_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	RetrievalResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "visabuddy_retrieval_results_count",
			Help:    "Knowledge base extracts returned per retrieval",
			Buckets: []float64{0, 1, 2, 5, 10, 20},
		},
		[]string{"backend"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visabuddy_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visabuddy_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	KBDocumentsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "visabuddy_kb_documents_ingested_total",
			Help: "Total knowledge base documents ingested",
		},
	)

	ChecklistProgress = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "visabuddy_checklist_progress",
			Help:    "Progress ratio after document matching",
			Buckets: []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1.0},
		},
	)
)

func Init() {
	prometheus.MustRegister(GenerationDuration)
	prometheus.MustRegister(GenerationTotal)
	prometheus.MustRegister(EnrichmentRetries)
	prometheus.MustRegister(ValidationCorrections)
	prometheus.MustRegister(ExtrasTrimmed)
	prometheus.MustRegister(UnknownDocumentTypes)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(RetrievalResults)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(KBDocumentsIngested)
	prometheus.MustRegister(ChecklistProgress)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
