package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/visabuddy/ai-service/internal/cache/redis"
	"github.com/visabuddy/ai-service/internal/catalog"
	"github.com/visabuddy/ai-service/internal/checklist"
	"github.com/visabuddy/ai-service/internal/enrichment"
	"github.com/visabuddy/ai-service/internal/matcher"
	"github.com/visabuddy/ai-service/internal/metrics"
	"github.com/visabuddy/ai-service/internal/rules"
	"github.com/visabuddy/ai-service/internal/storage/models"
	"github.com/visabuddy/ai-service/internal/storage/sqlite"
	"github.com/visabuddy/ai-service/pkg/logger"
)

var (
	ErrGenerationInFlight = redis.ErrGenerationInFlight
	ErrChecklistNotFound  = sqlite.ErrNotFound
)

const (
	lockTTL  = 2 * time.Minute
	cacheTTL = 15 * time.Minute
)

// Service runs the full checklist pipeline: single-flight lock, ruleset
// lookup, rule evaluation, enrichment, upload matching, persistence. It is
// the only caller of the rule engine and the orchestrator.
type Service struct {
	catalog      *catalog.Catalog
	engine       *rules.Engine
	orchestrator *enrichment.Orchestrator
	matcher      *matcher.Matcher
	db           *sqlite.Client
	cache        *redis.Client
}

func NewService(
	cat *catalog.Catalog,
	engine *rules.Engine,
	orchestrator *enrichment.Orchestrator,
	m *matcher.Matcher,
	db *sqlite.Client,
	cache *redis.Client,
) *Service {
	return &Service{
		catalog:      cat,
		engine:       engine,
		orchestrator: orchestrator,
		matcher:      m,
		db:           db,
		cache:        cache,
	}
}

type GenerateRequest struct {
	ApplicationID string
	Profile       *checklist.ApplicantProfile
	Risk          *checklist.RiskAssessment
	Uploads       []checklist.UploadedDocumentRecord
}

// Generate produces and persists a fresh checklist, replacing any previous
// one for the application. Concurrent generations for the same application
// are rejected with ErrGenerationInFlight.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*checklist.GenerationResult, error) {
	if s.cache != nil {
		if err := s.cache.AcquireGenerationLock(ctx, req.ApplicationID, lockTTL); err != nil {
			return nil, err
		}
		defer s.cache.ReleaseGenerationLock(ctx, req.ApplicationID)
	}

	start := time.Now()

	var outcome enrichment.Outcome

	entry, err := s.catalog.Lookup(req.Profile.CountryCode, req.Profile.VisaCategory)
	switch {
	case errors.Is(err, catalog.ErrNoRuleset):
		outcome = s.orchestrator.Legacy(req.Profile)
	case err != nil:
		return nil, fmt.Errorf("failed to look up ruleset: %w", err)
	default:
		baseItems := s.engine.Evaluate(req.Profile, req.Risk, entry)
		outcome = s.orchestrator.Enrich(ctx, req.Profile, req.Risk, baseItems)
	}

	items, progress := s.matcher.Merge(outcome.Items, req.Uploads, req.Profile.CountryCode, req.Profile.VisaCategory)

	result := &checklist.GenerationResult{
		ApplicationID:  req.ApplicationID,
		CountryCode:    req.Profile.CountryCode,
		VisaCategory:   req.Profile.VisaCategory,
		Items:          items,
		Notes:          outcome.Notes,
		GenerationMode: outcome.Mode,
		Progress:       progress,
		GeneratedAt:    time.Now(),
	}

	if err := s.db.SaveChecklist(result); err != nil {
		return nil, fmt.Errorf("failed to persist checklist: %w", err)
	}

	duration := time.Since(start)
	s.audit(req, result, outcome, duration)
	s.observe(result, outcome, duration)

	if s.cache != nil {
		if err := s.cache.SetChecklist(ctx, result, cacheTTL); err != nil {
			logger.Warn("failed to cache checklist", zap.Error(err))
		}
	}

	logger.Info("checklist generated",
		zap.String("application_id", req.ApplicationID),
		zap.String("country", req.Profile.CountryCode),
		zap.String("visa_category", req.Profile.VisaCategory),
		zap.String("generation_mode", string(result.GenerationMode)),
		zap.Int("items", len(result.Items)),
		zap.Float64("progress", result.Progress),
		zap.Duration("duration", duration),
	)

	return result, nil
}

// Get serves a previously generated checklist, preferring the cache.
func (s *Service) Get(ctx context.Context, applicationID string) (*checklist.GenerationResult, error) {
	if s.cache != nil {
		cached, hit, err := s.cache.GetChecklist(ctx, applicationID)
		if err != nil {
			logger.Warn("checklist cache read failed", zap.Error(err))
		} else if hit {
			metrics.CacheHits.WithLabelValues("checklist").Inc()
			return cached, nil
		}
		metrics.CacheMisses.WithLabelValues("checklist").Inc()
	}

	result, err := s.db.GetChecklist(applicationID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetChecklist(ctx, result, cacheTTL); err != nil {
			logger.Warn("failed to cache checklist", zap.Error(err))
		}
	}

	return result, nil
}

// UpdateProgress re-matches the stored checklist against the current upload
// set without regenerating content.
func (s *Service) UpdateProgress(
	ctx context.Context,
	applicationID string,
	uploads []checklist.UploadedDocumentRecord,
) (*checklist.GenerationResult, error) {
	result, err := s.db.GetChecklist(applicationID)
	if err != nil {
		return nil, err
	}

	items, progress := s.matcher.Merge(result.Items, uploads, result.CountryCode, result.VisaCategory)
	result.Items = items
	result.Progress = progress

	if err := s.db.SaveChecklist(result); err != nil {
		return nil, fmt.Errorf("failed to persist checklist: %w", err)
	}

	metrics.ChecklistProgress.Observe(progress)

	if s.cache != nil {
		if err := s.cache.SetChecklist(ctx, result, cacheTTL); err != nil {
			logger.Warn("failed to cache checklist", zap.Error(err))
		}
	}

	logger.Info("checklist progress updated",
		zap.String("application_id", applicationID),
		zap.Float64("progress", progress),
	)

	return result, nil
}

func (s *Service) audit(
	req GenerateRequest,
	result *checklist.GenerationResult,
	outcome enrichment.Outcome,
	duration time.Duration,
) {
	entry := &models.GenerationLogEntry{
		GenerationID:    uuid.NewString(),
		ApplicationID:   req.ApplicationID,
		CountryCode:     req.Profile.CountryCode,
		VisaCategory:    req.Profile.VisaCategory,
		GenerationMode:  string(result.GenerationMode),
		Attempts:        outcome.Attempt.Attempts,
		Retried:         outcome.Attempt.Retried,
		ParseFailures:   outcome.Attempt.ParseFailures,
		AutoCorrections: outcome.Attempt.Validation.AutoCorrections,
		TrimmedExtras:   outcome.Attempt.Validation.TrimmedExtras,
		ReinsertedBase:  outcome.Attempt.Validation.ReinsertedBase,
		ItemCount:       len(result.Items),
		DurationMs:      duration.Milliseconds(),
		CreatedAt:       time.Now(),
	}

	if err := s.db.InsertGenerationLog(entry); err != nil {
		logger.Warn("failed to write generation log",
			zap.String("application_id", req.ApplicationID),
			zap.Error(err),
		)
	}
}

func (s *Service) observe(result *checklist.GenerationResult, outcome enrichment.Outcome, duration time.Duration) {
	mode := string(result.GenerationMode)

	metrics.GenerationDuration.WithLabelValues(mode).Observe(duration.Seconds())
	metrics.GenerationTotal.WithLabelValues(mode, "success").Inc()
	metrics.ChecklistProgress.Observe(result.Progress)

	if outcome.Attempt.Retried {
		metrics.EnrichmentRetries.Inc()
	}
	if n := outcome.Attempt.Validation.AutoCorrections; n > 0 {
		metrics.ValidationCorrections.WithLabelValues("auto").Add(float64(n))
	}
	if n := outcome.Attempt.Validation.ReinsertedBase; n > 0 {
		metrics.ValidationCorrections.WithLabelValues("reinserted_base").Add(float64(n))
	}
	if n := outcome.Attempt.Validation.TrimmedExtras; n > 0 {
		metrics.ExtrasTrimmed.Add(float64(n))
	}
}
