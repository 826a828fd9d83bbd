package enrichment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/visabuddy/ai-service/internal/checklist"
	"github.com/visabuddy/ai-service/internal/llm"
	"github.com/visabuddy/ai-service/internal/normalizer"
	"github.com/visabuddy/ai-service/internal/rag"
	"github.com/visabuddy/ai-service/pkg/logger"
)

// Completer is the slice of the LLM client the orchestrator needs. Tests
// substitute a scripted implementation.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// PolicyRetriever supplies knowledge-base extracts for the prompt. A nil
// retriever, or a retriever error, degrades to an extract-free prompt and
// never fails generation.
type PolicyRetriever interface {
	Retrieve(ctx context.Context, q rag.Query) ([]rag.Extract, error)
}

type tier int

const (
	tierAIEnriched tier = iota
	tierRulesFallback
)

// AttemptLog describes how a single generation went, for the audit trail.
type AttemptLog struct {
	Attempts      int
	Retried       bool
	ParseFailures int
	Validation    ValidationReport
}

type Outcome struct {
	Items   []checklist.Item
	Notes   []string
	Mode    checklist.GenerationMode
	Attempt AttemptLog
}

type Orchestrator struct {
	llm        Completer
	retriever  PolicyRetriever
	norm       *normalizer.Normalizer
	aiExtraCap int
}

func NewOrchestrator(completer Completer, retriever PolicyRetriever, norm *normalizer.Normalizer, aiExtraCap int) *Orchestrator {
	if norm == nil {
		norm = normalizer.NewDefault()
	}
	if aiExtraCap <= 0 {
		aiExtraCap = 3
	}
	return &Orchestrator{
		llm:        completer,
		retriever:  retriever,
		norm:       norm,
		aiExtraCap: aiExtraCap,
	}
}

// Enrich runs the tier machine over a non-empty base checklist: one AI
// attempt, one sequential retry, then the static rules fallback. The base
// checklist itself is never at risk; only presentation quality degrades.
func (o *Orchestrator) Enrich(
	ctx context.Context,
	profile *checklist.ApplicantProfile,
	risk *checklist.RiskAssessment,
	baseItems []checklist.BaseChecklistItem,
) Outcome {
	locale := appLanguage(profile)

	current := tierAIEnriched
	if o.llm == nil {
		current = tierRulesFallback
	}

	var attempt AttemptLog

	if current == tierAIEnriched {
		extracts := o.retrieveExtracts(ctx, profile)
		prompt := buildUserPrompt(profile, risk, baseItems, extracts)

		items, notes, err := o.tryEnrich(ctx, prompt, baseItems, locale, &attempt)
		if err != nil {
			attempt.Retried = true
			logger.Warn("AI enrichment failed, retrying once",
				zap.String("country", profile.CountryCode),
				zap.String("visa_category", profile.VisaCategory),
				zap.Error(err),
			)
			items, notes, err = o.tryEnrich(ctx, prompt, baseItems, locale, &attempt)
		}

		if err == nil {
			logger.Info("checklist enriched",
				zap.String("country", profile.CountryCode),
				zap.String("visa_category", profile.VisaCategory),
				zap.Int("items", len(items)),
				zap.Int("auto_corrections", attempt.Validation.AutoCorrections),
				zap.Int("trimmed_extras", attempt.Validation.TrimmedExtras),
				zap.Bool("retried", attempt.Retried),
			)
			return Outcome{
				Items:   items,
				Notes:   notes,
				Mode:    checklist.ModeRulesEnriched,
				Attempt: attempt,
			}
		}

		logger.Warn("AI enrichment exhausted, serving rules fallback",
			zap.String("country", profile.CountryCode),
			zap.String("visa_category", profile.VisaCategory),
			zap.Error(err),
		)
		current = tierRulesFallback
	}

	items := make([]checklist.Item, len(baseItems))
	for i, base := range baseItems {
		items[i] = staticItem(base, locale)
	}

	return Outcome{
		Items:   items,
		Notes:   []string{"Checklist content was generated without AI enrichment."},
		Mode:    checklist.ModeRulesBaseFallback,
		Attempt: attempt,
	}
}

// Legacy builds the hand-authored checklist for country/category pairs with
// no ruleset. The AI is deliberately not consulted here.
func (o *Orchestrator) Legacy(profile *checklist.ApplicantProfile) Outcome {
	locale := appLanguage(profile)

	logger.Info("no ruleset for application, serving legacy checklist",
		zap.String("country", profile.CountryCode),
		zap.String("visa_category", profile.VisaCategory),
	)

	return Outcome{
		Items: legacyItems(profile.VisaCategory, locale),
		Notes: legacyNotes,
		Mode:  checklist.ModeLegacyFallback,
	}
}

func (o *Orchestrator) tryEnrich(
	ctx context.Context,
	prompt string,
	baseItems []checklist.BaseChecklistItem,
	locale string,
	attempt *AttemptLog,
) ([]checklist.Item, []string, error) {
	attempt.Attempts++

	resp, err := o.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("completion failed: %w", err)
	}

	parsed, err := parseResponse(resp.Content)
	if err != nil {
		attempt.ParseFailures++
		return nil, nil, fmt.Errorf("unusable model reply: %w", err)
	}

	items, report := validateResponse(parsed, baseItems, o.norm, locale, o.aiExtraCap)
	attempt.Validation = report

	return items, parsed.Notes, nil
}

func (o *Orchestrator) retrieveExtracts(ctx context.Context, profile *checklist.ApplicantProfile) []rag.Extract {
	if o.retriever == nil {
		return nil
	}

	query := fmt.Sprintf("%s visa requirements for %s applicants", profile.VisaCategory, profile.CountryCode)

	extracts, err := o.retriever.Retrieve(ctx, rag.Query{
		Text:         query,
		CountryCode:  profile.CountryCode,
		VisaCategory: profile.VisaCategory,
	})
	if err != nil {
		logger.Warn("policy retrieval failed, continuing without extracts",
			zap.String("country", profile.CountryCode),
			zap.Error(err),
		)
		return nil
	}

	return extracts
}
