package rules

import (
	"sort"

	"go.uber.org/zap"

	"github.com/visabuddy/ai-service/internal/catalog"
	"github.com/visabuddy/ai-service/internal/checklist"
	"github.com/visabuddy/ai-service/internal/normalizer"
	"github.com/visabuddy/ai-service/pkg/logger"
)

// Engine turns a catalog entry plus an applicant profile into the base
// checklist. It is pure: no I/O beyond logging, no randomness, identical
// inputs give identical ordered output.
type Engine struct {
	norm *normalizer.Normalizer
}

func NewEngine(norm *normalizer.Normalizer) *Engine {
	return &Engine{norm: norm}
}

type workingItem struct {
	checklist.BaseChecklistItem
	order int
}

func (e *Engine) Evaluate(
	profile *checklist.ApplicantProfile,
	risk *checklist.RiskAssessment,
	entry *catalog.Entry,
) []checklist.BaseChecklistItem {
	nctx := normalizer.Context{
		Where:        "rules.Evaluate",
		CountryCode:  entry.Country,
		VisaCategory: entry.VisaCategory,
	}

	working := make(map[string]*workingItem)
	order := 0

	upsert := func(docType string, category checklist.Category, required bool, overwrite bool) {
		key := e.canonicalOrRaw(docType, nctx)
		if existing, ok := working[key]; ok {
			if overwrite {
				existing.Category = category
				existing.Required = required
			}
			return
		}
		working[key] = &workingItem{
			BaseChecklistItem: checklist.BaseChecklistItem{
				DocumentType: key,
				Category:     category,
				Required:     required,
			},
			order: order,
		}
		order++
	}

	for _, doc := range entry.BaseDocuments {
		upsert(doc.DocumentType, doc.Category, doc.Required, false)
	}

	for i, rule := range entry.ConditionalDocuments {
		ok, err := evalCondition(rule.Condition, profile)
		if err != nil {
			logger.Warn("skipping malformed conditional rule",
				zap.Int("rule_index", i),
				zap.String("document_type", rule.DocumentType),
				zap.String("country", entry.Country),
				zap.String("visa_category", entry.VisaCategory),
				zap.Error(err),
			)
			continue
		}
		if ok {
			// The conditional rule is more specific than the base entry,
			// so its category/required wins.
			upsert(rule.DocumentType, rule.Category, rule.Required, true)
		}
	}

	if risk != nil {
		for _, adj := range entry.RiskAdjustments {
			if adj.RiskLevel != risk.Level {
				continue
			}
			key := e.canonicalOrRaw(adj.AddDocumentType, nctx)
			if existing, ok := working[key]; ok {
				// Risk adjustments elevate but never lower.
				if adj.Category.Rank() < existing.Category.Rank() {
					existing.Category = adj.Category
					existing.Required = existing.Required || adj.Category == checklist.CategoryRequired
				}
				continue
			}
			working[key] = &workingItem{
				BaseChecklistItem: checklist.BaseChecklistItem{
					DocumentType: key,
					Category:     adj.Category,
					Required:     adj.Category == checklist.CategoryRequired,
				},
				order: order,
			}
			order++
		}
	}

	items := make([]*workingItem, 0, len(working))
	for _, item := range working {
		items = append(items, item)
	}

	sort.Slice(items, func(a, b int) bool {
		if items[a].Category.Rank() != items[b].Category.Rank() {
			return items[a].Category.Rank() < items[b].Category.Rank()
		}
		return items[a].order < items[b].order
	})

	result := make([]checklist.BaseChecklistItem, len(items))
	for i, item := range items {
		result[i] = item.BaseChecklistItem
	}

	return result
}

// canonicalOrRaw keeps the raw catalog spelling when normalization fails so a
// misconfigured type still flows through generation and matching.
func (e *Engine) canonicalOrRaw(docType string, nctx normalizer.Context) string {
	res := e.norm.Normalize(docType, nctx)
	if res.Canonical == "" {
		return docType
	}
	return res.Canonical
}
