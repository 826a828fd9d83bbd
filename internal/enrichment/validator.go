package enrichment

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/visabuddy/ai-service/internal/checklist"
	"github.com/visabuddy/ai-service/internal/normalizer"
	"github.com/visabuddy/ai-service/pkg/logger"
)

// ValidationReport records what had to be fixed in a model reply. It feeds
// the generation audit log and the attempt metrics.
type ValidationReport struct {
	AutoCorrections int
	ReinsertedBase  int
	DroppedDupes    int
	TrimmedExtras   int
	ExtrasKept      int
}

// validateResponse reconciles the model checklist with the authoritative base
// checklist. Base membership, category, required and source always come from
// the rule engine; the model only contributes presentation fields and extras.
func validateResponse(
	resp *aiResponse,
	baseItems []checklist.BaseChecklistItem,
	norm *normalizer.Normalizer,
	locale string,
	aiExtraCap int,
) ([]checklist.Item, ValidationReport) {
	var report ValidationReport

	// Base items are keyed by folded spelling so a raw (unnormalized) catalog
	// type still reconciles when the model echoes it with different casing.
	baseByType := make(map[string]checklist.BaseChecklistItem, len(baseItems))
	for _, base := range baseItems {
		baseByType[normalizer.Fold(base.DocumentType)] = base
	}

	seen := make(map[string]bool, len(baseItems))
	var items []checklist.Item
	var extras []checklist.Item

	for _, ai := range resp.Checklist {
		docType := canonicalDocType(norm, ai.DocumentType)
		if docType == "" {
			report.AutoCorrections++
			continue
		}
		if docType != strings.TrimSpace(strings.ToLower(ai.DocumentType)) {
			report.AutoCorrections++
		}

		key := normalizer.Fold(docType)
		if seen[key] {
			report.DroppedDupes++
			continue
		}
		seen[key] = true

		item := itemFromAI(ai, docType, locale, &report)

		if base, ok := baseByType[key]; ok {
			item.DocumentType = base.DocumentType
			if item.Category != base.Category {
				report.AutoCorrections++
				item.Category = base.Category
			}
			if item.Required != base.Required {
				report.AutoCorrections++
				item.Required = base.Required
			}
			if item.Source != checklist.SourceRules {
				report.AutoCorrections++
			}
			item.Source = checklist.SourceRules
			items = append(items, item)
			continue
		}

		// Anything outside the base checklist is a model suggestion and can
		// only ever be supplementary.
		if item.Source != checklist.SourceAIExtra {
			report.AutoCorrections++
			item.Source = checklist.SourceAIExtra
		}
		if item.Required {
			report.AutoCorrections++
			item.Required = false
		}
		if item.Category == checklist.CategoryRequired {
			report.AutoCorrections++
			item.Category = checklist.CategoryHighlyRecommended
		}
		extras = append(extras, item)
	}

	for _, base := range baseItems {
		if seen[normalizer.Fold(base.DocumentType)] {
			continue
		}
		logger.Warn("model dropped a base checklist item, re-inserting",
			zap.String("document_type", base.DocumentType),
			zap.String("category", string(base.Category)),
		)
		items = append(items, staticItem(base, locale))
		report.ReinsertedBase++
		report.AutoCorrections++
	}

	extras = trimExtras(extras, aiExtraCap, &report)
	report.ExtrasKept = len(extras)

	items = append(items, extras...)

	sort.SliceStable(items, func(a, b int) bool {
		if items[a].Category.Rank() != items[b].Category.Rank() {
			return items[a].Category.Rank() < items[b].Category.Rank()
		}
		return items[a].Priority < items[b].Priority
	})

	return items, report
}

// canonicalDocType runs a model-provided document type through the alias
// table, keeping the folded spelling when the type is genuinely novel.
func canonicalDocType(norm *normalizer.Normalizer, raw string) string {
	if canon, ok := norm.Resolve(raw); ok {
		return canon
	}
	return normalizer.Fold(raw)
}

func itemFromAI(ai aiItem, docType, locale string, report *ValidationReport) checklist.Item {
	item := checklist.Item{
		DocumentType:  docType,
		Category:      fixCategory(ai.Category, report),
		Name:          strings.TrimSpace(ai.Name),
		NameLocalized: ai.NameLocalized,
		Description:   strings.TrimSpace(ai.Description),
		WhereToObtain: strings.TrimSpace(ai.WhereToObtain),
		Priority:      ai.Priority,
		Source:        fixSource(ai.Source),
		Applies:       true,
	}

	if ai.Required != nil {
		item.Required = *ai.Required
	} else {
		item.Required = item.Category == checklist.CategoryRequired
	}

	if ai.Applies != nil {
		item.Applies = *ai.Applies
	}

	if item.Priority < 1 || item.Priority > 5 {
		item.Priority = priorityFor(item.Category)
	}

	if item.Name == "" {
		fallback := staticItem(checklist.BaseChecklistItem{
			DocumentType: docType,
			Category:     item.Category,
			Required:     item.Required,
		}, locale)
		item.Name = fallback.Name
		if item.Description == "" {
			item.Description = fallback.Description
		}
		if item.WhereToObtain == "" {
			item.WhereToObtain = fallback.WhereToObtain
		}
	}

	if item.NameLocalized == nil {
		item.NameLocalized = map[string]string{}
	}
	if item.NameLocalized["en"] == "" {
		item.NameLocalized["en"] = item.Name
	}

	return item
}

// fixCategory repairs cosmetic deviations the models produce, such as casing
// or "recommended" instead of "highly_recommended". Anything it cannot map
// becomes optional.
func fixCategory(raw string, report *ValidationReport) checklist.Category {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")

	switch normalized {
	case string(checklist.CategoryRequired):
		return checklist.CategoryRequired
	case string(checklist.CategoryHighlyRecommended), "recommended", "highly_recommend":
		if normalized != string(checklist.CategoryHighlyRecommended) {
			report.AutoCorrections++
		}
		return checklist.CategoryHighlyRecommended
	case string(checklist.CategoryOptional):
		return checklist.CategoryOptional
	default:
		report.AutoCorrections++
		return checklist.CategoryOptional
	}
}

func fixSource(raw string) checklist.Source {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(checklist.SourceAIExtra), "ai", "extra":
		return checklist.SourceAIExtra
	default:
		return checklist.SourceRules
	}
}

// trimExtras enforces the supplementary item cap, dropping the numerically
// largest (least important) priorities first. Ties keep earlier suggestions.
func trimExtras(extras []checklist.Item, limit int, report *ValidationReport) []checklist.Item {
	if limit < 0 {
		limit = 0
	}
	if len(extras) <= limit {
		return extras
	}

	type ranked struct {
		item  checklist.Item
		order int
	}
	rankedExtras := make([]ranked, len(extras))
	for i, item := range extras {
		rankedExtras[i] = ranked{item: item, order: i}
	}

	sort.SliceStable(rankedExtras, func(a, b int) bool {
		if rankedExtras[a].item.Priority != rankedExtras[b].item.Priority {
			return rankedExtras[a].item.Priority < rankedExtras[b].item.Priority
		}
		return rankedExtras[a].order < rankedExtras[b].order
	})

	report.TrimmedExtras = len(extras) - limit
	for _, dropped := range rankedExtras[limit:] {
		logger.Debug("trimming supplementary item over cap",
			zap.String("document_type", dropped.item.DocumentType),
			zap.Int("priority", dropped.item.Priority),
		)
	}

	kept := make([]checklist.Item, 0, limit)
	for _, r := range rankedExtras[:limit] {
		kept = append(kept, r.item)
	}

	// Restore suggestion order among the survivors.
	sort.SliceStable(kept, func(a, b int) bool {
		return indexOf(extras, kept[a].DocumentType) < indexOf(extras, kept[b].DocumentType)
	})

	return kept
}

func indexOf(items []checklist.Item, docType string) int {
	for i, item := range items {
		if item.DocumentType == docType {
			return i
		}
	}
	return len(items)
}
