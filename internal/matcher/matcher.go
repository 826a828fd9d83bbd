package matcher

import (
	"go.uber.org/zap"

	"github.com/visabuddy/ai-service/internal/checklist"
	"github.com/visabuddy/ai-service/internal/normalizer"
	"github.com/visabuddy/ai-service/pkg/logger"
)

// Matcher reconciles uploaded documents against a generated checklist and
// computes weighted progress. Merging is idempotent: applying the same
// uploads twice gives the same statuses and the same progress.
type Matcher struct {
	norm *normalizer.Normalizer
}

func NewMatcher(norm *normalizer.Normalizer) *Matcher {
	return &Matcher{norm: norm}
}

var statusRank = map[checklist.ItemStatus]int{
	checklist.StatusVerified: 3,
	checklist.StatusUploaded: 2,
	checklist.StatusRejected: 1,
	checklist.StatusMissing:  0,
}

var statusWeight = map[checklist.ItemStatus]float64{
	checklist.StatusVerified: 1.0,
	checklist.StatusUploaded: 0.5,
	checklist.StatusRejected: 0.0,
	checklist.StatusMissing:  0.0,
}

// Merge stamps each checklist item with the strongest status among the
// uploads that match its document type, then recomputes progress. Items
// with no matching upload are marked missing. The input slice is not
// modified.
func (m *Matcher) Merge(
	items []checklist.Item,
	uploads []checklist.UploadedDocumentRecord,
	countryCode, visaCategory string,
) ([]checklist.Item, float64) {
	nctx := normalizer.Context{
		Where:        "matcher.Merge",
		CountryCode:  countryCode,
		VisaCategory: visaCategory,
	}

	// Strongest status seen per canonical (or folded raw) upload type.
	uploadStatus := make(map[string]checklist.ItemStatus, len(uploads))
	record := func(key string, status checklist.ItemStatus) {
		if key == "" {
			return
		}
		if existing, ok := uploadStatus[key]; !ok || statusRank[status] > statusRank[existing] {
			uploadStatus[key] = status
		}
	}

	for _, up := range uploads {
		status := up.Status
		if _, ok := statusRank[status]; !ok {
			logger.Warn("unknown upload status, treating as uploaded",
				zap.String("document_type", up.DocumentType),
				zap.String("status", string(status)),
			)
			status = checklist.StatusUploaded
		}

		res := m.norm.Normalize(up.DocumentType, nctx)
		if res.Canonical != "" {
			record(res.Canonical, status)
		}
		// Legacy uploads predate normalization, so the folded raw spelling
		// is indexed as well for best-effort matching.
		record(normalizer.Fold(up.DocumentType), status)
	}

	merged := make([]checklist.Item, len(items))
	copy(merged, items)

	for i := range merged {
		status := checklist.StatusMissing

		if s, ok := uploadStatus[merged[i].DocumentType]; ok {
			status = s
		} else if s, ok := uploadStatus[normalizer.Fold(merged[i].DocumentType)]; ok {
			status = s
		}

		merged[i].Status = status
	}

	return merged, Progress(merged)
}

// Progress is the weighted completion ratio. Required items dominate the
// denominator; verified counts in full and uploaded in half, so progress
// never decreases when a document moves from uploaded to verified.
func Progress(items []checklist.Item) float64 {
	var earned, total float64

	for _, item := range items {
		weight := 0.25
		if item.Required {
			weight = 1.0
		}

		total += weight
		earned += weight * statusWeight[item.Status]
	}

	if total == 0 {
		return 0
	}

	return earned / total
}
