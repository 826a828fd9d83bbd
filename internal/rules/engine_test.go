package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visabuddy/ai-service/internal/catalog"
	"github.com/visabuddy/ai-service/internal/checklist"
	"github.com/visabuddy/ai-service/internal/normalizer"
)

func testEntry() *catalog.Entry {
	return &catalog.Entry{
		Country:      "DE",
		VisaCategory: "tourist",
		Version:      1,
		BaseDocuments: []catalog.BaseDocument{
			{DocumentType: "passport", Category: checklist.CategoryRequired, Required: true},
			{DocumentType: "application_form", Category: checklist.CategoryRequired, Required: true},
			{DocumentType: "travel_insurance", Category: checklist.CategoryHighlyRecommended, Required: false},
		},
		ConditionalDocuments: []catalog.ConditionalDocument{
			{
				Condition:    catalog.Condition{Op: catalog.OpEquals, Field: "sponsorType", Value: "relative"},
				DocumentType: "sponsor_financial_guarantee",
				Category:     checklist.CategoryRequired,
				Required:     true,
			},
			{
				Condition:    catalog.Condition{Op: catalog.OpIsFalse, Field: "travelHistory"},
				DocumentType: "explanation_letter",
				Category:     checklist.CategoryHighlyRecommended,
				Required:     false,
			},
		},
		RiskAdjustments: []catalog.RiskAdjustment{
			{
				RiskLevel:       checklist.RiskHigh,
				AddDocumentType: "property_deed",
				Category:        checklist.CategoryHighlyRecommended,
			},
		},
	}
}

func newTestEngine() *Engine {
	return NewEngine(normalizer.NewDefault())
}

func docTypes(items []checklist.BaseChecklistItem) []string {
	types := make([]string, len(items))
	for i, item := range items {
		types[i] = item.DocumentType
	}
	return types
}

func findItem(t *testing.T, items []checklist.BaseChecklistItem, docType string) checklist.BaseChecklistItem {
	t.Helper()
	for _, item := range items {
		if item.DocumentType == docType {
			return item
		}
	}
	t.Fatalf("item %q not found in %v", docType, docTypes(items))
	return checklist.BaseChecklistItem{}
}

func TestEvaluateBaseDocumentsOnly(t *testing.T) {
	engine := newTestEngine()
	profile := &checklist.ApplicantProfile{CountryCode: "DE", VisaCategory: "tourist"}

	items := engine.Evaluate(profile, nil, testEntry())

	assert.Equal(t, []string{"passport", "application_form", "travel_insurance"}, docTypes(items))
}

func TestEvaluateSponsorConditionAddsGuarantee(t *testing.T) {
	engine := newTestEngine()
	profile := &checklist.ApplicantProfile{
		CountryCode:  "DE",
		VisaCategory: "tourist",
		SponsorType:  "relative",
	}

	items := engine.Evaluate(profile, nil, testEntry())

	guarantee := findItem(t, items, "sponsor_financial_guarantee")
	assert.Equal(t, checklist.CategoryRequired, guarantee.Category)
	assert.True(t, guarantee.Required)
}

func TestEvaluateUnknownTravelHistoryDoesNotTriggerIsFalse(t *testing.T) {
	engine := newTestEngine()
	profile := &checklist.ApplicantProfile{CountryCode: "DE", VisaCategory: "tourist"}

	items := engine.Evaluate(profile, nil, testEntry())

	assert.NotContains(t, docTypes(items), "explanation_letter")

	profile.TravelHistory = checklist.TriNo
	items = engine.Evaluate(profile, nil, testEntry())
	assert.Contains(t, docTypes(items), "explanation_letter")
}

func TestEvaluateRiskAdjustmentAddsDocument(t *testing.T) {
	engine := newTestEngine()
	profile := &checklist.ApplicantProfile{CountryCode: "DE", VisaCategory: "tourist"}
	risk := &checklist.RiskAssessment{Level: checklist.RiskHigh}

	items := engine.Evaluate(profile, risk, testEntry())

	deed := findItem(t, items, "property_deed")
	assert.Equal(t, checklist.CategoryHighlyRecommended, deed.Category)
	assert.False(t, deed.Required)

	items = engine.Evaluate(profile, &checklist.RiskAssessment{Level: checklist.RiskLow}, testEntry())
	assert.NotContains(t, docTypes(items), "property_deed")
}

func TestEvaluateRiskAdjustmentNeverLowersCategory(t *testing.T) {
	engine := newTestEngine()
	entry := testEntry()
	entry.RiskAdjustments = []catalog.RiskAdjustment{
		{
			RiskLevel:       checklist.RiskHigh,
			AddDocumentType: "passport",
			Category:        checklist.CategoryOptional,
		},
	}

	profile := &checklist.ApplicantProfile{CountryCode: "DE", VisaCategory: "tourist"}
	items := engine.Evaluate(profile, &checklist.RiskAssessment{Level: checklist.RiskHigh}, entry)

	passport := findItem(t, items, "passport")
	assert.Equal(t, checklist.CategoryRequired, passport.Category)
	assert.True(t, passport.Required)
}

func TestEvaluateRiskAdjustmentElevates(t *testing.T) {
	engine := newTestEngine()
	entry := testEntry()
	entry.RiskAdjustments = []catalog.RiskAdjustment{
		{
			RiskLevel:       checklist.RiskHigh,
			AddDocumentType: "travel_insurance",
			Category:        checklist.CategoryRequired,
		},
	}

	profile := &checklist.ApplicantProfile{CountryCode: "DE", VisaCategory: "tourist"}
	items := engine.Evaluate(profile, &checklist.RiskAssessment{Level: checklist.RiskHigh}, entry)

	insurance := findItem(t, items, "travel_insurance")
	assert.Equal(t, checklist.CategoryRequired, insurance.Category)
	assert.True(t, insurance.Required)
}

func TestEvaluateMalformedRuleSkipped(t *testing.T) {
	engine := newTestEngine()
	entry := testEntry()
	entry.ConditionalDocuments = append(entry.ConditionalDocuments, catalog.ConditionalDocument{
		Condition:    catalog.Condition{Op: "between", Field: "fundsEstimate"},
		DocumentType: "bank_statement",
		Category:     checklist.CategoryRequired,
		Required:     true,
	})

	profile := &checklist.ApplicantProfile{CountryCode: "DE", VisaCategory: "tourist"}
	items := engine.Evaluate(profile, nil, entry)

	assert.NotContains(t, docTypes(items), "bank_statement")
	assert.Contains(t, docTypes(items), "passport")
}

func TestEvaluateDeterministicOrdering(t *testing.T) {
	engine := newTestEngine()
	profile := &checklist.ApplicantProfile{
		CountryCode:   "DE",
		VisaCategory:  "tourist",
		SponsorType:   "relative",
		TravelHistory: checklist.TriNo,
	}
	risk := &checklist.RiskAssessment{Level: checklist.RiskHigh}

	first := engine.Evaluate(profile, risk, testEntry())
	for i := 0; i < 10; i++ {
		again := engine.Evaluate(profile, risk, testEntry())
		require.Equal(t, first, again)
	}

	// Required items come before recommended ones.
	lastRank := -1
	for _, item := range first {
		assert.GreaterOrEqual(t, item.Category.Rank(), lastRank)
		lastRank = item.Category.Rank()
	}
}

func TestEvaluateNormalizesAliases(t *testing.T) {
	engine := newTestEngine()
	entry := testEntry()
	entry.BaseDocuments = append(entry.BaseDocuments, catalog.BaseDocument{
		DocumentType: "financial_proof",
		Category:     checklist.CategoryRequired,
		Required:     true,
	})

	profile := &checklist.ApplicantProfile{CountryCode: "DE", VisaCategory: "tourist"}
	items := engine.Evaluate(profile, nil, entry)

	assert.Contains(t, docTypes(items), "bank_statement")
	assert.NotContains(t, docTypes(items), "financial_proof")
}

func TestEvaluateKeepsRawTypeWhenUnknown(t *testing.T) {
	engine := newTestEngine()
	entry := testEntry()
	entry.BaseDocuments = append(entry.BaseDocuments, catalog.BaseDocument{
		DocumentType: "quantum_visa_token",
		Category:     checklist.CategoryOptional,
		Required:     false,
	})

	profile := &checklist.ApplicantProfile{CountryCode: "DE", VisaCategory: "tourist"}
	items := engine.Evaluate(profile, nil, entry)

	assert.Contains(t, docTypes(items), "quantum_visa_token")
}
