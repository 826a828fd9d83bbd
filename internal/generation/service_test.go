package generation

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visabuddy/ai-service/internal/catalog"
	"github.com/visabuddy/ai-service/internal/checklist"
	"github.com/visabuddy/ai-service/internal/enrichment"
	"github.com/visabuddy/ai-service/internal/matcher"
	"github.com/visabuddy/ai-service/internal/normalizer"
	"github.com/visabuddy/ai-service/internal/rules"
	"github.com/visabuddy/ai-service/internal/storage/sqlite"
)

// newTestService wires the pipeline with a real catalog, engine and store but
// no LLM and no redis, so generation always lands on a fallback tier.
func newTestService(t *testing.T) *Service {
	t.Helper()

	norm := normalizer.NewDefault()

	cat := catalog.New("", norm)
	cat.Put(&catalog.Entry{
		Country:      "DE",
		VisaCategory: "tourist",
		BaseDocuments: []catalog.BaseDocument{
			{DocumentType: "passport", Category: checklist.CategoryRequired, Required: true},
			{DocumentType: "photo", Category: checklist.CategoryRequired, Required: true},
			{DocumentType: "travel_insurance", Category: checklist.CategoryHighlyRecommended, Required: false},
		},
	})

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema())

	return NewService(
		cat,
		rules.NewEngine(norm),
		enrichment.NewOrchestrator(nil, nil, norm, 3),
		matcher.NewMatcher(norm),
		db,
		nil,
	)
}

func touristRequest(applicationID string) GenerateRequest {
	return GenerateRequest{
		ApplicationID: applicationID,
		Profile: &checklist.ApplicantProfile{
			CountryCode:  "DE",
			VisaCategory: "tourist",
			Language:     "en",
		},
	}
}

func TestGeneratePersistsChecklist(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Generate(context.Background(), touristRequest("app-1"))
	require.NoError(t, err)

	assert.Equal(t, checklist.ModeRulesBaseFallback, result.GenerationMode)
	assert.Len(t, result.Items, 3)
	assert.Zero(t, result.Progress)

	stored, err := svc.Get(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, result.Items, stored.Items)
}

func TestGenerateLegacyTierWithoutRuleset(t *testing.T) {
	svc := newTestService(t)

	req := touristRequest("app-2")
	req.Profile.CountryCode = "XX"

	result, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, checklist.ModeLegacyFallback, result.GenerationMode)
	assert.NotEmpty(t, result.Items)
	assert.NotEmpty(t, result.Notes)
}

func TestGenerateMatchesUploads(t *testing.T) {
	svc := newTestService(t)

	req := touristRequest("app-3")
	req.Uploads = []checklist.UploadedDocumentRecord{
		{DocumentType: "International Passport", Status: checklist.StatusVerified},
	}

	result, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	var passportStatus checklist.ItemStatus
	for _, item := range result.Items {
		if item.DocumentType == "passport" {
			passportStatus = item.Status
		}
	}
	assert.Equal(t, checklist.StatusVerified, passportStatus)
	assert.Greater(t, result.Progress, 0.0)
}

func TestGenerateReplacesPreviousChecklist(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Generate(context.Background(), touristRequest("app-4"))
	require.NoError(t, err)

	req := touristRequest("app-4")
	req.Profile.TravelHistory = checklist.TriNo

	second, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	stored, err := svc.Get(context.Background(), "app-4")
	require.NoError(t, err)
	assert.Equal(t, second.GeneratedAt.Unix(), stored.GeneratedAt.Unix())
}

func TestUpdateProgress(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Generate(context.Background(), touristRequest("app-5"))
	require.NoError(t, err)

	result, err := svc.UpdateProgress(context.Background(), "app-5", []checklist.UploadedDocumentRecord{
		{DocumentType: "passport", Status: checklist.StatusUploaded},
		{DocumentType: "photo", Status: checklist.StatusVerified},
	})
	require.NoError(t, err)

	// (1.0*0.5 + 1.0*1.0) / (1.0 + 1.0 + 0.25)
	assert.InDelta(t, 1.5/2.25, result.Progress, 1e-9)

	stored, err := svc.Get(context.Background(), "app-5")
	require.NoError(t, err)
	assert.InDelta(t, result.Progress, stored.Progress, 1e-9)
}

func TestUpdateProgressUnknownApplication(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.UpdateProgress(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrChecklistNotFound)
}
