package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visabuddy/ai-service/internal/checklist"
	"github.com/visabuddy/ai-service/internal/llm"
	"github.com/visabuddy/ai-service/internal/rag"
)

// scriptedCompleter returns canned replies in order, one per call.
type scriptedCompleter struct {
	replies []string
	errs    []error
	calls   int
}

func (s *scriptedCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.replies) {
		return nil, errors.New("no scripted reply")
	}
	return &llm.CompletionResponse{Content: s.replies[i]}, nil
}

type staticRetriever struct {
	extracts []rag.Extract
	err      error
}

func (r *staticRetriever) Retrieve(ctx context.Context, q rag.Query) ([]rag.Extract, error) {
	return r.extracts, r.err
}

func touristProfile() *checklist.ApplicantProfile {
	return &checklist.ApplicantProfile{
		CountryCode:  "DE",
		VisaCategory: "tourist",
		Language:     "en",
	}
}

const goodReply = `{"type":"checklist","checklist":[
	{"documentType":"passport","category":"required","required":true,"name":"Valid Passport","priority":1,"source":"rules"},
	{"documentType":"bank_statement","category":"required","required":true,"name":"Bank Statement","priority":1,"source":"rules"},
	{"documentType":"travel_insurance","category":"highly_recommended","required":false,"name":"Travel Insurance","priority":2,"source":"rules"}
],"notes":["Apply early."]}`

func TestEnrichHappyPath(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{goodReply}}
	o := NewOrchestrator(completer, nil, nil, 3)

	outcome := o.Enrich(context.Background(), touristProfile(), nil, baseChecklist())

	assert.Equal(t, checklist.ModeRulesEnriched, outcome.Mode)
	assert.Len(t, outcome.Items, 3)
	assert.Equal(t, []string{"Apply early."}, outcome.Notes)
	assert.Equal(t, 1, outcome.Attempt.Attempts)
	assert.False(t, outcome.Attempt.Retried)
	assert.Equal(t, 1, completer.calls)
}

func TestEnrichRetriesOnceOnGarbage(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{"sorry, no JSON here", goodReply}}
	o := NewOrchestrator(completer, nil, nil, 3)

	outcome := o.Enrich(context.Background(), touristProfile(), nil, baseChecklist())

	assert.Equal(t, checklist.ModeRulesEnriched, outcome.Mode)
	assert.True(t, outcome.Attempt.Retried)
	assert.Equal(t, 2, outcome.Attempt.Attempts)
	assert.Equal(t, 1, outcome.Attempt.ParseFailures)
}

func TestEnrichFallsBackAfterTwoFailures(t *testing.T) {
	completer := &scriptedCompleter{
		errs: []error{errors.New("timeout"), errors.New("timeout")},
	}
	o := NewOrchestrator(completer, nil, nil, 3)

	outcome := o.Enrich(context.Background(), touristProfile(), nil, baseChecklist())

	assert.Equal(t, checklist.ModeRulesBaseFallback, outcome.Mode)
	assert.Equal(t, 2, completer.calls, "exactly one retry, then fallback")
	require.Len(t, outcome.Items, 3)

	// Fallback items keep the base membership and carry static content.
	passport := outcome.Items[0]
	assert.Equal(t, "passport", passport.DocumentType)
	assert.Equal(t, checklist.SourceRules, passport.Source)
	assert.Equal(t, "Valid Passport", passport.Name)
	assert.NotEmpty(t, passport.Description)
}

func TestEnrichNilCompleterServesFallback(t *testing.T) {
	o := NewOrchestrator(nil, nil, nil, 3)

	outcome := o.Enrich(context.Background(), touristProfile(), nil, baseChecklist())

	assert.Equal(t, checklist.ModeRulesBaseFallback, outcome.Mode)
	assert.Len(t, outcome.Items, 3)
	assert.Equal(t, 0, outcome.Attempt.Attempts)
}

func TestEnrichRetrieverFailureDoesNotFailGeneration(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{goodReply}}
	retriever := &staticRetriever{err: errors.New("vector store down")}
	o := NewOrchestrator(completer, retriever, nil, 3)

	outcome := o.Enrich(context.Background(), touristProfile(), nil, baseChecklist())

	assert.Equal(t, checklist.ModeRulesEnriched, outcome.Mode)
}

func TestEnrichValidatorGuardsBaseMembership(t *testing.T) {
	// The model drops bank_statement and tries to demote passport.
	reply := `{"checklist":[
		{"documentType":"passport","category":"optional","required":false,"name":"Passport","priority":3},
		{"documentType":"travel_insurance","category":"highly_recommended","name":"Insurance","priority":2}
	]}`
	completer := &scriptedCompleter{replies: []string{reply}}
	o := NewOrchestrator(completer, nil, nil, 3)

	outcome := o.Enrich(context.Background(), touristProfile(), nil, baseChecklist())

	require.Equal(t, checklist.ModeRulesEnriched, outcome.Mode)
	require.Len(t, outcome.Items, 3)

	var passport checklist.Item
	found := false
	for _, item := range outcome.Items {
		if item.DocumentType == "passport" {
			passport = item
			found = true
		}
	}
	require.True(t, found)
	assert.Equal(t, checklist.CategoryRequired, passport.Category)
	assert.True(t, passport.Required)
	assert.Equal(t, 1, outcome.Attempt.Validation.ReinsertedBase)
}

func TestLegacyChecklistTourist(t *testing.T) {
	o := NewOrchestrator(nil, nil, nil, 3)

	outcome := o.Legacy(touristProfile())

	assert.Equal(t, checklist.ModeLegacyFallback, outcome.Mode)
	require.Len(t, outcome.Items, 4)
	assert.NotEmpty(t, outcome.Notes)

	for _, item := range outcome.Items {
		assert.Equal(t, checklist.SourceRules, item.Source)
		assert.True(t, item.Required)
	}
}

func TestLegacyChecklistStudentAddsAcceptanceLetter(t *testing.T) {
	o := NewOrchestrator(nil, nil, nil, 3)
	profile := touristProfile()
	profile.VisaCategory = "student"

	outcome := o.Legacy(profile)

	require.Len(t, outcome.Items, 5)
	assert.Equal(t, "acceptance_letter", outcome.Items[4].DocumentType)
}

func TestLegacyChecklistLocalized(t *testing.T) {
	o := NewOrchestrator(nil, nil, nil, 3)
	profile := touristProfile()
	profile.Language = "ru"

	outcome := o.Legacy(profile)

	assert.Equal(t, "Действующий загранпаспорт", outcome.Items[0].Name)
	assert.Equal(t, "Valid Passport", outcome.Items[0].NameLocalized["en"])
}
