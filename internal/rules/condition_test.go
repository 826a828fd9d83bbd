package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visabuddy/ai-service/internal/catalog"
	"github.com/visabuddy/ai-service/internal/checklist"
)

func TestEqMatchesCaseInsensitive(t *testing.T) {
	profile := &checklist.ApplicantProfile{SponsorType: "Relative"}

	ok, err := evalCondition(catalog.Condition{
		Op: catalog.OpEquals, Field: "sponsorType", Value: "relative",
	}, profile)

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEqNeverMatchesUnknown(t *testing.T) {
	profile := &checklist.ApplicantProfile{}

	for _, value := range []string{"", "unknown", "self"} {
		ok, err := evalCondition(catalog.Condition{
			Op: catalog.OpEquals, Field: "sponsorType", Value: value,
		}, profile)

		require.NoError(t, err)
		assert.False(t, ok, "value=%q", value)
	}
}

func TestIsFalseDistinctFromUnknown(t *testing.T) {
	cond := catalog.Condition{Op: catalog.OpIsFalse, Field: "travelHistory"}

	ok, err := evalCondition(cond, &checklist.ApplicantProfile{})
	require.NoError(t, err)
	assert.False(t, ok, "unknown must not count as false")

	ok, err = evalCondition(cond, &checklist.ApplicantProfile{TravelHistory: checklist.TriNo})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = evalCondition(cond, &checklist.ApplicantProfile{TravelHistory: checklist.TriYes})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsUnknown(t *testing.T) {
	cond := catalog.Condition{Op: catalog.OpIsUnknown, Field: "priorRefusal"}

	ok, err := evalCondition(cond, &checklist.ApplicantProfile{})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = evalCondition(cond, &checklist.ApplicantProfile{PriorRefusal: checklist.TriNo})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAndOr(t *testing.T) {
	profile := &checklist.ApplicantProfile{
		SponsorType: "relative",
		Employed:    checklist.TriNo,
	}

	and := catalog.Condition{
		Op: catalog.OpAnd,
		Args: []catalog.Condition{
			{Op: catalog.OpEquals, Field: "sponsorType", Value: "relative"},
			{Op: catalog.OpIsFalse, Field: "employed"},
		},
	}
	ok, err := evalCondition(and, profile)
	require.NoError(t, err)
	assert.True(t, ok)

	or := catalog.Condition{
		Op: catalog.OpOr,
		Args: []catalog.Condition{
			{Op: catalog.OpIsTrue, Field: "employed"},
			{Op: catalog.OpEquals, Field: "sponsorType", Value: "relative"},
		},
	}
	ok, err = evalCondition(or, profile)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAndWithoutArgsErrors(t *testing.T) {
	_, err := evalCondition(catalog.Condition{Op: catalog.OpAnd}, &checklist.ApplicantProfile{})
	assert.Error(t, err)
}

func TestUnknownOpErrors(t *testing.T) {
	_, err := evalCondition(catalog.Condition{Op: "matches"}, &checklist.ApplicantProfile{})
	assert.Error(t, err)
}

func TestUnknownFieldErrors(t *testing.T) {
	_, err := evalCondition(catalog.Condition{
		Op: catalog.OpEquals, Field: "favoriteColor", Value: "blue",
	}, &checklist.ApplicantProfile{})
	assert.Error(t, err)
}

func TestNumericFieldsCompareAsStrings(t *testing.T) {
	funds := 5000
	profile := &checklist.ApplicantProfile{FundsEstimate: &funds}

	ok, err := evalCondition(catalog.Condition{
		Op: catalog.OpEquals, Field: "fundsEstimate", Value: "5000",
	}, profile)

	require.NoError(t, err)
	assert.True(t, ok)
}
