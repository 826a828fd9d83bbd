package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testContext() Context {
	return Context{Where: "test", CountryCode: "DE", VisaCategory: "tourist"}
}

func TestNormalizeCanonicalPassesThrough(t *testing.T) {
	n := NewDefault()

	res := n.Normalize("passport", testContext())

	assert.Equal(t, "passport", res.Canonical)
	assert.False(t, res.WasNormalized)
}

func TestNormalizeAlias(t *testing.T) {
	n := NewDefault()

	res := n.Normalize("financial_proof", testContext())

	assert.Equal(t, "bank_statement", res.Canonical)
	assert.True(t, res.WasNormalized)
}

func TestNormalizeFoldsSpellingVariants(t *testing.T) {
	n := NewDefault()

	for _, raw := range []string{"Bank Statement", "bank-statement", "  BANK_STATEMENT  ", "bank  statement"} {
		res := n.Normalize(raw, testContext())
		assert.Equal(t, "bank_statement", res.Canonical, "raw=%q", raw)
	}
}

func TestNormalizeUnknownReturnsEmpty(t *testing.T) {
	n := NewDefault()

	res := n.Normalize("galactic_travel_permit", testContext())

	assert.Empty(t, res.Canonical)
	assert.False(t, res.WasNormalized)
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := NewDefault()

	res := n.Normalize("   ", testContext())

	assert.Empty(t, res.Canonical)
}

func TestNormalizeIdempotent(t *testing.T) {
	n := NewDefault()

	first := n.Normalize("Passport (International)", testContext())
	second := n.Normalize(first.Canonical, testContext())

	assert.Equal(t, first.Canonical, second.Canonical)
	assert.False(t, second.WasNormalized)
}

func TestCustomTable(t *testing.T) {
	n := New(map[string][]string{
		"residence_permit": {"aufenthaltstitel"},
	})

	res := n.Normalize("Aufenthaltstitel", testContext())
	assert.Equal(t, "residence_permit", res.Canonical)

	assert.True(t, n.Canonical("residence_permit"))
	assert.False(t, n.Canonical("aufenthaltstitel"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "bank_statement", Fold("Bank Statement"))
	assert.Equal(t, "photo_3_5", Fold("Photo (3,5)"))
	assert.Equal(t, "", Fold("!!!"))
}
