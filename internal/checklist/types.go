package checklist

import "time"

// Category ranks a document's importance. The order of the constants is the
// display order and the elevation order: a risk adjustment may move an item
// toward Required but never away from it.
type Category string

const (
	CategoryRequired          Category = "required"
	CategoryHighlyRecommended Category = "highly_recommended"
	CategoryOptional          Category = "optional"
)

func (c Category) Rank() int {
	switch c {
	case CategoryRequired:
		return 0
	case CategoryHighlyRecommended:
		return 1
	case CategoryOptional:
		return 2
	default:
		return 3
	}
}

func (c Category) Valid() bool {
	return c.Rank() < 3
}

// Source records which stage contributed an item. Rules-sourced items are
// authoritative; ai_extra items only ever come from enrichment.
type Source string

const (
	SourceRules   Source = "rules"
	SourceAIExtra Source = "ai_extra"
)

type GenerationMode string

const (
	ModeRulesEnriched     GenerationMode = "rules_enriched"
	ModeRulesBaseFallback GenerationMode = "rules_base_fallback"
	ModeLegacyFallback    GenerationMode = "legacy_fallback"
)

type ItemStatus string

const (
	StatusMissing  ItemStatus = "missing"
	StatusUploaded ItemStatus = "uploaded"
	StatusVerified ItemStatus = "verified"
	StatusRejected ItemStatus = "rejected"
)

// TriState is a three-valued answer. Unknown is the zero value so a field the
// questionnaire never reached is never mistaken for an explicit "no".
type TriState string

const (
	TriUnknown TriState = "unknown"
	TriYes     TriState = "yes"
	TriNo      TriState = "no"
)

func (t TriState) IsTrue() bool    { return t == TriYes }
func (t TriState) IsFalse() bool   { return t == TriNo }
func (t TriState) IsUnknown() bool { return t == "" || t == TriUnknown }

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ApplicantProfile is the normalized questionnaire view. String fields use ""
// for unknown; flag fields use TriState. Immutable for the duration of one
// generation call.
type ApplicantProfile struct {
	CountryCode   string   `json:"countryCode"`
	VisaCategory  string   `json:"visaCategory"`
	TripCategory  string   `json:"tripCategory,omitempty"`
	SponsorType   string   `json:"sponsorType,omitempty"`
	FundsEstimate *int     `json:"fundsEstimate,omitempty"`
	MonthlyIncome *int     `json:"monthlyIncome,omitempty"`
	TravelHistory TriState `json:"travelHistory,omitempty"`
	PriorRefusal  TriState `json:"priorRefusal,omitempty"`
	OwnsProperty  TriState `json:"ownsProperty,omitempty"`
	FamilyTies    TriState `json:"familyTies,omitempty"`
	Employed      TriState `json:"employed,omitempty"`
	IsMinor       TriState `json:"isMinor,omitempty"`
	HasDependents TriState `json:"hasDependents,omitempty"`
	Language      string   `json:"language,omitempty"`
}

type RiskAssessment struct {
	Level   RiskLevel `json:"level"`
	Drivers []string  `json:"drivers,omitempty"`
}

// BaseChecklistItem is the rule engine's output. DocumentType is canonical
// whenever normalization succeeded; otherwise the raw catalog value is kept.
type BaseChecklistItem struct {
	DocumentType string   `json:"documentType"`
	Category     Category `json:"category"`
	Required     bool     `json:"required"`
}

// Item is the enriched, user-facing checklist entry.
type Item struct {
	DocumentType  string            `json:"documentType"`
	Category      Category          `json:"category"`
	Required      bool              `json:"required"`
	Name          string            `json:"name"`
	NameLocalized map[string]string `json:"nameLocalized,omitempty"`
	Description   string            `json:"description,omitempty"`
	WhereToObtain string            `json:"whereToObtain,omitempty"`
	Priority      int               `json:"priority,omitempty"`
	Source        Source            `json:"source"`
	Applies       bool              `json:"appliesToThisApplicant"`
	Status        ItemStatus        `json:"status,omitempty"`
}

type UploadedDocumentRecord struct {
	DocumentType string     `json:"documentType"`
	Status       ItemStatus `json:"status"`
}

type GenerationResult struct {
	ApplicationID  string         `json:"applicationId"`
	CountryCode    string         `json:"countryCode"`
	VisaCategory   string         `json:"visaCategory"`
	Items          []Item         `json:"items"`
	Notes          []string       `json:"notes,omitempty"`
	GenerationMode GenerationMode `json:"generationMode"`
	Progress       float64        `json:"progress"`
	GeneratedAt    time.Time      `json:"generatedAt"`
}
