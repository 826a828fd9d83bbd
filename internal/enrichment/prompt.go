package enrichment

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/visabuddy/ai-service/internal/checklist"
	"github.com/visabuddy/ai-service/internal/rag"
)

const systemPrompt = `You are VisaBuddy, an assistant that enriches visa document checklists.

You receive a BASE CHECKLIST decided by a deterministic rule engine. The base
checklist is authoritative. You must:
1. Return every base item exactly once, keeping its "documentType",
   "category" and "required" values unchanged.
2. Add human-facing content to each item: "name" (English),
   "nameLocalized" with "en", "ru" and "uz" translations, "description",
   "whereToObtain" (how the applicant obtains the document), "priority"
   (1 = most important, 5 = least) and "appliesToThisApplicant".
3. You MAY add at most 3 supplementary items with "source": "ai_extra" when
   the applicant context clearly calls for them. An ai_extra item must never
   have "category": "required".
4. Never remove a base item, never lower its category, never mark it as not
   required.

Output MUST be JSON only, no extra text, matching:
{
  "type": "checklist",
  "checklist": [
    {
      "documentType": "...",
      "category": "required|highly_recommended|optional",
      "required": true,
      "name": "...",
      "nameLocalized": {"en": "...", "ru": "...", "uz": "..."},
      "description": "...",
      "whereToObtain": "...",
      "priority": 1,
      "source": "rules|ai_extra",
      "appliesToThisApplicant": true
    }
  ],
  "notes": ["..."]
}`

func buildUserPrompt(
	profile *checklist.ApplicantProfile,
	risk *checklist.RiskAssessment,
	baseItems []checklist.BaseChecklistItem,
	extracts []rag.Extract,
) string {
	baseJSON, _ := json.MarshalIndent(baseItems, "", "  ")

	contextJSON, _ := json.MarshalIndent(struct {
		Profile *checklist.ApplicantProfile `json:"profile"`
		Risk    *checklist.RiskAssessment   `json:"riskAssessment,omitempty"`
	}{profile, risk}, "", "  ")

	var b strings.Builder

	b.WriteString("BASE CHECKLIST (authoritative, do not alter membership):\n```json\n")
	b.Write(baseJSON)
	b.WriteString("\n```\n\n")

	b.WriteString("APPLICANT CONTEXT (JSON):\n```json\n")
	b.Write(contextJSON)
	b.WriteString("\n```\n\n")

	b.WriteString("RELEVANT VISA RULES:\n")
	if len(extracts) == 0 {
		b.WriteString("No specific visa policy documents found in knowledge base.\n")
	} else {
		for _, ex := range extracts {
			fmt.Fprintf(&b, "**Source: %s**\n%s\n\n", ex.Source, ex.Content)
		}
	}

	b.WriteString("\nTASK:\nEnrich every base item with names, descriptions and acquisition guidance ")
	b.WriteString("personalized to this applicant. Use the policy extracts where relevant. ")
	fmt.Fprintf(&b, "Write the primary name and description in the applicant's app language (%s), ", appLanguage(profile))
	b.WriteString("and fill nameLocalized for en, ru and uz. Respond with the JSON template only.")

	return b.String()
}

func appLanguage(profile *checklist.ApplicantProfile) string {
	switch profile.Language {
	case "ru", "uz":
		return profile.Language
	default:
		return "en"
	}
}
