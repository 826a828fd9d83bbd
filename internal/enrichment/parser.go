package enrichment

import (
	"encoding/json"
	"fmt"
	"strings"
)

type aiResponse struct {
	Type      string   `json:"type"`
	Checklist []aiItem `json:"checklist"`
	Notes     []string `json:"notes"`
}

type aiItem struct {
	DocumentType  string            `json:"documentType"`
	Category      string            `json:"category"`
	Required      *bool             `json:"required,omitempty"`
	Name          string            `json:"name"`
	NameLocalized map[string]string `json:"nameLocalized,omitempty"`
	Description   string            `json:"description,omitempty"`
	WhereToObtain string            `json:"whereToObtain,omitempty"`
	Priority      int               `json:"priority,omitempty"`
	Source        string            `json:"source,omitempty"`
	Applies       *bool             `json:"appliesToThisApplicant,omitempty"`
}

// parseResponse extracts the checklist JSON from a raw model reply. Models
// wrap JSON in markdown fences or surround it with prose; both are stripped
// before decoding.
func parseResponse(raw string) (*aiResponse, error) {
	text := extractJSON(raw)
	if text == "" {
		return nil, fmt.Errorf("response contains no JSON object")
	}

	var resp aiResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse checklist JSON: %w", err)
	}

	if len(resp.Checklist) == 0 {
		return nil, fmt.Errorf("response checklist is empty")
	}

	return &resp, nil
}

func extractJSON(raw string) string {
	text := strings.TrimSpace(raw)

	if idx := strings.Index(text, "```json"); idx != -1 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
	} else if idx := strings.Index(text, "```"); idx != -1 {
		text = text[idx+3:]
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return ""
	}

	return strings.TrimSpace(text[start : end+1])
}
