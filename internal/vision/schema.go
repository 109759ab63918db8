package vision

import "checklance/internal/domain"

// responseSchema mirrors the Gemini structured-output schema descriptor.
type responseSchema struct {
	Type        string                     `json:"type"`
	Description string                     `json:"description,omitempty"`
	Enum        []string                   `json:"enum,omitempty"`
	Properties  map[string]*responseSchema `json:"properties,omitempty"`
	Items       *responseSchema            `json:"items,omitempty"`
	Required    []string                   `json:"required,omitempty"`
}

// analysisSchema describes exactly the AnalysisResult shape: field names,
// the closed verdict enumeration, numeric confidence, free-text explanation
// and rule citation, and the ordered key-factor list.
func analysisSchema() *responseSchema {
	verdicts := make([]string, len(domain.Verdicts))
	for i, v := range domain.Verdicts {
		verdicts[i] = string(v)
	}
	return &responseSchema{
		Type: "OBJECT",
		Properties: map[string]*responseSchema{
			"verdict": {
				Type:        "STRING",
				Enum:        verdicts,
				Description: "The final decision on the play.",
			},
			"confidence": {
				Type:        "NUMBER",
				Description: "Confidence score between 0 and 100.",
			},
			"explanation": {
				Type:        "STRING",
				Description: "A detailed explanation of why this verdict was reached.",
			},
			"rule_citation": {
				Type:        "STRING",
				Description: "Citation of the specific IFAB Law of the Game (e.g., Law 12 - Fouls and Misconduct).",
			},
			"key_factors": {
				Type:        "ARRAY",
				Items:       &responseSchema{Type: "STRING"},
				Description: "Visual key factors observed, ordered by salience.",
			},
		},
		Required: []string{"verdict", "confidence", "explanation", "rule_citation", "key_factors"},
	}
}
