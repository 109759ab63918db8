package vision

import (
	"encoding/json"
	"fmt"

	"checklance/internal/domain"
)

// ParseResult parses the model's structured response into the domain result.
// Every failure surfaces as ErrInferenceMalformed; a partial result is never
// returned.
func ParseResult(text string) (*domain.AnalysisResult, error) {
	// Decode into pointers first so absent fields are distinguishable from
	// zero values.
	var raw struct {
		Verdict      *string   `json:"verdict"`
		Confidence   *float64  `json:"confidence"`
		Explanation  *string   `json:"explanation"`
		RuleCitation *string   `json:"rule_citation"`
		KeyFactors   *[]string `json:"key_factors"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse verdict json: %v: %w", err, domain.ErrInferenceMalformed)
	}
	if raw.Verdict == nil || raw.Confidence == nil || raw.Explanation == nil ||
		raw.RuleCitation == nil || raw.KeyFactors == nil {
		return nil, fmt.Errorf("verdict response missing required fields: %w", domain.ErrInferenceMalformed)
	}

	result := &domain.AnalysisResult{
		Verdict:      domain.Verdict(*raw.Verdict),
		Confidence:   *raw.Confidence,
		Explanation:  *raw.Explanation,
		RuleCitation: *raw.RuleCitation,
		KeyFactors:   *raw.KeyFactors,
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}
