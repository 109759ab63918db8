package domain

import "fmt"

// Verdict is the model's final categorical ruling on the play.
type Verdict string

const (
	VerdictValid        Verdict = "VALID"
	VerdictFoul         Verdict = "FOUL"
	VerdictOffside      Verdict = "OFFSIDE"
	VerdictReviewNeeded Verdict = "REVIEW_NEEDED"
	VerdictPenalty      Verdict = "PENALTY"
	VerdictRedCard      Verdict = "RED_CARD"
	VerdictYellowCard   Verdict = "YELLOW_CARD"
	VerdictNoInfraction Verdict = "NO_INFRACTION"
)

// Verdicts is the closed set of rulings the model may emit.
var Verdicts = []Verdict{
	VerdictValid,
	VerdictFoul,
	VerdictOffside,
	VerdictReviewNeeded,
	VerdictPenalty,
	VerdictRedCard,
	VerdictYellowCard,
	VerdictNoInfraction,
}

func (v Verdict) valid() bool {
	for _, known := range Verdicts {
		if v == known {
			return true
		}
	}
	return false
}

// AnalysisResult is the terminal domain object of one analysis. KeyFactors
// are ordered by salience as emitted by the model.
type AnalysisResult struct {
	Verdict      Verdict  `json:"verdict"`
	Confidence   float64  `json:"confidence"`
	Explanation  string   `json:"explanation"`
	RuleCitation string   `json:"rule_citation"`
	KeyFactors   []string `json:"key_factors"`
}

// Validate rejects any result that may not be shown to the user: all five
// fields must be present and the verdict must be in the closed set. A wrong
// but confidently displayed verdict is worse than a visible error, so a
// failing result is never coerced into a default.
func (r AnalysisResult) Validate() error {
	if !r.Verdict.valid() {
		return fmt.Errorf("verdict %q outside allowed set: %w", r.Verdict, ErrInferenceMalformed)
	}
	if r.Confidence < 0 || r.Confidence > 100 {
		return fmt.Errorf("confidence %v out of range: %w", r.Confidence, ErrInferenceMalformed)
	}
	if r.Explanation == "" {
		return fmt.Errorf("missing explanation: %w", ErrInferenceMalformed)
	}
	if r.RuleCitation == "" {
		return fmt.Errorf("missing rule_citation: %w", ErrInferenceMalformed)
	}
	if r.KeyFactors == nil {
		return fmt.Errorf("missing key_factors: %w", ErrInferenceMalformed)
	}
	return nil
}
