package domain

// AnalysisFocus selects which rule category the inference should concentrate
// on. Chosen by the user before payment; immutable for one analysis request.
type AnalysisFocus string

const (
	FocusGeneral   AnalysisFocus = "GENERAL"
	FocusOffside   AnalysisFocus = "OFFSIDE"
	FocusPenalty   AnalysisFocus = "PENALTY"
	FocusHandball  AnalysisFocus = "HANDBALL"
	FocusRedCard   AnalysisFocus = "RED_CARD"
	FocusGoalCheck AnalysisFocus = "GOAL_CHECK"
)

// DefaultFocus applies when the user never picks one and after reset.
const DefaultFocus = FocusGeneral

// ParseFocus validates a user-supplied focus value.
func ParseFocus(s string) (AnalysisFocus, bool) {
	switch AnalysisFocus(s) {
	case FocusGeneral, FocusOffside, FocusPenalty, FocusHandball, FocusRedCard, FocusGoalCheck:
		return AnalysisFocus(s), true
	default:
		return "", false
	}
}
