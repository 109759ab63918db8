package session

import (
	"fmt"

	"checklance/internal/domain"
)

// Event drives the session state machine.
type Event string

const (
	EventStart             Event = "start"
	EventSelectMedia       Event = "select_media"
	EventProceed           Event = "proceed"
	EventPaymentSucceeded  Event = "payment_succeeded"
	EventPaymentFailed     Event = "payment_failed"
	EventAnalysisSucceeded Event = "analysis_succeeded"
	EventAnalysisFailed    Event = "analysis_failed"
	EventBack              Event = "back"
	EventReset             Event = "reset"
)

// Transition is the pure step function of the session flow. It carries no
// side effects; the Manager invokes handlers at transition boundaries.
func Transition(step domain.Step, event Event) (domain.Step, error) {
	// Reset is the escape hatch from every step.
	if event == EventReset {
		return domain.StepLanding, nil
	}

	switch step {
	case domain.StepLanding:
		if event == EventStart {
			return domain.StepUpload, nil
		}
	case domain.StepUpload:
		switch event {
		case EventSelectMedia:
			// Re-selection stays on UPLOAD and re-normalizes.
			return domain.StepUpload, nil
		case EventProceed:
			return domain.StepPayment, nil
		}
	case domain.StepPayment:
		switch event {
		case EventBack, EventPaymentFailed:
			return domain.StepUpload, nil
		case EventPaymentSucceeded:
			return domain.StepAnalyzing, nil
		}
	case domain.StepAnalyzing:
		switch event {
		case EventAnalysisSucceeded:
			return domain.StepResult, nil
		case EventAnalysisFailed:
			return domain.StepUpload, nil
		}
	case domain.StepResult:
		// Terminal; only reset leaves it.
	}

	return step, fmt.Errorf("%s in %s: %w", event, step, domain.ErrInvalidTransition)
}
