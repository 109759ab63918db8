package session

import (
	"errors"
	"testing"

	"checklance/internal/domain"
)

func TestTransitionLinearFlow(t *testing.T) {
	steps := []struct {
		from  domain.Step
		event Event
		to    domain.Step
	}{
		{domain.StepLanding, EventStart, domain.StepUpload},
		{domain.StepUpload, EventSelectMedia, domain.StepUpload},
		{domain.StepUpload, EventProceed, domain.StepPayment},
		{domain.StepPayment, EventPaymentSucceeded, domain.StepAnalyzing},
		{domain.StepAnalyzing, EventAnalysisSucceeded, domain.StepResult},
	}
	for _, tc := range steps {
		got, err := Transition(tc.from, tc.event)
		if err != nil {
			t.Fatalf("%s(%s) returned error: %v", tc.event, tc.from, err)
		}
		if got != tc.to {
			t.Fatalf("%s(%s) = %s, want %s", tc.event, tc.from, got, tc.to)
		}
	}
}

func TestTransitionFailureRouting(t *testing.T) {
	if got, _ := Transition(domain.StepPayment, EventPaymentFailed); got != domain.StepUpload {
		t.Fatalf("payment failure routes to %s, want UPLOAD", got)
	}
	if got, _ := Transition(domain.StepPayment, EventBack); got != domain.StepUpload {
		t.Fatalf("back routes to %s, want UPLOAD", got)
	}
	if got, _ := Transition(domain.StepAnalyzing, EventAnalysisFailed); got != domain.StepUpload {
		t.Fatalf("analysis failure routes to %s, want UPLOAD", got)
	}
}

func TestTransitionResetFromEveryStep(t *testing.T) {
	for _, step := range []domain.Step{
		domain.StepLanding, domain.StepUpload, domain.StepPayment, domain.StepAnalyzing, domain.StepResult,
	} {
		got, err := Transition(step, EventReset)
		if err != nil {
			t.Fatalf("reset from %s returned error: %v", step, err)
		}
		if got != domain.StepLanding {
			t.Fatalf("reset from %s = %s, want LANDING", step, got)
		}
	}
}

func TestTransitionRejectsSkips(t *testing.T) {
	invalid := []struct {
		from  domain.Step
		event Event
	}{
		{domain.StepLanding, EventProceed},
		{domain.StepUpload, EventPaymentSucceeded},
		{domain.StepPayment, EventProceed},
		{domain.StepAnalyzing, EventPaymentSucceeded},
		{domain.StepResult, EventStart},
	}
	for _, tc := range invalid {
		if _, err := Transition(tc.from, tc.event); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("%s(%s): err = %v, want ErrInvalidTransition", tc.event, tc.from, err)
		}
	}
}
