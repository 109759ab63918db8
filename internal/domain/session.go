package domain

import "time"

// Step enumerates the linear analysis flow.
type Step string

const (
	StepLanding   Step = "LANDING"
	StepUpload    Step = "UPLOAD"
	StepPayment   Step = "PAYMENT"
	StepAnalyzing Step = "ANALYZING"
	StepResult    Step = "RESULT"
)

// Session is the envelope for one user interaction. Exactly one live session
// per interaction; fully reinitialized on reset.
type Session struct {
	ID          string
	Step        Step
	Asset       *MediaAsset
	Payload     *NormalizedPayload
	Focus       AnalysisFocus
	Payment     *PaymentRecord
	Result      *AnalysisResult
	LastError   string
	Normalizing bool
	CreatedAt   time.Time
}

// NewSession returns a session at its defaults.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Step:      StepLanding,
		Focus:     DefaultFocus,
		CreatedAt: time.Now(),
	}
}

// Reset clears every field back to defaults. Calling it twice is equivalent
// to calling it once.
func (s *Session) Reset() {
	s.Step = StepLanding
	s.Asset = nil
	s.Payload = nil
	s.Focus = DefaultFocus
	s.Payment = nil
	s.Result = nil
	s.LastError = ""
	s.Normalizing = false
}
