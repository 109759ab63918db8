package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"checklance/internal/domain"
	"checklance/internal/infra"
)

// Normalizer is the media collaborator.
type Normalizer interface {
	Normalize(ctx context.Context, asset domain.MediaAsset) (*domain.NormalizedPayload, error)
}

// PaymentGate is the admission collaborator.
type PaymentGate interface {
	Amount() float64
	Begin(ctx context.Context, sessionID string) (*domain.PaymentRecord, error)
	ConfirmCard(ctx context.Context, record *domain.PaymentRecord, paymentMethod string) (*domain.PaymentRecord, error)
	Await(ctx context.Context, sessionID string, record *domain.PaymentRecord) (*domain.PaymentRecord, error)
	Release(sessionID string)
}

// VerdictRequester is the inference collaborator.
type VerdictRequester interface {
	RequestVerdict(ctx context.Context, payload *domain.NormalizedPayload, focus domain.AnalysisFocus) (*domain.AnalysisResult, error)
}

// managed wraps a session with its guard state. One logical actor drives a
// session, but the HTTP server is concurrent, so guards are backed by a
// mutex. Long-running collaborator calls run outside the lock; the in-flight
// flags and the step itself are the double-submission guards.
type managed struct {
	mu       sync.Mutex
	s        *domain.Session
	mediaGen int
	awaiting bool
}

// Manager orchestrates normalizer, gate and inference across the linear
// session flow.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*managed

	normalizer Normalizer
	gate       PaymentGate
	vision     VerdictRequester
	logger     infra.Logger
}

// NewManager wires the collaborators.
func NewManager(n Normalizer, gate PaymentGate, v VerdictRequester, logger *infra.Logger) *Manager {
	l := zerolog.New(io.Discard)
	if logger != nil {
		l = *logger
	}
	return &Manager{
		sessions:   make(map[string]*managed),
		normalizer: n,
		gate:       gate,
		vision:     v,
		logger:     l,
	}
}

// Create opens a new session at LANDING.
func (m *Manager) Create() domain.Session {
	s := domain.NewSession(uuid.NewString())
	m.mu.Lock()
	m.sessions[s.ID] = &managed{s: s}
	m.mu.Unlock()
	return *s
}

func (m *Manager) lookup(id string) (*managed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return ms, nil
}

// Snapshot returns a copy of the session's current state.
func (m *Manager) Snapshot(id string) (domain.Session, error) {
	ms, err := m.lookup(id)
	if err != nil {
		return domain.Session{}, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return *ms.s, nil
}

// Start moves LANDING to UPLOAD.
func (m *Manager) Start(id string) (domain.Session, error) {
	ms, err := m.lookup(id)
	if err != nil {
		return domain.Session{}, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	next, err := Transition(ms.s.Step, EventStart)
	if err != nil {
		return *ms.s, err
	}
	ms.s.Step = next
	return *ms.s, nil
}

// SelectMedia replaces the session's asset wholesale and re-normalizes,
// clearing any prior error. A failed normalization clears the asset so the
// user must re-select. Results are discarded if the asset changed while
// normalization ran.
func (m *Manager) SelectMedia(ctx context.Context, id string, asset domain.MediaAsset) (domain.Session, error) {
	ms, err := m.lookup(id)
	if err != nil {
		return domain.Session{}, err
	}

	ms.mu.Lock()
	next, err := Transition(ms.s.Step, EventSelectMedia)
	if err != nil {
		ms.mu.Unlock()
		return *ms.s, err
	}
	ms.s.Step = next
	ms.s.LastError = ""
	ms.s.Asset = &asset
	ms.s.Payload = nil
	ms.s.Normalizing = true
	ms.mediaGen++
	gen := ms.mediaGen
	ms.mu.Unlock()

	payload, err := m.normalizer.Normalize(ctx, asset)

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if gen != ms.mediaGen {
		// Asset replaced or session reset mid-normalization; discard.
		return *ms.s, nil
	}
	ms.s.Normalizing = false
	if err != nil {
		ms.s.Asset = nil
		ms.s.Payload = nil
		ms.s.LastError = domain.UserMessage(err)
		m.logger.Warn().Err(err).Str("session_id", id).Msg("session: normalization failed")
		return *ms.s, err
	}
	// The raw upload is only needed to produce the payload; dropping it
	// here keeps per-session memory at the payload size rather than up to
	// the 50 MiB upload ceiling. The descriptive fields stay for display.
	ms.s.Asset.Data = nil
	ms.s.Payload = payload
	return *ms.s, nil
}

// SetFocus records the analysis focus; it is chosen before payment and
// immutable afterwards.
func (m *Manager) SetFocus(id string, focus domain.AnalysisFocus) (domain.Session, error) {
	ms, err := m.lookup(id)
	if err != nil {
		return domain.Session{}, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.s.Step != domain.StepUpload {
		return *ms.s, fmt.Errorf("focus change in %s: %w", ms.s.Step, domain.ErrInvalidTransition)
	}
	ms.s.Focus = focus
	return *ms.s, nil
}

// Checkout moves UPLOAD to PAYMENT and creates the payment intent. It is
// guarded: a normalized payload must be present and normalization must not
// be in progress.
func (m *Manager) Checkout(ctx context.Context, id string) (domain.Session, error) {
	ms, err := m.lookup(id)
	if err != nil {
		return domain.Session{}, err
	}

	ms.mu.Lock()
	if ms.s.Payload == nil || ms.s.Normalizing {
		ms.mu.Unlock()
		return m.snapshotOf(ms), fmt.Errorf("no normalized media: %w", domain.ErrInvalidTransition)
	}
	next, err := Transition(ms.s.Step, EventProceed)
	if err != nil {
		ms.mu.Unlock()
		return m.snapshotOf(ms), err
	}
	ms.s.Step = next
	ms.mu.Unlock()

	record, err := m.gate.Begin(ctx, id)

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if err != nil {
		if step, terr := Transition(ms.s.Step, EventPaymentFailed); terr == nil {
			ms.s.Step = step
		}
		ms.s.LastError = domain.UserMessage(err)
		return *ms.s, err
	}
	ms.s.Payment = record
	return *ms.s, nil
}

// ConfirmCard runs the synchronous card confirmation path for the session's
// outstanding intent.
func (m *Manager) ConfirmCard(ctx context.Context, id, paymentMethod string) (domain.Session, error) {
	ms, err := m.lookup(id)
	if err != nil {
		return domain.Session{}, err
	}

	ms.mu.Lock()
	if ms.s.Step != domain.StepPayment || ms.s.Payment == nil {
		ms.mu.Unlock()
		return m.snapshotOf(ms), fmt.Errorf("no outstanding payment: %w", domain.ErrInvalidTransition)
	}
	record := ms.s.Payment
	ms.mu.Unlock()

	updated, err := m.gate.ConfirmCard(ctx, record, paymentMethod)

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if err != nil {
		m.gate.Release(id)
		if step, terr := Transition(ms.s.Step, EventPaymentFailed); terr == nil {
			ms.s.Step = step
		}
		ms.s.Payment = nil
		ms.s.LastError = domain.UserMessage(err)
		return *ms.s, err
	}
	ms.s.Payment = updated
	return *ms.s, nil
}

// Back leaves PAYMENT for UPLOAD on explicit user cancel; the outstanding
// intent marker is released so a later checkout may create a fresh one.
func (m *Manager) Back(id string) (domain.Session, error) {
	ms, err := m.lookup(id)
	if err != nil {
		return domain.Session{}, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	next, err := Transition(ms.s.Step, EventBack)
	if err != nil {
		return *ms.s, err
	}
	m.gate.Release(id)
	ms.s.Step = next
	ms.s.Payment = nil
	return *ms.s, nil
}

// Analyze waits for the payment to resolve, then issues the inference
// request. The inference builder is never invoked unless the gateway
// reports succeeded. A second Analyze while one is in flight is rejected.
func (m *Manager) Analyze(ctx context.Context, id string) (domain.Session, error) {
	ms, err := m.lookup(id)
	if err != nil {
		return domain.Session{}, err
	}

	ms.mu.Lock()
	if ms.s.Step != domain.StepPayment || ms.s.Payment == nil {
		ms.mu.Unlock()
		return m.snapshotOf(ms), fmt.Errorf("no payment to settle: %w", domain.ErrInvalidTransition)
	}
	if ms.awaiting {
		ms.mu.Unlock()
		return m.snapshotOf(ms), fmt.Errorf("analysis already in flight: %w", domain.ErrInvalidTransition)
	}
	ms.awaiting = true
	gen := ms.mediaGen
	record := ms.s.Payment
	payload := ms.s.Payload
	focus := ms.s.Focus
	ms.mu.Unlock()

	settled, err := m.gate.Await(ctx, id, record)
	if err != nil {
		ms.mu.Lock()
		defer ms.mu.Unlock()
		if gen != ms.mediaGen {
			// Session reset while the payment settled; discard.
			return *ms.s, err
		}
		ms.awaiting = false
		if step, terr := Transition(ms.s.Step, EventPaymentFailed); terr == nil {
			ms.s.Step = step
		}
		ms.s.Payment = nil
		ms.s.LastError = domain.UserMessage(err)
		m.logger.Warn().Err(err).Str("session_id", id).Msg("session: payment not settled")
		return *ms.s, err
	}

	ms.mu.Lock()
	if gen != ms.mediaGen {
		snapshot := *ms.s
		ms.mu.Unlock()
		return snapshot, nil
	}
	ms.s.Payment = settled
	next, terr := Transition(ms.s.Step, EventPaymentSucceeded)
	if terr != nil {
		ms.awaiting = false
		ms.mu.Unlock()
		return m.snapshotOf(ms), terr
	}
	ms.s.Step = next
	ms.mu.Unlock()

	result, err := m.vision.RequestVerdict(ctx, payload, focus)

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if gen != ms.mediaGen {
		// Session reset while the verdict was produced; discard the outcome
		// rather than resurrecting state the user abandoned.
		return *ms.s, err
	}
	ms.awaiting = false
	if err != nil {
		if step, terr := Transition(ms.s.Step, EventAnalysisFailed); terr == nil {
			ms.s.Step = step
		}
		ms.s.LastError = domain.UserMessage(err)
		if domain.IsConfigError(err) {
			m.logger.Error().Err(err).Str("session_id", id).Msg("session: inference misconfigured")
		} else {
			m.logger.Warn().Err(err).Str("session_id", id).Msg("session: inference failed")
		}
		return *ms.s, err
	}
	step, terr := Transition(ms.s.Step, EventAnalysisSucceeded)
	if terr != nil {
		return *ms.s, terr
	}
	ms.s.Step = step
	ms.s.Result = result
	ms.s.LastError = ""
	return *ms.s, nil
}

// Reset returns the session to defaults from any step. Calling it twice is
// equivalent to calling it once.
func (m *Manager) Reset(id string) (domain.Session, error) {
	ms, err := m.lookup(id)
	if err != nil {
		return domain.Session{}, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	m.gate.Release(id)
	ms.s.Reset()
	ms.mediaGen++
	ms.awaiting = false
	return *ms.s, nil
}

// Sweep evicts sessions created more than maxAge ago and reports how many
// were removed. Sessions with an analysis or normalization still in flight
// are spared until the next pass.
func (m *Manager) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, ms := range m.sessions {
		ms.mu.Lock()
		expired := ms.s.CreatedAt.Before(cutoff) && !ms.awaiting && !ms.s.Normalizing
		ms.mu.Unlock()
		if expired {
			m.gate.Release(id)
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper periodically evicts abandoned sessions until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(maxAge); n > 0 {
				m.logger.Debug().Int("evicted", n).Msg("session: swept abandoned sessions")
			}
		}
	}
}

func (m *Manager) snapshotOf(ms *managed) domain.Session {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return *ms.s
}
