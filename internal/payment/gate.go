package payment

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"checklance/internal/domain"
	"checklance/internal/infra"
)

// Gateway is the payment collaborator consumed by the gate.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMajor float64) (*domain.PaymentRecord, error)
	IntentStatus(ctx context.Context, id string) (domain.PaymentStatus, error)
	ConfirmCard(ctx context.Context, intentID, paymentMethod string) (domain.PaymentStatus, error)
}

// Gate is the strict admission precondition in front of the inference
// builder: no analysis request may be issued until the gateway reports
// succeeded for the one advertised fee. It is idempotent per session; a
// second invocation while one is outstanding is rejected rather than
// creating a duplicate intent.
type Gate struct {
	gw           Gateway
	amountMajor  float64
	pollInterval time.Duration
	logger       infra.Logger

	mu          sync.Mutex
	outstanding map[string]bool
}

// NewGate wires the gate to its collaborator with the fixed session amount.
func NewGate(gw Gateway, amountMajor float64, pollInterval time.Duration, logger *infra.Logger) *Gate {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	l := zerolog.New(io.Discard)
	if logger != nil {
		l = *logger
	}
	return &Gate{
		gw:           gw,
		amountMajor:  amountMajor,
		pollInterval: pollInterval,
		logger:       l,
		outstanding:  make(map[string]bool),
	}
}

// Amount returns the single advertised fee the gate enforces.
func (g *Gate) Amount() float64 {
	return g.amountMajor
}

// Begin creates a payment intent for the session. While an intent is
// outstanding, another Begin for the same session fails with
// ErrPaymentPending so amounts can never double-charge.
func (g *Gate) Begin(ctx context.Context, sessionID string) (*domain.PaymentRecord, error) {
	g.mu.Lock()
	if g.outstanding[sessionID] {
		g.mu.Unlock()
		return nil, domain.ErrPaymentPending
	}
	g.outstanding[sessionID] = true
	g.mu.Unlock()

	record, err := g.gw.CreateIntent(ctx, g.amountMajor)
	if err != nil {
		g.release(sessionID)
		return nil, err
	}
	return record, nil
}

// ConfirmCard runs the synchronous card confirmation path and returns the
// updated record.
func (g *Gate) ConfirmCard(ctx context.Context, record *domain.PaymentRecord, paymentMethod string) (*domain.PaymentRecord, error) {
	status, err := g.gw.ConfirmCard(ctx, record.IntentID, paymentMethod)
	if err != nil {
		return nil, err
	}
	updated := *record
	updated.Status = status
	if status == domain.PaymentCanceled {
		return &updated, fmt.Errorf("intent %s canceled: %w", record.IntentID, domain.ErrPaymentDeclined)
	}
	return &updated, nil
}

// Await polls the gateway until the intent resolves. It terminates on the
// first succeeded observation; a terminal canceled status stops polling and
// surfaces PaymentDeclined instead of polling forever. Context cancellation
// is the remaining exit.
func (g *Gate) Await(ctx context.Context, sessionID string, record *domain.PaymentRecord) (*domain.PaymentRecord, error) {
	defer g.release(sessionID)

	check := func() (*domain.PaymentRecord, bool, error) {
		status, err := g.gw.IntentStatus(ctx, record.IntentID)
		if err != nil {
			return nil, true, err
		}
		updated := *record
		updated.Status = status
		switch status {
		case domain.PaymentSucceeded:
			return &updated, true, nil
		case domain.PaymentCanceled:
			return nil, true, fmt.Errorf("intent %s canceled: %w", record.IntentID, domain.ErrPaymentDeclined)
		default:
			return nil, false, nil
		}
	}

	// Check once up front so already-resolved intents (card confirmation,
	// mock intents) do not wait a full poll interval.
	if updated, done, err := check(); done {
		return updated, err
	}

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			if updated, done, err := check(); done {
				return updated, err
			}
		}
	}
}

// Release clears the outstanding marker for a session, e.g. when the user
// backs out of the payment step or the session resets.
func (g *Gate) Release(sessionID string) {
	g.release(sessionID)
}

func (g *Gate) release(sessionID string) {
	g.mu.Lock()
	delete(g.outstanding, sessionID)
	g.mu.Unlock()
}
