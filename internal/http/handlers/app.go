package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"checklance/internal/domain"
	"checklance/internal/infra"
	"checklance/internal/payment"
	"checklance/internal/session"
)

// App bundles the handler dependencies.
type App struct {
	Cfg      *infra.Config
	Logger   infra.Logger
	Sessions *session.Manager
	Gate     *payment.Gate
	Stripe   *payment.StripeClient
}

func NewApp(cfg *infra.Config, logger infra.Logger, sessions *session.Manager, gate *payment.Gate, stripe *payment.StripeClient) *App {
	return &App{Cfg: cfg, Logger: logger, Sessions: sessions, Gate: gate, Stripe: stripe}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}

// statusFor maps domain failures onto HTTP statuses for the session API.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrOversizedAsset),
		errors.Is(err, domain.ErrMediaLoad):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPaymentDeclined),
		errors.Is(err, domain.ErrPaymentPending):
		return http.StatusPaymentRequired
	case domain.IsConfigError(err):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrInferenceEmpty),
		errors.Is(err, domain.ErrInferenceMalformed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
