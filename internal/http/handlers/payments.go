package handlers

import (
	"encoding/json"
	"net/http"

	"checklance/internal/domain"
)

// The /api handlers keep the contract of the original serverless payment
// glue: POST create-payment-intent and GET check-status, with a flat
// {"error": "..."} body on every failure.

type createIntentRequest struct {
	Amount float64 `json:"amount"`
}

func (a *App) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 {
		a.error(w, http.StatusBadRequest, "amount is required")
		return
	}

	record, err := a.Stripe.CreateIntent(r.Context(), req.Amount)
	if err != nil {
		a.Logger.Error().Err(err).Msg("payments: create intent failed")
		a.error(w, http.StatusInternalServerError, domain.UserMessage(err))
		return
	}
	a.json(w, http.StatusOK, record)
}

func (a *App) CheckStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "id is required")
		return
	}

	status, err := a.Stripe.IntentStatus(r.Context(), id)
	if err != nil {
		a.Logger.Error().Err(err).Msg("payments: status check failed")
		a.error(w, http.StatusInternalServerError, domain.UserMessage(err))
		return
	}
	a.json(w, http.StatusOK, map[string]domain.PaymentStatus{"status": status})
}
