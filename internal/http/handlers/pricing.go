package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Pricing advertises the fixed per-analysis fee so the frontend never
// hardcodes the amount it charges for.
func (a *App) Pricing(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(a.Cfg.Currency)
	unit, err := currency.ParseISO(code)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "pricing unavailable")
		return
	}
	printer := message.NewPrinter(language.BrazilianPortuguese)
	a.json(w, http.StatusOK, map[string]any{
		"amount":   a.Gate.Amount(),
		"currency": code,
		"display":  printer.Sprintf("%v", currency.Symbol(unit.Amount(a.Gate.Amount()))),
	})
}
