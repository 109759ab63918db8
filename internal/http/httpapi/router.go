package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"checklance/internal/http/handlers"
	"checklance/internal/middleware"
)

// NewRouter builds the full HTTP surface: the session flow under /v1 and
// the legacy payment-proxy endpoints under /api.
func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Cfg.AllowedOrigins),
		middleware.RateLimit(app.Cfg.RateLimitPerMin, time.Minute),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/pricing", app.Pricing)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", app.SessionCreate)
		r.Get("/{id}", app.SessionGet)
		r.Post("/{id}/start", app.SessionStart)
		r.Post("/{id}/media", app.SessionMedia)
		r.Put("/{id}/focus", app.SessionFocus)
		r.Post("/{id}/checkout", app.SessionCheckout)
		r.Post("/{id}/confirm", app.SessionConfirm)
		r.Post("/{id}/analyze", app.SessionAnalyze)
		r.Post("/{id}/reset", app.SessionReset)
		r.Post("/{id}/back", app.SessionBack)
	})

	// Method filtering happens inside these two so the wrong verb yields
	// the contract's 405 body instead of chi's default.
	r.HandleFunc("/api/create-payment-intent", app.CreatePaymentIntent)
	r.HandleFunc("/api/check-status", app.CheckStatus)

	return r
}
