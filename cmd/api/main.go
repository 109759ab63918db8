package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"checklance/internal/http/handlers"
	"checklance/internal/http/httpapi"
	"checklance/internal/infra"
	"checklance/internal/media"
	"checklance/internal/payment"
	"checklance/internal/session"
	"checklance/internal/vision"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	stripe := payment.NewStripeClient(payment.StripeOptions{
		SecretKey:  cfg.StripeSecretKey,
		BaseURL:    cfg.StripeBaseURL,
		Currency:   cfg.Currency,
		HTTPClient: &http.Client{Timeout: cfg.PaymentHTTPTimeout},
		Logger:     &logger,
	})
	gate := payment.NewGate(stripe, cfg.AnalysisPriceMajor, cfg.PaymentPollInterval, &logger)

	normalizer := media.NewNormalizer(media.Options{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		Logger:      &logger,
	})

	referee := vision.NewClient(vision.Options{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiModel,
		BaseURL:    cfg.GeminiBaseURL,
		HTTPClient: &http.Client{Timeout: cfg.InferenceHTTPTimeout},
		Logger:     &logger,
	})

	sessions := session.NewManager(normalizer, gate, referee, &logger)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sessions.RunSweeper(sweepCtx, cfg.SessionSweepInterval, cfg.SessionTTL)

	app := handlers.NewApp(cfg, logger, sessions, gate, stripe)
	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
