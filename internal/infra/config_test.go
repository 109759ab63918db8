package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("PORT", "")
	t.Setenv("ANALYSIS_PRICE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Currency != "brl" {
		t.Fatalf("Currency = %q, want brl", cfg.Currency)
	}
	if cfg.AnalysisPriceMajor != 10.00 {
		t.Fatalf("AnalysisPriceMajor = %v, want 10.00", cfg.AnalysisPriceMajor)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Fatalf("GeminiModel = %q", cfg.GeminiModel)
	}
	if cfg.PaymentPollInterval != 3*time.Second {
		t.Fatalf("PaymentPollInterval = %v, want 3s", cfg.PaymentPollInterval)
	}
	// Missing secrets load fine; the payment and inference paths surface
	// them as configuration errors instead.
	if cfg.StripeSecretKey != "" || cfg.GeminiAPIKey != "" {
		t.Fatalf("secrets should default empty")
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	t.Setenv("PORT", "1919")
	t.Setenv("ANALYSIS_PRICE", "25.50")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("PAYMENT_POLL_INTERVAL_SECONDS", "1")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "1919" {
		t.Fatalf("Port = %q, want 1919", cfg.Port)
	}
	if cfg.AnalysisPriceMajor != 25.50 {
		t.Fatalf("AnalysisPriceMajor = %v, want 25.50", cfg.AnalysisPriceMajor)
	}
	if cfg.Currency != "usd" {
		t.Fatalf("Currency = %q, want usd", cfg.Currency)
	}
	if cfg.PaymentPollInterval != time.Second {
		t.Fatalf("PaymentPollInterval = %v, want 1s", cfg.PaymentPollInterval)
	}
	if cfg.RateLimitPerMin != 5 {
		t.Fatalf("RateLimitPerMin = %d, want 5", cfg.RateLimitPerMin)
	}
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT_SECONDS", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.HTTPReadTimeout != 60*time.Second {
		t.Fatalf("HTTPReadTimeout = %v, want 60s fallback", cfg.HTTPReadTimeout)
	}
}
