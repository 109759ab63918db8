package infra

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv               string
	Port                 string
	AllowedOrigins       []string
	StripeSecretKey      string
	StripePublishableKey string
	StripeBaseURL        string
	GeminiAPIKey         string
	GeminiModel          string
	GeminiBaseURL        string
	Currency             string
	AnalysisPriceMajor   float64
	FFmpegPath           string
	FFprobePath          string
	HTTPReadTimeout      time.Duration
	HTTPWriteTimeout     time.Duration
	HTTPIdleTimeout      time.Duration
	PaymentPollInterval  time.Duration
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	RateLimitPerMin      int
	InferenceHTTPTimeout time.Duration
	PaymentHTTPTimeout   time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. The secret keys are intentionally not required
// here: a missing key must surface as a visible configuration error on the
// payment/inference path, not crash a deployment that only serves the
// landing flow.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		Port:                 getEnv("PORT", "8080"),
		AllowedOrigins:       splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		StripeBaseURL:        getEnv("STRIPE_BASE_URL", "https://api.stripe.com"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:        getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		Currency:             getEnv("CURRENCY", "brl"),
		AnalysisPriceMajor:   getEnvFloat("ANALYSIS_PRICE", 10.00),
		FFmpegPath:           getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:          getEnv("FFPROBE_PATH", "ffprobe"),
		HTTPReadTimeout:      time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 60)),
		HTTPWriteTimeout:     time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:      time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		PaymentPollInterval:  time.Second * time.Duration(getEnvInt("PAYMENT_POLL_INTERVAL_SECONDS", 3)),
		SessionTTL:           time.Minute * time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)),
		SessionSweepInterval: time.Minute * time.Duration(getEnvInt("SESSION_SWEEP_INTERVAL_MINUTES", 10)),
		RateLimitPerMin:      getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		InferenceHTTPTimeout: time.Second * time.Duration(getEnvInt("INFERENCE_TIMEOUT_SECONDS", 90)),
		PaymentHTTPTimeout:   time.Second * time.Duration(getEnvInt("PAYMENT_TIMEOUT_SECONDS", 15)),
	}

	return cfg, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
