package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"checklance/internal/domain"
	"checklance/internal/infra"
)

const defaultStripeBaseURL = "https://api.stripe.com"

// MockIntentPrefix marks test intents that short-circuit to succeeded
// without contacting the real gateway. A documented test hook, not a
// security boundary.
const MockIntentPrefix = "mock_"

// StripeOptions configures the gateway client.
type StripeOptions struct {
	SecretKey  string
	BaseURL    string
	Currency   string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// StripeClient talks to the Stripe PaymentIntents API. The secret key stays
// server-side; a missing key degrades to a visible configuration error on
// the first call, never to silent mock success.
type StripeClient struct {
	rc        *resty.Client
	secretKey string
	currency  string
	logger    infra.Logger
}

// NewStripeClient constructs the gateway client.
func NewStripeClient(opts StripeOptions) *StripeClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultStripeBaseURL
	}
	currency := strings.ToLower(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = "brl"
	}
	rc := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient).
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json")
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &StripeClient{rc: rc, secretKey: opts.SecretKey, currency: currency, logger: logger}
}

type stripeIntent struct {
	ID           string          `json:"id"`
	ClientSecret string          `json:"client_secret"`
	Status       string          `json:"status"`
	NextAction   json.RawMessage `json:"next_action"`
}

type stripeErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *StripeClient) req(ctx context.Context, result any, apiErr *stripeErrorBody) *resty.Request {
	return c.rc.NewRequest().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.secretKey).
		SetResult(result).
		SetError(apiErr)
}

// CreateIntent creates a PaymentIntent for the advertised fee. The amount is
// converted to minor currency units before transmission.
func (c *StripeClient) CreateIntent(ctx context.Context, amountMajor float64) (*domain.PaymentRecord, error) {
	if c.secretKey == "" {
		return nil, fmt.Errorf("missing STRIPE_SECRET_KEY: %w", domain.ErrPaymentConfig)
	}

	minor := int64(math.Round(amountMajor * 100))
	var out stripeIntent
	var apiErr stripeErrorBody
	resp, err := c.req(ctx, &out, &apiErr).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"amount":                 strconv.FormatInt(minor, 10),
			"currency":               c.currency,
			"payment_method_types[]": "pix",
			"metadata[service]":      "CheckLance Analysis",
		}).
		Post("/v1/payment_intents")
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	if resp.IsError() {
		return nil, c.apiError(resp.StatusCode(), apiErr)
	}

	record := &domain.PaymentRecord{
		IntentID:     out.ID,
		ClientSecret: out.ClientSecret,
		Status:       domain.PaymentStatus(out.Status),
		NextAction:   parseNextAction(out.NextAction),
	}
	c.logger.Debug().
		Str("intent_id", record.IntentID).
		Str("status", string(record.Status)).
		Msg("payment: intent created")
	return record, nil
}

// IntentStatus retrieves the current status of an intent. Mock intents
// short-circuit to succeeded.
func (c *StripeClient) IntentStatus(ctx context.Context, id string) (domain.PaymentStatus, error) {
	if strings.HasPrefix(id, MockIntentPrefix) {
		return domain.PaymentSucceeded, nil
	}
	if c.secretKey == "" {
		return "", fmt.Errorf("missing STRIPE_SECRET_KEY: %w", domain.ErrPaymentConfig)
	}

	var out stripeIntent
	var apiErr stripeErrorBody
	resp, err := c.req(ctx, &out, &apiErr).
		SetPathParams(map[string]string{"id": id}).
		Get("/v1/payment_intents/{id}")
	if err != nil {
		return "", fmt.Errorf("check payment status: %w", err)
	}
	if resp.IsError() {
		return "", c.apiError(resp.StatusCode(), apiErr)
	}
	return domain.PaymentStatus(out.Status), nil
}

// ConfirmCard runs the synchronous confirmation path for card payments.
func (c *StripeClient) ConfirmCard(ctx context.Context, intentID, paymentMethod string) (domain.PaymentStatus, error) {
	if strings.HasPrefix(intentID, MockIntentPrefix) {
		return domain.PaymentSucceeded, nil
	}
	if c.secretKey == "" {
		return "", fmt.Errorf("missing STRIPE_SECRET_KEY: %w", domain.ErrPaymentConfig)
	}

	var out stripeIntent
	var apiErr stripeErrorBody
	resp, err := c.req(ctx, &out, &apiErr).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetPathParams(map[string]string{"id": intentID}).
		SetFormData(map[string]string{"payment_method": paymentMethod}).
		Post("/v1/payment_intents/{id}/confirm")
	if err != nil {
		return "", fmt.Errorf("confirm card payment: %w", err)
	}
	if resp.IsError() {
		return "", c.apiError(resp.StatusCode(), apiErr)
	}
	return domain.PaymentStatus(out.Status), nil
}

// apiError maps gateway errors onto the domain taxonomy: auth problems are
// operator configuration errors, declines and validation errors are
// PaymentDeclined.
func (c *StripeClient) apiError(status int, body stripeErrorBody) error {
	msg := body.Error.Message
	if msg == "" {
		msg = fmt.Sprintf("gateway status %d", status)
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s: %w", msg, domain.ErrPaymentConfig)
	case status == http.StatusPaymentRequired,
		body.Error.Type == "card_error",
		body.Error.Type == "invalid_request_error":
		return fmt.Errorf("%s: %w", msg, domain.ErrPaymentDeclined)
	default:
		return fmt.Errorf("payment gateway: %s (status %d)", msg, status)
	}
}

// parseNextAction normalizes the gateway's polymorphic next_action shape
// into a variant keyed by type; only the matching case is kept.
func parseNextAction(raw json.RawMessage) *domain.NextAction {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var probe struct {
		Type      string            `json:"type"`
		PixQRCode *domain.PixQRCode `json:"pix_display_qr_code"`
		Redirect  *domain.Redirect  `json:"redirect_to_url"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil
	}
	action := &domain.NextAction{Type: domain.NextActionType(probe.Type)}
	switch action.Type {
	case domain.NextActionPixQRCode:
		action.PixQRCode = probe.PixQRCode
	case domain.NextActionRedirect:
		action.Redirect = probe.Redirect
	default:
		// Unknown method; keep only the tag so callers can surface it.
	}
	return action
}
