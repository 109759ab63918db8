package domain

// PaymentStatus mirrors the gateway's intent lifecycle.
type PaymentStatus string

const (
	PaymentRequiresMethod PaymentStatus = "requires_payment_method"
	PaymentRequiresAction PaymentStatus = "requires_action"
	PaymentProcessing     PaymentStatus = "processing"
	PaymentSucceeded      PaymentStatus = "succeeded"
	PaymentCanceled       PaymentStatus = "canceled"
)

// Terminal reports whether the status ends the intent lifecycle.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSucceeded || s == PaymentCanceled
}

// NextActionType keys the gateway's polymorphic next_action shape.
type NextActionType string

const (
	NextActionPixQRCode NextActionType = "pix_display_qr_code"
	NextActionRedirect  NextActionType = "redirect_to_url"
)

// PixQRCode holds the fields relevant to a QR-code based transfer.
type PixQRCode struct {
	Data        string `json:"data"`
	ImageURLSVG string `json:"image_url_svg,omitempty"`
	ImageURLPNG string `json:"image_url_png,omitempty"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}

// Redirect holds the fields relevant to a redirect-based method.
type Redirect struct {
	URL       string `json:"url"`
	ReturnURL string `json:"return_url,omitempty"`
}

// NextAction is a tagged variant keyed by Type; only the case matching Type
// is populated.
type NextAction struct {
	Type      NextActionType `json:"type"`
	PixQRCode *PixQRCode     `json:"pix_display_qr_code,omitempty"`
	Redirect  *Redirect      `json:"redirect_to_url,omitempty"`
}

// PaymentRecord represents gateway confirmation for one charge attempt. The
// analysis request may proceed if and only if Status is succeeded. It is
// never persisted beyond the session.
type PaymentRecord struct {
	IntentID     string        `json:"id"`
	ClientSecret string        `json:"client_secret"`
	Status       PaymentStatus `json:"status"`
	NextAction   *NextAction   `json:"next_action,omitempty"`
}

// Paid reports whether the record unlocks the inference request.
func (r PaymentRecord) Paid() bool {
	return r.Status == PaymentSucceeded
}
