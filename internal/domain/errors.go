package domain

import "errors"

var (
	// Normalizer failures.
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrOversizedAsset    = errors.New("oversized asset")
	ErrMediaLoad         = errors.New("media load failed")

	// Payment gate failures.
	ErrPaymentConfig   = errors.New("payment gateway not configured")
	ErrPaymentDeclined = errors.New("payment declined")
	ErrPaymentPending  = errors.New("payment already in progress")

	// Inference failures.
	ErrInferenceConfig    = errors.New("inference service not configured")
	ErrInferenceEmpty     = errors.New("empty inference response")
	ErrInferenceMalformed = errors.New("malformed inference response")

	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidTransition = errors.New("invalid transition")
)

// UserMessage maps a pipeline error to the short message shown to the user.
// Configuration errors get a distinct message because no user action can fix
// them; the operator has to.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrOversizedAsset):
		return "File must be smaller than 50MB."
	case errors.Is(err, ErrUnsupportedFormat):
		return "Unsupported format. Use JPG, PNG or MP4."
	case errors.Is(err, ErrMediaLoad):
		return "Could not process the media. Try a different file."
	case errors.Is(err, ErrPaymentConfig):
		return "Payment is temporarily unavailable. Contact support."
	case errors.Is(err, ErrInferenceConfig):
		return "Analysis is temporarily unavailable. Contact support."
	case errors.Is(err, ErrPaymentDeclined):
		return "Payment was not completed. No charge was applied."
	case errors.Is(err, ErrPaymentPending):
		return "A payment is already in progress for this session."
	case errors.Is(err, ErrInferenceEmpty), errors.Is(err, ErrInferenceMalformed):
		return "Analysis failed. Check the file and try again."
	case errors.Is(err, ErrSessionNotFound):
		return "Session expired. Start a new analysis."
	case errors.Is(err, ErrInvalidTransition):
		return "That action is not available right now."
	default:
		return "Something went wrong. Try again."
	}
}

// IsConfigError reports whether err is operator-fixable rather than
// user-caused.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrPaymentConfig) || errors.Is(err, ErrInferenceConfig)
}
