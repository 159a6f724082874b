package api

// Client-facing messages of the upload endpoint.
const (
	MessageBlocked        = "Too many validation errors. Please try again later."
	MessageRateLimited    = "Too many requests. Please try again later."
	MessageMissingPayload = "Please provide either a file or hex string"
	MessageInternalError  = "Internal Server Error"
)

// Rate limit headers set on every non-blocked upload response.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// ErrorResponse is the body of every rejected request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse is returned when a submission fails validation.
// RemainingAttempts counts the validation failures left before the client is blocked.
type ValidationErrorResponse struct {
	Error             string `json:"error"`
	RemainingAttempts int    `json:"remainingAttempts"`
}
