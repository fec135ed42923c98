package types

// SuccessEnvelope wraps every 2xx body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every error body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Status is the body of probes and idempotent writes that only report an outcome.
type Status struct {
	Status string `json:"status"`
}

const (
	StatusLive      = "live"
	StatusReady     = "ready"
	StatusCreated   = "created"
	StatusUnchanged = "unchanged"
)
