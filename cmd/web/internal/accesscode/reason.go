package accesscode

import "errors"

// Reason is a stable, machine-readable validation failure code.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonMalformed    Reason = "malformed"
	ReasonNoActiveCode Reason = "no_active_code"
	ReasonExpired      Reason = "expired"
	ReasonMismatch     Reason = "mismatch"
	ReasonUnknown      Reason = "unknown"
)

// ReasonOf maps a Validate error to its Reason.
func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrMalformedCode):
		return ReasonMalformed
	case errors.Is(err, ErrNoActiveCode):
		return ReasonNoActiveCode
	case errors.Is(err, ErrExpired):
		return ReasonExpired
	case errors.Is(err, ErrMismatch):
		return ReasonMismatch
	default:
		return ReasonUnknown
	}
}

// Message returns the text shown to a viewer for r.
func (r Reason) Message() string {
	switch r {
	case ReasonNone:
		return "Access code verified."
	case ReasonMalformed:
		return "Enter the six-digit access code."
	case ReasonNoActiveCode:
		return "There is no active access code. Ask the presenter to generate one."
	case ReasonExpired:
		return "The access code has expired. Ask the presenter for a new one."
	case ReasonMismatch:
		return "The access code is incorrect."
	default:
		return "Could not verify the access code."
	}
}

// IsClientError reports whether r is caused by structurally invalid input
// rather than by the state of the credential.
func (r Reason) IsClientError() bool {
	return r == ReasonMalformed
}
