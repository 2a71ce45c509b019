package gateway

import (
	"errors"
	"fmt"
	"time"

	"github.com/mockgate/mockgate/internal/limits"
)

var (
	// ErrCredentialNotFound means the presented token matched nothing.
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrCredentialUnusable means the credential exists but is suspended,
	// marked expired, or past its expiry timestamp.
	ErrCredentialUnusable = errors.New("credential is not usable")
	// ErrCapabilityDenied means the credential lacks the capability flag
	// for the requested operation.
	ErrCapabilityDenied = errors.New("operation not permitted for credential")
)

// QuotaExceededError reports a rejected admission. RetryAfter is zero
// when the counter backend was unavailable: the request is denied with
// no retry hint (fail closed).
type QuotaExceededError struct {
	Granularity limits.Granularity
	RetryAfter  time.Duration
	Unavailable bool
}

func (e *QuotaExceededError) Error() string {
	if e.Unavailable {
		return "quota check unavailable, request denied"
	}
	return fmt.Sprintf("%s rate limit exceeded, retry after %s", e.Granularity, e.RetryAfter)
}

// DownstreamError wraps a failure from the wrapped handler, including
// recovered panics. It never escapes the gateway unrecorded.
type DownstreamError struct {
	Err error
}

func (e *DownstreamError) Error() string {
	return "downstream handler failed: " + e.Err.Error()
}

func (e *DownstreamError) Unwrap() error { return e.Err }

// Reason codes are stable, machine-parseable identifiers clients use to
// decide between "never retry" and "retry later".
const (
	ReasonInvalidCredential  = "invalid_api_key"
	ReasonCredentialDisabled = "api_key_disabled"
	ReasonCapabilityDenied   = "operation_not_permitted"
	ReasonRateLimited        = "rate_limit_exceeded"
	ReasonLimiterUnavailable = "limiter_unavailable"
	ReasonDownstreamError    = "internal_error"
)

// ReasonCode maps a gateway error to its wire-level reason code.
func ReasonCode(err error) string {
	var quota *QuotaExceededError
	switch {
	case errors.Is(err, ErrCredentialNotFound):
		return ReasonInvalidCredential
	case errors.Is(err, ErrCredentialUnusable):
		return ReasonCredentialDisabled
	case errors.Is(err, ErrCapabilityDenied):
		return ReasonCapabilityDenied
	case errors.As(err, &quota):
		if quota.Unavailable {
			return ReasonLimiterUnavailable
		}
		return ReasonRateLimited
	default:
		return ReasonDownstreamError
	}
}
