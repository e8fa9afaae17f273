package intra

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAuth indicates the token endpoint refused the client credentials
	// or the API answered 401/403.
	ErrAuth = errors.New("intra authentication failed")

	// ErrTransient covers timeouts, network failures, 5xx and 429. These
	// are retried.
	ErrTransient = errors.New("intra transient failure")

	// ErrPermanent covers 4xx responses other than auth and rate limiting.
	ErrPermanent = errors.New("intra request rejected")

	// ErrMalformed indicates a response body that could not be decoded.
	ErrMalformed = errors.New("intra response malformed")
)

// HTTPError carries a non-2xx response. It unwraps to one of the sentinels.
type HTTPError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
	kind       error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("intra returned status %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) Unwrap() error { return e.kind }

func classifyStatus(code int) error {
	switch {
	case code == 401 || code == 403:
		return ErrAuth
	case code == 429 || code >= 500:
		return ErrTransient
	default:
		return ErrPermanent
	}
}

// ErrorCode names the sentinel err wraps, for carrying it across a
// boundary that only passes strings.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrPermanent):
		return "permanent"
	default:
		return "unknown"
	}
}

// ErrorForCode returns the sentinel named by code, or nil.
func ErrorForCode(code string) error {
	switch code {
	case "auth":
		return ErrAuth
	case "transient":
		return ErrTransient
	case "malformed":
		return ErrMalformed
	case "permanent":
		return ErrPermanent
	default:
		return nil
	}
}
