package dataforseo

import (
	"errors"
	"fmt"
)

// Sentinel errors for the provider client.
var (
	// ErrMalformedResponse is returned when a provider payload does not
	// match the documented envelope shape.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrUnsupportedOperation is returned when a task type is asked for
	// an endpoint shape it does not have (e.g. live for on_page).
	ErrUnsupportedOperation = errors.New("operation not supported for task type")
)

// ProviderError carries a non-success status reported by DataForSEO,
// either at the envelope or the per-task level. The provider's message is
// passed through to the caller as-is.
type ProviderError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.StatusCode, e.Message)
}

// IsProviderError reports whether err is (or wraps) a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
