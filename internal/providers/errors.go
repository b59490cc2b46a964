// Package providers defines the shared pieces of the stats acquisition
// pipeline: the error taxonomy for provider failures and the generic
// fallback chain that orders fetch strategies.
package providers

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the provider failure taxonomy. Adapters wrap
// these with fmt.Errorf("%w") so callers can classify with errors.Is.
var (
	// ErrUnreachable marks network-level failures (DNS, timeout, 5xx).
	ErrUnreachable = errors.New("provider unreachable")

	// ErrRejected marks an explicit error payload, e.g. unknown username.
	ErrRejected = errors.New("provider rejected request")

	// ErrUnsupported marks a strategy that cannot serve a given account,
	// e.g. the accurate commit count is not resolvable.
	ErrUnsupported = errors.New("operation not supported for account")
)

// AllFailedError aggregates the failure reasons of every attempted
// strategy or endpoint for one provider.
type AllFailedError struct {
	Provider string
	Reasons  []string
}

func (e *AllFailedError) Error() string {
	return fmt.Sprintf("%s: all attempts failed: %s", e.Provider, strings.Join(e.Reasons, "; "))
}

// Message returns just the concatenated reasons, for embedding in
// error-flagged snapshots.
func (e *AllFailedError) Message() string {
	return strings.Join(e.Reasons, "; ")
}
