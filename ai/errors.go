package ai

import (
	"context"
	"errors"
)

// Error kinds surfaced by the registry and provider layers. The permission
// model in package space never errors; everything here originates from
// provider resolution or provider calls.
var (
	// ErrProviderNotFound means the requested provider id is not registered.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrDuplicateProvider means a register call reused an existing id.
	// Re-registration is an explicit error, never a silent overwrite.
	ErrDuplicateProvider = errors.New("provider already registered")

	// ErrNoProvidersRegistered means the registry is empty. Startup is
	// expected to register at least the simulated fallback provider.
	ErrNoProvidersRegistered = errors.New("no providers registered")

	// ErrCannotRemoveDefault means removal targeted the current default
	// provider. Reassign the default first.
	ErrCannotRemoveDefault = errors.New("cannot remove default provider")

	// ErrProviderUnavailable means a provider call failed: network fault,
	// timeout, or malformed response. The registry retries once against
	// the default provider before propagating it.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// IsUnavailable reports whether err is a provider availability failure,
// including context timeouts, which the fallback path treats identically.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}
