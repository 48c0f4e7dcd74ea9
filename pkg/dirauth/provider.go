package dirauth

import (
	"context"
	"fmt"
)

// Provider error codes. This is the fixed vocabulary the engine knows how to
// classify; anything else falls through to the generic failure kind.
const (
	CodeAuthenticationCanceled    = "authentication_canceled"
	CodeInteractionRequired       = "interaction_required"
	CodeMultipleMatchingTokens    = "multiple_matching_tokens_detected"
	CodeMissingFederationMetadata = "missing_federation_metadata_url"
	CodeFederatedServiceError     = "federated_service_returned_error"
)

// ProviderError is a failure reported by the identity-provider capability.
type ProviderError struct {
	Code    string // one of the Code* constants, or provider specific
	Message string
	Inner   error // optional underlying cause
}

func (e *ProviderError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Inner)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Inner }

// PromptFunc receives human-readable sign-in instructions during the
// device-code flow.
type PromptFunc func(message string)

// Provider is the identity-provider capability the engine drives. The wire
// protocol behind it (token endpoint, cryptographic validation, cache
// persistence) is the provider's problem; the engine only selects flows and
// classifies failures.
//
// Every call must complete any asynchronous work before returning: callers
// rely on a plain blocking contract with no exposed concurrency.
type Provider interface {
	// Accounts enumerates previously cached accounts for cfg's client.
	Accounts(ctx context.Context, cfg Config) ([]Account, error)

	// AcquireSilent requests a token without user interaction. A nil
	// account asks for the provider's default behavior. A nil result with a
	// nil error means the provider had nothing usable left, typically an
	// expired refresh token.
	AcquireSilent(ctx context.Context, cfg Config, account *Account) (*Result, error)

	// AcquireDeviceCode runs the device-code flow. onChallenge is invoked
	// exactly once with the instructions to show the user; the call then
	// blocks until the flow completes out of band.
	AcquireDeviceCode(ctx context.Context, cfg Config, onChallenge func(message string)) (*Result, error)

	// AcquireUserPassword performs a direct credential exchange.
	AcquireUserPassword(ctx context.Context, cfg Config, username, password string) (*Result, error)
}
