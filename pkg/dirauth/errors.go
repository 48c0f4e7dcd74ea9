package dirauth

import (
	"errors"
	"fmt"
)

// ============================================================================
// Error taxonomy
// ============================================================================

// ErrorKind buckets every failure the engine can surface. The mapping from
// provider error codes to kinds is deterministic; see Classify.
type ErrorKind string

const (
	// KindInvalidCredentialKind means the caller asked for a credential
	// kind this provider does not support.
	KindInvalidCredentialKind ErrorKind = "invalid_credential_kind"

	// KindNotSupported covers operations that are permanently
	// unimplemented, currently only certificate-based acquisition.
	KindNotSupported ErrorKind = "not_supported"

	// KindCanceled means the user or system canceled an interactive flow.
	KindCanceled ErrorKind = "authentication_canceled"

	// KindFailedWithoutPopup means silent acquisition could not proceed:
	// either interaction is actually required, or multiple cached tokens
	// were ambiguous.
	KindFailedWithoutPopup ErrorKind = "authentication_failed_without_popup"

	// KindFailed is the catch-all for provider failures, federation errors
	// and expired-refresh-token-on-renewal.
	KindFailed ErrorKind = "authentication_failed"
)

// Error carries a taxonomy kind plus a message fit for direct display.
type Error struct {
	Kind    ErrorKind
	Message string
	Inner   error // original provider error, when there was one
}

func (e *Error) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("dirauth: %s: %s: %v", e.Kind, e.Message, e.Inner)
	}
	return fmt.Sprintf("dirauth: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Inner }

// Is matches on kind so errors.Is works against the sentinels below without
// caring about messages.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// Sentinels for errors.Is checks. Comparison is by kind, not message.
var (
	ErrInvalidCredentialKind = &Error{
		Kind:    KindInvalidCredentialKind,
		Message: "the requested credential kind is not supported by this provider",
	}
	ErrNotSupported = &Error{
		Kind:    KindNotSupported,
		Message: "certificate-based token acquisition is not implemented",
	}
	ErrCanceled = &Error{
		Kind:    KindCanceled,
		Message: "authentication was canceled",
	}
	ErrFailedWithoutPopup = &Error{
		Kind:    KindFailedWithoutPopup,
		Message: "authentication could not complete without user interaction",
	}
	ErrFailed = &Error{
		Kind:    KindFailed,
		Message: "authentication failed",
	}
)

// User-facing messages for the mapped sub-cases.
const (
	msgInteractionRequired = "interactive sign-in is required but no user interface is available; sign in interactively and retry"
	msgMultipleTokens      = "multiple cached tokens matched the request; clear the token cache or specify an account"
	msgFederationGuidance  = "the federation service for this account could not be used; make sure you are signing in with an organizational id"
	msgExpiredRefreshToken = "the refresh token has expired; sign in again to continue"
)

// Classify maps a provider error onto the taxonomy. It is a pure function:
// each recognized code maps to exactly one kind, unrecognized codes wrap as
// KindFailed carrying the original message (and inner message, if present).
func Classify(perr *ProviderError) *Error {
	switch perr.Code {
	case CodeAuthenticationCanceled:
		return &Error{Kind: KindCanceled, Message: "authentication was canceled", Inner: perr}
	case CodeInteractionRequired:
		return &Error{Kind: KindFailedWithoutPopup, Message: msgInteractionRequired, Inner: perr}
	case CodeMultipleMatchingTokens:
		return &Error{Kind: KindFailedWithoutPopup, Message: msgMultipleTokens, Inner: perr}
	case CodeMissingFederationMetadata, CodeFederatedServiceError:
		return &Error{Kind: KindFailed, Message: msgFederationGuidance, Inner: perr}
	default:
		msg := perr.Message
		if perr.Inner != nil {
			msg = msg + ": " + perr.Inner.Error()
		}
		return &Error{Kind: KindFailed, Message: msg, Inner: perr}
	}
}

// classifyAcquireError normalizes anything a flow returned into the
// taxonomy. Already-typed errors pass through untouched so flow helpers can
// raise taxonomy errors directly; nothing is silently swallowed.
func classifyAcquireError(err error) error {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		return Classify(perr)
	}

	return &Error{Kind: KindFailed, Message: err.Error(), Inner: err}
}
