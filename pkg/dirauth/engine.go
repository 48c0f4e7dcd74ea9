// Package dirauth acquires directory-service access tokens and wraps them in
// renewable handles. The engine selects among mutually exclusive
// authentication flows based on the credential material available, drives an
// identity-provider capability, and classifies its failures into a small
// actionable taxonomy. Handles refresh themselves silently when used within
// the safety margin of expiry.
package dirauth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/dirauth/pkg/idx"
)

// CredentialKind names the kind of credential a token is requested for.
type CredentialKind string

const (
	CredentialKindUser        CredentialKind = "User"
	CredentialKindCertificate CredentialKind = "Certificate"
)

// PromptBehavior hints how interactive the caller wants acquisition to be.
// Flow selection only distinguishes PromptNever from everything else; the
// hint is otherwise just recorded in trace events.
type PromptBehavior string

const (
	PromptAuto  PromptBehavior = "auto"
	PromptNever PromptBehavior = "never"
)

// Engine selects an authentication flow, drives the identity provider and
// maps failures into the error taxonomy. One engine can serve many
// configurations; create it once and share it.
type Engine struct {
	provider Provider
	worker   *worker
	policy   RefreshPolicy
	now      func() time.Time
	logger   *slog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRefreshPolicy replaces the default five-minute lead-window policy.
func WithRefreshPolicy(p RefreshPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithClock replaces time.Now for freshness checks. Tests use this to pin
// the clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an engine around the given provider and starts its
// dedicated acquisition worker.
func NewEngine(provider Provider, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		worker:   newWorker(),
		policy:   LeadWindowPolicy{},
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close releases the engine's worker goroutine. Only call it once no handle
// created by this engine is still in use.
func (e *Engine) Close() {
	e.worker.stop()
}

// GetAccessToken acquires a token for cfg and wraps it in a renewable
// handle. Flow selection, in priority order:
//
//  1. Silent, whenever prompt is nil or behavior is PromptNever.
//  2. Device-code, when prompt is present but userID is empty or secret is
//     nil.
//  3. Username/secret, when prompt, userID and secret are all present.
//
// kind must be CredentialKindUser; anything else fails with
// ErrInvalidCredentialKind before any provider call is made.
func (e *Engine) GetAccessToken(
	ctx context.Context,
	cfg Config,
	behavior PromptBehavior,
	prompt PromptFunc,
	userID string,
	secret *string,
	kind CredentialKind,
) (*TokenHandle, error) {
	if kind != CredentialKindUser {
		return nil, &Error{
			Kind:    KindInvalidCredentialKind,
			Message: fmt.Sprintf("credential kind %q is not supported by this provider", kind),
		}
	}

	res, err := e.acquire(ctx, cfg, behavior, prompt, userID, secret, false)
	if err != nil {
		return nil, err
	}

	return &TokenHandle{engine: e, cfg: cfg, userID: userID, res: res}, nil
}

// GetAccessTokenWithCertificate is permanently unimplemented for this
// provider and always fails with ErrNotSupported.
func (e *Engine) GetAccessTokenWithCertificate(
	ctx context.Context,
	cfg Config,
	certificateThumbprint string,
) (*TokenHandle, error) {
	return nil, ErrNotSupported
}

// acquire runs one flow to completion on the worker goroutine. renew forces
// the silent flow so background renewal can never surface a UI prompt, no
// matter how the handle was originally acquired.
func (e *Engine) acquire(
	ctx context.Context,
	cfg Config,
	behavior PromptBehavior,
	prompt PromptFunc,
	userID string,
	secret *string,
	renew bool,
) (Result, error) {
	e.logger.Info("acquiring access token",
		"op_id", idx.New(),
		"endpoint", cfg.AuthorityEndpoint,
		"tenant", cfg.Tenant,
		"client_id", cfg.ClientID,
		"redirect_uri", cfg.RedirectURI,
		"behavior", behavior,
		"renew", renew,
	)

	var (
		res *Result
		err error
	)
	e.worker.do(func() {
		switch {
		case prompt == nil || behavior == PromptNever || renew:
			res, err = e.acquireSilent(ctx, cfg, userID)
		case userID == "" || secret == nil:
			res, err = e.provider.AcquireDeviceCode(ctx, cfg, prompt)
		default:
			res, err = e.provider.AcquireUserPassword(ctx, cfg, userID, *secret)
		}
	})
	if err != nil {
		return Result{}, classifyAcquireError(err)
	}
	if res == nil {
		if renew {
			return Result{}, &Error{Kind: KindFailed, Message: msgExpiredRefreshToken}
		}
		return Result{}, &Error{Kind: KindFailed, Message: "the identity provider returned no result"}
	}

	return *res, nil
}

// acquireSilent resolves the cached account for userID, then asks for a
// token without user interaction.
func (e *Engine) acquireSilent(ctx context.Context, cfg Config, userID string) (*Result, error) {
	accounts, err := e.provider.Accounts(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var account *Account
	for i := range accounts {
		if accounts[i].Username == userID {
			account = &accounts[i]
			break
		}
	}
	if account == nil && userID != "" {
		// No cached match: degrade to the provider's default behavior
		// rather than failing before even trying. This can resolve a
		// different cached identity than the one asked for; callers that
		// care should check TokenHandle.UserID afterwards.
		e.logger.Warn("no cached account matched, using provider default",
			"user", maskUsername(userID),
		)
	}

	return e.provider.AcquireSilent(ctx, cfg, account)
}

// renew re-runs acquisition in forced-silent mode using the original
// configuration and identity id. Renewal never resupplies a secret.
func (e *Engine) renew(ctx context.Context, cfg Config, userID string) (Result, error) {
	return e.acquire(ctx, cfg, PromptNever, nil, userID, nil, true)
}

// maskUsername keeps enough of a sign-in name to be recognizable in logs
// without recording the whole thing.
func maskUsername(username string) string {
	if username == "" {
		return ""
	}

	at := strings.IndexByte(username, '@')
	if at > 1 {
		return username[:1] + "***" + username[at:]
	}
	return "***"
}
