package dirauth

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// TokenHandle is the renewable wrapper returned to callers. It holds the
// most recent acquisition result and refreshes it through the engine when
// used close to expiry. Once a renewal fails the handle is done: discard it
// and authenticate again.
//
// The result slot is guarded by a RWMutex with a double-checked refresh, so
// concurrent AuthorizeRequest calls never observe a half-replaced result.
// Redundant provider calls across separate handles are tolerated, not
// deduplicated.
type TokenHandle struct {
	engine *Engine
	cfg    Config
	userID string // identity id the handle was acquired for; reused on renewal

	mu  sync.RWMutex
	res Result
}

// AuthorizeRequest makes the held token available to an outbound request.
// It always runs the freshness check first, renewing silently when due, and
// only then calls set with the "Bearer" scheme and the current access token.
// Staleness cannot leak into a caller this way, however long the handle sat
// idle between uses.
func (h *TokenHandle) AuthorizeRequest(ctx context.Context, set func(scheme, parameter string)) error {
	if err := h.refreshIfDue(ctx); err != nil {
		return err
	}

	h.mu.RLock()
	token := h.res.AccessToken
	h.mu.RUnlock()

	set("Bearer", token)
	return nil
}

// Authorize sets the Authorization header on req via AuthorizeRequest.
func (h *TokenHandle) Authorize(ctx context.Context, req *http.Request) error {
	return h.AuthorizeRequest(ctx, func(scheme, parameter string) {
		req.Header.Set("Authorization", scheme+" "+parameter)
	})
}

func (h *TokenHandle) refreshIfDue(ctx context.Context) error {
	h.mu.RLock()
	res := h.res
	h.mu.RUnlock()

	h.engine.logger.Info("checking token freshness",
		"expires_on", res.ExpiresOn,
		"tenant", res.TenantID,
		"user", maskUsername(res.Account.Username),
	)

	if !h.engine.policy.Due(h.engine.now(), res.ExpiresOn) {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Re-check under the write lock; a concurrent caller may have renewed
	// while we waited.
	if !h.engine.policy.Due(h.engine.now(), h.res.ExpiresOn) {
		return nil
	}

	h.engine.logger.Info("renewing access token",
		"expires_on", h.res.ExpiresOn,
		"tenant", h.res.TenantID,
		"user", maskUsername(h.res.Account.Username),
	)

	renewed, err := h.engine.renew(ctx, h.cfg, h.userID)
	if err != nil {
		// The previously held result stays as it was; the error is
		// terminal for this handle.
		return err
	}

	h.res = renewed

	h.engine.logger.Info("access token renewed",
		"expires_on", renewed.ExpiresOn,
		"tenant", renewed.TenantID,
		"user", maskUsername(renewed.Account.Username),
	)
	return nil
}

// AccessToken returns the current access token without a freshness check.
// Prefer AuthorizeRequest, which renews first.
func (h *TokenHandle) AccessToken() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.res.AccessToken
}

// UserID returns the username of the account the current result belongs to.
func (h *TokenHandle) UserID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.res.Account.Username
}

// TenantID returns the tenant the current result was issued in.
func (h *TokenHandle) TenantID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.res.TenantID
}

// ExpiresOn returns the current result's expiry timestamp.
func (h *TokenHandle) ExpiresOn() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.res.ExpiresOn
}

// LoginType classifies the current result's account.
func (h *TokenHandle) LoginType() LoginType {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.res.Account.LoginType()
}
