// Package devprovider is a self-contained identity provider used by the CLI
// and the end-to-end tests. It mints directory-style access tokens locally
// instead of talking to a real token endpoint, while still exercising the
// full engine surface: cached accounts, silent renewal, the device-code
// challenge and direct credential exchange.
package devprovider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aussiebroadwan/dirauth/pkg/cryptox"
	"github.com/aussiebroadwan/dirauth/pkg/dirauth"
	"github.com/aussiebroadwan/dirauth/pkg/jwtx"
)

const (
	// DefaultTokenTTL is how long minted access tokens stay valid.
	DefaultTokenTTL = time.Hour

	// DefaultRefreshTTL bounds how long after an access token expires the
	// provider will still renew it silently. Past that the stored entry is
	// treated like an expired refresh token.
	DefaultRefreshTTL = 14 * 24 * time.Hour

	userCodeLength = 8
)

// Options configure the provider's local user directory and token minting.
type Options struct {
	// SigningSecret is the HMAC key access tokens are signed with.
	SigningSecret []byte

	// TokenTTL overrides DefaultTokenTTL when positive.
	TokenTTL time.Duration

	// RefreshTTL overrides DefaultRefreshTTL when positive.
	RefreshTTL time.Duration

	// Users maps usernames to passwords for the direct credential exchange.
	Users map[string]string

	// Federated maps usernames to the provider error code their federated
	// realm fails with. Federated users never exchange passwords locally.
	Federated map[string]string

	// DeviceUser is the account the device-code flow signs in once the
	// challenge completes. Empty means the user walked away and the flow
	// reports cancellation.
	DeviceUser string

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Provider implements dirauth.Provider against a local user table.
type Provider struct {
	opts   Options
	logger *slog.Logger
}

// New builds a provider. The logger must not be nil.
func New(opts Options, logger *slog.Logger) *Provider {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = DefaultRefreshTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Provider{opts: opts, logger: logger}
}

// Accounts lists the accounts cached for cfg's client.
func (p *Provider) Accounts(ctx context.Context, cfg dirauth.Config) ([]dirauth.Account, error) {
	if cfg.Cache == nil {
		return nil, nil
	}
	return cfg.Cache.Accounts(ctx, cfg.ClientID)
}

// AcquireSilent renews from the cache without user interaction. A nil
// account resolves to the single cached account when exactly one exists.
func (p *Provider) AcquireSilent(ctx context.Context, cfg dirauth.Config, account *dirauth.Account) (*dirauth.Result, error) {
	if cfg.Cache == nil {
		return nil, &dirauth.ProviderError{
			Code:    dirauth.CodeInteractionRequired,
			Message: "no token cache configured",
		}
	}

	if account == nil {
		accounts, err := cfg.Cache.Accounts(ctx, cfg.ClientID)
		if err != nil {
			return nil, fmt.Errorf("list cached accounts: %w", err)
		}
		switch len(accounts) {
		case 0:
			return nil, &dirauth.ProviderError{
				Code:    dirauth.CodeInteractionRequired,
				Message: "no cached account for client",
			}
		case 1:
			account = &accounts[0]
		default:
			return nil, &dirauth.ProviderError{
				Code:    dirauth.CodeMultipleMatchingTokens,
				Message: fmt.Sprintf("%d cached accounts match, specify a username", len(accounts)),
			}
		}
	}

	cached, err := cfg.Cache.Result(ctx, cfg.ClientID, cfg.Resource, account.HomeAccountID)
	if err != nil {
		return nil, fmt.Errorf("look up cached result: %w", err)
	}
	if cached == nil {
		return nil, &dirauth.ProviderError{
			Code:    dirauth.CodeInteractionRequired,
			Message: "no cached token for account and resource",
		}
	}

	// An entry that expired longer than the refresh window ago models a
	// refresh token the service would no longer accept.
	now := p.opts.Now()
	if now.Sub(cached.ExpiresOn) > p.opts.RefreshTTL {
		p.logger.Debug("cached entry past refresh window",
			"username", account.Username,
			"expires_on", cached.ExpiresOn,
		)
		return nil, nil
	}

	return p.issue(ctx, cfg, account.Username)
}

// AcquireDeviceCode runs the device-code flow. The challenge message is
// delivered exactly once; the configured device user then completes the
// sign-in out of band.
func (p *Provider) AcquireDeviceCode(ctx context.Context, cfg dirauth.Config, onChallenge func(message string)) (*dirauth.Result, error) {
	code, err := cryptox.GenerateUserCode(userCodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate user code: %w", err)
	}

	onChallenge(fmt.Sprintf(
		"To sign in, use a web browser to open %s/%s/device and enter the code %s to authenticate.",
		cfg.AuthorityEndpoint, cfg.Tenant, code,
	))

	if p.opts.DeviceUser == "" {
		return nil, &dirauth.ProviderError{
			Code:    dirauth.CodeAuthenticationCanceled,
			Message: "device code flow was not completed",
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, &dirauth.ProviderError{
			Code:    dirauth.CodeAuthenticationCanceled,
			Message: "device code flow aborted",
			Inner:   err,
		}
	}

	p.logger.Info("device code flow completed", "username", p.opts.DeviceUser)
	return p.issue(ctx, cfg, p.opts.DeviceUser)
}

// AcquireUserPassword exchanges a username and password directly. Federated
// users fail with their realm's configured error code.
func (p *Provider) AcquireUserPassword(ctx context.Context, cfg dirauth.Config, username, password string) (*dirauth.Result, error) {
	if code, ok := p.opts.Federated[username]; ok {
		return nil, &dirauth.ProviderError{
			Code:    code,
			Message: fmt.Sprintf("federated realm rejected sign-in for %q", username),
		}
	}

	want, ok := p.opts.Users[username]
	if !ok || want != password {
		return nil, &dirauth.ProviderError{
			Code:    "invalid_grant",
			Message: "invalid username or password",
		}
	}

	return p.issue(ctx, cfg, username)
}

// issue mints a signed access token for username and writes it through the
// cache so later silent calls can find it.
func (p *Provider) issue(ctx context.Context, cfg dirauth.Config, username string) (*dirauth.Result, error) {
	now := p.opts.Now()
	subject := objectID(username)

	claims := jwtx.NewAccessClaims(
		subject,
		cfg.Tenant,
		username,
		fmt.Sprintf("%s/%s", cfg.AuthorityEndpoint, cfg.Tenant),
		[]string{cfg.Resource},
		p.opts.TokenTTL,
		now,
	)
	claims.AppID = cfg.ClientID

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.opts.SigningSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	res := dirauth.Result{
		AccessToken: signed,
		ExpiresOn:   now.Add(p.opts.TokenTTL),
		TenantID:    cfg.Tenant,
		Account: dirauth.Account{
			Username:      username,
			HomeAccountID: HomeAccountID(username, cfg.Tenant),
		},
	}

	if cfg.Cache != nil {
		if err := cfg.Cache.PutResult(ctx, cfg.ClientID, cfg.Resource, res); err != nil {
			return nil, fmt.Errorf("cache result: %w", err)
		}
	}
	return &res, nil
}

// HomeAccountID derives the stable account identifier the provider uses for
// a username within a tenant.
func HomeAccountID(username, tenant string) string {
	return objectID(username) + "." + tenant
}

func objectID(username string) string {
	sum := sha256.Sum256([]byte(username))
	return hex.EncodeToString(sum[:16])
}
