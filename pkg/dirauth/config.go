package dirauth

import "context"

// Config describes the directory-service endpoint and client identity used
// for token acquisition. It is supplied by the caller and treated as
// read-only by the engine; renewal reuses the exact same values.
type Config struct {
	// AuthorityEndpoint is the base URL of the directory service,
	// e.g. "https://login.example.com".
	AuthorityEndpoint string

	// Tenant is the directory tenant or domain tokens are requested in.
	// Providers that support home-tenant discovery accept "common".
	Tenant string

	// ClientID identifies the application requesting tokens.
	ClientID string

	// Resource is the URI of the resource the token should grant access to.
	Resource string

	// RedirectURI is the reply address registered for interactive flows.
	RedirectURI string

	// Cache is the token cache the provider reads and writes through. It is
	// owned by the caller; the engine never touches it directly, only the
	// provider's own cache-management calls do.
	Cache Cache
}

// Cache is the token-cache capability referenced by Config. Provider
// implementations use it to enumerate known accounts and to store or look
// up previously issued results.
type Cache interface {
	// Accounts lists accounts previously cached for the given client.
	Accounts(ctx context.Context, clientID string) ([]Account, error)

	// Result returns the cached result for (client, resource, account), or
	// nil when nothing usable is cached.
	Result(ctx context.Context, clientID, resource, homeAccountID string) (*Result, error)

	// PutResult stores or replaces the cached result for its account.
	PutResult(ctx context.Context, clientID, resource string, res Result) error
}
