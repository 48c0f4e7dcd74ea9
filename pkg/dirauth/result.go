package dirauth

import "time"

// LoginType classifies which kind of identity an account belongs to.
type LoginType string

const (
	// LoginTypeOrgID is the default classification for organizational
	// directory accounts.
	LoginTypeOrgID LoginType = "OrgId"

	// LoginTypeLiveID marks accounts bound to a consumer identity
	// environment rather than an organizational directory.
	LoginTypeLiveID LoginType = "LiveId"
)

// Account identifies a user known to the identity provider's cache.
type Account struct {
	// Username is the sign-in name, e.g. "user@tenant.example.com".
	Username string

	// HomeAccountID is the provider's stable identifier for the account.
	HomeAccountID string

	// Environment is set for accounts that live in a consumer identity
	// environment. Empty for organizational accounts.
	Environment string
}

// LoginType classifies the account by its environment marker.
func (a Account) LoginType() LoginType {
	if a.Environment != "" {
		return LoginTypeLiveID
	}
	return LoginTypeOrgID
}

// Result is a completed token acquisition. Results are values: renewal
// replaces the whole thing, never individual fields.
type Result struct {
	AccessToken string
	ExpiresOn   time.Time
	TenantID    string
	Account     Account
}
