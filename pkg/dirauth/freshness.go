package dirauth

import (
	"os"
	"time"
)

// DefaultRefreshLeadWindow is the safety margin before real expiry at which
// a held token is treated as due for renewal.
const DefaultRefreshLeadWindow = 5 * time.Minute

// ForceRefreshEnv, when set to any non-empty value, makes every freshness
// check report "due" regardless of the real expiry timestamp. This exists so
// the renewal path can be exercised deterministically from the outside;
// prefer WithRefreshPolicy in new code.
const ForceRefreshEnv = "DIRAUTH_FORCE_REFRESH"

// RefreshPolicy decides whether a held token is due for renewal. Injectable
// via WithRefreshPolicy so tests can force staleness without touching the
// environment.
type RefreshPolicy interface {
	Due(now, expiresOn time.Time) bool
}

// LeadWindowPolicy is the default policy: a token is due once no more than
// Lead remains until expiry.
type LeadWindowPolicy struct {
	// Lead is the margin before expiry. Zero or negative means
	// DefaultRefreshLeadWindow.
	Lead time.Duration
}

func (p LeadWindowPolicy) Due(now, expiresOn time.Time) bool {
	if os.Getenv(ForceRefreshEnv) != "" {
		return true
	}

	lead := p.Lead
	if lead <= 0 {
		lead = DefaultRefreshLeadWindow
	}

	return !expiresOn.After(now.Add(lead))
}
