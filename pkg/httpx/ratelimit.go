package httpx

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig defines client-side throttling for outbound calls.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// OutboundLimit is the default profile for calls against a token-protected
// resource. Directory and management endpoints throttle aggressively, so we
// back off before they have to.
// Override with: RATELIMIT_OUTBOUND_REQUESTS, RATELIMIT_OUTBOUND_WINDOW_SEC,
// RATELIMIT_OUTBOUND_BURST
var OutboundLimit = RateLimitConfig{
	RequestsPerWindow: 100,
	Window:            time.Minute,
	Burst:             20,
}

func init() {
	// Allow overriding rate limits via environment variables (useful for testing)
	OutboundLimit = ParseRateLimitFromEnv("OUTBOUND", OutboundLimit)
}

// ParseRateLimitFromEnv reads rate limit configuration from environment
// variables following the pattern RATELIMIT_{prefix}_{field}, e.g.
// RATELIMIT_OUTBOUND_REQUESTS. Exported so callers can define their own
// profiles the same way.
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) RateLimitConfig {
	config := defaultConfig

	if val := os.Getenv("RATELIMIT_" + prefix + "_REQUESTS"); val != "" {
		if requests, err := strconv.Atoi(val); err == nil && requests > 0 {
			config.RequestsPerWindow = requests
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_WINDOW_SEC"); val != "" {
		if windowSec, err := strconv.Atoi(val); err == nil && windowSec > 0 {
			config.Window = time.Duration(windowSec) * time.Second
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_BURST"); val != "" {
		if burst, err := strconv.Atoi(val); err == nil && burst > 0 {
			config.Burst = burst
		}
	}

	return config
}

// Limiter converts the config into a token bucket.
func (c RateLimitConfig) Limiter() *rate.Limiter {
	perSecond := float64(c.RequestsPerWindow) / c.Window.Seconds()
	return rate.NewLimiter(rate.Limit(perSecond), c.Burst)
}

// RateLimitTransport delays outbound requests to stay inside the configured
// budget. Waiting respects the request context, so callers with deadlines
// fail fast instead of queueing forever.
type RateLimitTransport struct {
	// Base is the underlying transport. nil means http.DefaultTransport.
	Base http.RoundTripper

	limiter *rate.Limiter
}

// NewRateLimitTransport wraps base with the given rate-limit profile.
func NewRateLimitTransport(base http.RoundTripper, cfg RateLimitConfig) *RateLimitTransport {
	return &RateLimitTransport{Base: base, limiter: cfg.Limiter()}
}

func (t *RateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base().RoundTrip(req)
}

func (t *RateLimitTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
