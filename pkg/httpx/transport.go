// Package httpx is outbound HTTP plumbing for clients that spend directory
// tokens: a transport that authorizes each request through a renewable
// handle, a client-side rate limiter, and request logging.
package httpx

import (
	"context"
	"net/http"
	"time"
)

// RequestAuthorizer supplies Authorization header material for outbound
// requests. dirauth.TokenHandle satisfies this.
type RequestAuthorizer interface {
	AuthorizeRequest(ctx context.Context, set func(scheme, parameter string)) error
}

// AuthTransport authorizes every request it sends. The authorizer runs
// before each attempt, so tokens are renewed on use rather than pinned at
// client construction time.
type AuthTransport struct {
	// Base is the underlying transport. nil means http.DefaultTransport.
	Base http.RoundTripper

	// Authorizer supplies the Authorization header.
	Authorizer RequestAuthorizer
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Per the RoundTripper contract we must not mutate the caller's
	// request, so the header lands on a clone.
	clone := req.Clone(req.Context())

	err := t.Authorizer.AuthorizeRequest(req.Context(), func(scheme, parameter string) {
		clone.Header.Set("Authorization", scheme+" "+parameter)
	})
	if err != nil {
		return nil, err
	}

	return t.base().RoundTrip(clone)
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// NewAuthClient builds an http.Client whose every request carries a fresh
// bearer token from the authorizer.
func NewAuthClient(authorizer RequestAuthorizer) *http.Client {
	return &http.Client{
		Transport: &AuthTransport{Authorizer: authorizer},
		Timeout:   10 * time.Second,
	}
}
