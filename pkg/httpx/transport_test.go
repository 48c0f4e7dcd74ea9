package httpx

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// captureTransport records the request it saw and returns a canned response.
type captureTransport struct {
	req *http.Request
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.req = req
	return &http.Response{StatusCode: http.StatusOK, Request: req, Body: http.NoBody}, nil
}

type staticAuthorizer struct {
	scheme    string
	parameter string
	err       error
	calls     int
}

func (a *staticAuthorizer) AuthorizeRequest(ctx context.Context, set func(scheme, parameter string)) error {
	a.calls++
	if a.err != nil {
		return a.err
	}
	set(a.scheme, a.parameter)
	return nil
}

func TestAuthTransportSetsBearerHeader(t *testing.T) {
	t.Parallel()

	capture := &captureTransport{}
	auth := &staticAuthorizer{scheme: "Bearer", parameter: "tok-123"}
	transport := &AuthTransport{Base: capture, Authorizer: auth}

	req, err := http.NewRequest(http.MethodGet, "https://management.example.com/resources", nil)
	require.NoError(t, err)

	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, "Bearer tok-123", capture.req.Header.Get("Authorization"))
	// Original request untouched per the RoundTripper contract.
	require.Empty(t, req.Header.Get("Authorization"))
}

func TestAuthTransportRunsAuthorizerPerRequest(t *testing.T) {
	t.Parallel()

	capture := &captureTransport{}
	auth := &staticAuthorizer{scheme: "Bearer", parameter: "tok"}
	client := &http.Client{Transport: &AuthTransport{Base: capture, Authorizer: auth}}

	for i := 0; i < 3; i++ {
		req, err := http.NewRequest(http.MethodGet, "https://management.example.com/", nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}

	require.Equal(t, 3, auth.calls)
}

func TestAuthTransportPropagatesAuthorizerError(t *testing.T) {
	t.Parallel()

	capture := &captureTransport{}
	wantErr := errors.New("renewal failed")
	transport := &AuthTransport{Base: capture, Authorizer: &staticAuthorizer{err: wantErr}}

	req, err := http.NewRequest(http.MethodGet, "https://management.example.com/", nil)
	require.NoError(t, err)

	_, err = transport.RoundTrip(req)
	require.ErrorIs(t, err, wantErr)
	require.Nil(t, capture.req, "request must not be sent when authorization fails")
}
