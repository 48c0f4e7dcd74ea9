package dirauth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAuthorizeRequestFreshToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	f := &fakeProvider{silentRes: testResult("user@contoso", now.Add(time.Hour))}
	e := NewEngine(f, WithClock(func() time.Time { return now }))
	defer e.Close()

	h, err := e.GetAccessToken(ctx, testConfig(), PromptAuto, nil, "user@contoso", nil, CredentialKindUser)
	require.NoError(t, err)
	require.Equal(t, 1, f.silentCalls)

	var scheme, parameter string
	require.NoError(t, h.AuthorizeRequest(ctx, func(s, p string) {
		scheme, parameter = s, p
	}))

	// Over five minutes left: no renewal, existing token used as-is.
	require.Equal(t, 1, f.silentCalls)
	require.Equal(t, "Bearer", scheme)
	require.Equal(t, "token-for-user@contoso", parameter)
}

func TestAuthorizeRequestRenewsNearExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	f := &fakeProvider{silentRes: testResult("user@contoso", now.Add(time.Hour))}
	e := NewEngine(f, WithClock(func() time.Time { return now }))
	defer e.Close()

	h, err := e.GetAccessToken(ctx, testConfig(), PromptAuto, nil, "user@contoso", nil, CredentialKindUser)
	require.NoError(t, err)

	// Swap in a result that is inside the safety margin, then script the
	// provider to hand back a fresh one on renewal.
	h.res = Result{
		AccessToken: "stale-token",
		ExpiresOn:   now.Add(time.Minute),
		TenantID:    "tenant-1",
		Account:     Account{Username: "user@contoso"},
	}
	f.silentRes = testResult("user@contoso", now.Add(2*time.Hour))

	var parameter string
	require.NoError(t, h.AuthorizeRequest(ctx, func(_, p string) { parameter = p }))

	// Renewal happened before the header-setter saw the token.
	require.Equal(t, 2, f.silentCalls)
	require.Equal(t, "token-for-user@contoso", parameter)
	require.Equal(t, now.Add(2*time.Hour), h.ExpiresOn())
}

func TestRenewalIsAlwaysSilent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	f := &fakeProvider{
		deviceRes: testResult("user@contoso", now.Add(time.Minute)),
		challenge: "enter the code",
	}
	e := NewEngine(f, WithClock(func() time.Time { return now }))
	defer e.Close()

	// Acquired interactively via device code...
	prompts := 0
	h, err := e.GetAccessToken(ctx, testConfig(), PromptAuto, func(string) { prompts++ },
		"user@contoso", nil, CredentialKindUser)
	require.NoError(t, err)
	require.Equal(t, 1, prompts)

	// ...but renewal goes through the silent flow, never the prompt.
	f.silentRes = testResult("user@contoso", now.Add(time.Hour))
	require.NoError(t, h.AuthorizeRequest(ctx, func(string, string) {}))

	require.Equal(t, 1, f.deviceCalls)
	require.Equal(t, 1, f.silentCalls)
	require.Equal(t, 1, prompts)
}

func TestRenewalNilResultIsFatal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	f := &fakeProvider{silentRes: testResult("user@contoso", now.Add(time.Minute))}
	e := NewEngine(f, WithClock(func() time.Time { return now }))
	defer e.Close()

	h, err := e.GetAccessToken(ctx, testConfig(), PromptAuto, nil, "user@contoso", nil, CredentialKindUser)
	require.NoError(t, err)

	// Provider has nothing left to renew with.
	f.silentRes = nil

	err = h.AuthorizeRequest(ctx, func(string, string) {
		t.Fatal("header setter must not run when renewal fails")
	})
	require.ErrorIs(t, err, ErrFailed)

	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	require.Contains(t, aerr.Message, "refresh token has expired")

	// The prior token is untouched, not overwritten with an empty value.
	require.Equal(t, "token-for-user@contoso", h.AccessToken())
}

func TestHandleAccessorsTrackCurrentResult(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(time.Hour)

	f := &fakeProvider{
		silentRes: &Result{
			AccessToken: "tok-1",
			ExpiresOn:   expiry,
			TenantID:    "tenant-1",
			Account:     Account{Username: "user@contoso", HomeAccountID: "home-1"},
		},
	}
	e := NewEngine(f, WithClock(func() time.Time { return now }))
	defer e.Close()

	h, err := e.GetAccessToken(ctx, testConfig(), PromptAuto, nil, "user@contoso", nil, CredentialKindUser)
	require.NoError(t, err)

	require.Equal(t, "tok-1", h.AccessToken())
	require.Equal(t, "user@contoso", h.UserID())
	require.Equal(t, "tenant-1", h.TenantID())
	require.Equal(t, expiry, h.ExpiresOn())
	require.Equal(t, LoginTypeOrgID, h.LoginType())

	t.Run("environment-bound accounts classify as live id", func(t *testing.T) {
		h.res.Account.Environment = "live.example.com"
		require.Equal(t, LoginTypeLiveID, h.LoginType())
	})
}

func TestForcedRefreshEnvOverridesExpiry(t *testing.T) {
	// Not parallel: mutates the process environment.
	t.Setenv(ForceRefreshEnv, "1")

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	f := &fakeProvider{silentRes: testResult("user@contoso", now.Add(time.Hour))}
	e := NewEngine(f, WithClock(func() time.Time { return now }))
	defer e.Close()

	h, err := e.GetAccessToken(ctx, testConfig(), PromptAuto, nil, "user@contoso", nil, CredentialKindUser)
	require.NoError(t, err)
	require.Equal(t, 1, f.silentCalls)

	// An hour of validity left, but the flag still forces renewal.
	require.NoError(t, h.AuthorizeRequest(ctx, func(string, string) {}))
	require.Equal(t, 2, f.silentCalls)
}

func TestAuthorizeSetsRequestHeader(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	f := &fakeProvider{silentRes: testResult("user@contoso", now.Add(time.Hour))}
	e := NewEngine(f, WithClock(func() time.Time { return now }))
	defer e.Close()

	h, err := e.GetAccessToken(ctx, testConfig(), PromptAuto, nil, "user@contoso", nil, CredentialKindUser)
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://management.example.com/subscriptions", nil)
	require.NoError(t, err)

	require.NoError(t, h.Authorize(ctx, req))
	require.Equal(t, "Bearer token-for-user@contoso", req.Header.Get("Authorization"))
}
