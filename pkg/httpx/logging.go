package httpx

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/dirauth/pkg/idx"
	"github.com/aussiebroadwan/dirauth/pkg/slogx"
)

// LoggingTransport logs each outbound request through the contextual slogx
// logger and tags it with a ULID operation id, which is also forwarded to
// the server via X-Request-ID for cross-referencing.
type LoggingTransport struct {
	// Base is the underlying transport. nil means http.DefaultTransport.
	Base http.RoundTripper
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	opID := idx.New().String()

	clone := req.Clone(req.Context())
	if clone.Header.Get("X-Request-ID") == "" {
		clone.Header.Set("X-Request-ID", opID)
	}

	logger := slogx.FromContext(req.Context()).With(
		"op_id", opID,
		"method", req.Method,
		"url", req.URL.Redacted(),
	)

	resp, err := t.base().RoundTrip(clone)

	duration := time.Since(start).Milliseconds()
	if err != nil {
		logger.Warn("http_request_failed", "duration_ms", duration, "error", err)
		return nil, err
	}

	logger.Info("http_request", "status", resp.StatusCode, "duration_ms", duration)
	return resp, nil
}

func (t *LoggingTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
