package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const RequestIDHeader = "X-Request-ID"

// RequestID stamps each outgoing request with a fresh X-Request-ID unless
// the caller already set one.
type RequestID struct {
	Base http.RoundTripper
}

func (r *RequestID) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) != "" {
		return base(r.Base).RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set(RequestIDHeader, uuid.NewString())
	return base(r.Base).RoundTrip(clone)
}

// Logging writes one debug line per request. The Authorization header is
// never logged.
type Logging struct {
	Logger *slog.Logger
	Base   http.RoundTripper
}

func (l *Logging) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := base(l.Base).RoundTrip(req)
	if l.Logger == nil {
		return resp, err
	}
	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", req.Header.Get(RequestIDHeader),
		"authenticated", req.Header.Get("Authorization") != "",
	}
	if err != nil {
		l.Logger.Debug("request failed", append(attrs, "error", err)...)
		return resp, err
	}
	l.Logger.Debug("request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}

type Options struct {
	Tokens  TokenSource
	Logger  *slog.Logger
	Timeout time.Duration
	// Base is the innermost transport; nil means http.DefaultTransport.
	Base http.RoundTripper
}

// NewClient assembles bearer auth -> request id -> logging -> otel -> base.
// The bearer header is attached before the request id and logging layers so
// that they see the request exactly as it leaves the process.
func NewClient(opts Options) *http.Client {
	var rt http.RoundTripper = otelhttp.NewTransport(base(opts.Base))
	rt = &Logging{Logger: opts.Logger, Base: rt}
	rt = &RequestID{Base: rt}
	rt = &BearerAuth{Tokens: opts.Tokens, Base: rt}
	return &http.Client{Transport: rt, Timeout: opts.Timeout}
}

func base(rt http.RoundTripper) http.RoundTripper {
	if rt != nil {
		return rt
	}
	return http.DefaultTransport
}
