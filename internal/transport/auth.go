// Package transport builds the HTTP round-tripper chain shared by every
// domain client: bearer credentials, request ids, logging and tracing.
package transport

import (
	"net/http"
)

// TokenSource returns the current bearer token, or "" when signed out.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string {
	return f()
}

// Authorize returns req with an Authorization header when token is set and
// req itself otherwise. The input request is never mutated.
func Authorize(req *http.Request, token string) *http.Request {
	if token == "" {
		return req
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return clone
}

// BearerAuth reads the token again on every request so a login or logout
// takes effect on the next call without rebuilding clients. There is no
// refresh and no retry on 401.
type BearerAuth struct {
	Tokens TokenSource
	Base   http.RoundTripper
}

func (b *BearerAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	token := ""
	if b.Tokens != nil {
		token = b.Tokens.Token()
	}
	return b.base().RoundTrip(Authorize(req, token))
}

func (b *BearerAuth) base() http.RoundTripper {
	if b.Base != nil {
		return b.Base
	}
	return http.DefaultTransport
}
