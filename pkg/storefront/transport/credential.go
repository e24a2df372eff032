// Package transport provides the client-side interceptor chain: credential
// attach/capture and in-flight activity tracking, composed as standard
// http.RoundTripper wrappers.
package transport

import (
	"fmt"
	"net/http"

	"github.com/veloura/storefront/pkg/protocol"
	"github.com/veloura/storefront/pkg/storefront/session"
)

// CredentialTransport attaches the session's stored credentials to every
// outgoing request and captures rotated values off every response before the
// response is handed to application code. That ordering is the core
// guarantee: the next mutation always carries the freshest credential.
type CredentialTransport struct {
	base    http.RoundTripper
	session *session.Session
}

func NewCredentialTransport(base http.RoundTripper, sess *session.Session) (*CredentialTransport, error) {
	if sess == nil {
		return nil, fmt.Errorf("session is required")
	}
	if base == nil {
		base = http.DefaultTransport
	}
	return &CredentialTransport{base: base, session: sess}, nil
}

func (t *CredentialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	protocol.SetNonce(out.Header, t.session.Nonce())
	protocol.SetCartToken(out.Header, t.session.CartToken())
	if token := t.session.BearerToken(); token != "" && out.Header.Get("Authorization") == "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	// Persist rotations first; an error here is worth failing the call over,
	// because continuing would silently pin the session to a stale credential.
	if err := t.session.SetNonce(protocol.NonceFrom(resp.Header)); err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("persisting rotated nonce: %w", err)
	}
	if err := t.session.SetCartToken(protocol.CartTokenFrom(resp.Header)); err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("persisting rotated cart token: %w", err)
	}

	return resp, nil
}
