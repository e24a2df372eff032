package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/multierr"
)

// Identity is the display-only slice of the logged-in account. It carries no
// authority; the bearer token does.
type Identity struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Session is the explicit credential context threaded through the transport
// and the cart/checkout components. One Session per client process; created
// at startup, torn down at logout.
type Session struct {
	store Store
}

func New(store Store) (*Session, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	return &Session{store: store}, nil
}

// Store exposes the backing store for components that persist their own
// state under a session key, such as the checkout draft.
func (s *Session) Store() Store {
	return s.store
}

func (s *Session) Nonce() string {
	v, _, _ := s.store.Get(KeyNonce)
	return v
}

// SetNonce overwrites the stored nonce. Empty values are ignored so a
// response without a rotation header never erases the working credential.
func (s *Session) SetNonce(value string) error {
	if value == "" {
		return nil
	}
	return s.store.Set(KeyNonce, value)
}

func (s *Session) CartToken() string {
	v, _, _ := s.store.Get(KeyCartToken)
	return v
}

func (s *Session) SetCartToken(value string) error {
	if value == "" {
		return nil
	}
	return s.store.Set(KeyCartToken, value)
}

func (s *Session) BearerToken() string {
	v, _, _ := s.store.Get(KeyBearerToken)
	return v
}

// Authenticated reports whether a bearer token is present. It does not
// verify the token; the upstream platform is the authority on validity.
func (s *Session) Authenticated() bool {
	return s.BearerToken() != ""
}

// SetBearer stores the token and its display identity. When the identity is
// empty it is recovered from the token's claims without signature
// verification, since the client holds no signing key and only needs the
// display fields.
func (s *Session) SetBearer(token string, identity Identity) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("bearer token is empty")
	}
	if identity.Email == "" && identity.DisplayName == "" {
		identity = identityFromToken(token)
	}

	if err := s.store.Set(KeyBearerToken, token); err != nil {
		return err
	}
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encoding identity: %w", err)
	}
	return s.store.Set(KeyIdentity, string(raw))
}

func (s *Session) Identity() Identity {
	raw, ok, err := s.store.Get(KeyIdentity)
	if err != nil || !ok {
		return Identity{}
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return Identity{}
	}
	return id
}

// Logout clears every credential unconditionally. All deletions are
// attempted even when one fails; the combined error reports what remains.
func (s *Session) Logout() error {
	return multierr.Combine(
		s.store.Delete(KeyNonce),
		s.store.Delete(KeyCartToken),
		s.store.Delete(KeyBearerToken),
		s.store.Delete(KeyIdentity),
	)
}

func identityFromToken(token string) Identity {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Identity{}
	}

	id := Identity{}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		id.DisplayName = name
	}
	if id.DisplayName == "" {
		if name, ok := claims["display_name"].(string); ok {
			id.DisplayName = name
		}
	}
	return id
}
