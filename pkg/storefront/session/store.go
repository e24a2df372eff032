// Package session owns the client-resident credential state: the rotating
// request nonce, the cart token, the bearer identity, and the unsaved
// checkout draft. Everything lives behind an explicit Session value passed by
// reference; there is no package-level state.
package session

// Storage keys. These are the only keys the storefront persists.
const (
	KeyNonce       = "request_nonce"
	KeyCartToken   = "cart_token"
	KeyBearerToken = "bearer_token"
	KeyIdentity    = "identity"
	KeyDraft       = "checkout_draft"
)

// Store is the durable key/value surface backing a Session. Get reports
// presence separately from errors so an absent key is not a failure.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(keys ...string) error
	Close() error
}
