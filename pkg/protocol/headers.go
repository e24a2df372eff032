// Package protocol pins down the header names the storefront and the
// upstream commerce platform exchange session credentials through. Both the
// gateway relay and the client transport read from here; the alias list is
// defined in this file and nowhere else.
package protocol

import "net/http"

// The upstream platform has historically been inconsistent about which header
// carries the rotating request nonce. These are the accepted aliases, checked
// in this order. (Go canonicalizes header casing, so lowercase spellings
// collapse into these.)
var NonceAliases = []string{"Nonce", "X-Veloura-Nonce"}

// CartTokenHeader binds an anonymous session to its upstream cart.
const CartTokenHeader = "Cart-Token"

// NonceFrom returns the first nonce found following the alias priority, or
// empty when none is set.
func NonceFrom(h http.Header) string {
	for _, name := range NonceAliases {
		if v := h.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// SetNonce writes the nonce under every accepted alias so readers of any
// historical spelling observe the rotated value. Empty values are ignored;
// rotation never erases a credential.
func SetNonce(h http.Header, value string) {
	if value == "" {
		return
	}
	for _, name := range NonceAliases {
		h.Set(name, value)
	}
}

// CartTokenFrom reads the cart token header.
func CartTokenFrom(h http.Header) string {
	return h.Get(CartTokenHeader)
}

// SetCartToken writes the cart token header, ignoring empty values.
func SetCartToken(h http.Header, value string) {
	if value == "" {
		return
	}
	h.Set(CartTokenHeader, value)
}
