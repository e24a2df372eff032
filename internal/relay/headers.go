package relay

import (
	"net/http"

	"github.com/veloura/storefront/pkg/protocol"
)

// forwardable headers are copied from the inbound client request onto the
// outbound upstream request when present. The relay never invents values for
// any of these.
var forwardable = []string{
	"Cookie",
	"Content-Type",
	"Authorization",
	protocol.CartTokenHeader,
}

// copyForwardable moves the allow-listed headers from src to dst.
func copyForwardable(dst, src http.Header) {
	for _, name := range forwardable {
		if v := src.Get(name); v != "" {
			dst.Set(name, v)
		}
	}
	protocol.SetNonce(dst, protocol.NonceFrom(src))
}
