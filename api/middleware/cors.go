package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local dev
	"https://shop.veloura.in",
	"https://staging.shop.veloura.in",
}

// CORS returns middleware that applies the gateway's allowed origin policy.
// The rotating credential headers must be both accepted and exposed so the
// browser client can read rotated values off every response.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Nonce", "X-Veloura-Nonce", "Cart-Token", "X-Requested-With"},
		ExposedHeaders:   []string{"Nonce", "X-Veloura-Nonce", "Cart-Token", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
