package controllers

import (
	"context"
	"net/http"

	"github.com/veloura/storefront/api/responses"
	"github.com/veloura/storefront/pkg/config"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Veloura-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness plus the state of optional backing services.
// A degraded Redis does not fail readiness; the gateway limps along without
// rate limiting rather than taking the storefront down.
func HealthReady(cfg *config.Config, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Veloura-Env", cfg.App.Env)

		payload := map[string]string{
			"status":   "ready",
			"upstream": cfg.Upstream.BaseURL,
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				payload["cache"] = "degraded"
			} else {
				payload["cache"] = "ok"
			}
		}
		responses.WriteSuccess(w, payload)
	}
}
