package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veloura/storefront/api/responses"
	"github.com/veloura/storefront/internal/relay"
	pkgerrors "github.com/veloura/storefront/pkg/errors"
	"github.com/veloura/storefront/pkg/logger"
)

// StoreRelay forwards the wildcard remainder of /store/* to the upstream
// store surface. The relay writes the upstream response itself, headers and
// status included, so nothing here touches the envelope helpers on success.
func StoreRelay(svc *relay.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "relay unavailable"))
			return
		}

		subpath := chi.URLParam(r, "*")
		if subpath == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no store path supplied"))
			return
		}

		svc.Relay(w, r, subpath)
	}
}
