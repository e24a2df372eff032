package controllers

import (
	"net/http"
	"strings"

	"github.com/veloura/storefront/api/responses"
	"github.com/veloura/storefront/api/validators"
	"github.com/veloura/storefront/internal/customers"
	pkgerrors "github.com/veloura/storefront/pkg/errors"
	"github.com/veloura/storefront/pkg/logger"
	"github.com/veloura/storefront/pkg/types"
)

// Addresses are structonly here: profile saves accept partial drafts, full
// address validation happens at checkout.
type updateProfileRequest struct {
	ID       int64               `json:"id" validate:"required,min=1"`
	Billing  types.AddressRecord `json:"billing" validate:"structonly"`
	Shipping types.AddressRecord `json:"shipping" validate:"structonly"`
}

// GetProfile resolves the account record for the email the client asserts.
// The lookup runs under the gateway's administrative key pair, so the handler
// only ever returns address and order metadata, never credentials.
func GetProfile(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		email := strings.ToLower(validators.SanitizeString(r.URL.Query().Get("email"), 254))
		customer, err := svc.LookupByEmail(r.Context(), email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, customer)
	}
}

func UpdateProfile(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		var payload updateProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Update(r.Context(), customers.UpdateInput{
			ID:       payload.ID,
			Billing:  payload.Billing,
			Shipping: payload.Shipping,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, customer)
	}
}

func ListOrders(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		customerID, err := validators.ParseQueryInt64(r, "customer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.Orders(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orders)
	}
}

func GetOrder(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		id, err := parsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Order(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}
