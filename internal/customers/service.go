package customers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/veloura/storefront/pkg/errors"
	"github.com/veloura/storefront/pkg/types"
)

type upstreamCaller interface {
	DoServiceJSON(ctx context.Context, method, subpath string, query url.Values, body, out any) error
}

// Customer is the upstream account record with its saved addresses.
type Customer struct {
	ID        int64               `json:"id"`
	Email     string              `json:"email"`
	FirstName string              `json:"first_name"`
	LastName  string              `json:"last_name"`
	Billing   types.AddressRecord `json:"billing"`
	Shipping  types.AddressRecord `json:"shipping"`
}

// UpdateInput carries the address changes saved back to the profile.
type UpdateInput struct {
	ID       int64               `json:"id"`
	Billing  types.AddressRecord `json:"billing"`
	Shipping types.AddressRecord `json:"shipping"`
}

// Service fronts customer/order reads and profile writes with the
// administrative key pair. Client-supplied credentials are never used here.
type Service interface {
	LookupByEmail(ctx context.Context, email string) (*Customer, error)
	Update(ctx context.Context, input UpdateInput) (*Customer, error)
	Orders(ctx context.Context, customerID int64) ([]types.Order, error)
	Order(ctx context.Context, id int64) (*types.Order, error)
}

type service struct {
	upstream    upstreamCaller
	adminPrefix string
}

func NewService(upstream upstreamCaller, adminPrefix string) (Service, error) {
	if upstream == nil {
		return nil, fmt.Errorf("upstream caller required")
	}
	return &service{upstream: upstream, adminPrefix: adminPrefix}, nil
}

func (s *service) LookupByEmail(ctx context.Context, email string) (*Customer, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	var matches []Customer
	query := url.Values{"email": {email}}
	if err := s.upstream.DoServiceJSON(ctx, http.MethodGet, s.adminPrefix+"/customers", query, nil, &matches); err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no customer for that email")
	}
	return &matches[0], nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*Customer, error) {
	if input.ID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id must be positive")
	}

	path := fmt.Sprintf("%s/customers/%d", s.adminPrefix, input.ID)
	var updated Customer
	payload := map[string]any{
		"billing":  input.Billing,
		"shipping": input.Shipping,
	}
	if err := s.upstream.DoServiceJSON(ctx, http.MethodPut, path, nil, payload, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) Orders(ctx context.Context, customerID int64) ([]types.Order, error) {
	if customerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id must be positive")
	}

	query := url.Values{"customer": {strconv.FormatInt(customerID, 10)}}
	var orders []types.Order
	if err := s.upstream.DoServiceJSON(ctx, http.MethodGet, s.adminPrefix+"/orders", query, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *service) Order(ctx context.Context, id int64) (*types.Order, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id must be positive")
	}

	path := fmt.Sprintf("%s/orders/%d", s.adminPrefix, id)
	var order types.Order
	if err := s.upstream.DoServiceJSON(ctx, http.MethodGet, path, nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
