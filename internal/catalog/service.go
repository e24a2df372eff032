package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/veloura/storefront/pkg/errors"
)

type upstreamCaller interface {
	DoServiceJSON(ctx context.Context, method, subpath string, query url.Values, body, out any) error
}

// Product is the catalog record as reported by the upstream platform. The
// storefront never owns pricing or inventory.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Image       string          `json:"image"`
	InStock     bool            `json:"in_stock"`
}

// Service exposes service-credentialed catalog reads.
type Service interface {
	List(ctx context.Context, page, perPage int) ([]Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
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

func (s *service) List(ctx context.Context, page, perPage int) ([]Product, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 24
	}
	query := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
	var products []Product
	if err := s.upstream.DoServiceJSON(ctx, http.MethodGet, s.adminPrefix+"/products", query, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Product, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	var product Product
	path := fmt.Sprintf("%s/products/%d", s.adminPrefix, id)
	if err := s.upstream.DoServiceJSON(ctx, http.MethodGet, path, nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}
