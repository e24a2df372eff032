package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/veloura/storefront/internal/authrelay"
	"github.com/veloura/storefront/internal/catalog"
	"github.com/veloura/storefront/internal/customers"
	"github.com/veloura/storefront/pkg/config"
	"github.com/veloura/storefront/pkg/types"
)

type stubCatalog struct{}

func (stubCatalog) List(ctx context.Context, page, perPage int) ([]catalog.Product, error) {
	return []catalog.Product{}, nil
}

func (stubCatalog) Get(ctx context.Context, id int64) (*catalog.Product, error) {
	return &catalog.Product{ID: id}, nil
}

type stubAuth struct{}

func (stubAuth) Login(ctx context.Context, identifier, secret string) (*authrelay.LoginResult, error) {
	return &authrelay.LoginResult{Token: "tok"}, nil
}

func (stubAuth) Register(ctx context.Context, input authrelay.RegisterInput) (*authrelay.Identity, error) {
	return &authrelay.Identity{ID: 1}, nil
}

type stubCustomers struct{}

func (stubCustomers) LookupByEmail(ctx context.Context, email string) (*customers.Customer, error) {
	return &customers.Customer{ID: 1, Email: email}, nil
}

func (stubCustomers) Update(ctx context.Context, input customers.UpdateInput) (*customers.Customer, error) {
	return &customers.Customer{ID: input.ID}, nil
}

func (stubCustomers) Orders(ctx context.Context, customerID int64) ([]types.Order, error) {
	return nil, nil
}

func (stubCustomers) Order(ctx context.Context, id int64) (*types.Order, error) {
	return &types.Order{ID: id}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "Development"},
		Upstream: config.UpstreamConfig{
			BaseURL:     "https://commerce.example.com",
			StorePrefix: "/store/v1",
		},
	}
}

func testRouter() http.Handler {
	return NewRouter(Deps{
		Config:    testConfig(),
		AuthRelay: stubAuth{},
		Catalog:   stubCatalog{},
		Customers: stubCustomers{},
	})
}

func TestRouter_HealthLive(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("X-Veloura-Env") != "Development" {
		t.Fatal("env header missing")
	}
}

func TestRouter_ProductRoutesWired(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/products/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data catalog.Product `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data.ID != 5 {
		t.Fatalf("wrong product id: %d", payload.Data.ID)
	}
}

func TestRouter_MetricsExposed(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestRouter_StoreWildcardMounted(t *testing.T) {
	router := testRouter()

	// Any method, any depth under /store must reach the relay handler
	// rather than the router's 404/405 fallbacks.
	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/store/cart"},
		{http.MethodPost, "/store/cart/add"},
		{http.MethodPost, "/store/checkout"},
		{http.MethodGet, "/store/cart/items?_vt=1"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code == http.StatusNotFound || rec.Code == http.StatusMethodNotAllowed {
			t.Fatalf("%s %s not routed to the relay, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestRouter_RelayUnconfiguredIs500(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/store/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}

func TestRouter_RequestIDAssigned(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("request id header not set")
	}
}
