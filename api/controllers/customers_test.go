package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/veloura/storefront/internal/customers"
	pkgerrors "github.com/veloura/storefront/pkg/errors"
	"github.com/veloura/storefront/pkg/types"
)

type stubCustomerService struct {
	lastEmail      string
	lastUpdate     customers.UpdateInput
	lastCustomerID int64
	lastOrderID    int64
	customer       *customers.Customer
	orders         []types.Order
	order          *types.Order
	err            error
}

func (s *stubCustomerService) LookupByEmail(ctx context.Context, email string) (*customers.Customer, error) {
	s.lastEmail = email
	return s.customer, s.err
}

func (s *stubCustomerService) Update(ctx context.Context, input customers.UpdateInput) (*customers.Customer, error) {
	s.lastUpdate = input
	return s.customer, s.err
}

func (s *stubCustomerService) Orders(ctx context.Context, customerID int64) ([]types.Order, error) {
	s.lastCustomerID = customerID
	return s.orders, s.err
}

func (s *stubCustomerService) Order(ctx context.Context, id int64) (*types.Order, error) {
	s.lastOrderID = id
	return s.order, s.err
}

func TestGetProfile_LowercasesEmail(t *testing.T) {
	svc := &stubCustomerService{customer: &customers.Customer{ID: 11, Email: "shopper@example.com"}}
	handler := GetProfile(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/user/profile?email=Shopper@Example.COM", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastEmail != "shopper@example.com" {
		t.Fatalf("email not lowercased: %s", svc.lastEmail)
	}
}

func TestGetProfile_NotFoundPropagates(t *testing.T) {
	svc := &stubCustomerService{err: pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")}
	handler := GetProfile(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/user/profile?email=missing@example.com", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestUpdateProfile_ForwardsAddresses(t *testing.T) {
	svc := &stubCustomerService{customer: &customers.Customer{ID: 11}}
	handler := UpdateProfile(svc, nil)

	body := `{"id":11,"billing":{"first_name":"Asha","last_name":"Rao","address_1":"12 MG Road","city":"Bengaluru","state":"KA","postcode":"560001","email":"shopper@example.com","phone":"9876543210"},"shipping":{}}`
	req := httptest.NewRequest(http.MethodPost, "/user/profile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastUpdate.ID != 11 {
		t.Fatalf("id not forwarded: %d", svc.lastUpdate.ID)
	}
	if svc.lastUpdate.Billing.City != "Bengaluru" {
		t.Fatalf("billing address lost: %+v", svc.lastUpdate.Billing)
	}
}

func TestListOrders_RequiresCustomerID(t *testing.T) {
	svc := &stubCustomerService{}
	handler := ListOrders(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/user/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.lastCustomerID != 0 {
		t.Fatal("service should not be called without customer_id")
	}
}

func TestGetOrder_ParsesPathID(t *testing.T) {
	svc := &stubCustomerService{order: &types.Order{ID: 42, Status: types.OrderStatusProcessing}}

	router := chi.NewRouter()
	router.Get("/user/order/{id}", GetOrder(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/user/order/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastOrderID != 42 {
		t.Fatalf("order id not parsed: %d", svc.lastOrderID)
	}
}
