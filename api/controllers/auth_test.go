package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/veloura/storefront/internal/authrelay"
	pkgerrors "github.com/veloura/storefront/pkg/errors"
)

type stubAuthRelay struct {
	lastIdentifier string
	lastSecret     string
	lastRegister   authrelay.RegisterInput
	loginResult    *authrelay.LoginResult
	loginErr       error
	registerResult *authrelay.Identity
	registerErr    error
}

func (s *stubAuthRelay) Login(ctx context.Context, identifier, secret string) (*authrelay.LoginResult, error) {
	s.lastIdentifier = identifier
	s.lastSecret = secret
	return s.loginResult, s.loginErr
}

func (s *stubAuthRelay) Register(ctx context.Context, input authrelay.RegisterInput) (*authrelay.Identity, error) {
	s.lastRegister = input
	return s.registerResult, s.registerErr
}

func TestLogin_ReturnsTokenEnvelope(t *testing.T) {
	relay := &stubAuthRelay{loginResult: &authrelay.LoginResult{
		Token:       "jwt-token",
		Email:       "shopper@example.com",
		DisplayName: "Shopper",
	}}
	handler := Login(relay, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"identifier":"shopper@example.com","password":"pw123456"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if relay.lastIdentifier != "shopper@example.com" {
		t.Fatalf("unexpected identifier: %s", relay.lastIdentifier)
	}

	var payload struct {
		Data authrelay.LoginResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.Token != "jwt-token" {
		t.Fatalf("token missing from envelope: %+v", payload.Data)
	}
}

func TestLogin_MissingFieldsRejectedBeforeRelay(t *testing.T) {
	relay := &stubAuthRelay{}
	handler := Login(relay, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"identifier":"shopper@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if relay.lastSecret != "" || relay.lastIdentifier != "" {
		t.Fatal("relay should not be called on invalid payload")
	}
}

func TestLogin_UpstreamRejectionPassedThrough(t *testing.T) {
	relay := &stubAuthRelay{
		loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "Incorrect email or password."),
	}
	handler := Login(relay, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"identifier":"shopper@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Incorrect email or password.") {
		t.Fatalf("sanitized message lost: %s", rec.Body.String())
	}
}

func TestRegister_NormalizesEmail(t *testing.T) {
	relay := &stubAuthRelay{registerResult: &authrelay.Identity{ID: 7, Email: "new@example.com"}}
	handler := Register(relay, nil)

	body := `{"email":"NEW@Example.com","first_name":"Asha","last_name":"Rao","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if relay.lastRegister.Email != "new@example.com" {
		t.Fatalf("email not normalized: %s", relay.lastRegister.Email)
	}
}

func TestRegister_ShortPasswordRejected(t *testing.T) {
	relay := &stubAuthRelay{}
	handler := Register(relay, nil)

	body := `{"email":"new@example.com","first_name":"Asha","last_name":"Rao","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
