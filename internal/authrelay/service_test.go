package authrelay

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	pkgerrors "github.com/veloura/storefront/pkg/errors"
)

type stubUpstream struct {
	serviceCalls []string
	publicCalls  []string
	serviceErr   error
	publicErr    error
	loginResult  *LoginResult
	identity     *Identity
	lastBody     any
}

func (s *stubUpstream) DoServiceJSON(ctx context.Context, method, subpath string, query url.Values, body, out any) error {
	s.serviceCalls = append(s.serviceCalls, method+" "+subpath)
	s.lastBody = body
	if s.serviceErr != nil {
		return s.serviceErr
	}
	if ident, ok := out.(*Identity); ok && s.identity != nil {
		*ident = *s.identity
	}
	return nil
}

func (s *stubUpstream) DoPublicJSON(ctx context.Context, method, subpath string, query url.Values, body, out any) error {
	s.publicCalls = append(s.publicCalls, method+" "+subpath)
	s.lastBody = body
	if s.publicErr != nil {
		return s.publicErr
	}
	if res, ok := out.(*LoginResult); ok && s.loginResult != nil {
		*res = *s.loginResult
	}
	return nil
}

func TestLoginExchangesCredentials(t *testing.T) {
	stub := &stubUpstream{loginResult: &LoginResult{Token: "jwt-abc", Email: "jane@example.com", DisplayName: "Jane"}}
	svc, err := NewService(stub, "/auth/v1", "/admin/v1")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	result, err := svc.Login(context.Background(), "jane@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Token != "jwt-abc" {
		t.Fatalf("token = %q", result.Token)
	}
	if len(stub.publicCalls) != 1 || stub.publicCalls[0] != "POST /auth/v1/token" {
		t.Fatalf("unexpected upstream calls: %v", stub.publicCalls)
	}
	if len(stub.serviceCalls) != 0 {
		t.Fatal("login must never use service credentials")
	}
}

func TestLoginRewritesIncorrectPasswordError(t *testing.T) {
	stub := &stubUpstream{
		publicErr: pkgerrors.New(pkgerrors.CodeUpstreamRejected,
			`<strong>Error:</strong> The password you entered for the username <strong>jane</strong> is incorrect.`).
			WithUpstreamStatus(http.StatusForbidden),
	}
	svc, _ := NewService(stub, "/auth/v1", "/admin/v1")

	_, err := svc.Login(context.Background(), "jane", "wrong")
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Message() != "Incorrect email or password." {
		t.Fatalf("message = %q", typed.Message())
	}
	if typed.UpstreamStatus() != http.StatusForbidden {
		t.Fatalf("upstream status lost: %d", typed.UpstreamStatus())
	}
}

func TestLoginRejectsEmptyInputsBeforeNetwork(t *testing.T) {
	stub := &stubUpstream{}
	svc, _ := NewService(stub, "/auth/v1", "/admin/v1")

	if _, err := svc.Login(context.Background(), "", ""); err == nil {
		t.Fatal("expected validation error")
	}
	if len(stub.publicCalls) != 0 {
		t.Fatal("no network call should be made for empty credentials")
	}
}

func TestLoginRejectsTokenlessSuccess(t *testing.T) {
	stub := &stubUpstream{loginResult: &LoginResult{}}
	svc, _ := NewService(stub, "/auth/v1", "/admin/v1")

	if _, err := svc.Login(context.Background(), "jane", "pw"); err == nil {
		t.Fatal("expected error when provider returns no token")
	}
}

func TestRegisterCreatesUpstreamAccount(t *testing.T) {
	stub := &stubUpstream{identity: &Identity{ID: 42, Email: "new@example.com"}}
	svc, _ := NewService(stub, "/auth/v1", "/admin/v1")

	identity, err := svc.Register(context.Background(), RegisterInput{
		Email:     "new@example.com",
		FirstName: "New",
		LastName:  "User",
		Password:  "pw123456",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if identity.ID != 42 {
		t.Fatalf("identity id = %d", identity.ID)
	}
	if len(stub.serviceCalls) != 1 || stub.serviceCalls[0] != "POST /admin/v1/customers" {
		t.Fatalf("unexpected upstream calls: %v", stub.serviceCalls)
	}
}
