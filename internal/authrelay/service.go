package authrelay

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	pkgerrors "github.com/veloura/storefront/pkg/errors"
)

// upstreamCaller is the slice of the upstream client the relay needs.
type upstreamCaller interface {
	DoServiceJSON(ctx context.Context, method, subpath string, query url.Values, body, out any) error
	DoPublicJSON(ctx context.Context, method, subpath string, query url.Values, body, out any) error
}

// Service proxies login/registration to the upstream identity provider and
// normalizes its error vocabulary. No secrets are retained here; the bearer
// token goes straight back to the caller.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Identity, error)
	Login(ctx context.Context, identifier, secret string) (*LoginResult, error)
}

type service struct {
	upstream    upstreamCaller
	authPrefix  string
	adminPrefix string
}

func NewService(upstream upstreamCaller, authPrefix, adminPrefix string) (Service, error) {
	if upstream == nil {
		return nil, fmt.Errorf("upstream caller required")
	}
	return &service{
		upstream:    upstream,
		authPrefix:  authPrefix,
		adminPrefix: adminPrefix,
	}, nil
}

// RegisterInput is the new-account payload relayed upstream.
type RegisterInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// Identity is the upstream account record returned after registration.
type Identity struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginResult carries the bearer token plus display identity. The client owns
// storage and logout-time clearing.
type LoginResult struct {
	Token       string `json:"token"`
	Email       string `json:"user_email"`
	DisplayName string `json:"user_display_name"`
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*Identity, error) {
	var identity Identity
	err := s.upstream.DoServiceJSON(ctx, http.MethodPost, s.adminPrefix+"/customers", nil, input, &identity)
	if err != nil {
		return nil, sanitized(err)
	}
	return &identity, nil
}

func (s *service) Login(ctx context.Context, identifier, secret string) (*LoginResult, error) {
	if identifier == "" || secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identifier and secret are required")
	}

	payload := map[string]string{"username": identifier, "password": secret}
	var result LoginResult
	err := s.upstream.DoPublicJSON(ctx, http.MethodPost, s.authPrefix+"/token", nil, payload, &result)
	if err != nil {
		return nil, sanitized(err)
	}
	if result.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstreamRejected, "identity provider returned no token")
	}
	return &result, nil
}

// sanitized rewrites the identity provider's message on a typed upstream
// error while preserving its code and status.
func sanitized(err error) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err
	}
	clean := SanitizeMessage(typed.Message())
	if clean == typed.Message() {
		return err
	}
	replacement := pkgerrors.New(typed.Code(), clean).WithUpstreamStatus(typed.UpstreamStatus())
	if details := typed.Details(); details != nil {
		replacement = replacement.WithDetails(details)
	}
	return replacement
}
