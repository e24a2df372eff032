package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	pkgerrors "github.com/veloura/storefront/pkg/errors"
	pkgstripe "github.com/veloura/storefront/pkg/stripe"
)

// IntentAPI is the subset of Stripe payment-intent operations the gateway
// needs, extracted so the service can be tested without the network.
type IntentAPI interface {
	Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(ctx context.Context, id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type intentAPIWrapper struct{}

// NewIntentAPI wraps the initialized Stripe client.
func NewIntentAPI(api *pkgstripe.Client) IntentAPI {
	if api == nil {
		return nil
	}
	return &intentAPIWrapper{}
}

func (w *intentAPIWrapper) Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}

func (w *intentAPIWrapper) Get(ctx context.Context, id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.Get(id, params)
}

// Intent is the slice of a payment intent exposed to the client.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// Service creates and inspects payment intents for the online payment
// method. The gateway keeps no intent state; Stripe owns it.
type Service interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (*Intent, error)
	IntentStatus(ctx context.Context, id string) (*Intent, error)
}

type service struct {
	api             IntentAPI
	defaultCurrency string
}

func NewService(api IntentAPI, defaultCurrency string) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("intent api required")
	}
	if defaultCurrency == "" {
		defaultCurrency = "inr"
	}
	return &service{api: api, defaultCurrency: strings.ToLower(defaultCurrency)}, nil
}

func (s *service) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (*Intent, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "intent amount must be positive")
	}
	if currency == "" {
		currency = s.defaultCurrency
	}

	minorUnits := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minorUnits),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}

	created, err := s.api.Create(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "creating payment intent")
	}
	return &Intent{
		ID:           created.ID,
		ClientSecret: created.ClientSecret,
		Status:       string(created.Status),
	}, nil
}

func (s *service) IntentStatus(ctx context.Context, id string) (*Intent, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "intent id is required")
	}

	found, err := s.api.Get(ctx, id, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "fetching payment intent")
	}
	return &Intent{
		ID:     found.ID,
		Status: string(found.Status),
	}, nil
}
