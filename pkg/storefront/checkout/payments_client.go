package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/veloura/storefront/pkg/errors"
)

// GatewayPayments implements PaymentIntents against the gateway's payment
// endpoints.
type GatewayPayments struct {
	client  *http.Client
	baseURL string
}

func NewGatewayPayments(client *http.Client, baseURL string) (*GatewayPayments, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("gateway base url is required")
	}
	return &GatewayPayments{client: client, baseURL: baseURL}, nil
}

type intentEnvelope struct {
	Data struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
		Status       string `json:"status"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *GatewayPayments) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (string, string, error) {
	body, err := json.Marshal(map[string]any{"amount": amount, "currency": currency})
	if err != nil {
		return "", "", fmt.Errorf("encoding intent request: %w", err)
	}

	envelope, err := g.call(ctx, http.MethodPost, "/payment/intent", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	return envelope.Data.ID, envelope.Data.ClientSecret, nil
}

func (g *GatewayPayments) IntentStatus(ctx context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "intent id is required")
	}
	envelope, err := g.call(ctx, http.MethodGet, "/payment/intent/"+id, nil)
	if err != nil {
		return "", err
	}
	return envelope.Data.Status, nil
}

func (g *GatewayPayments) call(ctx context.Context, method, path string, body io.Reader) (*intentEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "payment call failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "reading payment response")
	}

	var envelope intentEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentAmbiguous, err, "unreadable payment response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := envelope.Error.Message
		if message == "" {
			message = fmt.Sprintf("payment call rejected with status %d", resp.StatusCode)
		}
		return nil, pkgerrors.New(pkgerrors.CodeUpstreamRejected, message).WithUpstreamStatus(resp.StatusCode)
	}
	return &envelope, nil
}
