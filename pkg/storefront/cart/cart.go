// Package cart mirrors the upstream cart through the gateway relay. The
// upstream platform owns every total; this synchronizer never computes
// money, it replaces its snapshot wholesale with whatever the server
// returned.
package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/veloura/storefront/pkg/errors"
	"github.com/veloura/storefront/pkg/types"
)

// cacheBusterKey defeats intermediary caches that would otherwise serve a
// stale empty cart to a brand-new session.
const cacheBusterKey = "_vt"

type CartItem struct {
	Key       string          `json:"key"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

type CartSnapshot struct {
	Items  []CartItem `json:"items"`
	Totals Totals     `json:"totals"`
}

// PlacementResult is the upstream checkout response, passed through
// verbatim. Interpretation belongs to the checkout orchestrator.
type PlacementResult struct {
	OrderID int64           `json:"order_id"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Raw     json.RawMessage `json:"-"`
}

// CheckoutPayload is the placement body submitted to the upstream store API.
type CheckoutPayload struct {
	Billing       types.AddressRecord `json:"billing"`
	Shipping      types.AddressRecord `json:"shipping"`
	PaymentMethod types.PaymentMethod `json:"payment_method"`
	IntentID      string              `json:"payment_intent_id,omitempty"`
}

// Synchronizer issues cart mutations through the gateway and caches the last
// authoritative snapshot. Concurrent mutations are not serialized here; the
// upstream serializes writes per cart token and the last response wins.
type Synchronizer struct {
	client  *http.Client
	baseURL string

	mu       sync.Mutex
	snapshot *CartSnapshot
}

// New builds a synchronizer talking to the gateway at baseURL. The client
// should carry the credential transport so nonce/cart-token rotation is
// handled below this layer.
func New(client *http.Client, baseURL string) (*Synchronizer, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("gateway base url is required")
	}
	return &Synchronizer{client: client, baseURL: baseURL}, nil
}

// Current returns the last snapshot, or nil before the first load.
func (s *Synchronizer) Current() *CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Clear drops the local mirror. Used on logout and after order placement;
// the upstream cart is not touched.
func (s *Synchronizer) Clear() {
	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()
}

// ReloadAfterAuthChange re-fetches the cart after a login or logout. The
// settle delay gives the identity provider time to propagate the new session
// upstream before the fetch; without it the first load after login can still
// see the anonymous cart.
func (s *Synchronizer) ReloadAfterAuthChange(ctx context.Context, settle time.Duration) (*CartSnapshot, error) {
	if settle > 0 {
		select {
		case <-time.After(settle):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.Load(ctx)
}

// Load fetches the current cart. Safe to call repeatedly.
func (s *Synchronizer) Load(ctx context.Context) (*CartSnapshot, error) {
	query := url.Values{cacheBusterKey: {strconv.FormatInt(time.Now().UnixNano(), 10)}}
	return s.mutate(ctx, http.MethodGet, "/store/cart", query, nil)
}

// AddItem puts quantity units of a product in the cart. Quantity defaults
// upstream to 1 when zero.
func (s *Synchronizer) AddItem(ctx context.Context, productID int64, quantity int) (*CartSnapshot, error) {
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	if quantity < 1 {
		quantity = 1
	}
	body := map[string]any{"product_id": productID, "quantity": quantity}
	return s.mutate(ctx, http.MethodPost, "/store/cart/add", nil, body)
}

func (s *Synchronizer) RemoveItem(ctx context.Context, key string) (*CartSnapshot, error) {
	if strings.TrimSpace(key) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item key is required")
	}
	body := map[string]any{"key": key}
	return s.mutate(ctx, http.MethodPost, "/store/cart/remove", nil, body)
}

// UpdateItem sets the quantity for an existing line. Quantities below one
// are rejected before any network call; removal is an explicit operation.
func (s *Synchronizer) UpdateItem(ctx context.Context, key string, quantity int) (*CartSnapshot, error) {
	if strings.TrimSpace(key) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item key is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	body := map[string]any{"key": key, "quantity": quantity}
	return s.mutate(ctx, http.MethodPost, "/store/cart/update", nil, body)
}

// Checkout submits the placement call and returns the upstream result
// verbatim. The local snapshot is left untouched; clearing after success is
// the orchestrator's decision.
func (s *Synchronizer) Checkout(ctx context.Context, payload CheckoutPayload) (*PlacementResult, error) {
	raw, err := s.do(ctx, http.MethodPost, "/store/checkout", nil, payload)
	if err != nil {
		return nil, err
	}

	result := PlacementResult{Raw: raw}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentAmbiguous, err, "unreadable placement response")
	}
	return &result, nil
}

// mutate performs one call and replaces the snapshot on success. Prior state
// is untouched on any failure.
func (s *Synchronizer) mutate(ctx context.Context, method, path string, query url.Values, body any) (*CartSnapshot, error) {
	raw, err := s.do(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	var snapshot CartSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamRejected, err, "unreadable cart response")
	}

	s.mu.Lock()
	s.snapshot = &snapshot
	s.mu.Unlock()
	return &snapshot, nil
}

func (s *Synchronizer) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	target := s.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "cart call failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "reading cart response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, rejectionError(resp.StatusCode, raw)
	}
	return raw, nil
}

func rejectionError(status int, body []byte) *pkgerrors.Error {
	message := extractMessage(body)
	if message == "" {
		message = fmt.Sprintf("cart call rejected with status %d", status)
	}
	code := pkgerrors.CodeUpstreamRejected
	if status == http.StatusUnauthorized {
		code = pkgerrors.CodeUnauthorized
	}
	return pkgerrors.New(code, message).
		WithUpstreamStatus(status).
		WithDetails(map[string]any{"status": status})
}

func extractMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return envelope.Message
}
