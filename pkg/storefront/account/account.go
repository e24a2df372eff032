// Package account mirrors the shopper's profile and order history through
// the gateway. All calls are read-mostly; the one write is the profile
// update. A 404 on profile lookup while holding a bearer token means the
// local session no longer matches upstream and forces a logout rather than a
// retry loop.
package account

import (
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

	pkgerrors "github.com/veloura/storefront/pkg/errors"
	"github.com/veloura/storefront/pkg/logger"
	"github.com/veloura/storefront/pkg/sched"
	"github.com/veloura/storefront/pkg/storefront/session"
	"github.com/veloura/storefront/pkg/types"
)

// Profile is the gateway's customer record.
type Profile struct {
	ID        int64               `json:"id"`
	Email     string              `json:"email"`
	FirstName string              `json:"first_name"`
	LastName  string              `json:"last_name"`
	Billing   types.AddressRecord `json:"billing"`
	Shipping  types.AddressRecord `json:"shipping"`
}

// Client fetches account state for the current session.
type Client struct {
	http    *http.Client
	baseURL string
	session *session.Session
	logg    *logger.Logger

	mu      sync.Mutex
	profile *Profile
	orders  []types.Order
	stale   bool

	poller *sched.Runner
}

func New(httpClient *http.Client, baseURL string, sess *session.Session, logg *logger.Logger) (*Client, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if sess == nil {
		return nil, fmt.Errorf("session is required")
	}
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("gateway base url is required")
	}
	return &Client{http: httpClient, baseURL: baseURL, session: sess, logg: logg}, nil
}

// Profile returns the cached profile, fetching it on first use.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	c.mu.Lock()
	if cached := c.profile; cached != nil {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()
	return c.refreshProfile(ctx)
}

func (c *Client) refreshProfile(ctx context.Context) (*Profile, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}

	email := c.session.Identity().Email
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session has no identity email")
	}

	var profile Profile
	query := url.Values{"email": {email}}
	status, err := c.get(ctx, "/user/profile", query, &profile)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, c.forceLogout(ctx)
		}
		return nil, err
	}

	c.mu.Lock()
	c.profile = &profile
	c.mu.Unlock()
	return &profile, nil
}

// Orders returns the order history for the fetched profile.
func (c *Client) Orders(ctx context.Context) ([]types.Order, error) {
	profile, err := c.Profile(ctx)
	if err != nil {
		return nil, err
	}

	var orders []types.Order
	query := url.Values{"customer_id": {strconv.FormatInt(profile.ID, 10)}}
	if _, err := c.get(ctx, "/user/orders", query, &orders); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.orders = orders
	c.mu.Unlock()
	return orders, nil
}

// CachedOrders returns the last fetched history without a network call.
func (c *Client) CachedOrders() []types.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orders
}

// SavedAddresses supplies checkout draft hydration.
func (c *Client) SavedAddresses(ctx context.Context) (types.AddressRecord, types.AddressRecord, error) {
	profile, err := c.Profile(ctx)
	if err != nil {
		return types.AddressRecord{}, types.AddressRecord{}, err
	}
	return profile.Billing, profile.Shipping, nil
}

// StartPolling refreshes profile and orders on the given interval. Ticks are
// read-only and never overlap; a tick that fails on a stale session stops
// fetching entirely.
func (c *Client) StartPolling(ctx context.Context, interval time.Duration) {
	c.mu.Lock()
	if c.poller != nil {
		c.mu.Unlock()
		return
	}
	runner := sched.NewRunner(interval, func(tickCtx context.Context) {
		if _, err := c.refreshProfile(tickCtx); err != nil {
			return
		}
		if _, err := c.Orders(tickCtx); err != nil && c.logg != nil {
			c.logg.Warn(tickCtx, "account.orders_refresh_failed")
		}
	})
	c.poller = runner
	c.mu.Unlock()

	runner.Start(ctx)
}

func (c *Client) StopPolling() {
	c.mu.Lock()
	runner := c.poller
	c.poller = nil
	c.mu.Unlock()
	if runner != nil {
		runner.Stop()
	}
}

// guard blocks any call once the session was found stale or is anonymous.
func (c *Client) guard() error {
	c.mu.Lock()
	stale := c.stale
	c.mu.Unlock()
	if stale {
		return pkgerrors.New(pkgerrors.CodeSessionStale, "session is stale, log in again")
	}
	if !c.session.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "not logged in")
	}
	return nil
}

// forceLogout tears the local session down after upstream disowned it.
func (c *Client) forceLogout(ctx context.Context) error {
	c.mu.Lock()
	c.stale = true
	c.profile = nil
	c.orders = nil
	c.mu.Unlock()

	if c.logg != nil {
		c.logg.Warn(ctx, "account.session_stale_forced_logout")
	}
	if err := c.session.Logout(); err != nil && c.logg != nil {
		c.logg.Error(ctx, "account.logout_cleanup_failed", err)
	}
	return pkgerrors.New(pkgerrors.CodeSessionStale, "account no longer exists upstream, logged out")
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) (int, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "account call failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "reading account response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := extractMessage(raw)
		if message == "" {
			message = fmt.Sprintf("account call rejected with status %d", resp.StatusCode)
		}
		return resp.StatusCode, pkgerrors.New(pkgerrors.CodeUpstreamRejected, message).WithUpstreamStatus(resp.StatusCode)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeUpstreamRejected, err, "unreadable account response")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeUpstreamRejected, err, "unreadable account payload")
	}
	return resp.StatusCode, nil
}

func extractMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Error.Message
}
