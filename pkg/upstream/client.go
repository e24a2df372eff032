package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/veloura/storefront/pkg/config"
	pkgerrors "github.com/veloura/storefront/pkg/errors"
)

var (
	errBaseURLRequired = errors.New("upstream base url is required")
	errKeyPairRequired = errors.New("upstream service key pair is required")
)

// Client talks to the external commerce platform. One instance is shared by
// every gateway component; it holds no per-user state.
type Client struct {
	base          *url.URL
	httpc         *http.Client
	serviceKey    string
	serviceSecret string
	userAgent     string
}

// NewClient builds the shared upstream client with a bounded timeout and
// instrumented transport.
func NewClient(cfg config.UpstreamConfig) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errBaseURLRequired
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream base url: %w", err)
	}
	if strings.TrimSpace(cfg.ServiceKey) == "" || strings.TrimSpace(cfg.ServiceSecret) == "" {
		return nil, errKeyPairRequired
	}

	return &Client{
		base: base,
		httpc: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		serviceKey:    cfg.ServiceKey,
		serviceSecret: cfg.ServiceSecret,
		userAgent:     cfg.UserAgent,
	}, nil
}

// URL resolves a sub-path plus query against the configured base.
func (c *Client) URL(subpath string, query url.Values) string {
	joined := *c.base
	joined.Path = strings.TrimSuffix(joined.Path, "/") + "/" + strings.TrimPrefix(subpath, "/")
	if query != nil {
		joined.RawQuery = query.Encode()
	}
	return joined.String()
}

// Host returns the upstream host the client targets.
func (c *Client) Host() string {
	return c.base.Host
}

// UserAgent returns the fixed outbound user agent.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Do sends a pre-built request through the shared transport. Used by the
// relay, which constructs its own header set.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return c.httpc.Do(req)
}

// DoServiceJSON issues a service-credentialed JSON call and decodes the
// response into out (which may be nil). These calls carry the administrative
// key pair and must never forward user session tokens.
func (c *Client) DoServiceJSON(ctx context.Context, method, subpath string, query url.Values, body, out any) error {
	return c.doJSON(ctx, method, subpath, query, body, out, true)
}

// DoPublicJSON issues an uncredentialed JSON call. The identity provider's
// login/token exchange authenticates with the request body itself.
func (c *Client) DoPublicJSON(ctx context.Context, method, subpath string, query url.Values, body, out any) error {
	return c.doJSON(ctx, method, subpath, query, body, out, false)
}

func (c *Client) doJSON(ctx context.Context, method, subpath string, query url.Values, body, out any, withServiceAuth bool) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding upstream request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(subpath, query), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building upstream request")
	}
	if withServiceAuth {
		req.SetBasicAuth(c.serviceKey, c.serviceSecret)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "calling upstream")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "reading upstream response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RejectionError(resp.StatusCode, payload)
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUpstreamRejected, err, "decoding upstream response").
				WithUpstreamStatus(resp.StatusCode)
		}
	}
	return nil
}

// RejectionError converts a non-2xx upstream response into a typed error,
// preserving the original status and message so callers can propagate them
// verbatim.
func RejectionError(status int, body []byte) *pkgerrors.Error {
	message := upstreamMessage(body)
	if message == "" {
		message = http.StatusText(status)
	}
	code := pkgerrors.CodeUpstreamRejected
	if status == http.StatusNotFound {
		code = pkgerrors.CodeNotFound
	}
	return pkgerrors.New(code, message).
		WithUpstreamStatus(status).
		WithDetails(map[string]any{"status": status, "body": string(body)})
}

func upstreamMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}
