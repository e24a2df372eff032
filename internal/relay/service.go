package relay

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/veloura/storefront/pkg/logger"
	"github.com/veloura/storefront/pkg/metrics"
	"github.com/veloura/storefront/pkg/protocol"
	"github.com/veloura/storefront/pkg/upstream"
)

// Cache-Control applied to every relay response. Commerce state must never be
// served from a cache.
const noStore = "no-store, no-cache, must-revalidate"

const metricRoute = "store_relay"

// Service forwards client calls to the upstream cart/checkout sub-API. It is
// stateless: one inbound call maps to exactly one outbound call and nothing
// is retained between them.
type Service struct {
	client      *upstream.Client
	storePrefix string
	metrics     *metrics.RelayMetrics
	logg        *logger.Logger
}

func NewService(client *upstream.Client, storePrefix string, m *metrics.RelayMetrics, logg *logger.Logger) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("upstream client required")
	}
	return &Service{
		client:      client,
		storePrefix: strings.TrimSuffix(storePrefix, "/"),
		metrics:     m,
		logg:        logg,
	}, nil
}

// Relay forwards the inbound request to the upstream store API, preserving
// the sub-path, query, method and body, and re-exposes rotated credentials on
// the response.
func (s *Service) Relay(w http.ResponseWriter, r *http.Request, subpath string) {
	ctx := r.Context()
	if s.logg != nil {
		ctx = s.logg.WithUpstreamPath(ctx, subpath)
	}

	target := s.client.URL(s.storePrefix+"/"+strings.TrimPrefix(subpath, "/"), nil)
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	out, err := http.NewRequestWithContext(ctx, r.Method, target, r.Body)
	if err != nil {
		s.writeGatewayFailure(w, "invalid relay target")
		return
	}
	out.Header = make(http.Header)
	copyForwardable(out.Header, r.Header)
	out.Host = s.client.Host()

	s.metrics.InflightInc()
	start := time.Now()
	resp, err := s.client.Do(out)
	s.metrics.InflightDec()

	if err != nil {
		s.metrics.ObserveCall(metricRoute, 0, time.Since(start))
		if s.logg != nil {
			s.logg.Error(ctx, "relay.upstream_unreachable", err)
		}
		s.writeGatewayFailure(w, "upstream service unavailable")
		return
	}
	defer resp.Body.Close()

	s.metrics.ObserveCall(metricRoute, resp.StatusCode, time.Since(start))
	s.exposeResponseHeaders(w.Header(), resp)

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "relay.response_copy_interrupted")
	}
}

// exposeResponseHeaders surfaces rotated credentials and session cookies to
// the client and forbids caching of the response.
func (s *Service) exposeResponseHeaders(dst http.Header, resp *http.Response) {
	for _, cookie := range resp.Header.Values("Set-Cookie") {
		dst.Add("Set-Cookie", cookie)
	}
	protocol.SetNonce(dst, protocol.NonceFrom(resp.Header))
	protocol.SetCartToken(dst, protocol.CartTokenFrom(resp.Header))
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		dst.Set("Content-Type", ct)
	}
	dst.Set("Cache-Control", noStore)
}

func (s *Service) writeGatewayFailure(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", noStore)
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, `{"error":{"code":"UPSTREAM_UNAVAILABLE","message":%q}}`, message)
}
