package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/veloura/storefront/internal/relay"
	"github.com/veloura/storefront/pkg/config"
	"github.com/veloura/storefront/pkg/upstream"
)

func newRelayService(t *testing.T, upstreamURL string) *relay.Service {
	t.Helper()
	client, err := upstream.NewClient(config.UpstreamConfig{
		BaseURL:       upstreamURL,
		ServiceKey:    "sk_test",
		ServiceSecret: "ss_test",
	})
	if err != nil {
		t.Fatalf("new upstream client: %v", err)
	}
	svc, err := relay.NewService(client, "/store/v1", nil, nil)
	if err != nil {
		t.Fatalf("new relay service: %v", err)
	}
	return svc
}

func TestStoreRelay_ForwardsWildcardPath(t *testing.T) {
	var gotPath, gotQuery string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Nonce", "rotated-nonce")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"items":[]}`))
	}))
	defer backend.Close()

	svc := newRelayService(t, backend.URL)
	router := chi.NewRouter()
	router.Handle("/store/*", StoreRelay(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/store/cart/items?_vt=123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if gotPath != "/store/v1/cart/items" {
		t.Fatalf("unexpected upstream path: %s", gotPath)
	}
	if gotQuery != "_vt=123" {
		t.Fatalf("query lost in relay: %s", gotQuery)
	}
	if rec.Header().Get("Nonce") != "rotated-nonce" {
		t.Fatal("rotated nonce not exposed")
	}
}

func TestStoreRelay_NoServiceIs500(t *testing.T) {
	router := chi.NewRouter()
	router.Handle("/store/*", StoreRelay(nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/store/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}
