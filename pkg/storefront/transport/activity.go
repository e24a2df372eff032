package transport

import (
	"net/http"
	"sync"
	"time"
)

// DefaultBusyThreshold is how long a request must be in flight before Busy
// reports true. Short enough to feel responsive, long enough that fast
// responses never flash a loading indicator.
const DefaultBusyThreshold = 200 * time.Millisecond

// ActivityTransport counts in-flight requests so a UI can drive a loading
// indicator. It is independent of CredentialTransport and can wrap any
// RoundTripper.
type ActivityTransport struct {
	base      http.RoundTripper
	threshold time.Duration

	mu       sync.Mutex
	inflight int
	since    time.Time
}

func NewActivityTransport(base http.RoundTripper, threshold time.Duration) *ActivityTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if threshold <= 0 {
		threshold = DefaultBusyThreshold
	}
	return &ActivityTransport{base: base, threshold: threshold}
}

func (t *ActivityTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.begin()
	resp, err := t.base.RoundTrip(req)
	t.end()
	return resp, err
}

func (t *ActivityTransport) begin() {
	t.mu.Lock()
	if t.inflight == 0 {
		t.since = time.Now()
	}
	t.inflight++
	t.mu.Unlock()
}

func (t *ActivityTransport) end() {
	t.mu.Lock()
	if t.inflight > 0 {
		t.inflight--
	}
	t.mu.Unlock()
}

// InFlight reports the current number of outstanding requests.
func (t *ActivityTransport) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inflight
}

// Busy reports whether any request has been in flight longer than the
// threshold.
func (t *ActivityTransport) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inflight > 0 && time.Since(t.since) >= t.threshold
}
