package nse_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"banktrack/pkg/nse"

	"go.uber.org/zap"
)

const indexPayload = `{
	"name": "NIFTY BANK",
	"timestamp": "26-Aug-2025 15:30:00",
	"data": [
		{"priority": 1, "symbol": "NIFTY BANK", "lastPrice": 51234.55},
		{"priority": 0, "symbol": "HDFCBANK", "lastPrice": 1650.4, "previousClose": 1641.1,
		 "dayHigh": 1662.0, "dayLow": 1640.0, "totalTradedVolume": 1234567,
		 "meta": {"companyName": "HDFC Bank Limited"}},
		{"priority": 0, "symbol": "ICICIBANK", "lastPrice": 1201.2,
		 "meta": {"companyName": "ICICI Bank Limited"}}
	]
}`

// newExchange returns a stub exchange that hands out a cookie on "/" and
// requires it on the API path.
func newExchange(t *testing.T, handshakes *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			atomic.AddInt32(handshakes, 1)
			http.SetCookie(w, &http.Cookie{Name: "nsit", Value: "abc123"})
			w.WriteHeader(http.StatusOK)
		case "/api/equity-stockIndices":
			if c, err := r.Cookie("nsit"); err != nil || c.Value != "abc123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(indexPayload))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestIndexQuote(t *testing.T) {
	var handshakes int32
	srv := newExchange(t, &handshakes)
	defer srv.Close()

	session := nse.NewSession(srv.URL, 2*time.Second, 15*time.Minute, zap.NewNop())
	client := nse.NewClient(srv.URL, 2*time.Second, session, zap.NewNop())

	resp, err := client.IndexQuote(context.Background(), "NIFTY BANK")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, ok := resp.IndexValue(); !ok || v != 51234.55 {
		t.Errorf("index value = %v (ok=%v), want 51234.55", v, ok)
	}

	rows := resp.ConstituentRows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 constituent rows, got %d", len(rows))
	}
	hdfc, ok := rows["HDFCBANK"]
	if !ok || hdfc.LastPrice == nil || *hdfc.LastPrice != 1650.4 {
		t.Errorf("unexpected HDFCBANK row: %+v", hdfc)
	}
	if hdfc.Meta.CompanyName != "HDFC Bank Limited" {
		t.Errorf("unexpected company name: %q", hdfc.Meta.CompanyName)
	}
}

func TestSessionReuse(t *testing.T) {
	var handshakes int32
	srv := newExchange(t, &handshakes)
	defer srv.Close()

	session := nse.NewSession(srv.URL, 2*time.Second, 15*time.Minute, zap.NewNop())
	client := nse.NewClient(srv.URL, 2*time.Second, session, zap.NewNop())

	for i := 0; i < 3; i++ {
		if _, err := client.IndexQuote(context.Background(), "NIFTY BANK"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	if n := atomic.LoadInt32(&handshakes); n != 1 {
		t.Errorf("expected a single handshake across calls, got %d", n)
	}
}

func TestSessionExpiryRehandshakes(t *testing.T) {
	var handshakes int32
	srv := newExchange(t, &handshakes)
	defer srv.Close()

	// Validity so short the token is already stale on the second call.
	session := nse.NewSession(srv.URL, 2*time.Second, time.Nanosecond, zap.NewNop())

	if _, err := session.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := session.Acquire(context.Background()); err != nil {
		t.Fatalf("second acquire: %v", err)
	}

	if n := atomic.LoadInt32(&handshakes); n != 2 {
		t.Errorf("expected re-handshake after expiry, got %d handshakes", n)
	}
}

func TestSessionInvalidate(t *testing.T) {
	var handshakes int32
	srv := newExchange(t, &handshakes)
	defer srv.Close()

	session := nse.NewSession(srv.URL, 2*time.Second, 15*time.Minute, zap.NewNop())

	if _, err := session.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	session.Invalidate()
	if _, err := session.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after invalidate: %v", err)
	}

	if n := atomic.LoadInt32(&handshakes); n != 2 {
		t.Errorf("expected handshake after invalidate, got %d handshakes", n)
	}
}

func TestAuthErrorInvalidatesSession(t *testing.T) {
	var handshakes int32
	var apiCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			atomic.AddInt32(&handshakes, 1)
			http.SetCookie(w, &http.Cookie{Name: "nsit", Value: "abc123"})
		case "/api/equity-stockIndices":
			// First API call rejects the session, later ones accept it.
			if atomic.AddInt32(&apiCalls, 1) == 1 {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(indexPayload))
		}
	}))
	defer srv.Close()

	session := nse.NewSession(srv.URL, 2*time.Second, 15*time.Minute, zap.NewNop())
	client := nse.NewClient(srv.URL, 2*time.Second, session, zap.NewNop())

	_, err := client.IndexQuote(context.Background(), "NIFTY BANK")
	if !errors.Is(err, nse.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	// Recovery path: the next call re-handshakes and succeeds.
	if _, err := client.IndexQuote(context.Background(), "NIFTY BANK"); err != nil {
		t.Fatalf("expected recovery after invalidation, got %v", err)
	}
	if n := atomic.LoadInt32(&handshakes); n != 2 {
		t.Errorf("expected 2 handshakes, got %d", n)
	}
}

func TestHandshakeFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	session := nse.NewSession(srv.URL, 2*time.Second, 15*time.Minute, zap.NewNop())
	client := nse.NewClient(srv.URL, 2*time.Second, session, zap.NewNop())

	_, err := client.IndexQuote(context.Background(), "NIFTY BANK")
	if !errors.Is(err, nse.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
