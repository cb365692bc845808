package nse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnavailable indicates the primary source could not serve this cycle.
// Callers fall back to the secondary source rather than failing.
var ErrUnavailable = errors.New("primary source unavailable")

// ErrSessionExpired indicates an authorization-class response from the
// primary source; the session has already been invalidated when this is
// returned, so the next Acquire re-handshakes.
var ErrSessionExpired = errors.New("primary source session expired")

// Session maintains the cookie set required by the exchange API. The exchange
// hands out session cookies on a plain page load and rejects API calls made
// without them.
type Session struct {
	baseURL    string
	validity   time.Duration
	httpClient *http.Client
	logger     *zap.Logger

	mu      sync.Mutex
	cookies []*http.Cookie
	expiry  time.Time
}

func NewSession(baseURL string, timeout, validity time.Duration, logger *zap.Logger) *Session {
	return &Session{
		baseURL:    baseURL,
		validity:   validity,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Acquire returns the cached cookie set while it is still valid, otherwise
// performs a single handshake against the exchange landing page. A failed
// handshake returns ErrUnavailable; there is no retry loop here.
func (s *Session) Acquire(ctx context.Context) ([]*http.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cookies) > 0 && time.Now().Before(s.expiry) {
		return append([]*http.Cookie(nil), s.cookies...), nil
	}

	cookies, err := s.handshake(ctx)
	if err != nil {
		s.logger.Warn("session handshake failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.cookies = cookies
	s.expiry = time.Now().Add(s.validity)
	s.logger.Info("session established",
		zap.Int("cookies", len(cookies)),
		zap.Time("expiry", s.expiry))

	return append([]*http.Cookie(nil), s.cookies...), nil
}

// Invalidate drops the cached cookies so the next Acquire re-handshakes.
// Called by the fetch client on authorization-class API responses.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = nil
	s.expiry = time.Time{}
}

func (s *Session) handshake(ctx context.Context) ([]*http.Cookie, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	setBrowserHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("handshake status %d", resp.StatusCode)
	}

	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return nil, errors.New("handshake returned no cookies")
	}
	return cookies, nil
}

// setBrowserHeaders mimics a browser request; the exchange rejects obvious
// non-browser clients.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}
