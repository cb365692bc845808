package nse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Client talks to the exchange's session-authenticated REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, session *Session, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		session:    session,
		logger:     logger,
	}
}

// IndexQuote fetches the full quote page for one index: the index row plus
// one row per constituent, in one round trip. An authorization-class response
// invalidates the session before returning ErrSessionExpired, so the next
// call re-handshakes instead of reusing stale cookies.
func (c *Client) IndexQuote(ctx context.Context, index string) (*IndexQuoteResponse, error) {
	cookies, err := c.session.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/equity-stockIndices?index=%s",
		c.baseURL, url.QueryEscape(index))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	setBrowserHeaders(req)
	req.Header.Set("Referer", c.baseURL+"/")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.session.Invalidate()
		return nil, fmt.Errorf("%w: status %d", ErrSessionExpired, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, body)
	}

	var result IndexQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	return &result, nil
}

// IndexValue extracts the index's own last price from a quote response.
func (r *IndexQuoteResponse) IndexValue() (float64, bool) {
	for _, row := range r.Data {
		if row.Symbol == r.Name && row.LastPrice != nil {
			return *row.LastPrice, true
		}
	}
	return 0, false
}

// ConstituentRows returns the non-index rows keyed by symbol.
func (r *IndexQuoteResponse) ConstituentRows() map[string]IndexRow {
	rows := make(map[string]IndexRow, len(r.Data))
	for _, row := range r.Data {
		if row.Symbol == r.Name {
			continue
		}
		rows[row.Symbol] = row
	}
	return rows
}
