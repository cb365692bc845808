// Package yahoo is the secondary quote source: a public aggregator used when
// the exchange's own API is degraded, and for supplementary data (shares
// outstanding, market cap, 52-week range) the exchange does not serve.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// suffix maps exchange symbols onto the aggregator's namespace.
const symbolSuffix = ".NS"

var (
	priceFields = "regularMarketPrice,regularMarketPreviousClose,regularMarketDayHigh,regularMarketDayLow,regularMarketVolume,currency,marketState"
	extraFields = "sharesOutstanding,marketCap,fiftyTwoWeekHigh,fiftyTwoWeekLow"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Quote fetches the price fields for one symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*QuoteResult, error) {
	return c.fetch(ctx, symbol, priceFields)
}

// Summary fetches the supplementary fields (issued size, market cap, 52-week
// range) for one symbol. These change far less often than the price and are
// cached under a longer TTL by the caller.
func (c *Client) Summary(ctx context.Context, symbol string) (*QuoteResult, error) {
	return c.fetch(ctx, symbol, extraFields)
}

func (c *Client) fetch(ctx context.Context, symbol, fields string) (*QuoteResult, error) {
	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s&fields=%s",
		c.baseURL, url.QueryEscape(symbol+symbolSuffix), url.QueryEscape(fields))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("quote error: status %d: %s", resp.StatusCode, body)
	}

	var envelope quoteEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(envelope.QuoteResponse.Result) == 0 {
		return nil, errors.New("empty quote result")
	}

	return &envelope.QuoteResponse.Result[0], nil
}
