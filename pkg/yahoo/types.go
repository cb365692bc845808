package yahoo

// quoteEnvelope is the v7 quote endpoint envelope.
type quoteEnvelope struct {
	QuoteResponse struct {
		Result []QuoteResult `json:"result"`
		Error  any           `json:"error"`
	} `json:"quoteResponse"`
}

// QuoteResult is one symbol's quote. Numeric fields decode as pointers so a
// field the aggregator omitted stays distinguishable from zero.
type QuoteResult struct {
	Symbol      string `json:"symbol"`
	Currency    string `json:"currency"`
	MarketState string `json:"marketState"` // e.g., "REGULAR", "CLOSED"

	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	RegularMarketPreviousClose *float64 `json:"regularMarketPreviousClose"`
	RegularMarketDayHigh       *float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        *float64 `json:"regularMarketDayLow"`
	RegularMarketVolume        *float64 `json:"regularMarketVolume"`

	SharesOutstanding *float64 `json:"sharesOutstanding"`
	MarketCap         *float64 `json:"marketCap"`
	FiftyTwoWeekHigh  *float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow   *float64 `json:"fiftyTwoWeekLow"`
}
