package nse

// IndexQuoteResponse is the payload of /api/equity-stockIndices. The first
// row of Data is the index itself (symbol equals the index name); the
// remaining rows are the constituents.
type IndexQuoteResponse struct {
	Name      string     `json:"name"`      // e.g., "NIFTY BANK"
	Timestamp string     `json:"timestamp"` // exchange-local, e.g., "26-Aug-2025 15:30:00"
	Data      []IndexRow `json:"data"`
}

// IndexRow is one row of an index quote response. Numeric fields are pointers:
// the exchange omits fields it has no value for, and absence must stay
// distinguishable from zero.
type IndexRow struct {
	Priority int    `json:"priority"` // 1 marks the index row itself
	Symbol   string `json:"symbol"`

	Open              *float64 `json:"open"`
	DayHigh           *float64 `json:"dayHigh"`
	DayLow            *float64 `json:"dayLow"`
	LastPrice         *float64 `json:"lastPrice"`
	PreviousClose     *float64 `json:"previousClose"`
	Change            *float64 `json:"change"`
	PChange           *float64 `json:"pChange"`
	TotalTradedVolume *float64 `json:"totalTradedVolume"`
	YearHigh          *float64 `json:"yearHigh"`
	YearLow           *float64 `json:"yearLow"`
	FFMC              *float64 `json:"ffmc"` // free-float market cap

	Meta IndexRowMeta `json:"meta"`
}

type IndexRowMeta struct {
	CompanyName string `json:"companyName"`
	Industry    string `json:"industry"`
	ISIN        string `json:"isin"`
}
