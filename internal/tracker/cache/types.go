package cache

import "time"

// Quote is the merged per-symbol view assembled from the primary and
// secondary sources. Nil numeric fields mean "unavailable this cycle", never
// zero; a symbol whose every source failed still gets a Quote with a nil
// LivePrice rather than being dropped.
type Quote struct {
	Symbol string `json:"symbol"`

	LivePrice     *float64 `json:"livePrice"`
	PreviousClose *float64 `json:"previousClose"`
	DayHigh       *float64 `json:"dayHigh"`
	DayLow        *float64 `json:"dayLow"`
	Volume        *float64 `json:"volume"`

	Currency    string `json:"currency"`
	MarketState string `json:"marketState"`

	IssuedSize       *float64 `json:"issuedSize"`
	MarketCap        *float64 `json:"marketCap"`
	FiftyTwoWeekHigh *float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow  *float64 `json:"fiftyTwoWeekLow"`

	FetchedAt time.Time `json:"fetchedAt"`
}

// Supplement holds the slow-moving per-symbol fields cached under the longer
// TTL domain.
type Supplement struct {
	IssuedSize       *float64 `json:"issuedSize"`
	MarketCap        *float64 `json:"marketCap"`
	FiftyTwoWeekHigh *float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow  *float64 `json:"fiftyTwoWeekLow"`
}

// Batch is one complete, atomically-produced snapshot of quotes. Its key set
// always equals the constituent set that was attempted.
type Batch struct {
	Quotes    map[string]Quote `json:"quotes"`
	FetchedAt time.Time        `json:"fetchedAt"`
}
