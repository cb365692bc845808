package fetcher

import (
	"time"

	"banktrack/internal/tracker/cache"
	"banktrack/pkg/nse"
	"banktrack/pkg/yahoo"
)

// priceResult is the normalized price-side view of a symbol from either
// source. A zero value means the fetch failed; every field stays nil.
type priceResult struct {
	live, prevClose, dayHigh, dayLow, volume *float64
	currency, marketState                    string
}

// primaryPrice maps an exchange index row into the normalized price shape.
// Exchange quotes are always in the local currency.
func primaryPrice(row nse.IndexRow) priceResult {
	return priceResult{
		live:      row.LastPrice,
		prevClose: row.PreviousClose,
		dayHigh:   row.DayHigh,
		dayLow:    row.DayLow,
		volume:    row.TotalTradedVolume,
		currency:  "INR",
	}
}

// secondaryPrice maps an aggregator quote into the normalized price shape.
func secondaryPrice(q *yahoo.QuoteResult) priceResult {
	return priceResult{
		live:        q.RegularMarketPrice,
		prevClose:   q.RegularMarketPreviousClose,
		dayHigh:     q.RegularMarketDayHigh,
		dayLow:      q.RegularMarketDayLow,
		volume:      q.RegularMarketVolume,
		currency:    q.Currency,
		marketState: q.MarketState,
	}
}

// secondarySupplement extracts the slow-moving fields from an aggregator
// quote.
func secondarySupplement(q *yahoo.QuoteResult) cache.Supplement {
	return cache.Supplement{
		IssuedSize:       q.SharesOutstanding,
		MarketCap:        q.MarketCap,
		FiftyTwoWeekHigh: q.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  q.FiftyTwoWeekLow,
	}
}

// mergeQuote combines the price and supplementary halves of one symbol.
// Field precedence: a market cap reported by a source wins; otherwise it is
// derived as issuedSize times livePrice, and only when both operands are
// known. Unavailable fields stay nil.
func mergeQuote(symbol string, price priceResult, supp cache.Supplement, fetchedAt time.Time) cache.Quote {
	q := cache.Quote{
		Symbol:           symbol,
		LivePrice:        price.live,
		PreviousClose:    price.prevClose,
		DayHigh:          price.dayHigh,
		DayLow:           price.dayLow,
		Volume:           price.volume,
		Currency:         price.currency,
		MarketState:      price.marketState,
		IssuedSize:       supp.IssuedSize,
		MarketCap:        supp.MarketCap,
		FiftyTwoWeekHigh: supp.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  supp.FiftyTwoWeekLow,
		FetchedAt:        fetchedAt,
	}

	if q.MarketCap == nil && q.IssuedSize != nil && q.LivePrice != nil {
		mc := *q.IssuedSize * *q.LivePrice
		q.MarketCap = &mc
	}

	return q
}
