// Package fetcher reconciles the primary exchange API and the secondary
// aggregator into complete quote batches. The primary source serves whole
// batches in one round trip when its session holds; everything it misses is
// filled per symbol from the secondary source, concurrently, with per-call
// timeouts so one slow upstream cannot stall the batch.
package fetcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"banktrack/internal/tracker/cache"
	"banktrack/pkg/nse"
	"banktrack/pkg/yahoo"

	"go.uber.org/zap"
)

// ErrNoData means every source failed for every symbol this cycle. Callers
// may retry via the single-symbol path.
var ErrNoData = errors.New("no quote data available from any source")

// PrimarySource is the session-authenticated exchange API.
type PrimarySource interface {
	IndexQuote(ctx context.Context, index string) (*nse.IndexQuoteResponse, error)
}

// SecondarySource is the independent aggregator used for fallback prices and
// supplementary data.
type SecondarySource interface {
	Quote(ctx context.Context, symbol string) (*yahoo.QuoteResult, error)
	Summary(ctx context.Context, symbol string) (*yahoo.QuoteResult, error)
}

type Fetcher struct {
	index     string
	primary   PrimarySource
	secondary SecondarySource
	timeout   time.Duration

	batchCache *cache.BatchCache
	quoteCache *cache.QuoteCache
	suppCache  *cache.SupplementCache

	// last-known issued share counts, the fallback when the supplementary
	// lookup fails
	issuedSizes map[string]float64

	logger *zap.Logger
}

type Options struct {
	Index         string
	Timeout       time.Duration
	BatchTTL      time.Duration
	SupplementTTL time.Duration
	IssuedSizes   map[string]float64
}

func New(opts Options, primary PrimarySource, secondary SecondarySource, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		index:       opts.Index,
		primary:     primary,
		secondary:   secondary,
		timeout:     opts.Timeout,
		batchCache:  cache.NewBatchCache(opts.BatchTTL),
		quoteCache:  cache.NewQuoteCache(opts.BatchTTL),
		suppCache:   cache.NewSupplementCache(opts.SupplementTTL),
		issuedSizes: opts.IssuedSizes,
		logger:      logger,
	}
}

// FetchBatch returns one complete quote snapshot for the given symbols. The
// returned batch's key set always equals the symbol set: a symbol whose every
// source failed still appears, with a nil price. Only a cycle where no symbol
// produced a price at all returns ErrNoData, and such a cycle is never
// cached.
func (f *Fetcher) FetchBatch(ctx context.Context, symbols []string) (*cache.Batch, error) {
	if b, ok := f.batchCache.Get(); ok {
		return b, nil
	}

	// One bulk request for the whole set. A degraded primary is not fatal;
	// every symbol just takes the secondary path below.
	bulk := f.bulkPrimary(ctx)

	prices := make([]priceResult, len(symbols))
	supps := make([]cache.Supplement, len(symbols))

	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(2)

		go func(i int, symbol string) {
			defer wg.Done()
			if row, ok := bulk[symbol]; ok {
				prices[i] = primaryPrice(row)
				return
			}
			prices[i] = f.secondaryPriceFetch(ctx, symbol)
		}(i, symbol)

		go func(i int, symbol string) {
			defer wg.Done()
			supps[i] = f.supplement(ctx, symbol)
		}(i, symbol)
	}
	wg.Wait()

	fetchedAt := time.Now()
	quotes := make(map[string]cache.Quote, len(symbols))
	succeeded := 0
	for i, symbol := range symbols {
		q := mergeQuote(symbol, prices[i], supps[i], fetchedAt)
		if q.LivePrice != nil {
			succeeded++
		}
		quotes[symbol] = q
	}

	if succeeded == 0 {
		f.logger.Warn("batch fetch failed for every symbol", zap.Int("symbols", len(symbols)))
		return nil, ErrNoData
	}

	batch := &cache.Batch{Quotes: quotes, FetchedAt: fetchedAt}
	f.batchCache.Set(batch)

	f.logger.Debug("batch fetched",
		zap.Int("symbols", len(symbols)),
		zap.Int("priced", succeeded),
		zap.Int("from_primary", len(bulk)))

	return batch, nil
}

// FetchOne is the degraded single-symbol path: secondary source only, no
// session involved. It never fails; a symbol with no reachable source yields
// a quote with nil fields.
func (f *Fetcher) FetchOne(ctx context.Context, symbol string) cache.Quote {
	if q, ok := f.quoteCache.Get(symbol); ok {
		return q
	}

	price := f.secondaryPriceFetch(ctx, symbol)
	supp := f.supplement(ctx, symbol)

	q := mergeQuote(symbol, price, supp, time.Now())
	if q.LivePrice != nil {
		// Failed lookups are not cached; the next call retries immediately.
		f.quoteCache.Set(symbol, q)
	}
	return q
}

// IndexValue fetches the reference index's own last price from the primary
// source.
func (f *Fetcher) IndexValue(ctx context.Context) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.primary.IndexQuote(callCtx, f.index)
	if err != nil {
		return 0, err
	}
	v, ok := resp.IndexValue()
	if !ok {
		return 0, errors.New("index row missing from primary response")
	}
	return v, nil
}

// bulkPrimary attempts the single bulk request against the exchange. Any
// failure, including an unavailable session, yields an empty result so the
// batch proceeds on the secondary source.
func (f *Fetcher) bulkPrimary(ctx context.Context) map[string]nse.IndexRow {
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.primary.IndexQuote(callCtx, f.index)
	if err != nil {
		f.logger.Warn("primary bulk fetch degraded", zap.Error(err))
		return nil
	}
	return resp.ConstituentRows()
}

func (f *Fetcher) secondaryPriceFetch(ctx context.Context, symbol string) priceResult {
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	q, err := f.secondary.Quote(callCtx, symbol)
	if err != nil {
		f.logger.Warn("secondary price fetch failed",
			zap.String("symbol", symbol), zap.Error(err))
		return priceResult{}
	}
	return secondaryPrice(q)
}

// supplement resolves the slow-moving fields for one symbol: cached lookup,
// then the secondary source, then the static issued-size table.
func (f *Fetcher) supplement(ctx context.Context, symbol string) cache.Supplement {
	if s, ok := f.suppCache.Get(symbol); ok {
		return s
	}

	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	q, err := f.secondary.Summary(callCtx, symbol)
	if err == nil {
		s := secondarySupplement(q)
		f.suppCache.Set(symbol, s)
		return s
	}
	f.logger.Warn("supplementary fetch failed",
		zap.String("symbol", symbol), zap.Error(err))

	// Static fallback. Not cached: the next cycle retries the live lookup.
	if size, ok := f.issuedSizes[symbol]; ok {
		return cache.Supplement{IssuedSize: &size}
	}
	return cache.Supplement{}
}
