// Package tracker wires the market-data engine together: session-guarded
// primary client, secondary aggregator client, quote fetcher, multiplier
// store with durable-then-local persistence, constituent tracker, and the
// historical divergence logger.
package tracker

import (
	"context"
	"fmt"
	"time"

	"banktrack/config"
	"banktrack/internal/tracker/basket"
	"banktrack/internal/tracker/cache"
	"banktrack/internal/tracker/constituents"
	"banktrack/internal/tracker/fetcher"
	"banktrack/internal/tracker/histlog"
	"banktrack/internal/tracker/store"
	"banktrack/pkg/nse"
	"banktrack/pkg/storage"
	"banktrack/pkg/storage/localfile"
	"banktrack/pkg/storage/postgres"
	"banktrack/pkg/yahoo"

	"go.uber.org/zap"
)

const startupTimeout = 30 * time.Second

// Service is the engine facade handed to the serving layer. Reads go through
// Fetcher/Constituents/History; writes go only through Store, gated by the
// caller's PIN verification.
type Service struct {
	Fetcher      *fetcher.Fetcher
	Store        *store.Store
	Constituents *constituents.Tracker
	History      *histlog.Logger
}

// Start initializes the full pipeline. Only configuration errors are fatal;
// an unreachable durable backend degrades to local file persistence with a
// warning.
func Start(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	// Persistence: durable Postgres backend when configured, local JSON
	// files always.
	local := localfile.New(cfg.Storage.Path())
	var remote storage.DocumentStore
	var pgClient *postgres.PostgresClient
	if cfg.Postgres.Enabled() {
		client, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, true)
		if err != nil {
			logger.Warn("durable backend unavailable, continuing on local files", zap.Error(err))
		} else {
			remote = client
			pgClient = client
		}
	} else {
		logger.Info("no durable backend configured, using local files")
	}
	docs := storage.NewFallback(remote, local, logger)

	// Multiplier store owns the only mutable multiplier map.
	multStore := store.New(docs, cfg.Tracker.PIN, logger)
	loadCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	multStore.Load(loadCtx)
	cancel()

	// Basket seed: ordered constituents plus the static issued-size table.
	entries, err := basket.Load(cfg.Tracker.BasketFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load basket: %w", err)
	}
	seed := make([]constituents.Constituent, len(entries))
	for i, e := range entries {
		seed[i] = constituents.Constituent{Symbol: e.Symbol, DisplayName: e.Name}
	}

	// Upstream clients. The session lives behind the primary client and is
	// never exposed past the fetcher boundary.
	session := nse.NewSession(cfg.NSE.BaseURL, cfg.NSE.Timeout, cfg.Tracker.SessionTTL, logger)
	primary := nse.NewClient(cfg.NSE.BaseURL, cfg.NSE.Timeout, session, logger)
	secondary := yahoo.NewClient(cfg.Yahoo.BaseURL, cfg.Yahoo.Timeout, logger)

	quoteFetcher := fetcher.New(fetcher.Options{
		Index:         cfg.Tracker.Index,
		Timeout:       cfg.NSE.Timeout,
		BatchTTL:      cfg.Tracker.BatchTTL,
		SupplementTTL: cfg.Tracker.SupplementTTL,
		IssuedSizes:   basket.IssuedSizes(entries),
	}, primary, secondary, logger)

	// Constituent tracker: startup refresh, then daily.
	members := func(ctx context.Context) ([]constituents.Constituent, error) {
		resp, err := primary.IndexQuote(ctx, cfg.Tracker.Index)
		if err != nil {
			return nil, err
		}
		rows := resp.ConstituentRows()
		list := make([]constituents.Constituent, 0, len(rows))
		for symbol, row := range rows {
			list = append(list, constituents.Constituent{
				Symbol:      symbol,
				DisplayName: row.Meta.CompanyName,
			})
		}
		return list, nil
	}
	consTracker := constituents.New(seed, members, multStore, logger)
	refresher := &constituents.DailyRefresher{Tracker: consTracker, Logger: logger}
	refresher.Start()

	// Historical divergence logger.
	window, err := histlog.NewWindow(cfg.Tracker.LogWindowStart, cfg.Tracker.LogWindowEnd, cfg.Tracker.LogTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid logging window: %w", err)
	}
	var sink histlog.Sink = &histlog.FileSink{Docs: local, Cap: cfg.Tracker.HistoryCap}
	if pgClient != nil {
		sink = &histlog.FallbackSink{
			Primary:  &histlog.PostgresSink{Client: pgClient, Cap: cfg.Tracker.HistoryCap},
			Fallback: sink,
			Logger:   logger,
		}
	}
	history := histlog.New(histlog.Config{
		Window:   window,
		Interval: cfg.Tracker.LogInterval,
		Grace:    cfg.Tracker.LogGrace,
		Cap:      cfg.Tracker.HistoryCap,
	},
		func(ctx context.Context) (*cache.Batch, error) {
			return quoteFetcher.FetchBatch(ctx, consTracker.Symbols())
		},
		quoteFetcher.IndexValue,
		multStore.Multiplier,
		sink,
		logger,
	)

	restoreCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	history.Restore(restoreCtx)
	cancel()
	history.Start()

	logger.Info("tracker started",
		zap.String("index", cfg.Tracker.Index),
		zap.Int("constituents", len(seed)),
		zap.Bool("durable_backend", pgClient != nil))

	return &Service{
		Fetcher:      quoteFetcher,
		Store:        multStore,
		Constituents: consTracker,
		History:      history,
	}, nil
}
