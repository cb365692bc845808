// Package histlog snapshots the divergence between the reference index value
// and the multiplier-weighted computed total. It is active only inside a
// daily wall-clock window; each snapshot lands in a bounded in-memory ring
// mirrored to the persistence backend.
package histlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"banktrack/internal/tracker/cache"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const tickTimeout = 30 * time.Second

// Point is one divergence snapshot. PercentDifference is rendered with four
// decimal places; that rendering is part of the exposed format.
type Point struct {
	Timestamp          time.Time `json:"timestamp"`
	IndexValue         float64   `json:"indexValue"`
	ComputedTotal      float64   `json:"computedTotal"`
	AbsoluteDifference float64   `json:"absoluteDifference"`
	PercentDifference  string    `json:"percentDifference"`
}

// BatchFunc fetches the full quote batch.
type BatchFunc func(ctx context.Context) (*cache.Batch, error)

// IndexFunc fetches the reference index value.
type IndexFunc func(ctx context.Context) (float64, error)

// MultiplierFunc resolves the user multiplier for a symbol.
type MultiplierFunc func(symbol string) float64

type Config struct {
	Window   Window
	Interval time.Duration
	Grace    time.Duration // startup delay before the first possible write
	Cap      int
}

type Logger struct {
	mu     sync.Mutex
	points []Point

	window   Window
	interval time.Duration
	grace    time.Duration
	cap      int

	batch      BatchFunc
	indexValue IndexFunc
	multiplier MultiplierFunc
	sink       Sink // may be nil

	logger *zap.Logger
	quit   chan struct{}
	once   sync.Once
}

func New(cfg Config, batch BatchFunc, indexValue IndexFunc, multiplier MultiplierFunc,
	sink Sink, logger *zap.Logger) *Logger {
	return &Logger{
		window:     cfg.Window,
		interval:   cfg.Interval,
		grace:      cfg.Grace,
		cap:        cfg.Cap,
		batch:      batch,
		indexValue: indexValue,
		multiplier: multiplier,
		sink:       sink,
		logger:     logger,
		quit:       make(chan struct{}),
	}
}

// Restore seeds the in-memory ring from the persistence backend. Called once
// at startup; failure just means starting with an empty log.
func (l *Logger) Restore(ctx context.Context) {
	if l.sink == nil {
		return
	}
	points, err := l.sink.LoadPoints(ctx, l.cap)
	if err != nil {
		l.logger.Warn("failed to restore historical log", zap.Error(err))
		return
	}
	if len(points) > l.cap {
		points = points[len(points)-l.cap:]
	}

	l.mu.Lock()
	l.points = points
	l.mu.Unlock()

	l.logger.Info("historical log restored", zap.Int("points", len(points)))
}

// Start runs the scheduler: a startup grace period, then one window check
// per tick. Outside the window the logger idles; the transition is evaluated
// purely from wall-clock time.
func (l *Logger) Start() {
	go func() {
		select {
		case <-time.After(l.grace):
		case <-l.quit:
			return
		}

		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		for {
			if l.window.Contains(time.Now()) {
				ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
				if err := l.LogOnce(ctx); err != nil {
					l.logger.Warn("historical tick skipped", zap.Error(err))
				}
				cancel()
			}

			select {
			case <-ticker.C:
			case <-l.quit:
				return
			}
		}
	}()
}

func (l *Logger) Stop() {
	l.once.Do(func() { close(l.quit) })
}

// LogOnce records a single snapshot. If either the index fetch or the batch
// fetch fails the tick is skipped whole; no partial point is ever recorded.
func (l *Logger) LogOnce(ctx context.Context) error {
	index, err := l.indexValue(ctx)
	if err != nil {
		return fmt.Errorf("index value: %w", err)
	}

	batch, err := l.batch(ctx)
	if err != nil {
		return fmt.Errorf("quote batch: %w", err)
	}

	total := computedTotal(batch, l.multiplier)
	point := newPoint(time.Now(), index, total)

	l.append(point)

	if l.sink != nil {
		if err := l.sink.AppendPoint(ctx, point); err != nil {
			// The in-memory ring already has the point; persistence catches
			// up on the next restore.
			l.logger.Warn("failed to persist historical point", zap.Error(err))
		}
	}

	l.logger.Debug("historical point recorded",
		zap.Float64("index", point.IndexValue),
		zap.Float64("total", point.ComputedTotal),
		zap.String("pct", point.PercentDifference))

	return nil
}

// ReadLog returns a copy of the retained points and statistics recomputed
// over them.
func (l *Logger) ReadLog() ([]Point, Stats) {
	l.mu.Lock()
	points := append([]Point(nil), l.points...)
	l.mu.Unlock()

	return points, computeStats(points)
}

func (l *Logger) append(p Point) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cap > 0 && len(l.points) >= l.cap {
		// Evict exactly the oldest point.
		l.points = append(l.points[:0], l.points[len(l.points)-l.cap+1:]...)
	}
	l.points = append(l.points, p)
}

// computedTotal is the multiplier-weighted sum over all constituents with a
// known price. Symbols without a price this cycle contribute nothing; they
// do not abort the computation.
func computedTotal(batch *cache.Batch, multiplier MultiplierFunc) decimal.Decimal {
	total := decimal.Zero
	for symbol, q := range batch.Quotes {
		if q.LivePrice == nil {
			continue
		}
		price := decimal.NewFromFloat(*q.LivePrice)
		m := decimal.NewFromFloat(multiplier(symbol))
		total = total.Add(price.Mul(m))
	}
	return total
}

func newPoint(ts time.Time, index float64, total decimal.Decimal) Point {
	indexD := decimal.NewFromFloat(index)
	diff := total.Sub(indexD)

	pct := "0.0000"
	if !indexD.IsZero() {
		pct = diff.Div(indexD).Mul(decimal.NewFromInt(100)).StringFixed(4)
	}
	abs, _ := diff.Abs().Round(4).Float64()

	return Point{
		Timestamp:          ts,
		IndexValue:         index,
		ComputedTotal:      total.InexactFloat64(),
		AbsoluteDifference: abs,
		PercentDifference:  pct,
	}
}
