package histlog_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"banktrack/internal/tracker/cache"
	"banktrack/internal/tracker/histlog"
	"banktrack/pkg/storage/localfile"

	"go.uber.org/zap"
)

func fp(v float64) *float64 { return &v }

func window(t *testing.T) histlog.Window {
	t.Helper()
	w, err := histlog.NewWindow("09:15", "15:30", "UTC")
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func batchOf(prices map[string]*float64) histlog.BatchFunc {
	return func(ctx context.Context) (*cache.Batch, error) {
		quotes := make(map[string]cache.Quote, len(prices))
		for symbol, price := range prices {
			quotes[symbol] = cache.Quote{Symbol: symbol, LivePrice: price}
		}
		return &cache.Batch{Quotes: quotes, FetchedAt: time.Now()}, nil
	}
}

func indexOf(v float64) histlog.IndexFunc {
	return func(ctx context.Context) (float64, error) { return v, nil }
}

func unitMultiplier(string) float64 { return 1 }

func newLogger(t *testing.T, cap int, batch histlog.BatchFunc, index histlog.IndexFunc,
	multiplier histlog.MultiplierFunc, sink histlog.Sink) *histlog.Logger {
	t.Helper()
	l := histlog.New(histlog.Config{
		Window:   window(t),
		Interval: time.Minute,
		Grace:    0,
		Cap:      cap,
	}, batch, index, multiplier, sink, zap.NewNop())
	t.Cleanup(l.Stop)
	return l
}

// Documented rounding: index 1000, computed total 1010 → "1.0000".
func TestPercentDifferenceFormatting(t *testing.T) {
	l := newLogger(t, 10, batchOf(map[string]*float64{"A": fp(1010)}), indexOf(1000), unitMultiplier, nil)

	if err := l.LogOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	points, _ := l.ReadLog()
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	p := points[0]
	if p.PercentDifference != "1.0000" {
		t.Errorf("percentDifference = %q, want \"1.0000\"", p.PercentDifference)
	}
	if p.AbsoluteDifference != 10 {
		t.Errorf("absoluteDifference = %v, want 10", p.AbsoluteDifference)
	}
	if p.IndexValue != 1000 || p.ComputedTotal != 1010 {
		t.Errorf("unexpected point values: %+v", p)
	}
}

func TestMultipliersWeighTheTotal(t *testing.T) {
	multiplier := func(symbol string) float64 {
		if symbol == "A" {
			return 2
		}
		return 1
	}
	l := newLogger(t, 10, batchOf(map[string]*float64{
		"A": fp(100), // weighted to 200
		"B": fp(300),
	}), indexOf(500), multiplier, nil)

	if err := l.LogOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	points, _ := l.ReadLog()
	if points[0].ComputedTotal != 500 {
		t.Errorf("computedTotal = %v, want 500", points[0].ComputedTotal)
	}
	if points[0].PercentDifference != "0.0000" {
		t.Errorf("percentDifference = %q, want \"0.0000\"", points[0].PercentDifference)
	}
}

func TestUnknownPricesContributeNothing(t *testing.T) {
	l := newLogger(t, 10, batchOf(map[string]*float64{
		"A": fp(100),
		"B": nil, // no price this cycle; excluded, not fatal
	}), indexOf(100), unitMultiplier, nil)

	if err := l.LogOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	points, _ := l.ReadLog()
	if points[0].ComputedTotal != 100 {
		t.Errorf("computedTotal = %v, want 100", points[0].ComputedTotal)
	}
}

func TestRingCapEvictsOldest(t *testing.T) {
	tick := 0
	index := func(ctx context.Context) (float64, error) {
		tick++
		return float64(tick), nil
	}
	l := newLogger(t, 1000, batchOf(map[string]*float64{"A": fp(1)}), index, unitMultiplier, nil)

	for i := 0; i < 1001; i++ {
		if err := l.LogOnce(context.Background()); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	points, stats := l.ReadLog()
	if len(points) != 1000 {
		t.Fatalf("log length = %d, want 1000", len(points))
	}
	if stats.Count != 1000 {
		t.Errorf("stats count = %d, want 1000", stats.Count)
	}
	// The 1001st append evicted exactly the first point (index value 1).
	if points[0].IndexValue != 2 {
		t.Errorf("oldest retained index value = %v, want 2", points[0].IndexValue)
	}
	if points[len(points)-1].IndexValue != 1001 {
		t.Errorf("newest index value = %v, want 1001", points[len(points)-1].IndexValue)
	}
}

func TestFailedIndexFetchSkipsTickWhole(t *testing.T) {
	index := func(ctx context.Context) (float64, error) {
		return 0, errors.New("exchange down")
	}
	l := newLogger(t, 10, batchOf(map[string]*float64{"A": fp(1)}), index, unitMultiplier, nil)

	if err := l.LogOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if points, _ := l.ReadLog(); len(points) != 0 {
		t.Errorf("partial point recorded: %+v", points)
	}
}

func TestFailedBatchFetchSkipsTickWhole(t *testing.T) {
	batch := func(ctx context.Context) (*cache.Batch, error) {
		return nil, errors.New("no data this cycle")
	}
	l := newLogger(t, 10, batch, indexOf(1000), unitMultiplier, nil)

	if err := l.LogOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if points, _ := l.ReadLog(); len(points) != 0 {
		t.Errorf("partial point recorded: %+v", points)
	}
}

func TestWindowContains(t *testing.T) {
	w := window(t)

	cases := []struct {
		clock string
		want  bool
	}{
		{"09:14", false},
		{"09:15", true},
		{"12:00", true},
		{"15:29", true},
		{"15:30", false},
		{"23:00", false},
	}
	for _, tc := range cases {
		ts, err := time.Parse(time.RFC3339, fmt.Sprintf("2025-08-26T%s:00Z", tc.clock))
		if err != nil {
			t.Fatal(err)
		}
		if got := w.Contains(ts); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.clock, got, tc.want)
		}
	}
}

func TestWindowValidation(t *testing.T) {
	if _, err := histlog.NewWindow("15:30", "09:15", "UTC"); err == nil {
		t.Error("expected error for inverted window")
	}
	if _, err := histlog.NewWindow("9am", "15:30", "UTC"); err == nil {
		t.Error("expected error for malformed clock")
	}
	if _, err := histlog.NewWindow("09:15", "15:30", "Not/AZone"); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestFileSinkRoundtripAndRestore(t *testing.T) {
	sink := &histlog.FileSink{Docs: localfile.New(t.TempDir()), Cap: 5}

	l := newLogger(t, 5, batchOf(map[string]*float64{"A": fp(1010)}), indexOf(1000), unitMultiplier, sink)
	for i := 0; i < 7; i++ {
		if err := l.LogOnce(context.Background()); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	// A fresh logger restores the capped log from the same sink.
	l2 := newLogger(t, 5, batchOf(nil), indexOf(0), unitMultiplier, sink)
	l2.Restore(context.Background())
	points, _ := l2.ReadLog()
	if len(points) != 5 {
		t.Fatalf("restored %d points, want 5 (capped)", len(points))
	}
	if points[0].PercentDifference != "1.0000" {
		t.Errorf("restored percentDifference = %q", points[0].PercentDifference)
	}
}

type failingSink struct{}

func (failingSink) AppendPoint(context.Context, histlog.Point) error {
	return errors.New("connection refused")
}
func (failingSink) LoadPoints(context.Context, int) ([]histlog.Point, error) {
	return nil, errors.New("connection refused")
}

func TestFallbackSinkDegrades(t *testing.T) {
	local := &histlog.FileSink{Docs: localfile.New(t.TempDir()), Cap: 10}
	sink := &histlog.FallbackSink{Primary: failingSink{}, Fallback: local, Logger: zap.NewNop()}

	p := histlog.Point{Timestamp: time.Now(), IndexValue: 1, ComputedTotal: 1, PercentDifference: "0.0000"}
	if err := sink.AppendPoint(context.Background(), p); err != nil {
		t.Fatalf("append should fall back, got %v", err)
	}

	points, err := sink.LoadPoints(context.Background(), 10)
	if err != nil {
		t.Fatalf("load should fall back, got %v", err)
	}
	if len(points) != 1 {
		t.Errorf("loaded %d points, want 1", len(points))
	}
}

func TestSinkFailureDoesNotLoseInMemoryPoint(t *testing.T) {
	sink := &histlog.FallbackSink{Primary: failingSink{}, Fallback: failingSink{}, Logger: zap.NewNop()}
	l := newLogger(t, 10, batchOf(map[string]*float64{"A": fp(1)}), indexOf(1), unitMultiplier, sink)

	if err := l.LogOnce(context.Background()); err != nil {
		t.Fatalf("tick should survive a sink failure, got %v", err)
	}
	if points, _ := l.ReadLog(); len(points) != 1 {
		t.Errorf("in-memory ring lost the point")
	}
}
