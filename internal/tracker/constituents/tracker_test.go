package constituents_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"banktrack/internal/tracker/constituents"
	"banktrack/internal/tracker/store"
	"banktrack/pkg/storage"
	"banktrack/pkg/storage/localfile"

	"go.uber.org/zap"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	docs := storage.NewFallback(nil, localfile.New(t.TempDir()), zap.NewNop())
	s := store.New(docs, "", zap.NewNop())
	t.Cleanup(s.Close)
	return s
}

func seed() []constituents.Constituent {
	return []constituents.Constituent{
		{Symbol: "HDFCBANK", DisplayName: "HDFC Bank"},
		{Symbol: "ICICIBANK", DisplayName: "ICICI Bank"},
		{Symbol: "SBIN", DisplayName: "State Bank of India"},
	}
}

func members(list []constituents.Constituent, err error) constituents.MembersFunc {
	return func(ctx context.Context) ([]constituents.Constituent, error) {
		return list, err
	}
}

func TestRefreshAppendsNewSymbols(t *testing.T) {
	st := newStore(t)
	tr := constituents.New(seed(), members([]constituents.Constituent{
		{Symbol: "SBIN"},
		{Symbol: "ICICIBANK"},
		{Symbol: "HDFCBANK"},
		{Symbol: "AUBANK", DisplayName: "AU Small Finance Bank"},
	}, nil), st, zap.NewNop())

	diff, err := tr.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(diff.Added, []string{"AUBANK"}) {
		t.Errorf("added = %v, want [AUBANK]", diff.Added)
	}
	if len(diff.Removed) != 0 {
		t.Errorf("removed = %v, want none", diff.Removed)
	}

	// New symbol appended at the end; existing order untouched even though
	// the authoritative list arrived in a different order.
	want := []string{"HDFCBANK", "ICICIBANK", "SBIN", "AUBANK"}
	if got := tr.Symbols(); !reflect.DeepEqual(got, want) {
		t.Errorf("symbols = %v, want %v", got, want)
	}

	// The new symbol gets a default multiplier.
	if st.Multiplier("AUBANK") != 1 {
		t.Errorf("AUBANK multiplier = %v, want 1", st.Multiplier("AUBANK"))
	}
}

func TestRefreshNeverRemoves(t *testing.T) {
	st := newStore(t)
	tr := constituents.New(seed(), members([]constituents.Constituent{
		{Symbol: "HDFCBANK"},
		{Symbol: "ICICIBANK"},
		// SBIN missing from the authoritative list
	}, nil), st, zap.NewNop())

	diff, err := tr.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(diff.Removed, []string{"SBIN"}) {
		t.Errorf("removed = %v, want [SBIN]", diff.Removed)
	}

	// Observation only: SBIN stays tracked.
	want := []string{"HDFCBANK", "ICICIBANK", "SBIN"}
	if got := tr.Symbols(); !reflect.DeepEqual(got, want) {
		t.Errorf("symbols = %v, want %v", got, want)
	}
}

func TestRefreshFailurePreservesList(t *testing.T) {
	st := newStore(t)
	tr := constituents.New(seed(), members(nil, errors.New("exchange down")), st, zap.NewNop())

	if _, err := tr.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := tr.Symbols(); len(got) != 3 {
		t.Errorf("active list disturbed by failed refresh: %v", got)
	}
}

func TestSeedDefaultsMultipliers(t *testing.T) {
	st := newStore(t)
	constituents.New(seed(), members(nil, nil), st, zap.NewNop())

	for _, symbol := range []string{"HDFCBANK", "ICICIBANK", "SBIN"} {
		if st.Multiplier(symbol) != 1 {
			t.Errorf("%s multiplier = %v, want 1", symbol, st.Multiplier(symbol))
		}
	}
}

func TestActiveReturnsCopy(t *testing.T) {
	st := newStore(t)
	tr := constituents.New(seed(), members(nil, nil), st, zap.NewNop())

	active := tr.Active()
	active[0].Symbol = "MUTATED"

	if tr.Symbols()[0] != "HDFCBANK" {
		t.Error("Active must return a copy, not the backing slice")
	}
}
