// Package constituents maintains the ordered list of tracked securities.
// Membership observed on the exchange is reconciled against the active list,
// but removal of a legacy symbol is a human decision: refresh only ever
// appends, and the listing order never changes under a refresh.
package constituents

import (
	"context"
	"sync"

	"banktrack/internal/tracker/store"

	"go.uber.org/zap"
)

// Constituent is one tracked security.
type Constituent struct {
	Symbol      string `json:"symbol"`
	DisplayName string `json:"displayName"`
}

// MembersFunc fetches the authoritative index membership from the exchange.
type MembersFunc func(ctx context.Context) ([]Constituent, error)

// Diff summarizes one refresh: symbols the exchange lists that we did not,
// and symbols we track that the exchange no longer lists.
type Diff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

type Tracker struct {
	mu     sync.Mutex
	active []Constituent

	members MembersFunc
	store   *store.Store
	logger  *zap.Logger
}

// New seeds the tracker with the configured basket, in basket order.
func New(seed []Constituent, members MembersFunc, st *store.Store, logger *zap.Logger) *Tracker {
	t := &Tracker{
		active:  append([]Constituent(nil), seed...),
		members: members,
		store:   st,
		logger:  logger,
	}
	t.store.EnsureDefaults(t.Symbols())
	return t
}

// Active returns an ordered copy of the tracked set.
func (t *Tracker) Active() []Constituent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Constituent(nil), t.active...)
}

// Symbols returns the tracked symbols in listing order.
func (t *Tracker) Symbols() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	symbols := make([]string, len(t.active))
	for i, c := range t.active {
		symbols[i] = c.Symbol
	}
	return symbols
}

// Refresh compares the authoritative membership against the active list as
// symbol sets, ignoring order. New symbols are appended (with a default
// multiplier of 1); symbols that dropped off the index are logged as
// observations and kept.
func (t *Tracker) Refresh(ctx context.Context) (Diff, error) {
	official, err := t.members(ctx)
	if err != nil {
		t.logger.Warn("membership refresh failed", zap.Error(err))
		return Diff{}, err
	}

	officialSet := make(map[string]bool, len(official))
	for _, c := range official {
		officialSet[c.Symbol] = true
	}

	t.mu.Lock()
	activeSet := make(map[string]bool, len(t.active))
	for _, c := range t.active {
		activeSet[c.Symbol] = true
	}

	var diff Diff
	for _, c := range official {
		if !activeSet[c.Symbol] {
			diff.Added = append(diff.Added, c.Symbol)
			t.active = append(t.active, c)
		}
	}
	for _, c := range t.active {
		if !officialSet[c.Symbol] {
			diff.Removed = append(diff.Removed, c.Symbol)
		}
	}
	symbols := make([]string, len(t.active))
	for i, c := range t.active {
		symbols[i] = c.Symbol
	}
	t.mu.Unlock()

	t.store.EnsureDefaults(symbols)

	if len(diff.Added) > 0 {
		t.logger.Info("index added constituents", zap.Strings("symbols", diff.Added))
	}
	if len(diff.Removed) > 0 {
		// Kept in the active list; dropping a symbol is a manual decision.
		t.logger.Info("index no longer lists tracked constituents",
			zap.Strings("symbols", diff.Removed))
	}

	return diff, nil
}
