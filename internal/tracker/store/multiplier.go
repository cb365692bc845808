// Package store owns the only mutable copy of the user multipliers and the
// store metadata (PIN, last-saved timestamp). Every other component reads
// snapshots. Mutations are validated synchronously; persistence runs on a
// single background worker so callers never block on a save.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"time"

	"banktrack/pkg/storage"

	"go.uber.org/zap"
)

// ErrInvalidValue rejects multipliers that are negative or not a number.
var ErrInvalidValue = errors.New("multiplier must be a non-negative number")

const saveTimeout = 10 * time.Second

// Metadata is the store's bookkeeping state. The PIN check is a plain
// equality comparison with no hashing or rate limiting; the calling layer
// gates mutations on it.
type Metadata struct {
	LastSavedAt time.Time
	PIN         string
}

// metadataDoc is the persisted shape of Metadata. lastSavedAt is ISO-8601;
// this format is load-bearing for compatibility across restarts.
type metadataDoc struct {
	LastSavedAt string `json:"lastSavedAt"`
	PIN         string `json:"pin"`
}

type Store struct {
	mu          sync.RWMutex
	multipliers map[string]float64
	meta        Metadata

	pinOverride string
	docs        *storage.Fallback
	logger      *zap.Logger

	saveCh chan struct{}
	quit   chan struct{}
	once   sync.Once
}

// New creates the store and starts its save worker. pinOverride, when
// non-empty, takes precedence over any persisted PIN on every Load.
func New(docs *storage.Fallback, pinOverride string, logger *zap.Logger) *Store {
	s := &Store{
		multipliers: make(map[string]float64),
		pinOverride: pinOverride,
		docs:        docs,
		logger:      logger,
		saveCh:      make(chan struct{}, 1),
		quit:        make(chan struct{}),
	}
	go s.saveWorker()
	return s
}

// Load reads both documents from the durable backend (falling back to local
// files), replaces the in-memory state, and returns snapshots. Missing or
// unreadable documents degrade to empty defaults; Load never fails hard.
func (s *Store) Load(ctx context.Context) (map[string]float64, Metadata) {
	multipliers := make(map[string]float64)
	if body, err := s.docs.Get(ctx, storage.DocMultipliers); err == nil {
		if err := json.Unmarshal(body, &multipliers); err != nil {
			s.logger.Warn("multiplier document is unreadable, starting empty", zap.Error(err))
			multipliers = make(map[string]float64)
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("failed to load multiplier document", zap.Error(err))
	}

	var meta Metadata
	if body, err := s.docs.Get(ctx, storage.DocMetadata); err == nil {
		var doc metadataDoc
		if err := json.Unmarshal(body, &doc); err != nil {
			s.logger.Warn("metadata document is unreadable, starting empty", zap.Error(err))
		} else {
			meta.PIN = doc.PIN
			if ts, err := time.Parse(time.RFC3339, doc.LastSavedAt); err == nil {
				meta.LastSavedAt = ts
			}
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("failed to load metadata document", zap.Error(err))
	}

	// An externally configured PIN always wins over a persisted one.
	if s.pinOverride != "" {
		meta.PIN = s.pinOverride
	}

	s.mu.Lock()
	s.multipliers = multipliers
	s.meta = meta
	s.mu.Unlock()

	s.logger.Info("multiplier store loaded",
		zap.Int("entries", len(multipliers)),
		zap.Bool("pin_overridden", s.pinOverride != ""))

	return s.Multipliers(), s.Metadata()
}

// Multiplier returns the multiplier for symbol, defaulting to 1 when no
// explicit entry exists.
func (s *Store) Multiplier(symbol string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.multipliers[symbol]; ok {
		return v
	}
	return 1
}

// Multipliers returns a snapshot copy of the full map.
func (s *Store) Multipliers() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.multipliers))
	for k, v := range s.multipliers {
		out[k] = v
	}
	return out
}

// Set validates and stores one multiplier, then schedules an async save.
// Invalid values leave the prior value untouched.
func (s *Store) Set(symbol string, value float64) error {
	if !validValue(value) {
		return ErrInvalidValue
	}

	s.mu.Lock()
	s.multipliers[symbol] = value
	s.mu.Unlock()

	s.scheduleSave()
	return nil
}

// SetMany applies a batch update. Entries failing validation are skipped
// individually; the rest still apply.
func (s *Store) SetMany(values map[string]float64) (applied int, skipped []string) {
	s.mu.Lock()
	for symbol, value := range values {
		if !validValue(value) {
			skipped = append(skipped, symbol)
			continue
		}
		s.multipliers[symbol] = value
		applied++
	}
	s.mu.Unlock()

	if len(skipped) > 0 {
		s.logger.Warn("skipped invalid multiplier values", zap.Strings("symbols", skipped))
	}
	if applied > 0 {
		s.scheduleSave()
	}
	return applied, skipped
}

// EnsureDefaults materializes a multiplier of 1 for any listed symbol that
// has no entry yet. Returns the number of entries added.
func (s *Store) EnsureDefaults(symbols []string) int {
	s.mu.Lock()
	added := 0
	for _, symbol := range symbols {
		if _, ok := s.multipliers[symbol]; !ok {
			s.multipliers[symbol] = 1
			added++
		}
	}
	s.mu.Unlock()

	if added > 0 {
		s.scheduleSave()
	}
	return added
}

// VerifyPin is a plain equality check against the effective PIN.
func (s *Store) VerifyPin(candidate string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.PIN == candidate
}

func (s *Store) Metadata() Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// Save persists both documents synchronously: remote backend first, local
// file fallback on failure (handled inside the fallback store). LastSavedAt
// advances only when the write lands somewhere. Idempotent; safe to call
// redundantly.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	multipliers := make(map[string]float64, len(s.multipliers))
	for k, v := range s.multipliers {
		multipliers[k] = v
	}
	pin := s.meta.PIN
	s.mu.RUnlock()

	now := time.Now().UTC()

	multBody, err := json.Marshal(multipliers)
	if err != nil {
		return err
	}
	metaBody, err := json.Marshal(metadataDoc{
		LastSavedAt: now.Format(time.RFC3339),
		PIN:         pin,
	})
	if err != nil {
		return err
	}

	if err := s.docs.Put(ctx, storage.DocMultipliers, multBody); err != nil {
		return err
	}
	if err := s.docs.Put(ctx, storage.DocMetadata, metaBody); err != nil {
		return err
	}

	s.mu.Lock()
	s.meta.LastSavedAt = now
	s.mu.Unlock()
	return nil
}

// Close stops the save worker.
func (s *Store) Close() {
	s.once.Do(func() { close(s.quit) })
}

// scheduleSave requests an asynchronous save. The buffered channel coalesces
// bursts of mutations into one write; at least one save follows every
// mutation.
func (s *Store) scheduleSave() {
	select {
	case s.saveCh <- struct{}{}:
	default:
	}
}

func (s *Store) saveWorker() {
	for {
		select {
		case <-s.saveCh:
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			if err := s.Save(ctx); err != nil {
				// Both backends failed; state remains in memory only.
				s.logger.Warn("save dropped", zap.Error(err))
			}
			cancel()
		case <-s.quit:
			return
		}
	}
}

func validValue(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
