// Package storage defines the document persistence contract shared by the
// durable Postgres backend and the local JSON file fallback. State is kept as
// small named JSON documents so both backends stay interchangeable.
package storage

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Well-known document names.
const (
	DocMultipliers = "multipliers"
	DocMetadata    = "metadata"
	DocHistory     = "history"
)

// ErrNotFound is returned when a named document has never been written.
var ErrNotFound = errors.New("document not found")

// DocumentStore persists named JSON documents.
type DocumentStore interface {
	Put(ctx context.Context, name string, body []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
}

// Fallback reads and writes through a remote store first and degrades to a
// local store on any remote error. Remote may be nil (local-only deployments).
type Fallback struct {
	remote DocumentStore
	local  DocumentStore
	logger *zap.Logger
}

func NewFallback(remote, local DocumentStore, logger *zap.Logger) *Fallback {
	return &Fallback{remote: remote, local: local, logger: logger}
}

// Put writes the document to the remote backend, falling back to the local
// store when the remote write fails or no remote is configured.
func (f *Fallback) Put(ctx context.Context, name string, body []byte) error {
	if f.remote != nil {
		err := f.remote.Put(ctx, name, body)
		if err == nil {
			return nil
		}
		f.logger.Warn("remote document write failed, falling back to local store",
			zap.String("document", name), zap.Error(err))
	}
	return f.local.Put(ctx, name, body)
}

// Get reads the document from the remote backend first; any error (network,
// missing row, deserialization upstream) degrades to the local store.
func (f *Fallback) Get(ctx context.Context, name string) ([]byte, error) {
	if f.remote != nil {
		body, err := f.remote.Get(ctx, name)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, ErrNotFound) {
			f.logger.Warn("remote document read failed, falling back to local store",
				zap.String("document", name), zap.Error(err))
		}
	}
	return f.local.Get(ctx, name)
}
