package histlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"banktrack/pkg/storage"
	"banktrack/pkg/storage/postgres"

	"go.uber.org/zap"
)

// Sink persists historical points. Implementations keep the stored log
// bounded at the same cap as the in-memory ring.
type Sink interface {
	AppendPoint(ctx context.Context, p Point) error
	LoadPoints(ctx context.Context, limit int) ([]Point, error)
}

// PostgresSink stores points as rows, trimming the table after each append.
type PostgresSink struct {
	Client *postgres.PostgresClient
	Cap    int
}

func (s *PostgresSink) AppendPoint(ctx context.Context, p Point) error {
	record := &postgres.HistoricalPointRecord{
		Timestamp:          p.Timestamp,
		IndexValue:         p.IndexValue,
		ComputedTotal:      p.ComputedTotal,
		AbsoluteDifference: p.AbsoluteDifference,
		PercentDifference:  p.PercentDifference,
	}
	if err := s.Client.InsertPoint(ctx, record); err != nil {
		return fmt.Errorf("insert point: %w", err)
	}
	if err := s.Client.TrimPoints(ctx, s.Cap); err != nil {
		return fmt.Errorf("trim points: %w", err)
	}
	return nil
}

func (s *PostgresSink) LoadPoints(ctx context.Context, limit int) ([]Point, error) {
	records, err := s.Client.ListPoints(ctx, limit)
	if err != nil {
		return nil, err
	}
	points := make([]Point, len(records))
	for i, r := range records {
		points[i] = Point{
			Timestamp:          r.Timestamp,
			IndexValue:         r.IndexValue,
			ComputedTotal:      r.ComputedTotal,
			AbsoluteDifference: r.AbsoluteDifference,
			PercentDifference:  r.PercentDifference,
		}
	}
	return points, nil
}

// FileSink stores the whole log as one JSON document, rewritten per append.
// A thousand points is small enough that this stays cheap.
type FileSink struct {
	Docs storage.DocumentStore
	Cap  int
}

func (s *FileSink) AppendPoint(ctx context.Context, p Point) error {
	points, err := s.LoadPoints(ctx, s.Cap)
	if err != nil {
		return err
	}

	points = append(points, p)
	if len(points) > s.Cap {
		points = points[len(points)-s.Cap:]
	}

	body, err := json.Marshal(points)
	if err != nil {
		return err
	}
	return s.Docs.Put(ctx, storage.DocHistory, body)
}

func (s *FileSink) LoadPoints(ctx context.Context, limit int) ([]Point, error) {
	body, err := s.Docs.Get(ctx, storage.DocHistory)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var points []Point
	if err := json.Unmarshal(body, &points); err != nil {
		return nil, fmt.Errorf("parse history document: %w", err)
	}
	if limit > 0 && len(points) > limit {
		points = points[len(points)-limit:]
	}
	return points, nil
}

// FallbackSink writes to the durable sink first and degrades to the local
// one, mirroring the document store's fallback behavior.
type FallbackSink struct {
	Primary  Sink
	Fallback Sink
	Logger   *zap.Logger
}

func (s *FallbackSink) AppendPoint(ctx context.Context, p Point) error {
	err := s.Primary.AppendPoint(ctx, p)
	if err == nil {
		return nil
	}
	s.Logger.Warn("durable history append failed, falling back to local store",
		zap.Error(err))
	return s.Fallback.AppendPoint(ctx, p)
}

func (s *FallbackSink) LoadPoints(ctx context.Context, limit int) ([]Point, error) {
	points, err := s.Primary.LoadPoints(ctx, limit)
	if err == nil {
		return points, nil
	}
	s.Logger.Warn("durable history read failed, falling back to local store",
		zap.Error(err))
	return s.Fallback.LoadPoints(ctx, limit)
}
