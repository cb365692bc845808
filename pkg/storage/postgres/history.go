package postgres

import (
	"context"
)

func (p *PostgresClient) InsertPoint(ctx context.Context, record *HistoricalPointRecord) error {
	return p.DB.WithContext(ctx).Create(record).Error
}

// TrimPoints deletes everything but the newest keep points.
func (p *PostgresClient) TrimPoints(ctx context.Context, keep int) error {
	newest := p.DB.Model(&HistoricalPointRecord{}).
		Select("id").
		Order("timestamp DESC").
		Limit(keep)

	return p.DB.WithContext(ctx).
		Where("id NOT IN (?)", newest).
		Delete(&HistoricalPointRecord{}).Error
}

// ListPoints returns up to limit of the newest points in chronological order.
func (p *PostgresClient) ListPoints(ctx context.Context, limit int) ([]HistoricalPointRecord, error) {
	var records []HistoricalPointRecord
	err := p.DB.WithContext(ctx).
		Order("timestamp DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	// Reverse into ascending order
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (p *PostgresClient) CountPoints(ctx context.Context) (int64, error) {
	var count int64
	err := p.DB.WithContext(ctx).
		Model(&HistoricalPointRecord{}).
		Count(&count).Error
	return count, err
}
