package postgres

import (
	"context"
	"errors"

	"banktrack/pkg/storage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Put upserts the named document. Implements storage.DocumentStore.
func (p *PostgresClient) Put(ctx context.Context, name string, body []byte) error {
	record := &DocumentRecord{Name: name, Body: body}

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(record)

	return tx.Error
}

// Get returns the body of the named document, or storage.ErrNotFound when the
// document has never been written.
func (p *PostgresClient) Get(ctx context.Context, name string) ([]byte, error) {
	var record DocumentRecord
	err := p.DB.WithContext(ctx).
		Where("name = ?", name).
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return record.Body, nil
}
