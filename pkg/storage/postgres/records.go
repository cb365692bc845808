package postgres

import "time"

// DocumentRecord holds one named JSON document (multiplier map, metadata).
// The document body is the same JSON written to the local fallback files, so
// either backend can seed the other after an outage.
type DocumentRecord struct {
	ID uint `gorm:"primaryKey"`

	Name string `gorm:"type:text;not null;uniqueIndex:idx_document_name"`
	Body []byte `gorm:"type:jsonb;not null"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName overrides the default table name for GORM.
func (DocumentRecord) TableName() string {
	return "tracker_document"
}

// HistoricalPointRecord is one index-vs-computed-total divergence snapshot.
// The table is kept bounded by TrimPoints; it is a ring, not a growing log.
type HistoricalPointRecord struct {
	ID uint `gorm:"primaryKey"`

	Timestamp time.Time `gorm:"not null;index:idx_hist_point_timestamp"`

	IndexValue         float64 `gorm:"type:numeric;not null"`
	ComputedTotal      float64 `gorm:"type:numeric;not null"`
	AbsoluteDifference float64 `gorm:"type:numeric;not null"`
	PercentDifference  string  `gorm:"type:varchar(16);not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

func (HistoricalPointRecord) TableName() string {
	return "historical_point"
}
