package repository

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/recognition-mock/internal/logging"
	"github.com/example/recognition-mock/internal/passages"
)

// PassageRecord is a persisted passage. Position fixes the table order.
type PassageRecord struct {
	ID          uint   `gorm:"primaryKey"`
	Position    int    `gorm:"column:position;uniqueIndex"`
	Text        string `gorm:"column:text;type:text;not null"`
	Translation string `gorm:"column:translation;type:text;not null"`
}

// TableName overrides the default table name.
func (PassageRecord) TableName() string {
	return "passages"
}

// PassageRepository reads the passage table from postgres. It is used once at
// startup; the service never writes to it after seeding.
type PassageRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPassageRepository creates a new repository instance.
func NewPassageRepository(db *gorm.DB, logger *zap.Logger) *PassageRepository {
	return &PassageRepository{db: db, logger: logger.Named("passage_repository")}
}

// AutoMigrate ensures the schema is available.
func (r *PassageRepository) AutoMigrate(ctx context.Context) error {
	return logging.NewOperationError("repository.auto_migrate", "", r.db.WithContext(ctx).AutoMigrate(&PassageRecord{}))
}

// SeedIfEmpty inserts defaults when the table has no rows.
func (r *PassageRepository) SeedIfEmpty(ctx context.Context, defaults []passages.Passage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&PassageRecord{}).Count(&count).Error; err != nil {
			return logging.NewOperationError("repository.count_passages", "", err)
		}
		if count > 0 || len(defaults) == 0 {
			return nil
		}
		if err := tx.Create(toRecords(defaults)).Error; err != nil {
			return logging.NewOperationError("repository.seed_passages", "", err)
		}
		r.logger.Info("seeded passage table", zap.Int("count", len(defaults)))
		return nil
	})
}

// LoadAll returns every passage in table order.
func (r *PassageRepository) LoadAll(ctx context.Context) ([]passages.Passage, error) {
	var records []PassageRecord
	if err := r.db.WithContext(ctx).Order("position ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, logging.NewOperationError("repository.load_passages", "", err)
	}
	return fromRecords(records), nil
}

func toRecords(in []passages.Passage) []PassageRecord {
	out := make([]PassageRecord, 0, len(in))
	for i, p := range in {
		out = append(out, PassageRecord{Position: i, Text: p.Text, Translation: p.Translation})
	}
	return out
}

func fromRecords(in []PassageRecord) []passages.Passage {
	out := make([]passages.Passage, 0, len(in))
	for _, rec := range in {
		out = append(out, passages.Passage{Text: rec.Text, Translation: rec.Translation})
	}
	return out
}
