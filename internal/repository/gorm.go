package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/metaflame/pkg/errors"
	"github.com/metaflame/pkg/model"
)

// GormExportRepository implements ExportRepository using GORM.
type GormExportRepository struct {
	db *gorm.DB
}

// NewGormExportRepository creates a new GormExportRepository.
func NewGormExportRepository(db *gorm.DB) *GormExportRepository {
	return &GormExportRepository{db: db}
}

// Create inserts an export record.
func (r *GormExportRepository) Create(ctx context.Context, exp *model.Export) error {
	record := exportRecordFromModel(exp)
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to save export", err)
	}
	exp.ID = record.ID
	exp.CreatedAt = record.CreatedAt
	return nil
}

// Get retrieves an export by its ID.
func (r *GormExportRepository) Get(ctx context.Context, id int64) (*model.Export, error) {
	var record ExportRecord

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "export not found: %d", id)
		}
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to get export", err)
	}
	return record.ToModel(), nil
}

// List returns exports newest first.
func (r *GormExportRepository) List(ctx context.Context, dataset string, limit int) ([]*model.Export, error) {
	var records []ExportRecord

	q := r.db.WithContext(ctx).Order("id DESC").Limit(listLimit(limit))
	if dataset != "" {
		q = q.Where("dataset = ?", dataset)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to list exports", err)
	}

	result := make([]*model.Export, len(records))
	for i := range records {
		result[i] = records[i].ToModel()
	}
	return result, nil
}

var _ ExportRepository = (*GormExportRepository)(nil)
