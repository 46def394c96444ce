package repository

import (
	"time"

	"github.com/metaflame/pkg/model"
)

// ExportRecord represents the exports table.
type ExportRecord struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Dataset   string    `gorm:"column:dataset;type:varchar(256);index"`
	View      string    `gorm:"column:view_name;type:varchar(32)"`
	Format    string    `gorm:"column:format;type:varchar(32)"`
	Metric    int       `gorm:"column:metric"`
	Axis      int       `gorm:"column:axis"`
	Buckets   int       `gorm:"column:buckets"`
	Vertices  int       `gorm:"column:vertices"`
	Key       string    `gorm:"column:object_key;type:varchar(512)"`
	URL       string    `gorm:"column:url;type:varchar(1024)"`
	Size      int64     `gorm:"column:size"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for ExportRecord.
func (ExportRecord) TableName() string {
	return "exports"
}

// ToModel converts ExportRecord to model.Export.
func (r *ExportRecord) ToModel() *model.Export {
	return &model.Export{
		ID:        r.ID,
		Dataset:   r.Dataset,
		View:      r.View,
		Format:    r.Format,
		Metric:    model.Metric(r.Metric),
		Axis:      model.Axis(r.Axis),
		Buckets:   r.Buckets,
		Vertices:  r.Vertices,
		Key:       r.Key,
		URL:       r.URL,
		Size:      r.Size,
		CreatedAt: r.CreatedAt,
	}
}

// exportRecordFromModel converts model.Export to ExportRecord.
func exportRecordFromModel(e *model.Export) *ExportRecord {
	return &ExportRecord{
		ID:        e.ID,
		Dataset:   e.Dataset,
		View:      e.View,
		Format:    e.Format,
		Metric:    int(e.Metric),
		Axis:      int(e.Axis),
		Buckets:   e.Buckets,
		Vertices:  e.Vertices,
		Key:       e.Key,
		URL:       e.URL,
		Size:      e.Size,
		CreatedAt: e.CreatedAt,
	}
}
