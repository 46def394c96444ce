package repository

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/metaflame/pkg/errors"
	"github.com/metaflame/pkg/model"
)

// MySQLExportRepository implements ExportRepository for MySQL on database/sql.
type MySQLExportRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewMySQLExportRepository creates a new MySQLExportRepository.
func NewMySQLExportRepository(db *sql.DB) *MySQLExportRepository {
	return &MySQLExportRepository{db: db, now: time.Now}
}

// Create inserts an export record. MySQL has no RETURNING, so the id comes from
// LastInsertId and the timestamp is set client side.
func (r *MySQLExportRepository) Create(ctx context.Context, exp *model.Export) error {
	query := `
		INSERT INTO exports (dataset, view_name, format, metric, axis, buckets, vertices, object_key, url, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := r.now().UTC()
	res, err := r.db.ExecContext(ctx, query,
		exp.Dataset, exp.View, exp.Format, int(exp.Metric), int(exp.Axis),
		exp.Buckets, exp.Vertices, exp.Key, exp.URL, exp.Size, createdAt,
	)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to save export", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to read export id", err)
	}
	exp.ID = id
	exp.CreatedAt = createdAt
	return nil
}

// Get retrieves an export by its ID.
func (r *MySQLExportRepository) Get(ctx context.Context, id int64) (*model.Export, error) {
	query := "SELECT " + exportColumns + " FROM exports WHERE id = ?"
	return getExport(r.db.QueryRowContext(ctx, query, id), id)
}

// List returns exports newest first.
func (r *MySQLExportRepository) List(ctx context.Context, dataset string, limit int) ([]*model.Export, error) {
	query := `
		SELECT ` + exportColumns + `
		FROM exports
		WHERE (? = '' OR dataset = ?)
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, dataset, dataset, listLimit(limit))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to list exports", err)
	}
	defer rows.Close()

	return scanExports(rows)
}

var _ ExportRepository = (*MySQLExportRepository)(nil)
