package repository

import (
	"context"
	"database/sql"
	"errors"

	apperrors "github.com/metaflame/pkg/errors"
	"github.com/metaflame/pkg/model"
)

const exportColumns = `id, dataset, view_name, format, metric, axis, buckets, vertices,
			   object_key, COALESCE(url, ''), size, created_at`

// PostgresExportRepository implements ExportRepository for PostgreSQL on database/sql.
type PostgresExportRepository struct {
	db *sql.DB
}

// NewPostgresExportRepository creates a new PostgresExportRepository.
func NewPostgresExportRepository(db *sql.DB) *PostgresExportRepository {
	return &PostgresExportRepository{db: db}
}

// Create inserts an export record.
func (r *PostgresExportRepository) Create(ctx context.Context, exp *model.Export) error {
	query := `
		INSERT INTO exports (dataset, view_name, format, metric, axis, buckets, vertices, object_key, url, size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		exp.Dataset, exp.View, exp.Format, int(exp.Metric), int(exp.Axis),
		exp.Buckets, exp.Vertices, exp.Key, exp.URL, exp.Size,
	).Scan(&exp.ID, &exp.CreatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to save export", err)
	}
	return nil
}

// Get retrieves an export by its ID.
func (r *PostgresExportRepository) Get(ctx context.Context, id int64) (*model.Export, error) {
	query := `SELECT ` + exportColumns + ` FROM exports WHERE id = $1`
	return getExport(r.db.QueryRowContext(ctx, query, id), id)
}

// List returns exports newest first.
func (r *PostgresExportRepository) List(ctx context.Context, dataset string, limit int) ([]*model.Export, error) {
	query := `
		SELECT ` + exportColumns + `
		FROM exports
		WHERE ($1 = '' OR dataset = $1)
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, dataset, listLimit(limit))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to list exports", err)
	}
	defer rows.Close()

	return scanExports(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExport(row rowScanner) (*model.Export, error) {
	exp := &model.Export{}
	var metric, axis int
	err := row.Scan(
		&exp.ID, &exp.Dataset, &exp.View, &exp.Format, &metric, &axis,
		&exp.Buckets, &exp.Vertices, &exp.Key, &exp.URL, &exp.Size, &exp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	exp.Metric = model.Metric(metric)
	exp.Axis = model.Axis(axis)
	return exp, nil
}

func getExport(row *sql.Row, id int64) (*model.Export, error) {
	exp, err := scanExport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Newf(apperrors.CodeNotFound, "export not found: %d", id)
		}
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to get export", err)
	}
	return exp, nil
}

func scanExports(rows *sql.Rows) ([]*model.Export, error) {
	var exports []*model.Export
	for rows.Next() {
		exp, err := scanExport(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to scan export", err)
		}
		exports = append(exports, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to iterate exports", err)
	}
	return exports, nil
}

var _ ExportRepository = (*PostgresExportRepository)(nil)
