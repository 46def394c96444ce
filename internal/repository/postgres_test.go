package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/metaflame/pkg/errors"
	"github.com/metaflame/pkg/model"
)

var exportRowColumns = []string{
	"id", "dataset", "view_name", "format", "metric", "axis", "buckets", "vertices",
	"object_key", "url", "size", "created_at",
}

func TestPostgresExportRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresExportRepository(db)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	exp := newExport("run1", "overview")
	mock.ExpectQuery("INSERT INTO exports").
		WithArgs("run1", "overview", "bin", 1, 1, 5, 504, "run1/overview.bin", "", int64(14112)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now))

	require.NoError(t, repo.Create(context.Background(), exp))
	assert.Equal(t, int64(42), exp.ID)
	assert.Equal(t, now, exp.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresExportRepository_CreateError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO exports").WillReturnError(errors.New("connection reset"))

	err = NewPostgresExportRepository(db).Create(context.Background(), newExport("run1", "overview"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresExportRepository_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresExportRepository(db)
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(exportRowColumns).
			AddRow(int64(1), "run1", "flamegraph", "json", 0, 0, 1, 48, "run1/flamegraph.json", "", int64(900), now)
		mock.ExpectQuery("SELECT id, dataset, view_name").WithArgs(int64(1)).WillReturnRows(rows)

		exp, err := repo.Get(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "flamegraph", exp.View)
		assert.Equal(t, model.MetricDuration, exp.Metric)
		assert.Equal(t, 48, exp.Vertices)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, dataset, view_name").WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

		exp, err := repo.Get(context.Background(), 9)
		assert.Nil(t, exp)
		assert.True(t, apperrors.IsNotFound(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresExportRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresExportRepository(db)
	now := time.Now()

	t.Run("Rows", func(t *testing.T) {
		rows := sqlmock.NewRows(exportRowColumns).
			AddRow(int64(2), "run1", "overview", "bin", 1, 0, 5, 504, "run1/overview.bin", "", int64(1), now).
			AddRow(int64(1), "run1", "flamegraph", "json", 0, 0, 1, 48, "run1/flamegraph.json", "", int64(2), now)
		mock.ExpectQuery("SELECT id, dataset").WithArgs("run1", DefaultListLimit).WillReturnRows(rows)

		list, err := repo.List(context.Background(), "run1", 0)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, int64(2), list[0].ID)
	})

	t.Run("QueryError", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, dataset").WillReturnError(errors.New("boom"))

		_, err := repo.List(context.Background(), "", 5)
		assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetErrorCode(err))
	})

	t.Run("ScanError", func(t *testing.T) {
		rows := sqlmock.NewRows(exportRowColumns).
			AddRow("not-an-id", "run1", "overview", "bin", 1, 0, 5, 504, "k", "", int64(1), now)
		mock.ExpectQuery("SELECT id, dataset").WillReturnRows(rows)

		_, err := repo.List(context.Background(), "", 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to scan export")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
