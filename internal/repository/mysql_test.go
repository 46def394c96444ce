package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/metaflame/pkg/errors"
)

func TestMySQLExportRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMySQLExportRepository(db)
	repo.now = func() time.Time { return now }

	exp := newExport("run1", "overview")
	mock.ExpectExec("INSERT INTO exports").
		WithArgs("run1", "overview", "bin", 1, 1, 5, 504, "run1/overview.bin", "", int64(14112), now).
		WillReturnResult(sqlmock.NewResult(7, 1))

	require.NoError(t, repo.Create(context.Background(), exp))
	assert.Equal(t, int64(7), exp.ID)
	assert.Equal(t, now, exp.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLExportRepository_CreateErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLExportRepository(db)

	t.Run("Exec", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO exports").WillReturnError(errors.New("deadlock"))
		err := repo.Create(context.Background(), newExport("run1", "overview"))
		assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetErrorCode(err))
	})

	t.Run("LastInsertId", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO exports").
			WillReturnResult(sqlmock.NewErrorResult(errors.New("no id")))
		err := repo.Create(context.Background(), newExport("run1", "overview"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read export id")
	})
}

func TestMySQLExportRepository_GetAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLExportRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT id, dataset").WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(exportRowColumns).
			AddRow(int64(3), "run2", "inspector", "bin", 0, 0, 1, 36, "run2/inspector.bin", "", int64(10), now))

	exp, err := repo.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "inspector", exp.View)

	mock.ExpectQuery("SELECT id, dataset").WithArgs("", "", 10).
		WillReturnRows(sqlmock.NewRows(exportRowColumns))

	list, err := repo.List(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.NoError(t, mock.ExpectationsWereMet())
}
