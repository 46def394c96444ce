package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"

	"github.com/metaflame/pkg/config"
	apperrors "github.com/metaflame/pkg/errors"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.DatabaseConfig
		expected string
	}{
		{"SQLite", &config.DatabaseConfig{Type: "sqlite", Path: "x.db"}, "sqlite"},
		{"DefaultIsSQLite", &config.DatabaseConfig{}, "sqlite"},
		{"Postgres", &config.DatabaseConfig{Type: "postgres", Host: "db", Port: 5432}, "postgres"},
		{"PostgresAlt", &config.DatabaseConfig{Type: "postgresql"}, "postgres"},
		{"MySQL", &config.DatabaseConfig{Type: "mysql", Host: "db", Port: 3306}, "mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Dialector(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d.Name())
		})
	}

	t.Run("PostgresDSN", func(t *testing.T) {
		d, err := Dialector(&config.DatabaseConfig{
			Type: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", Database: "mf",
		})
		require.NoError(t, err)
		pg, ok := d.(*postgres.Dialector)
		require.True(t, ok)
		assert.Equal(t, "host=db port=5432 user=u password=p dbname=mf sslmode=disable", pg.Config.DSN)
	})

	t.Run("MySQLDSN", func(t *testing.T) {
		d, err := Dialector(&config.DatabaseConfig{
			Type: "mysql", Host: "db", Port: 3306, User: "u", Password: "p", Database: "mf",
		})
		require.NoError(t, err)
		my, ok := d.(*mysql.Dialector)
		require.True(t, ok)
		assert.Equal(t, "u:p@tcp(db:3306)/mf?parseTime=true&loc=UTC", my.Config.DSN)
	})

	t.Run("SQLitePath", func(t *testing.T) {
		d, err := Dialector(&config.DatabaseConfig{Type: "sqlite"})
		require.NoError(t, err)
		assert.Equal(t, "metaflame.db", d.(*sqlite.Dialector).DSN)
	})

	t.Run("Unsupported", func(t *testing.T) {
		_, err := Dialector(&config.DatabaseConfig{Type: "oracle"})
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeConfigError, apperrors.GetErrorCode(err))
	})
}

func TestOpen_SQLiteFile(t *testing.T) {
	ctx := context.Background()
	cfg := &config.DatabaseConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "ledger.db")}

	repos, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer repos.Close()

	require.NoError(t, repos.HealthCheck(ctx))
	assert.NotNil(t, repos.DB())
	assert.NotNil(t, repos.GormDB())

	exp := newExport("run1", "overview")
	require.NoError(t, repos.Export.Create(ctx, exp))

	list, err := repos.Export.List(ctx, "run1", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNewGormDB_Unsupported(t *testing.T) {
	_, err := NewGormDB(&config.DatabaseConfig{Type: "oracle"})
	assert.Error(t, err)
}

func TestListLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, listLimit(0))
	assert.Equal(t, DefaultListLimit, listLimit(-3))
	assert.Equal(t, 7, listLimit(7))
}
