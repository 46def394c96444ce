package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/metaflame/pkg/config"
	apperrors "github.com/metaflame/pkg/errors"
	"github.com/metaflame/pkg/telemetry"
)

// DBType represents the database type.
type DBType string

const (
	DBTypeSQLite   DBType = "sqlite"
	DBTypePostgres DBType = "postgres"
	DBTypeMySQL    DBType = "mysql"
)

// Dialector returns the gorm dialector for cfg.
func Dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch DBType(cfg.Type) {
	case DBTypeSQLite, DBType("sqlite3"), "":
		path := cfg.Path
		if path == "" {
			path = "metaflame.db"
		}
		return sqlite.Open(path), nil
	case DBTypePostgres, DBType("postgresql"):
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database,
		)
		return postgres.Open(dsn), nil
	case DBTypeMySQL:
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		)
		return mysql.Open(dsn), nil
	default:
		return nil, apperrors.Newf(apperrors.CodeConfigError, "unsupported database type: %s", cfg.Type)
	}
}

// NewGormDB creates a new GORM database connection based on configuration.
func NewGormDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to open database", err)
	}

	if telemetry.Enabled() {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to enable telemetry", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to get underlying sql.DB", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	if DBType(cfg.Type) == DBTypeSQLite || cfg.Type == "" {
		// sqlite serializes writers; a single connection avoids SQLITE_BUSY.
		maxConns = 1
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(max(maxConns/2, 1))
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to ping database", err)
	}

	return db, nil
}

// Repositories holds all repository instances.
type Repositories struct {
	Export ExportRepository
	gormDB *gorm.DB
}

// NewRepositories creates all repositories using GORM.
func NewRepositories(gormDB *gorm.DB) *Repositories {
	return &Repositories{
		Export: NewGormExportRepository(gormDB),
		gormDB: gormDB,
	}
}

// Open connects to the configured database and migrates its schema.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*Repositories, error) {
	db, err := NewGormDB(cfg)
	if err != nil {
		return nil, err
	}
	repos := NewRepositories(db)
	if err := repos.Migrate(ctx); err != nil {
		repos.Close()
		return nil, err
	}
	return repos, nil
}

// Migrate creates or updates the tables used by the repositories.
func (r *Repositories) Migrate(ctx context.Context) error {
	if err := r.gormDB.WithContext(ctx).AutoMigrate(&ExportRecord{}); err != nil {
		return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to migrate schema", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repositories) Close() error {
	if r.gormDB != nil {
		sqlDB, err := r.gormDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// HealthCheck verifies the database connection is still alive.
func (r *Repositories) HealthCheck(ctx context.Context) error {
	sqlDB, err := r.gormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// DB returns the underlying sql.DB connection.
func (r *Repositories) DB() *sql.DB {
	sqlDB, _ := r.gormDB.DB()
	return sqlDB
}

// GormDB returns the underlying GORM DB instance.
func (r *Repositories) GormDB() *gorm.DB {
	return r.gormDB
}
