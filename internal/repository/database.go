package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bassista/go_school/internal/config"
	"github.com/bassista/go_school/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDatabase connects to the configured relational backend.
func OpenDatabase(cfg config.BackendConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port)
		dialector = postgres.Open(dsn)
	case config.DriverSQLite, "":
		if dir := filepath.Dir(cfg.Name); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", cfg.Name)
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: gormlogger.New(logger.WithComponent("gorm"), gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database (%s): %w", cfg.Name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB instance: %w", err)
	}

	if cfg.Driver == config.DriverPostgres {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
	} else {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate creates or updates the collection tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&Subject{}, &Publication{}, &Resource{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// NewProviders builds the collection providers for the configured driver.
// db is ignored by the memory driver and may be nil there.
func NewProviders(cfg config.BackendConfig, db *gorm.DB) (Providers, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return Providers{
			Subjects:     NewMemoryProvider(CollectionSubjects, SubjectLess, cfg.StrictDelete),
			Publications: NewMemoryProvider(CollectionPublications, PublicationLess, cfg.StrictDelete).WithCounter(BumpLikes),
			Resources:    NewMemoryProvider(CollectionResources, ResourceLess, cfg.StrictDelete).WithCounter(BumpDownloads),
		}, nil
	case config.DriverSQLite, config.DriverPostgres, "":
		if db == nil {
			return Providers{}, fmt.Errorf("%s driver: %w", cfg.Driver, ErrConfigurationMissing)
		}
		strict := WithStrictDelete(cfg.StrictDelete)
		return Providers{
			Subjects:     NewGormProvider[Subject](db, CollectionSubjects, "position", false, strict),
			Publications: NewGormProvider[Publication](db, CollectionPublications, "created_at", true, strict, WithCounter("likes")),
			Resources:    NewGormProvider[Resource](db, CollectionResources, "created_at", true, strict, WithCounter("downloads")),
		}, nil
	default:
		return Providers{}, fmt.Errorf("unknown backend driver: %s (supported: %s, %s, %s)",
			cfg.Driver, config.DriverSQLite, config.DriverPostgres, config.DriverMemory)
	}
}
