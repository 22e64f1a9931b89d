package datastore

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/swimform/swimform-go/internal/conf"
	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/logger"
)

// SQLiteStore implements DataStore for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

func validateSQLiteConfig(settings *conf.Settings) error {
	if settings.Database.SQLite.Path == "" {
		return errors.Newf("sqlite path is empty").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// Open connects to the SQLite database, creating its directory if needed.
func (store *SQLiteStore) Open() error {
	if err := validateSQLiteConfig(store.Settings); err != nil {
		return err
	}

	path := store.Settings.Database.SQLite.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("path", dir).
				Build()
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.NewGormLoggerAdapter(GetLogger(), DefaultSlowQueryThreshold),
		TranslateError: true,
	})
	if err != nil {
		GetLogger().Error("failed to open SQLite database",
			logger.String("path", path),
			logger.Error(err))
		return dbError(err, "open", "", "")
	}

	// SQLite allows a single writer.
	sqlDB, err := db.DB()
	if err != nil {
		return dbError(err, "open", "", "")
	}
	sqlDB.SetMaxOpenConns(1)

	store.DB = db
	return performAutoMigration(db, "SQLite", path)
}

// Close closes the database connection.
func (store *SQLiteStore) Close() error {
	err := closeDB(store.DB)
	store.DB = nil
	return err
}
