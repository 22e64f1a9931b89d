package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/swimform/swimform-go/internal/conf"
	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/logger"
)

// MySQLStore implements DataStore for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

func validateMySQLConfig(settings *conf.Settings) error {
	m := settings.Database.MySQL
	if m.Host == "" || m.Database == "" || m.Username == "" {
		return errors.Newf("mysql host, database and username are required").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// mysqlDSN builds the driver DSN.
func mysqlDSN(m conf.MySQLSettings) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		m.Username, m.Password, m.Host, m.Port, m.Database)
}

// Open connects to the MySQL database.
func (store *MySQLStore) Open() error {
	if err := validateMySQLConfig(store.Settings); err != nil {
		return err
	}

	m := store.Settings.Database.MySQL
	db, err := gorm.Open(mysql.Open(mysqlDSN(m)), &gorm.Config{
		Logger:         logger.NewGormLoggerAdapter(GetLogger(), DefaultSlowQueryThreshold),
		TranslateError: true,
	})
	if err != nil {
		GetLogger().Error("failed to open MySQL database",
			logger.String("host", m.Host),
			logger.Int("port", m.Port),
			logger.String("database", m.Database),
			logger.Error(err))
		return dbError(err, "open", "", "")
	}

	store.DB = db
	return performAutoMigration(db, "MySQL", fmt.Sprintf("%s:%d/%s", m.Host, m.Port, m.Database))
}

// Close closes the database connection.
func (store *MySQLStore) Close() error {
	err := closeDB(store.DB)
	store.DB = nil
	return err
}
