package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   string = "sqlite"
	DriverPostgres string = "postgres"
)

var ErrUnknownDriver = errors.New("unknown database driver")

type ConnectorFunc func() (*gorm.DB, zerolog.Logger, error)

// NewConnector picks a connector by driver name. An empty sqlite dsn opens a
// private in-memory database.
func NewConnector(log zerolog.Logger, driver, dsn string) (ConnectorFunc, error) {
	switch strings.ToLower(driver) {
	case DriverSQLite:
		return NewSQLiteConnector(log, dsn), nil
	case DriverPostgres:
		return NewPostgreSQLConnector(log, dsn), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownDriver, driver)
	}
}

func NewSQLiteConnector(log zerolog.Logger, dsn string) ConnectorFunc {
	if dsn == "" {
		dsn = "file::memory:"
	}

	return func() (*gorm.DB, zerolog.Logger, error) {
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
			Logger:          logger.Default.LogMode(logger.Silent),
			CreateBatchSize: 1000,
		})

		if err == nil {
			sqldb, _ := db.DB()
			sqldb.SetMaxOpenConns(1)
		}

		return db, log, err
	}
}

func NewPostgreSQLConnector(log zerolog.Logger, dsn string) ConnectorFunc {
	return func() (*gorm.DB, zerolog.Logger, error) {
		sublogger := log.With().Str("driver", DriverPostgres).Logger()
		sublogger.Info().Msg("connecting to database host")

		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.New(
				&sublogger,
				logger.Config{
					SlowThreshold:             time.Second,
					LogLevel:                  logger.Warn,
					IgnoreRecordNotFoundError: true,
					Colorful:                  false,
				},
			),
			CreateBatchSize: 1000,
		})
		if err != nil {
			return nil, sublogger, fmt.Errorf("failed to connect to database: %w", err)
		}

		return db, sublogger, nil
	}
}
