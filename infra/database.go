package infra

import (
	"errors"
	"strings"
	"time"

	"github.com/amirasaad/masroofy/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDBConnection opens the database named by cnf.Url. Postgres DSNs go to
// the pgx-based driver; "sqlite://path", "file:..." and ":memory:" open sqlite.
func NewDBConnection(
	cnf *config.DB,
	appEnv string,
) (*gorm.DB, error) {
	if cnf == nil || cnf.Url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	logMode := logger.Silent
	if appEnv == "development" {
		logMode = logger.Info
	}
	gormCfg := &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}

	dialector, isSQLite := dialectorFor(cnf.Url)
	connection, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	if isSQLite {
		// one writer at a time; keeps ":memory:" databases alive
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
		return connection, nil
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	return connection, nil
}

// IsSQLite reports whether url selects the sqlite driver.
func IsSQLite(url string) bool {
	_, ok := dialectorFor(url)
	return ok
}

func dialectorFor(url string) (gorm.Dialector, bool) {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(url, "sqlite://")), true
	case strings.HasPrefix(url, "file:"), url == ":memory:":
		return sqlite.Open(url), true
	default:
		return postgres.Open(url), false
	}
}
