package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/gastos/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialect names accepted by NewDBConnection.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// ParseDSN resolves the dialect of a database URL and the DSN the driver expects.
// postgres:// and postgresql:// select postgres; sqlite://path, file: and
// :memory: select sqlite.
func ParseDSN(url string) (dialect, dsn string, err error) {
	switch {
	case url == "":
		return "", "", errors.New("DATABASE_URL is not set")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DialectPostgres, url, nil
	case strings.HasPrefix(url, "sqlite://"):
		return DialectSQLite, strings.TrimPrefix(url, "sqlite://"), nil
	case strings.HasPrefix(url, "file:"), url == ":memory:":
		return DialectSQLite, url, nil
	default:
		return "", "", fmt.Errorf("unsupported database url scheme: %q", url)
	}
}

// NewDBConnection opens the database named by cnf.Url.
func NewDBConnection(
	cnf *config.DB,
	appEnv string,
) (*gorm.DB, error) {
	if cnf == nil {
		return nil, errors.New("database config is missing")
	}
	dialect, dsn, err := ParseDSN(cnf.Url)
	if err != nil {
		return nil, err
	}

	var logMode logger.LogLevel
	if appEnv == "development" {
		logMode = logger.Info
	} else {
		logMode = logger.Silent
	}

	var dialector gorm.Dialector
	if dialect == DialectPostgres {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	connection, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	if dialect == DialectSQLite {
		// one writer; also keeps a :memory: database alive across calls
		sqlDB.SetMaxOpenConns(1)
		return connection, nil
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	return connection, nil
}
