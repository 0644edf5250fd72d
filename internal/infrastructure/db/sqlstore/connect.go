package sqlstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	// Pure Go driver registered under the name "sqlite".
	_ "modernc.org/sqlite"
)

const defaultBusyTimeout = 5 * time.Second

// Config captures the settings for opening the relational store.
type Config struct {
	// DSN selects the backend: postgres:// and postgresql:// URLs open
	// PostgreSQL, anything else is treated as a SQLite file path.
	DSN string
	// BusyTimeout bounds how long a SQLite writer waits for the file lock.
	BusyTimeout time.Duration
	// SlowQuery is the threshold above which statements are logged at warn.
	SlowQuery time.Duration
}

// IsPostgres reports whether dsn addresses a PostgreSQL server.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Connect opens the database named by cfg.DSN.
//
// SQLite connections are limited to a single open connection: writers are
// serialized by the pool instead of failing with "database is locked".
func Connect(cfg Config, logger zerolog.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: newGormLogger(logger, cfg.SlowQuery)}

	if IsPostgres(cfg.DSN) {
		logger.Info().Msg("connecting to PostgreSQL")
		db, err := gorm.Open(postgres.Open(cfg.DSN), gcfg)
		if err != nil {
			return nil, fmt.Errorf("postgres open: %w", err)
		}
		return db, nil
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}
	dsn := sqliteDSN(cfg.DSN, busy)
	logger.Info().Str("dsn", dsn).Msg("using SQLite")

	db, err := gorm.Open(gormsqlite.New(gormsqlite.Config{
		DriverName: "sqlite",
		DSN:        dsn,
	}), gcfg)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// sqliteDSN appends the pragmas the store relies on unless the caller
// already set them.
func sqliteDSN(path string, busy time.Duration) string {
	if path == "" {
		path = "requests.db"
	}
	var pragmas []string
	if !strings.Contains(path, "busy_timeout") {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=busy_timeout(%d)", busy.Milliseconds()))
	}
	if !strings.Contains(path, "foreign_keys") {
		pragmas = append(pragmas, "_pragma=foreign_keys(1)")
	}
	if len(pragmas) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(pragmas, "&")
}
