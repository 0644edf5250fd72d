// Package db selects the store backend named by the configuration.
package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/service-requests/internal/core/ports"
	"github.com/99minutos/service-requests/internal/infrastructure/config"
	"github.com/99minutos/service-requests/internal/infrastructure/db/mongo"
	"github.com/99minutos/service-requests/internal/infrastructure/db/sqlstore"
)

// OpenStore opens and migrates the configured store. The caller owns the
// result and must Close it.
func OpenStore(ctx context.Context, cfg config.StoreConfig, mcfg config.MongoConfig, log zerolog.Logger) (ports.Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		s, err := mongo.Open(ctx, mongo.Config{URI: mcfg.URI, Database: mcfg.Database}, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverSQLite, config.DriverPostgres:
		if (cfg.Driver == config.DriverPostgres) != sqlstore.IsPostgres(cfg.DatabaseURL) {
			return nil, fmt.Errorf("store driver %q does not match DATABASE_URL", cfg.Driver)
		}
		s, err := sqlstore.Open(sqlstore.Config{DSN: cfg.DatabaseURL, BusyTimeout: cfg.BusyTimeout}, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
