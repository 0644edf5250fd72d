// Package sqlstore implements the request store on PostgreSQL or SQLite
// through gorm.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/99minutos/service-requests/internal/core/domain"
	"github.com/99minutos/service-requests/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// Store is a ports.Store backed by a relational database.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
	now    func() time.Time
}

var _ ports.Store = (*Store)(nil)

// New migrates the schema and returns a ready store. It takes ownership of
// db: Close releases the underlying pool.
func New(db *gorm.DB, logger zerolog.Logger) (*Store, error) {
	if err := db.AutoMigrate(&userModel{}, &requestModel{}, &eventModel{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Open connects and migrates in one step.
func Open(cfg Config, logger zerolog.Logger) (*Store, error) {
	db, err := Connect(cfg, logger)
	if err != nil {
		return nil, domain.NewStorageError("open store", err)
	}
	s, err := New(db, logger)
	if err != nil {
		if sqlDB, derr := db.DB(); derr == nil {
			_ = sqlDB.Close()
		}
		return nil, domain.NewStorageError("open store", err)
	}
	return s, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return domain.NewStorageError("ping", err)
	}
	return domain.NewStorageError("ping", sqlDB.PingContext(ctx))
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// conn scopes a query to ctx with the store's default deadline.
func (s *Store) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	return s.db.WithContext(ctx), cancel
}

// storageErr passes domain errors through and wraps everything else as a
// retryable storage failure.
func storageErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidTransition):
		return err
	}
	return domain.NewStorageError(op, err)
}
