// Command server runs the service request API consumed by the chat front end.
//
// @title                       Service Requests API
// @version                     1.0
// @description                 Lifecycle of maintenance requests raised through the chat front end.
// @BasePath                    /
// @securityDefinitions.apikey  ActorID
// @in                          header
// @name                        X-Actor-ID
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/99minutos/service-requests/docs" // swagger docs
	"github.com/99minutos/service-requests/internal/api"
	"github.com/99minutos/service-requests/internal/api/handler"
	"github.com/99minutos/service-requests/internal/core/ports"
	"github.com/99minutos/service-requests/internal/core/service"
	"github.com/99minutos/service-requests/internal/infrastructure/config"
	"github.com/99minutos/service-requests/internal/infrastructure/db"
	"github.com/99minutos/service-requests/internal/infrastructure/db/redis"
	"github.com/99minutos/service-requests/internal/infrastructure/media"
	"github.com/99minutos/service-requests/internal/infrastructure/queue"
	"github.com/99minutos/service-requests/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.Init(logger.Options{})
		l.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "service-requests",
	})

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	store, err := db.OpenStore(ctx, cfg.Store, cfg.Mongo, logger.Component("store"))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}()
	log.Info().Str("driver", cfg.Store.Driver).Msg("store ready")

	pingers := map[string]handler.Pinger{"store": store}

	var (
		sink        ports.EventSink = queue.NewLogSink(logger.Component("notify"))
		idempotency ports.IdempotencyStore
	)
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		idempotency = redis.NewIdempotencyStore(rdb)
		sink = redis.NewEventPublisher(rdb, cfg.Redis.Channel)
		pingers["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		log.Info().Str("addr", cfg.Redis.Addr).Str("channel", cfg.Redis.Channel).Msg("redis ready")
	}

	photos, err := media.NewStore(cfg.Media.Dir, cfg.Media.MaxBytes, logger.Component("media"))
	if err != nil {
		return err
	}

	dispatcher := queue.NewDispatcher(cfg.Notify.Workers, sink, logger.Component("notify"))
	// Close drains the queues, so workers outlive the signal context.
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Close()

	svc := service.NewRequestService(store, service.Options{
		Media:          photos,
		Idempotency:    idempotency,
		Events:         dispatcher,
		AdminIDs:       cfg.AdminIDs,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
	}, logger.Component("service"))

	e := api.NewRouter(api.Deps{
		Service:   svc,
		Media:     photos,
		Pingers:   pingers,
		JWTSecret: cfg.JWTSecret,
		Logger:    logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
