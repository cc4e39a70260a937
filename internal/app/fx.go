package app

import (
	"context"
	"net/http"

	"github.com/ilindan-dev/mail-dispatcher/internal/config"
	deliveryHTTP "github.com/ilindan-dev/mail-dispatcher/internal/delivery/http"
	repo "github.com/ilindan-dev/mail-dispatcher/internal/domain/repository"
	"github.com/ilindan-dev/mail-dispatcher/internal/logger"
	"github.com/ilindan-dev/mail-dispatcher/internal/notifiers"
	"github.com/ilindan-dev/mail-dispatcher/internal/service"
	"github.com/ilindan-dev/mail-dispatcher/internal/storage/memory"
	"github.com/ilindan-dev/mail-dispatcher/internal/storage/postgres"
	"github.com/ilindan-dev/mail-dispatcher/internal/storage/redis"
	"github.com/ilindan-dev/mail-dispatcher/internal/templates"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// CommonModule provides the dispatch core and its supporting infrastructure.
var CommonModule = fx.Options(
	fx.Provide(
		// Core components
		config.NewConfig,
		logger.NewLogger,

		// Dispatch core
		NewTransport,
		NewTemplateLoader,
		NewReceiptJournal,
		service.NewDispatcher,
	),
)

// APIModule defines the Fx module for the HTTP API application.
var APIModule = fx.Options(
	CommonModule,
	fx.Provide(
		deliveryHTTP.NewHandlers,
		deliveryHTTP.NewServer,
	),

	fx.Invoke(func(server *deliveryHTTP.Server, lc fx.Lifecycle) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						panic(err)
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return server.Shutdown(ctx)
			},
		})
	}),
)

// NewTransport selects the single process-wide transport.
// A configuration error here keeps the application from starting.
func NewTransport(cfg *config.Config, logger *zerolog.Logger) (notifiers.Transport, error) {
	return notifiers.SelectTransport(cfg.Transport, logger)
}

// NewTemplateLoader builds the template pipeline: file store, engine and, when enabled,
// the compiled-template cache with its file watcher.
func NewTemplateLoader(lc fx.Lifecycle, cfg *config.Config, logger *zerolog.Logger) (templates.Loader, error) {
	store := templates.NewFileStore(cfg.Templates.Root, cfg.Templates.Ext)
	compiler := templates.NewCompiler(store, templates.NewEngine())

	if !cfg.Templates.Cache {
		if cfg.Templates.Watch {
			logger.Warn().Msg("templates.watch has no effect without templates.cache")
		}
		return compiler, nil
	}

	cache := templates.NewCache(compiler, logger)
	if !cfg.Templates.Watch {
		return cache, nil
	}

	watcher, err := templates.NewWatcher(store, cache, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go watcher.Run(context.Background())
			return nil
		},
		OnStop: func(context.Context) error {
			return watcher.Close()
		},
	})
	return cache, nil
}

// NewReceiptJournal picks the receipt store: Postgres when a DSN is configured,
// optionally fronted by Redis, and process memory otherwise.
func NewReceiptJournal(lc fx.Lifecycle, cfg *config.Config, logger *zerolog.Logger) (repo.ReceiptRepository, error) {
	if cfg.Postgres.DSN == "" {
		logger.Info().Msg("postgres dsn not set, keeping receipts in memory")
		return memory.NewReceiptRepository(), nil
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(pool.Close))

	if cfg.Postgres.Migrate {
		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			return nil, err
		}
	}

	var journal repo.ReceiptRepository = postgres.NewReceiptRepository(pool, logger)
	if cfg.Redis.Addr == "" {
		return journal, nil
	}

	client, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(client.Close))

	cache := redis.NewReceiptCache(logger, client)
	return redis.NewCachedReceiptRepository(journal, cache, cfg.Redis.TTL, logger), nil
}
