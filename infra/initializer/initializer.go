// Package initializer builds the infrastructure the application runs on
// from its configuration.
package initializer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/gastos/infra"
	"github.com/amirasaad/gastos/infra/cache"
	inframailer "github.com/amirasaad/gastos/infra/mailer"
	infra_repository "github.com/amirasaad/gastos/infra/repository"
	infrastorage "github.com/amirasaad/gastos/infra/storage"
	"github.com/amirasaad/gastos/pkg/app"
	"github.com/amirasaad/gastos/pkg/config"
	"gorm.io/gorm"
)

// InitializeDependencies opens the database, brings its schema up to date
// and builds the file store, mailer and rate-limit storage. The returned
// cleanup releases the connections.
func InitializeDependencies(cfg *config.App) (
	deps *app.Deps,
	cleanup func(),
	err error,
) {
	logger := SetupLogger(cfg.Log)
	deps = &app.Deps{Logger: logger}

	db, err := OpenDatabase(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}}
	release := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("Failed to release resource", "error", err)
			}
		}
	}
	defer func() {
		if err != nil {
			release()
		}
	}()

	if err = infra.Migrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		return nil, nil, err
	}
	deps.Uow = infra_repository.NewUoW(db)

	deps.Store, err = infrastorage.NewLocalStore(cfg.Storage.UploadsPath, cfg.Storage.MaxFileSize, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to prepare uploads directory: %w", err)
	}
	deps.Mailer = inframailer.NewLogMailer(cfg.Mail.From, logger)

	if cfg.Redis.URL != "" {
		storage, rerr := cache.NewRedisStorage(cfg.Redis.URL, cfg.Redis.KeyPrefix, logger)
		if rerr != nil {
			err = fmt.Errorf("failed to create Redis rate-limit storage: %w", rerr)
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if perr := storage.Ping(ctx); perr != nil {
			// Rate limiting falls back to in-memory counters.
			logger.Warn("Redis unavailable, using in-memory rate limits", "error", perr)
			_ = storage.Close()
		} else {
			deps.LimiterStorage = storage
			closers = append(closers, storage.Close)
		}
	}

	logger.Info("Dependencies initialized", "db", db.Name(), "uploads", cfg.Storage.UploadsPath)
	return deps, release, nil
}

// OpenDatabase connects to the configured database without migrating it.
func OpenDatabase(cfg *config.App, logger *slog.Logger) (*gorm.DB, error) {
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	return db, nil
}
