// Command gangboyz searches the Gang Boyz storefront catalogue and manages
// the crops of its banner images.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driven/config/file"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driven/metrics"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driven/notify"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driven/storage/memory"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driven/storage/sqlite"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driven/upload"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driving/cli"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driven"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/services"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	_ = godotenv.Load()

	cli.SetVersion(version)
	cli.SetServiceFactory(buildServices)

	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}

// buildServices wires the adapters and services for one invocation.
func buildServices(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	var (
		store       driven.KeyValueStore
		configStore driven.ConfigStore
		closers     []func() error
	)

	if opts.Memory {
		store = memory.NewKeyValueStore()
		configStore = memory.NewConfigStore()
	} else {
		db, err := sqlite.NewStore(opts.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		closers = append(closers, db.Close)
		store = db
		logger.Debug("store: %s", db.Path())

		cfg, err := file.NewConfigStore(opts.ConfigDir)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("open config: %w", err)
		}
		configStore = cfg
		logger.Debug("config: %s", cfg.Path())
	}

	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		_ = closeAll()
		return nil, fmt.Errorf("load settings: %w", err)
	}

	uploadSettings := settings.Upload
	switch {
	case uploadSettings.Dir != "":
	case opts.Memory:
		dir, err := os.MkdirTemp("", "gangboyz-uploads-")
		if err != nil {
			_ = closeAll()
			return nil, fmt.Errorf("create upload directory: %w", err)
		}
		closers = append(closers, func() error { return os.RemoveAll(dir) })
		uploadSettings.Dir = dir
	case opts.DataDir != "":
		uploadSettings.Dir = filepath.Join(opts.DataDir, "uploads")
	}
	uploads, err := upload.NewStore(uploadSettings)
	if err != nil {
		_ = closeAll()
		return nil, fmt.Errorf("open uploads: %w", err)
	}

	clock := services.SystemClock{}
	feed := notify.NewBroadcaster(notify.DefaultBuffer)

	search, err := services.NewSearchIndex(ctx, store, settings.Search, clock)
	if err != nil {
		_ = closeAll()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	searchMetrics, err := metrics.NewSearchMetrics(registry)
	if err != nil {
		_ = closeAll()
		return nil, err
	}
	search.SetMetrics(searchMetrics)

	engine := services.NewTransformEngine(settings.Crop)

	crop := services.NewCropService(store, engine)
	crop.SetUploader(uploads)
	crop.SetImageProber(uploads)
	crop.SetNotifier(feed)
	crop.SetClock(clock)

	catalog := services.NewCatalogService(store, settings.Search.Collections)
	catalog.SetNotifier(feed)

	return &cli.Services{
		Search:   search,
		Crop:     crop,
		Engine:   engine,
		Settings: settingsService,
		Catalog:  catalog,
		Prober:   uploads,
		Changes:  feed,
		Metrics:  metrics.Handler(registry),
		Close:    closeAll,
	}, nil
}
