package main

import (
	"context"
	"fmt"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alibahaloo/PharmaTrack-sub000/config"
	"github.com/alibahaloo/PharmaTrack-sub000/data"
	"github.com/alibahaloo/PharmaTrack-sub000/handlers"
	"github.com/alibahaloo/PharmaTrack-sub000/health"
	"github.com/alibahaloo/PharmaTrack-sub000/interactions"
	"github.com/alibahaloo/PharmaTrack-sub000/interfaces"
	"github.com/alibahaloo/PharmaTrack-sub000/logging"
	"github.com/alibahaloo/PharmaTrack-sub000/referenceparser"
	"github.com/alibahaloo/PharmaTrack-sub000/scheduler"
	"github.com/alibahaloo/PharmaTrack-sub000/server"
	"github.com/alibahaloo/PharmaTrack-sub000/store/postgres"
	"github.com/alibahaloo/PharmaTrack-sub000/validation"
)

// backend bundles the reference store with its lifecycle hooks
type backend struct {
	store        interfaces.ReferenceStore
	status       interfaces.StatusProvider
	refreshTimes []string
	stop         func()
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.InitLoggerWithOptions(logging.Options{
		LogDir:         cfg.LogDir,
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer logging.Close()

	logging.Info("Starting interactions API",
		"env", cfg.Env,
		"data_source", cfg.DataSource,
		"max_drug_codes", cfg.MaxDrugCodes,
		"max_ingredient_names", cfg.MaxIngredientNames,
	)

	validator := validation.NewDataValidator()

	b, err := openBackend(cfg, validator)
	if err != nil {
		logging.Error("Failed to open reference store", "error", err)
		os.Exit(1)
	}
	defer b.stop()

	service := interactions.NewService(b.store, interactions.Options{
		MaxDrugCodes:       cfg.MaxDrugCodes,
		MaxIngredientNames: cfg.MaxIngredientNames,
		Concurrency:        cfg.PairLookupConcurrency,
	})
	healthChecker := health.NewHealthChecker(b.status, b.refreshTimes)
	handler := handlers.NewHTTPHandler(service, healthChecker, validator, cfg.ResolutionTimeout)

	srv := server.NewServer(cfg, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case sig := <-quit:
		logging.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			logging.Error("Server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown failed", "error", err)
	}
}

// openBackend builds the reference store selected by DATA_SOURCE. Files mode blocks
// until the initial load has completed.
func openBackend(cfg *config.Config, validator interfaces.DataValidator) (*backend, error) {
	switch cfg.DataSource {
	case config.SourcePostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}

		store := postgres.NewStore(pool)
		return &backend{store: store, status: store, stop: pool.Close}, nil

	default:
		refreshTimes, err := config.ParseRefreshTimes(cfg.RefreshTimes)
		if err != nil {
			return nil, err
		}

		container := data.NewDataContainer()
		container.SetServerStartTime(time.Now())

		parser := referenceparser.NewReferenceParser(referenceparser.Sources{
			Drugs:        cfg.DrugsSource,
			Compositions: cfg.CompositionsSource,
			Interactions: cfg.InteractionsSource,
		})

		sched := scheduler.NewScheduler(container, parser, validator, cfg.RefreshTimes)
		if err := sched.Start(); err != nil {
			return nil, err
		}

		return &backend{store: container, status: container, refreshTimes: refreshTimes, stop: sched.Stop}, nil
	}
}
