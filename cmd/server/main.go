package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ndewijer/portfolio-engine/internal/api"
	"github.com/ndewijer/portfolio-engine/internal/config"
	"github.com/ndewijer/portfolio-engine/internal/database"
	"github.com/ndewijer/portfolio-engine/internal/logging"
	"github.com/ndewijer/portfolio-engine/internal/repository"
	"github.com/ndewijer/portfolio-engine/internal/service"
	"github.com/ndewijer/portfolio-engine/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Logger = logger

	if dir := filepath.Dir(cfg.Database.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			logger.Fatal().Err(err).Str("path", dir).Msg("failed to create database directory")
		}
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	logger.Info().Str("path", cfg.Database.Path).Msg("connected to database")

	// Create repositories
	loader := service.NewDataLoaderService(
		repository.NewUserRepository(db),
		repository.NewInstrumentRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewCashflowRepository(db),
		repository.NewExchangeRateRepository(db),
		repository.NewPriceRepository(db),
	)

	// Create services
	systemService := service.NewSystemService(db)
	statisticsService := service.NewStatisticsService(loader, service.Options{
		ReferenceCurrency: cfg.Engine.ReferenceCurrency,
		FallbackDays:      cfg.Engine.FallbackDays,
		DefaultRates:      cfg.Engine.DefaultRates,
		UpcomingLimit:     cfg.Engine.UpcomingLimit,
		Workers:           cfg.Engine.Workers,
	}, cfg.Engine.CacheTTL, logger)

	// Create router
	router := api.NewRouter(systemService, statisticsService, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Str("version", version.Version).
			Str("reference_currency", cfg.Engine.ReferenceCurrency).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	logger.Info().Msg("server exited")
}
