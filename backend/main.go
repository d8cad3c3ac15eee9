package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/signed-louvain/backend/api"
	"github.com/gilchrisn/signed-louvain/backend/config"
	"github.com/gilchrisn/signed-louvain/backend/metrics"
	"github.com/gilchrisn/signed-louvain/backend/service"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().
		Str("address", cfg.Server.Address).
		Int("max_workers", cfg.Jobs.MaxWorkers).
		Dur("job_timeout", cfg.Jobs.JobTimeout).
		Str("upload_dir", cfg.Storage.UploadDir).
		Msg("Configuration loaded")

	registry := metrics.NewRegistry()
	datasetService := service.NewDatasetService(cfg.Storage.UploadDir, registry)
	jobService := service.NewJobService(datasetService, cfg.Jobs, registry, cfg.Logging.Level)
	clusteringService := service.NewClusteringService(datasetService, jobService)

	handlers := api.NewHandlers(datasetService, clusteringService, jobService, cfg.Storage.MaxFileSize)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(handlers, registry, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().
			Str("address", cfg.Server.Address).
			Msg("HTTP server starting")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	jobService.Close()

	log.Info().Msg("Server shutdown complete")
}
