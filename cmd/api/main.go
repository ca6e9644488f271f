package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mukisa/dukabook/internal/api"
	"github.com/mukisa/dukabook/internal/auth"
	"github.com/mukisa/dukabook/internal/config"
	"github.com/mukisa/dukabook/internal/extractor"
	"github.com/mukisa/dukabook/internal/jobs"
	"github.com/mukisa/dukabook/internal/jobs/inmemory"
	"github.com/mukisa/dukabook/internal/logger"
	"github.com/mukisa/dukabook/internal/observability"
	"github.com/mukisa/dukabook/internal/receipts"
	"github.com/mukisa/dukabook/internal/report"
	"github.com/mukisa/dukabook/internal/store"
	storebq "github.com/mukisa/dukabook/internal/store/bigquery"
	"github.com/mukisa/dukabook/internal/store/sqlite"
)

func main() {
	configPath := flag.String("config", os.Getenv("DUKABOOK_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.New()
	if cfg.Server.LogJSON {
		log = logger.NewJSON()
	}

	ctx := context.Background()

	// The sqlite store always opens: it holds user accounts even when
	// transactions live in BigQuery.
	userDB, err := sqlite.Open(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open user database")
	}
	defer userDB.Close()

	var txStore store.Store = userDB
	if cfg.Storage.Driver == config.DriverBigQuery {
		bqStore, err := storebq.Open(ctx, cfg.Storage.BigQueryProject, cfg.Storage.BigQueryDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open BigQuery store")
		}
		defer bqStore.Close()
		txStore = bqStore
	}

	tokenTTL, err := time.ParseDuration(cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Str("ttl", cfg.Auth.TokenTTL).Msg("Invalid token TTL")
	}
	signer, err := auth.NewTokenSigner(cfg.Auth.JWTSecret, tokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token signer")
	}

	var gemini *extractor.GeminiBackend
	if cfg.Gemini.Enabled || cfg.Storage.ReceiptsBucket != "" {
		gemini, err = extractor.NewGeminiBackend(ctx, cfg.Gemini.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini backend")
		}
	}

	opts := extractor.Options{}
	if cfg.Gemini.Enabled {
		opts.Backend = gemini
		log.Info().Str("model", cfg.Gemini.Model).Msg("Extraction uses the Gemini backend")
	}
	ex := extractor.New(opts)

	metrics := observability.NewMetrics()

	deps := api.Deps{
		Extractor: ex,
		Store:     txStore,
		Users:     userDB,
		Signer:    signer,
		Metrics:   metrics,
		Log:       log,
	}

	// Receipt scanning wires up only when a bucket is configured.
	var jobQueue *inmemory.Queue
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if cfg.Storage.ReceiptsBucket != "" {
		storage := receipts.NewGCSStorage(cfg.Storage.ReceiptsBucket)
		scanner := receipts.NewScanner(storage, gemini, ex, log)

		jobStore := inmemory.NewStore()
		jobQueue = inmemory.NewQueue(100, 5, jobStore)

		handler := func(ctx context.Context, job jobs.Job) error {
			scanJob, ok := job.(*jobs.ScanReceiptJob)
			if !ok {
				return fmt.Errorf("unexpected job type: %T", job)
			}

			res, err := scanner.Scan(ctx, scanJob.GCSURI, scanJob.MimeType)
			if err != nil {
				metrics.IncrBackendError("receipt_scan")
				return err
			}

			scanJob.Result = &res
			metrics.IncrScanJob("completed")
			return nil
		}

		go func() {
			log.Info().Msg("Starting receipt scan worker")
			if err := jobQueue.Start(workerCtx, handler); err != nil {
				log.Error().Err(err).Msg("Scan worker stopped with error")
			}
		}()

		deps.ReceiptStorage = storage
		deps.JobPublisher = jobQueue
		deps.JobStore = jobStore
	} else {
		log.Warn().Msg("No receipts bucket configured - receipt scanning is disabled")
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var scheduler *report.Scheduler
	if cfg.Reports.SummarySchedule != "" {
		// The scheduled readout covers the first registered owner; shops
		// running this server have exactly one.
		owner, err := userDB.FirstUser(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Summary schedule set but no owner registered")
		} else {
			scheduler = report.NewScheduler(txStore, owner.ID, log)
			if err := scheduler.Start(cfg.Reports.SummarySchedule); err != nil {
				log.Error().Err(err).Msg("Failed to start summary scheduler")
				scheduler = nil
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.Addr).Str("storage", cfg.Storage.Driver).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-quit:
		case <-gctx.Done():
			return gctx.Err()
		}

		log.Info().Msg("Shutting down server...")
		cancelWorker()
		if scheduler != nil {
			scheduler.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if jobQueue != nil {
			if err := jobQueue.Stop(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Error stopping job queue")
			}
		}

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
	log.Info().Msg("Server stopped")
}
