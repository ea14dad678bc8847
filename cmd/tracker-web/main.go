package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/amqp"
	"tracker/internal/api"
	"tracker/internal/cache"
	"tracker/internal/config"
	apphttp "tracker/internal/http"
	"tracker/internal/log"
	"tracker/internal/session"
	"tracker/internal/sheets"
	gsheet "tracker/internal/sheets/google"
	mem "tracker/internal/sheets/memory"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepInterval   = 5 * time.Minute
	amqpAttempts    = 3
)

func main() {
	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ready := make(map[string]apphttp.ReadyCheck)
	sweeper := cache.NewManager(sweepInterval, logger)

	// Session store
	var store session.Store
	switch cfg.SessionBackend {
	case config.SessionSQLite:
		sqlite, err := session.NewSQLiteStore(cfg.SQLiteDBPath, cfg.SessionTTL)
		if err != nil {
			return err
		}
		defer sqlite.Close()
		store = sqlite
		sweeper.Register("sessions", sqlite)
		ready["sessions"] = sqlite.Ping
		logger.Info("Session store initialized", "backend", cfg.SessionBackend, "path", cfg.SQLiteDBPath)
	default:
		memStore := session.NewMemoryStore(cfg.MaxSessions, cfg.SessionTTL)
		store = memStore
		sweeper.Register("sessions", memStore)
		logger.Info("Session store initialized", "backend", cfg.SessionBackend)
	}

	client := api.NewClient(cfg.APIBaseURL, &http.Client{Timeout: cfg.APITimeout}, logger)

	// Activity publishing is optional.
	var publisher amqp.Publisher = amqp.Nop{}
	if cfg.AMQPURL != "" {
		amqpClient := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		defer amqpClient.Close()
		if err := amqpClient.ConnectWithRetry(ctx, amqpAttempts); err != nil {
			// The client reconnects on the next publish.
			logger.Warn("AMQP unavailable at startup", log.FieldError, err.Error())
		}
		publisher = amqpClient
	} else {
		logger.Info("Activity publishing disabled - no AMQP_URL provided")
	}

	var exporter sheets.Exporter
	switch cfg.ExportBackend {
	case config.ExportGoogle:
		g, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			return err
		}
		exporter = g
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", g.SheetName())
	case config.ExportMemory:
		exporter = mem.New()
		logger.Info("In-memory export enabled")
	default:
		logger.Info("Export disabled")
	}

	srv, err := apphttp.NewServer(cfg, apphttp.Deps{
		API:       client,
		Sessions:  session.NewManager(store, logger),
		Publisher: publisher,
		Exporter:  exporter,
		Logger:    logger,
		Ready:     ready,
	})
	if err != nil {
		return err
	}
	sweeper.Register("pages", srv.Pages())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting tracker server", "port", cfg.Port, "api", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
