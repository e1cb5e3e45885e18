package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/k2nservice/console/internal/config"
	"github.com/k2nservice/console/internal/export"
	"github.com/k2nservice/console/internal/repository/bolt"
	"github.com/k2nservice/console/internal/repository/mongodb"
	"github.com/k2nservice/console/internal/repository/redis"
	"github.com/k2nservice/console/internal/repository/sheets"
	"github.com/k2nservice/console/internal/scheduler"
	"github.com/k2nservice/console/internal/server/handlers"
	"github.com/k2nservice/console/internal/server/router"
	dashboardsvc "github.com/k2nservice/console/internal/service/dashboard"
	notifysvc "github.com/k2nservice/console/internal/service/notify"
	"github.com/k2nservice/console/internal/service/pages"
	reportingsvc "github.com/k2nservice/console/internal/service/reporting"
	"github.com/k2nservice/console/internal/session"
	"github.com/k2nservice/console/pkg/clients/k2n"
	whatsappclient "github.com/k2nservice/console/pkg/clients/whatsapp"
	"github.com/k2nservice/console/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File}))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		baseLogger.Fatal("failed to load timezone", zap.Error(err))
	}

	kv, closeKV, err := openSessionKV(cfg.Session)
	if err != nil {
		baseLogger.Fatal("failed to open session storage", zap.String("backend", cfg.Session.Backend), zap.Error(err))
	}
	defer func() {
		if err := closeKV.Close(); err != nil {
			baseLogger.Error("failed to close session storage", zap.Error(err))
		}
	}()

	client := k2n.NewClient(cfg.Backend, nil, baseLogger.Named("client.k2n"))
	store := session.NewStore(kv, client, nil, baseLogger.Named("session"))
	client.SetTokenSource(store.Token)

	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Restore(restoreCtx); err != nil {
		baseLogger.Warn("session not restored", zap.Error(err))
	}
	cancelRestore()

	consolePages, err := pages.New(pages.BackendSources(client), store.Bus(), baseLogger.Named("svc.pages"))
	if err != nil {
		baseLogger.Fatal("failed to build pages", zap.Error(err))
	}

	var archive mongodb.Repository
	var history handlers.History
	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archive = mongoRepo
	} else {
		baseLogger.Warn("MONGODB_URI missing, daily snapshots are not archived")
	}

	var sheetExporter handlers.SheetExporter
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetExporter = export.NewSheetExporter(sheetsRepo, baseLogger.Named("export.sheets"))
	}

	var whatsClient whatsappclient.Client
	if cfg.WhatsApp.Enabled() {
		whatsClient = whatsappclient.NewClient(cfg.WhatsApp, baseLogger.Named("client.whatsapp"))
	} else {
		baseLogger.Warn("whatsapp credentials missing, notifications disabled")
	}
	notifier := notifysvc.NewService(whatsClient, cfg.Reporting.AlertRecipient, baseLogger.Named("svc.notify"))

	reportingSvc := reportingsvc.NewService(consolePages, archive, loc, baseLogger.Named("svc.reporting"))
	if archive != nil {
		history = reportingSvc
	}
	dashboardSvc := dashboardsvc.NewService(client, consolePages, baseLogger.Named("svc.dashboard"))

	handler := handlers.New(handlers.Deps{
		Session:   store,
		Pages:     consolePages,
		Dashboard: dashboardSvc,
		History:   history,
		Notifier:  notifier,
		Sheets:    sheetExporter,
	}, baseLogger.Named("handlers"))
	engine := router.New(handler, store, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting, loc, reportingSvc, notifier, store, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openSessionKV opens the configured session storage.
func openSessionKV(cfg config.SessionConfig) (session.KV, io.Closer, error) {
	switch cfg.Backend {
	case config.SessionBackendRedis:
		kv := redis.NewKV(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := kv.Ping(ctx); err != nil {
			_ = kv.Close()
			return nil, nil, err
		}
		return kv, kv, nil
	case config.SessionBackendMemory:
		return session.NewMemoryKV(), noopCloser{}, nil
	default:
		kv, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv, nil
	}
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }
