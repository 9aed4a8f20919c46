package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appService "medremind/internal/application/service"
	"medremind/internal/infrastructure/notify"
	"medremind/internal/infrastructure/scheduler"
	"medremind/internal/infrastructure/store"
	"medremind/internal/interfaces/api/handler"
	"medremind/internal/interfaces/api/router"
	"medremind/internal/pkg/config"
	appLogger "medremind/internal/pkg/logger"

	"go.uber.org/zap"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file
)

func newKVStore(cfg *config.Config) (store.KVStore, error) {
	switch cfg.Store.Backend {
	case "redis":
		return store.NewRedisKV(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB)
	case "sqlite":
		return store.NewSQLiteKV(cfg.Store.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func gracefulShutdown(apiServer *http.Server, schedulerService appService.SchedulerService, kv store.KVStore, log *zap.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info("shutting down")

	// Triggers first, so nothing fires into a closing stack.
	schedulerService.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}

	// The store closes last: in-flight requests may still be writing.
	if err := kv.Close(); err != nil {
		log.Error("closing store failed", zap.Error(err))
	}

	done <- true
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := appLogger.New(cfg.Log.Level, cfg.Log.Format, "medremind-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// --- Infrastructure ---
	kv, err := newKVStore(cfg)
	if err != nil {
		log.Fatal("store init failed", zap.Error(err))
	}
	reminderRepo := store.NewReminderRepository(kv, log)
	medicationRepo := store.NewMedicationRepository(kv, log)
	log.Info("store initialized", zap.String("backend", cfg.Store.Backend))

	notifier, err := notify.New(&cfg.Notify, kv, log)
	if err != nil {
		log.Fatal("notifier init failed", zap.Error(err))
	}
	log.Info("notification channel ready", zap.String("channel", cfg.Notify.Channel))

	registrar := scheduler.NewRegistrar(log)

	// --- Application services ---
	// The scheduler comes first; the services that own delivery wire their
	// callbacks into it as they are constructed.
	schedulerSvc := appService.NewSchedulerService(registrar, reminderRepo, log)
	reminderSvc := appService.NewReminderService(reminderRepo, schedulerSvc, notifier, log)
	adherenceSvc := appService.NewAdherenceService(medicationRepo, notifier, log)
	snoozeSvc := appService.NewSnoozeService(medicationRepo, schedulerSvc, notifier, log)
	responseRouter := appService.NewResponseRouter(adherenceSvc, snoozeSvc, notifier, log)

	if err := responseRouter.Initialize(context.Background()); err != nil {
		log.Fatal("response router init failed", zap.Error(err))
	}

	// --- Initialize schedules ---
	if err := schedulerSvc.InitializeSchedules(context.Background()); err != nil {
		// The API still serves; schedules recover on the next edit.
		log.Warn("initializing schedules failed", zap.Error(err))
	}

	// --- API handlers ---
	reminderHandler := handler.NewReminderHandler(reminderSvc, log)
	responseHandler := handler.NewResponseHandler(responseRouter, log)
	var lineHandler *handler.LineHandler
	if lineNotifier, ok := notifier.(*notify.LINENotifier); ok {
		lineHandler = handler.NewLineHandler(lineNotifier, responseRouter, reminderSvc, log)
	}

	e := router.New(&router.Config{
		ReminderHandler: reminderHandler,
		ResponseHandler: responseHandler,
		LineHandler:     lineHandler,
		Scheduler:       schedulerSvc,
		Logger:          log,
	})

	// --- HTTP server ---
	apiServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      e,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, schedulerSvc, kv, log, done)

	log.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("http server failed", zap.Error(err))
	}

	<-done
	log.Info("shutdown complete")
}
