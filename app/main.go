package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guideops/activity-comb/app/api"
	"github.com/guideops/activity-comb/app/cfg"
	"github.com/guideops/activity-comb/app/database"
	"github.com/guideops/activity-comb/app/store"
	"github.com/guideops/activity-comb/app/tasks"

	"github.com/guideops/activity-comb/app/activity"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Activity Comb", "version", appCfg.Version)

	policy, err := activity.LoadPolicy(appCfg.PolicyPath)
	if err != nil {
		slog.Error("Failed to load policy", "path", appCfg.PolicyPath, "error", err)
		os.Exit(1)
	}
	if appCfg.FlexThreshold > 0 {
		policy.FlexThresholdHours = appCfg.FlexThreshold
	}
	slog.Info("Policy loaded", "flex_threshold_hours", policy.FlexThresholdHours)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open audit database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Audit database ready", "migration_version", version, "dirty", dirty)

	jsonStore := store.NewJSONStore(appCfg.StorePath)
	sheetAdapter := store.NewSheetAdapter(policy)
	runRepo := database.NewRunRepository(db)
	reconciler := activity.NewReconciler(policy)
	runner := tasks.NewRunner(jsonStore, reconciler, runRepo)

	scheduler := tasks.NewScheduler(runner)
	scheduler.Start()
	defer scheduler.Stop()

	watcher, err := tasks.NewWatcher(appCfg.DropDir, scheduler, runner, sheetAdapter)
	if err != nil {
		slog.Error("Failed to start drop directory watcher", "dir", appCfg.DropDir, "error", err)
		os.Exit(1)
	}
	watcher.Start()
	defer watcher.Stop()

	// One pass at startup re-establishes the invariants before serving.
	if err := scheduler.EnqueueTask(tasks.NewReconcileTask(runner, "startup")); err != nil {
		slog.Warn("Failed to enqueue startup reconciliation", "error", err)
	}

	apiHandler := api.NewHandler(runner, scheduler, runRepo, sheetAdapter, appCfg.SheetPath)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
