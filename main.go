package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/giygas/antibiotic-advisor/config"
	"github.com/giygas/antibiotic-advisor/data"
	"github.com/giygas/antibiotic-advisor/handlers"
	"github.com/giygas/antibiotic-advisor/health"
	"github.com/giygas/antibiotic-advisor/logging"
	"github.com/giygas/antibiotic-advisor/recommend"
	"github.com/giygas/antibiotic-advisor/scheduler"
	"github.com/giygas/antibiotic-advisor/server"
	"github.com/giygas/antibiotic-advisor/surveillance"
	"github.com/giygas/antibiotic-advisor/validation"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.InitLoggerWithRetention(cfg.LogDir, cfg.LogRetentionWeeks, cfg.MaxLogFileSize, cfg.Env.String(), cfg.LogLevel)
	defer logging.Close()

	logging.Info("Configuration loaded",
		"env", cfg.Env.String(),
		"address", cfg.Address,
		"port", cfg.Port,
		"surveillance_source", cfg.SurveillanceSource,
		"default_region", cfg.DefaultRegion,
	)

	store := data.NewSnapshotContainer()
	store.SetServerStartTime(time.Now())

	source, err := surveillance.New(cfg.SurveillanceSource)
	if err != nil {
		logging.Error("Invalid surveillance source", "source", cfg.SurveillanceSource, "error", err)
		os.Exit(1)
	}

	validator := validation.NewDataValidator()
	sched := scheduler.NewScheduler(store, source, validator, cfg.SurveillanceSchedule)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	engine := recommend.NewEngine(recommend.Options{})
	checker := health.NewHealthChecker(store, cfg.SurveillanceSchedule, cfg.SurveillanceSource != "")
	handler := handlers.NewHTTPHandler(store, validator, engine, checker, cfg.DefaultRegion)
	srv := server.NewServer(cfg, handler)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
	}
}
