package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pevans/newsdocs/app"
	"github.com/pevans/newsdocs/config"
	"github.com/pevans/newsdocs/discovery"
	"github.com/pevans/newsdocs/history"
)

// defaultScheduleTime is used when schedule_time is empty.
const defaultScheduleTime = "08:00"

const shutdownTimeout = 60 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to config file ("+config.EnvConfig+")")
	secretPath := flag.String("secret", "", "Path to secret file ("+config.EnvSecret+")")
	debug := flag.Bool("debug", false, "Debug logging and an immediate first run")
	flag.Parse()

	cfg, err := config.Load(*configPath, *secretPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(*debug || cfg.DebugMode)

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	service, err := a.Service(app.ServiceOptions{})
	if err != nil {
		logger.Error("failed to build scrape service", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	times := []string(cfg.ScheduleTime)
	if len(times) == 0 {
		times = []string{defaultScheduleTime}
	}

	scheduler, err := discovery.NewScheduler(ctx, service, times, logger)
	if err != nil {
		logger.Error("failed to schedule runs", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	for _, next := range scheduler.Entries() {
		logger.Info("next run", "at", next.Format(time.DateTime))
	}

	var srv *http.Server
	if a.History != nil {
		srv = startAPI(a.History, cfg.API.Addr, *debug || cfg.DebugMode, logger)
	}

	if *debug || cfg.DebugMode {
		go func() {
			if _, err := service.RunOnce(ctx); err != nil {
				logger.Warn("debug run skipped", "error", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("received signal, shutting down", "signal", sig.String())

	cancel()
	stopped := scheduler.Stop()

	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("api shutdown failed", "error", err)
		}
		done()
	}

	timer := time.NewTimer(shutdownTimeout)
	defer timer.Stop()
	select {
	case <-stopped.Done():
		logger.Info("scheduler stopped")
	case <-timer.C:
		logger.Warn("shutdown timeout exceeded, forcing exit")
	}
}

func startAPI(store *history.Store, addr string, debug bool, logger *slog.Logger) *http.Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           history.NewAPIServer(store).SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("status api listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status api failed", "error", err)
		}
	}()
	return srv
}
