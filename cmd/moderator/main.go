package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/af-corp/textguard/internal/config"
	"github.com/af-corp/textguard/internal/messaging"
	"github.com/af-corp/textguard/internal/moderation"
	"github.com/af-corp/textguard/internal/rulesync"
	"github.com/af-corp/textguard/internal/telemetry"
	"github.com/af-corp/textguard/internal/termstore"
)

const queueGroup = "textguard-moderators"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	metricsAddr := flag.String("metrics-addr", ":9102", "address for the /metrics endpoint")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	loader := config.NewLoader(*configDir, logger)
	if err := loader.Load(); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	logger = telemetry.NewLogger(cfg.Telemetry, os.Stdout).With("service", "moderator")
	slog.SetDefault(logger)

	if err := loader.Watch(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	metrics := telemetry.NewMetrics()
	engines := moderation.NewHolder(moderation.New(nil))

	var terms rulesync.TermSource
	if cfg.Moderation.TermStore.Enabled {
		pool, err := termstore.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		terms = termstore.New(pool, nil)
	}
	syncer := rulesync.New(loader.Rules, terms, engines, metrics)
	if err := syncer.Rebuild(ctx, "startup"); err != nil {
		logger.Warn("starting without stored terms", "error", err)
	}
	go syncer.Run(ctx, cfg.Moderation.TermStore.RefreshInterval)
	loader.OnReload(func() { syncer.Rebuild(ctx, "file") })

	natsCfg := cfg.NATS
	if natsCfg.Name == "" || natsCfg.Name == "textguard" {
		natsCfg.Name = "textguard-moderator"
	}
	client, err := messaging.NewNATSClient(natsCfg)
	if err != nil {
		logger.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}

	worker := messaging.NewWorker(engines, client, metrics)
	err = client.SubscribeModerationCheck(queueGroup, func(data []byte, reply string) {
		if err := worker.Handle(data, reply); err != nil {
			logger.Error("moderation request failed", "error", err)
		}
	})
	if err != nil {
		logger.Error("failed to subscribe to moderation checks", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	logger.Info("moderator running", "nats_url", natsCfg.URL, "subject", messaging.SubjectModeration, "queue", queueGroup)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	stop()
	client.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	metricsSrv.Shutdown(shutdownCtx)
	logger.Info("moderator stopped")
}
