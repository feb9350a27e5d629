package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/af-corp/textguard/internal/assistant"
	"github.com/af-corp/textguard/internal/config"
	"github.com/af-corp/textguard/internal/filter"
	"github.com/af-corp/textguard/internal/filter/content"
	"github.com/af-corp/textguard/internal/filter/policy"
	"github.com/af-corp/textguard/internal/gateway"
	"github.com/af-corp/textguard/internal/grpcapi"
	"github.com/af-corp/textguard/internal/moderation"
	"github.com/af-corp/textguard/internal/ratelimit"
	"github.com/af-corp/textguard/internal/rulesync"
	"github.com/af-corp/textguard/internal/session"
	"github.com/af-corp/textguard/internal/telemetry"
	"github.com/af-corp/textguard/internal/termstore"
)

var version = "dev"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	loader := config.NewLoader(*configDir, logger)
	if err := loader.Load(); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	logger = telemetry.NewLogger(cfg.Telemetry, os.Stdout)
	slog.SetDefault(logger)

	if err := loader.Watch(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	metrics := telemetry.NewMetrics()
	rdb := connectRedis(ctx, cfg.Redis, logger)

	// Moderation engine: rules file plus optional stored terms.
	engines := moderation.NewHolder(moderation.New(nil))
	var terms rulesync.TermSource
	if cfg.Moderation.TermStore.Enabled {
		pool, err := termstore.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Warn("database not reachable (stored terms unavailable until it is)", "error", err)
		}
		terms = termstore.New(pool, rdb)
	}
	syncer := rulesync.New(loader.Rules, terms, engines, metrics)
	if err := syncer.Rebuild(ctx, "startup"); err != nil {
		logger.Warn("starting without stored terms", "error", err)
	}
	go syncer.Run(ctx, cfg.Moderation.TermStore.RefreshInterval)

	evaluator := policy.NewEvaluator(func() config.PolicyConfig { return loader.Config().Policy })
	loadPolicies := func() {
		if !evaluator.Enabled() {
			return
		}
		if err := evaluator.Load(); err != nil {
			logger.Error("failed to load policies", "error", err)
		}
	}
	loadPolicies()

	loader.OnReload(func() {
		syncer.Rebuild(ctx, "file")
		loadPolicies()
	})

	chain := filter.NewChain(
		content.New(engines, func() bool { return loader.Config().Moderation.Enabled }, metrics),
		evaluator,
	)

	var sessions session.Store
	contextCfg := func() config.ContextConfig { return loader.Config().Context }
	if rdb != nil {
		sessions = session.NewRedisStore(rdb, contextCfg)
	} else {
		sessions = session.NewMemoryStore(contextCfg)
	}

	handler := gateway.NewHandler(gateway.Deps{
		Config:      loader.Config,
		Engines:     engines,
		FilterChain: chain,
		Limiter:     ratelimit.NewLimiter(rdb, func() config.RateLimitConfig { return loader.Config().RateLimit }),
		Sessions:    sessions,
		Assistant:   assistant.New(func() config.AssistantConfig { return loader.Config().Assistant }, &http.Client{}),
		Metrics:     metrics,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      gateway.NewRouter(handler, metrics, version),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("gateway starting", "addr", addr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	var grpcSrv *grpc.Server
	if cfg.GRPC.Enabled {
		lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.GRPC.Port))
		if err != nil {
			logger.Error("failed to listen for grpc", "error", err)
			os.Exit(1)
		}
		grpcSrv = grpc.NewServer()
		grpcapi.Register(grpcSrv, grpcapi.NewServer(engines, metrics))
		go func() {
			logger.Info("grpc starting", "addr", lis.Addr().String())
			errCh <- grpcSrv.Serve(lis)
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		rdb.Close()
	}
	logger.Info("gateway stopped")
}

// connectRedis returns nil when Redis is not configured or unreachable;
// callers fall back to in-process state.
func connectRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) *redis.Client {
	if len(cfg.Addresses) == 0 || cfg.Addresses[0] == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addresses[0],
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not reachable (rate limits and context kept in process)", "error", err)
		rdb.Close()
		return nil
	}
	logger.Info("redis connected")
	return rdb
}
