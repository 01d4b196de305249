package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"vigia/internal/audit"
	"vigia/internal/identity"
	"vigia/internal/intel"
	"vigia/internal/platform/config"
	"vigia/internal/platform/httpserver"
	"vigia/internal/platform/logger"
	"vigia/internal/platform/metrics"
	"vigia/internal/platform/postgres"
	redisplatform "vigia/internal/platform/redis"
	"vigia/internal/registry"
	"vigia/internal/risk"
	"vigia/internal/supplier"
	httptransport "vigia/internal/transport/http"
)

// main wires the dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	// Postgres is the preferred source for suppliers and registries; the
	// pipeline degrades to file snapshots without it.
	var db *sql.DB
	if cfg.PostgresDSN != "" {
		opened, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			log.Warn("postgres unavailable, falling back to snapshots", "error", err)
		} else {
			db = opened
			defer db.Close()
		}
	}

	var sources []supplier.Source
	if db != nil {
		sources = append(sources, supplier.NewPostgresSource(db))
	}
	sources = append(sources, supplier.NewFileSource(cfg.DataDir))
	chain := supplier.NewChain(log, sources...)

	loader := registry.NewLoader(db, cfg.DataDir, log, m)

	var cache intel.Cache
	var redisClient *redisplatform.Client
	if cfg.Redis.URL != "" {
		client, err := redisplatform.New(cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, using in-memory intel cache", "error", err)
		} else {
			defer client.Close()
			redisClient = client
			cache = intel.NewRedisCache(client, cfg.Redis.CacheTTL)
		}
	}
	gatherer := intel.NewGatherer(nil, nil, cache, cfg.Intel, log, m)

	publisher, stopAudit := startAudit(cfg, log)
	defer stopAudit()

	service := risk.NewService(cfg, chain, identity.NewResolver(log), loader, gatherer, publisher, log, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := service.PrepareBatch(ctx); err != nil {
		log.Warn("initial batch preparation failed, serving degraded", "error", err)
	}

	var checks []httptransport.HealthCheck
	if db != nil {
		checks = append(checks, httptransport.HealthCheck{Name: "postgres", Check: db.PingContext})
	}
	if redisClient != nil {
		checks = append(checks, httptransport.HealthCheck{Name: "redis", Check: redisClient.Health})
	}

	handler := httptransport.NewHandler(service, log)
	router := httptransport.NewRouter(handler, httptransport.NewTokenService(cfg.JWTSigningKey), checks...)
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("vigia listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// startAudit wires the trail: Kafka when brokers are configured, the
// structured log otherwise.
func startAudit(cfg *config.Config, log *slog.Logger) (*audit.Publisher, func()) {
	var sink audit.Sink
	var closeSink func()

	if cfg.KafkaBrokers != "" {
		kafkaSink, err := audit.NewKafkaSink(strings.Split(cfg.KafkaBrokers, ","))
		if err != nil {
			log.Warn("kafka unavailable, auditing to log", "error", err)
		} else {
			sink = kafkaSink
			closeSink = kafkaSink.Close
		}
	}
	if sink == nil {
		sink = audit.NewLogSink(log)
	}

	publisher := audit.NewPublisher(256, log)
	workerCtx, cancel := context.WithCancel(context.Background())
	worker := audit.NewWorker(sink, publisher.Inbox(), log)
	go func() { _ = worker.Run(workerCtx) }()

	return publisher, func() {
		cancel()
		if closeSink != nil {
			closeSink()
		}
	}
}
