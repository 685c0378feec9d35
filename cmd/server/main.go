// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loadvoice/internal/events"
	"loadvoice/internal/platform/config"
	"loadvoice/internal/platform/httpserver"
	"loadvoice/internal/platform/logger"
	platformpg "loadvoice/internal/platform/postgres"
	platformredis "loadvoice/internal/platform/redis"
	"loadvoice/internal/registry"
	httptransport "loadvoice/internal/transport/http"
	"loadvoice/internal/verification"
	"loadvoice/internal/verification/handler"
	"loadvoice/internal/verification/metrics"
	"loadvoice/internal/verification/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := map[string]httptransport.HealthCheck{}

	cache, cleanup, err := buildStore(ctx, cfg, health, log)
	if err != nil {
		log.Error("store setup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	client := buildRegistryClient(cfg)

	opts := []verification.Option{
		verification.WithLogger(log),
		verification.WithMetrics(metrics.New()),
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := events.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka setup failed", "error", err)
			os.Exit(1)
		}
		defer sink.Close()

		publisher := events.NewPublisher(sink, log, 256)
		go func() {
			if err := publisher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event publisher stopped", "error", err)
			}
		}()
		opts = append(opts, verification.WithEvents(publisher))
	}

	svc := verification.NewService(client, cache, verification.Config{
		VerifiedTTL: cfg.Verification.VerifiedTTL,
		NotFoundTTL: cfg.Verification.NotFoundTTL,
	}, opts...)

	router := httptransport.NewRouter(handler.New(svc, log), health)
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting loadvoice verification service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// buildStore picks the cache backend: Redis when configured, Postgres as the
// durable alternative, in-memory otherwise.
func buildStore(ctx context.Context, cfg config.Server, health map[string]httptransport.HealthCheck, log *slog.Logger) (store.Store, func(), error) {
	if cfg.Redis.URL != "" {
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		health["redis"] = client.Health
		return store.NewRedisStore(client.Client), func() { client.Close() }, nil
	}

	if cfg.Postgres.URL != "" {
		pool, err := platformpg.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		go purgeLoop(ctx, pg, log)
		health["postgres"] = pool.Ping
		return pg, pool.Close, nil
	}

	return store.NewInMemoryStore(), func() {}, nil
}

// purgeLoop drops records whose stale-retention window has elapsed. Hourly is
// plenty; the read path never depends on it.
func purgeLoop(ctx context.Context, pg *store.PostgresStore, log *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := pg.PurgeExpired(ctx); err != nil {
				log.WarnContext(ctx, "purge of expired records failed", "error", err)
			} else if n > 0 {
				log.InfoContext(ctx, "purged expired verification records", "count", n)
			}
		}
	}
}

func buildRegistryClient(cfg config.Server) registry.Client {
	if cfg.Registry.UseMock || cfg.Registry.BaseURL == "" {
		return registry.MockClient{Latency: 50 * time.Millisecond}
	}
	return registry.NewHTTPClient(cfg.Registry.BaseURL, cfg.Registry.APIKey, cfg.Registry.Timeout)
}
