// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"incident-notifier/internal/common/audit"
	"incident-notifier/internal/common/camunda"
	"incident-notifier/internal/common/config"
	"incident-notifier/internal/common/database"
	"incident-notifier/internal/common/dedupe"
	"incident-notifier/internal/common/directory"
	"incident-notifier/internal/common/logger"
	"incident-notifier/internal/common/observability"
	"incident-notifier/internal/common/push"
	ns "incident-notifier/internal/workers/incident/notify-supervisors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting worker manager", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	spanOpts, err := observability.SpanExportOptions(context.Background(), cfg.Tracing)
	if err != nil {
		zapLog.Fatal("trace exporter setup failed", zap.Error(err))
	}
	if len(spanOpts) > 0 {
		log.Info("span export enabled", map[string]interface{}{"endpoint": cfg.Tracing.OTLPEndpoint})
	}
	obs := observability.New(cfg.App.Name, log, spanOpts...)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, camunda.ConfigFrom(cfg.Camunda), log)
	if err != nil {
		zapLog.Fatal("zeebe connection failed", zap.Error(err))
	}
	defer zeebe.Close()
	log.Info("zeebe client connected", map[string]interface{}{"address": cfg.Camunda.BrokerAddress})

	// --- PostgreSQL ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres setup failed", zap.Error(err))
	}
	defer pg.Close()
	if err := database.RetryWithBackoff(ctx, pg.Ping, 15, 2*time.Second, log, "PostgreSQL connection"); err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	log.Info("postgres connected", nil)

	store, err := directory.NewStore(pg.DB, cfg.Directory.Table)
	if err != nil {
		zapLog.Fatal("directory setup failed", zap.Error(err))
	}

	// --- Firebase Cloud Messaging ---
	gateway, err := push.NewFCMGateway(ctx, cfg.Push)
	if err != nil {
		zapLog.Fatal("fcm gateway setup failed", zap.Error(err))
	}

	workerCfg := ns.ConfigFrom(cfg)
	opts := ns.HandlerOptions{
		Config:   workerCfg,
		Pipeline: ns.NewPipeline(workerCfg, store, gateway, obs.Tracer(), log),
		Recorder: obs,
		Logger:   log,
	}

	// --- Redis (redelivery guard) ---
	if cfg.Dedupe.Enabled {
		redis := database.NewRedis(cfg.Database.Redis)
		defer redis.Close()
		if err := database.RetryWithBackoff(ctx, redis.Ping, 10, 2*time.Second, log, "Redis connection"); err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		// In-flight claims lapse with the job timeout so a redelivered job can run.
		opts.Guard = dedupe.NewGuard(redis.Client, cfg.Dedupe.KeyPrefix, workerCfg.Timeout, time.Duration(cfg.Dedupe.TTL)*time.Second)
		log.Info("redelivery guard enabled", map[string]interface{}{
			"claimTtl":   workerCfg.Timeout.String(),
			"holdTtlSec": cfg.Dedupe.TTL,
		})
	}

	// --- Elasticsearch (dispatch audit) ---
	if cfg.Audit.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Fatal("elasticsearch setup failed", zap.Error(err))
		}
		if err := database.RetryWithBackoff(ctx, es.Ping, 15, 2*time.Second, log, "Elasticsearch connection"); err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		opts.Audit = audit.NewElasticsearchSink(es.Client, cfg.Audit.Index)
		log.Info("dispatch audit enabled", map[string]interface{}{"index": cfg.Audit.Index})
	}

	handler, err := ns.NewHandler(opts)
	if err != nil {
		zapLog.Fatal("failed to create notify-supervisors handler", zap.Error(err))
	}
	w := camunda.StartWorker(zeebe.GetClient(), ns.TaskType, config.GetWorkerConfig(cfg, ns.TaskType), handler, log)

	// --- Health & Metrics Server ---
	srv := newServer(cfg.Server.Address, map[string]checkFunc{
		"zeebe":    zeebe.HealthCheck,
		"postgres": pg.Ping,
	}, log)
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"address": cfg.Server.Address})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err})
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("shutdown signal received, stopping worker", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	w.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("health/metrics server shutdown failed", map[string]interface{}{"error": err})
	}

	log.Info("worker manager stopped gracefully", nil)
}
