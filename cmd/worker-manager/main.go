// cmd/worker-manager/main.go
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

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	awsclient "bidbuddy-workers/internal/common/aws"
	"bidbuddy-workers/internal/common/camunda"
	"bidbuddy-workers/internal/common/config"
	"bidbuddy-workers/internal/common/database"
	"bidbuddy-workers/internal/common/events"
	"bidbuddy-workers/internal/common/genai"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/observability"
	"bidbuddy-workers/internal/common/storage"
	"bidbuddy-workers/internal/repository"
	"bidbuddy-workers/pkg/registry"

	// Tender workers
	ets "bidbuddy-workers/internal/workers/tender/extract-tender-structure"
	it "bidbuddy-workers/internal/workers/tender/index-tender"

	// Compliance workers
	qc "bidbuddy-workers/internal/workers/compliance/quick-check"
	sc "bidbuddy-workers/internal/workers/compliance/score-compliance"
	vcp "bidbuddy-workers/internal/workers/compliance/validate-company-profile"

	// Bid and copilot workers
	gbd "bidbuddy-workers/internal/workers/bid/generate-bid-draft"
	acq "bidbuddy-workers/internal/workers/copilot/answer-copilot-question"

	// Notification workers
	sn "bidbuddy-workers/internal/workers/notification/send-notification"

	// Data access workers
	qe "bidbuddy-workers/internal/workers/data-access/query-elasticsearch"
	qp "bidbuddy-workers/internal/workers/data-access/query-postgresql"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	tracing, err := observability.NewTracing(cfg.Tracing)
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}
	obs := observability.New(cfg.Tracing.ServiceName, zapLog)
	defer obs.Shutdown()

	ctx := context.Background()

	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("worker registry load failed", zap.String("path", cfg.Registry.Path), zap.Error(err))
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("worker registry invalid", zap.Error(err))
	}

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(cfg.Camunda)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		if err := esClient.Ping(); err != nil {
			return err
		}
		return esClient.EnsureIndex(ctx, cfg.Database.Elasticsearch.TenderIndex, database.TenderIndexMapping)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	zapLog.Info("Redis connected successfully")

	// --- Init MinIO with retry ---
	var objects *storage.MinIOClient
	err = retryWithBackoff(func() error {
		var err error
		objects, err = storage.NewMinIO(cfg.Storage.MinIO)
		if err != nil {
			return err
		}
		return objects.EnsureBucket(ctx)
	}, 10, 2*time.Second, zapLog, "MinIO connection")
	if err != nil {
		zapLog.Fatal("minio failed after retries", zap.Error(err))
	}
	zapLog.Info("MinIO connected successfully", zap.String("bucket", objects.Bucket()))

	// --- Init Event Publisher ---
	var publisher events.Publisher = events.NopPublisher{}
	var kafkaPublisher *events.KafkaPublisher
	if cfg.Messaging.Kafka.Enabled {
		kafkaPublisher = events.NewKafkaPublisher(cfg.Messaging.Kafka)
		publisher = kafkaPublisher
		zapLog.Info("Kafka publisher configured",
			zap.Strings("brokers", cfg.Messaging.Kafka.Brokers),
			zap.String("topic", cfg.Messaging.Kafka.Topic),
		)
	} else {
		zapLog.Warn("Kafka disabled, domain events will be dropped")
	}

	// --- Init External Service Clients ---
	llm := genai.NewClient(cfg.APIs.GenAI)

	sesClient, err := awsclient.NewSESClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("failed to create SES client", zap.Error(err))
	}
	snsClient, err := awsclient.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("failed to create SNS client", zap.Error(err))
	}

	templates, err := sn.LoadTemplates(cfg.Notifications.TemplateRegistry)
	if err != nil {
		zapLog.Fatal("failed to load notification templates", zap.Error(err))
	}

	store := repository.NewStore(pg.DB, redis.Client, repository.CacheTTLs{
		Company: time.Duration(cfg.Compliance.CompanyCacheTTL) * time.Second,
		Session: time.Duration(cfg.Compliance.SessionCacheTTL) * time.Second,
	})

	zapLog.Info("All external service clients initialized")

	// --- Register Workers ---
	pool := camunda.NewWorkerPool(zeebe.GetClient(), obs, log)
	start := func(taskType string, handler worker.JobHandler) {
		if _, err := reg.Find(taskType); err != nil {
			zapLog.Warn("worker not in registry, skipping", zap.String("taskType", taskType))
			return
		}
		pool.Start(taskType, cfg.Worker(taskType), handler)
	}

	// --- 1. Tender Workers ---
	{
		handler := ets.NewHandler(ets.LoadConfig(), store.Tenders, objects, llm.ForPurpose("extraction"), publisher, log)
		start(ets.TaskType, handler.Handle)
	}
	{
		itCfg := it.LoadConfig()
		itCfg.TenderIndex = cfg.Database.Elasticsearch.TenderIndex
		handler := it.NewHandler(itCfg, store.Tenders, esClient.Client, log)
		start(it.TaskType, handler.Handle)
	}

	// --- 2. Compliance Workers ---
	{
		handler := sc.NewHandler(sc.LoadConfig(), store.Tenders, store.Companies, store.Reports,
			llm.ForPurpose("gap_analysis"), publisher, log)
		start(sc.TaskType, handler.Handle)
	}
	{
		qcCfg := qc.LoadConfig()
		qcCfg.CacheTTL = time.Duration(cfg.Compliance.QuickCheckCacheTTL) * time.Second
		handler := qc.NewHandler(qcCfg, store.Tenders, store.Companies, redis.Client, log)
		start(qc.TaskType, handler.Handle)
	}
	{
		handler := vcp.NewHandler(vcp.LoadConfig(), store.Companies, log)
		start(vcp.TaskType, handler.Handle)
	}

	// --- 3. Bid & Copilot Workers ---
	{
		handler := gbd.NewHandler(gbd.LoadConfig(), store.Tenders, store.Companies, store.Drafts,
			llm.ForPurpose("bid_draft"), publisher, log)
		start(gbd.TaskType, handler.Handle)
	}
	{
		handler := acq.NewHandler(acq.LoadConfig(), store.Tenders, store.Sessions, llm.ForPurpose("copilot"), log)
		start(acq.TaskType, handler.Handle)
	}

	// --- 4. Notification Workers ---
	{
		handler := sn.NewHandler(sn.LoadConfig(cfg.Notifications), store.Companies, sesClient, snsClient, templates, log)
		start(sn.TaskType, handler.Handle)
	}

	// --- 5. Data Access Workers ---
	{
		handler := qp.NewHandler(qp.LoadConfig(), store, log)
		start(qp.TaskType, handler.Handle)
	}
	{
		qeCfg := qe.LoadConfig()
		qeCfg.TenderIndex = cfg.Database.Elasticsearch.TenderIndex
		handler := qe.NewHandler(qeCfg, esClient.Client, log)
		start(qe.TaskType, handler.Handle)
	}

	zapLog.Info("Workers registered", zap.Strings("taskTypes", pool.TaskTypes()))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr: cfg.Server.Address,
		Handler: newRouter(map[string]readinessCheck{
			"postgres": pg.Ping,
			"redis":    redis.Ping,
			"zeebe":    zeebe.HealthCheck,
		}, pool.TaskTypes),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	pool.Close()

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			zapLog.Error("Error closing Kafka publisher", zap.Error(err))
		}
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing traces", zap.Error(err))
	}
	_ = redis.Close()
	_ = pg.Close()

	zapLog.Info("Worker manager stopped gracefully")
}
