package di

import (
	"fmt"

	domrepo "StratLab/internal/domain/repository"
	domsvc "StratLab/internal/domain/service"
	"StratLab/internal/handler/api"
	internalrepo "StratLab/internal/repository"
	svcmetrics "StratLab/internal/service/metrics"
	"StratLab/internal/service/ratelimit"
	"StratLab/internal/services/analytics"
	"StratLab/internal/services/features"
	"StratLab/internal/usecase"
	"StratLab/pkg/cache"
	"StratLab/pkg/config"
	xhttp "StratLab/pkg/http"
	pkgkafka "StratLab/pkg/kafka"
	applogger "StratLab/pkg/logger"
	"StratLab/pkg/metrics"
	"StratLab/pkg/queue"
	"StratLab/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry creates the application registry. Runtime collectors
// stay on the default registry, which the scrape endpoint also serves.
func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) domrepo.Metrics {
	return metrics.New(reg)
}

// ProvideWatchMetrics creates the task watch collectors.
func ProvideWatchMetrics(reg *prometheus.Registry) *svcmetrics.WatchMetrics {
	return svcmetrics.NewWatchMetrics(reg)
}

// ProvideRedisClient opens the Redis client shared by cache and queue.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	client, err := cache.NewRedisClient(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("redis client: %w", err)
	}
	return client, nil
}

// ProvideCache wraps the Redis client as a cache.Service.
func ProvideCache(client *redis.Client) cache.Service {
	return cache.NewRedisCache(client, cache.WithRedisPrefix("stratlab"))
}

// ProvideTaskStore keeps task records for tasks.result_ttl.
func ProvideTaskStore(c cache.Service, cfg *config.Config) domrepo.TaskStore {
	return internalrepo.NewCacheTaskStore(c, cfg.Tasks.ResultTTL)
}

// ProvideEventPublisher returns a Kafka publisher, or a no-op one when
// kafka is disabled.
func ProvideEventPublisher(cfg *config.Config) (domrepo.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopEventPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEventPublisher(producer), nil
}

// ProvideTableLoader builds the file reader and cleaner.
func ProvideTableLoader(lgr *applogger.Logger) domsvc.TableLoader {
	return features.NewCleaner(internalrepo.NewFileTableReader(), lgr)
}

// ProvideFactorModel builds the pipeline orchestrator.
func ProvideFactorModel(loader domsvc.TableLoader, cfg *config.Config, lgr *applogger.Logger) *usecase.FactorModel {
	return usecase.NewFactorModel(
		loader,
		analytics.NewParametricRisk(lgr),
		analytics.NewFactorRegression(lgr),
		usecase.FactorModelConfig{
			MarketSymbol:    cfg.Analysis.MarketSymbol,
			ConfidenceLevel: cfg.Analysis.ConfidenceLevel,
		},
		lgr,
	)
}

// ProvideDataProbe builds the data loading probe.
func ProvideDataProbe(loader domsvc.TableLoader, lgr *applogger.Logger) *usecase.DataProbe {
	return usecase.NewDataProbe(loader, lgr)
}

// ProvideAnalysisJob builds the queue job that runs submitted analyses.
func ProvideAnalysisJob(
	model *usecase.FactorModel,
	store domrepo.TaskStore,
	publisher domrepo.EventPublisher,
	m domrepo.Metrics,
	lgr *applogger.Logger,
) *usecase.FactorAnalysisJob {
	return usecase.NewFactorAnalysisJob(model, store, publisher, m, lgr)
}

// ProvideQueue creates the Redis queue. Only worker modes consume; api mode
// gets a publisher. The app starts it in every mode.
func ProvideQueue(
	cfg *config.Config,
	mode server.Mode,
	client *redis.Client,
	job *usecase.FactorAnalysisJob,
	reg *prometheus.Registry,
	lgr *applogger.Logger,
) *queue.RedisQueue {
	qcfg := &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}
	prefix := queue.WithKeyPrefix(cfg.Queue.KeyPrefix)
	if !mode.ConsumesQueue() {
		return queue.NewRedisPublisher(lgr, client, prefix)
	}
	return queue.NewRedisConsumer(lgr, qcfg, client, []queue.Job{job}, prefix, queue.WithRegisterer(reg))
}

// ProvideAnalysisService builds the request-facing service.
func ProvideAnalysisService(
	model *usecase.FactorModel,
	probe *usecase.DataProbe,
	store domrepo.TaskStore,
	q *queue.RedisQueue,
	m domrepo.Metrics,
	cfg *config.Config,
	lgr *applogger.Logger,
) *usecase.AnalysisService {
	return usecase.NewAnalysisService(model, probe, store, q, m, usecase.AnalysisServiceConfig{
		UploadDir:         cfg.Storage.UploadDir,
		AllowedExtensions: cfg.Analysis.AllowedExtensions,
	}, lgr)
}

// ProvideUploads builds the upload store.
func ProvideUploads(cfg *config.Config, lgr *applogger.Logger) *usecase.Uploads {
	return usecase.NewUploads(cfg.Storage.UploadDir, cfg.Analysis.MaxUploadBytes, cfg.Analysis.AllowedExtensions, lgr)
}

// ProvideLimiter builds the per-client submission limiter.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideAnalysisHandler builds the /api handler.
func ProvideAnalysisHandler(
	lgr *applogger.Logger,
	svc *usecase.AnalysisService,
	uploads *usecase.Uploads,
	limiter *ratelimit.Limiter,
	wm *svcmetrics.WatchMetrics,
	cfg *config.Config,
) *api.AnalysisEchoHandler {
	return api.NewAnalysisEchoHandler(lgr, svc, uploads, limiter, wm, cfg.Tasks.WatchInterval)
}

// ProvideHTTPServer builds the echo server with the analysis routes.
func ProvideHTTPServer(
	cfg *config.Config,
	h *api.AnalysisEchoHandler,
	reg *prometheus.Registry,
	lgr *applogger.Logger,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{h},
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithBodyLimit(cfg.Server.BodyLimit),
		xhttp.WithCORS(!cfg.Server.DisableCORS),
		xhttp.WithMetrics(metricsPath, reg),
		xhttp.WithLogger(lgr),
	)
}

// ProvideApp assembles the application. The publisher closes before the
// Redis client so in-flight completion events can still be flushed.
func ProvideApp(
	cfg *config.Config,
	mode server.Mode,
	lgr *applogger.Logger,
	srv *xhttp.Server,
	q *queue.RedisQueue,
	publisher domrepo.EventPublisher,
	client *redis.Client,
) *server.App {
	return server.New(mode, lgr, srv, q, cfg.Server.ShutdownTimeout, publisher, client)
}
