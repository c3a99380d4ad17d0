package di

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"FinDash/internal/domain/repository"
	"FinDash/internal/handler/api"
	"FinDash/internal/handler/ws"
	internalrepo "FinDash/internal/repository"
	"FinDash/internal/service/backend"
	svcmetrics "FinDash/internal/service/metrics"
	"FinDash/internal/service/ratelimit"
	"FinDash/internal/service/relay"
	"FinDash/internal/usecase"
	"FinDash/internal/view"
	"FinDash/pkg/config"
	xhttp "FinDash/pkg/http"
	pkgkafka "FinDash/pkg/kafka"
	applogger "FinDash/pkg/logger"
	"FinDash/pkg/markup"
	"FinDash/pkg/metrics"
	"FinDash/pkg/pubsub"
	"FinDash/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatch(cfg.Kafka.BatchSize, cfg.Kafka.BatchTimeout),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the app logger. With Kafka enabled, repeated
// warnings and errors are aggregated onto the log topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideEventPublisher ships panel events to Kafka, or drops them.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NoopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

func ProvideBackendMetrics() *svcmetrics.BackendMetrics {
	return svcmetrics.NewBackendMetrics(prometheus.DefaultRegisterer)
}

// ProvideBackend creates the HTTP client of the financial API.
func ProvideBackend(cfg *config.Config, bm *svcmetrics.BackendMetrics) repository.Backend {
	return backend.New(xhttp.NewClient(
		xhttp.WithBaseURL(cfg.Backend.BaseURL),
		xhttp.WithTimeout(cfg.Backend.Timeout),
	), backend.WithObserver(bm))
}

// ProvideStore creates the page surface; updates dropped for slow browsers
// are counted on rec.
func ProvideStore(rec *metrics.Recorder) *view.Store {
	return view.NewStore(view.WithDropCounter(rec))
}

func ProvideRenderer(cfg *config.Config) *view.Renderer {
	return view.NewRenderer(markup.NewFormatter(cfg.Dashboard.Markdown))
}

// ProvideDashboard assembles the panels, scheduler, tabs and chat.
func ProvideDashboard(
	b repository.Backend,
	store *view.Store,
	renderer *view.Renderer,
	rec *metrics.Recorder,
	events repository.EventPublisher,
	logger *applogger.Logger,
	cfg *config.Config,
) (*usecase.Dashboard, error) {
	d, err := usecase.NewDashboard(b, store, renderer, rec, events, logger, usecase.Options{
		DefaultTab:     cfg.Dashboard.DefaultTab,
		AlertsLimit:    cfg.Dashboard.AlertsLimit,
		FeedLimit:      cfg.Dashboard.FeedLimit,
		FeedCategory:   cfg.Dashboard.FeedCategory,
		HoursBack:      cfg.Dashboard.HoursBack,
		HealthInterval: cfg.Dashboard.HealthInterval,
		MarketInterval: cfg.Dashboard.MarketInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	return d, nil
}

// ProvideRelay connects to Redis pub/sub, or returns nil when disabled.
func ProvideRelay(cfg *config.Config) (*pubsub.Relay, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	r, err := pubsub.NewRedisRelay(
		pubsub.WithAddr(cfg.Redis.Addr),
		pubsub.WithPassword(cfg.Redis.Password),
		pubsub.WithDB(cfg.Redis.DB),
		pubsub.WithChannel(cfg.Redis.Channel),
	)
	if err != nil {
		return nil, fmt.Errorf("redis relay: %w", err)
	}
	return r, nil
}

func ProvideBridge(store *view.Store, r *pubsub.Relay, rec *metrics.Recorder, logger *applogger.Logger) *relay.Bridge {
	if r == nil {
		return nil
	}
	return relay.NewBridge(store, r, rec, logger)
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(ratelimit.WithRate(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec))
}

func ProvideDashboardHandler(
	logger *applogger.Logger,
	dash *usecase.Dashboard,
	store *view.Store,
	limiter *ratelimit.Limiter,
	cfg *config.Config,
) *api.DashboardHandler {
	return api.NewDashboardHandler(logger, dash, store, limiter, cfg.Dashboard.Title)
}

func ProvideHub(store *view.Store, rec *metrics.Recorder, logger *applogger.Logger) *ws.Hub {
	return ws.NewHub(store, rec, logger)
}

// ProvideHTTPServer creates the echo server with every route registered.
func ProvideHTTPServer(cfg *config.Config, logger *applogger.Logger, dh *api.DashboardHandler, hub *ws.Hub) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithCORS(cfg.Server.CORS),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, nil))
	}
	return xhttp.NewServer(logger, []xhttp.Handler{dh, hub}, opts...)
}

// ProvideClosers lists the connections to close on shutdown. The Kafka
// event publisher owns the producer and closes it.
func ProvideClosers(events repository.EventPublisher, r *pubsub.Relay) []io.Closer {
	closers := []io.Closer{events}
	if r != nil {
		closers = append(closers, r)
	}
	return closers
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	dash *usecase.Dashboard,
	srv *xhttp.Server,
	bridge *relay.Bridge,
	closers []io.Closer,
) *server.App {
	return server.New(cfg, logger, dash, srv, bridge, closers)
}
