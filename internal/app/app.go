package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/config"
	healthcheck "github.com/vladislavdragonenkov/orders/internal/health"
	"github.com/vladislavdragonenkov/orders/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orders/internal/metrics"
	orderssvc "github.com/vladislavdragonenkov/orders/internal/service/orders"
	"github.com/vladislavdragonenkov/orders/internal/service/outbox"
	httptransport "github.com/vladislavdragonenkov/orders/internal/transport/http"
	"github.com/vladislavdragonenkov/orders/internal/version"
)

// Run собирает зависимости и запускает сервис заказов: HTTP API,
// служебный сервер с метриками и health checks, outbox worker.
// Блокируется до отмены ctx или фатальной ошибки сервера.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Kafka опционален: без брокеров события копятся в outbox
	kafkaProducer, _ := initKafkaProducer(cfg.Kafka.Brokers, logger)
	defer closeKafka(kafkaProducer, logger)

	orderMetrics := metrics.NewOrderMetrics()
	service := orderssvc.NewService(
		deps.Repo,
		deps.Products,
		deps.OutboxRepo,
		orderMetrics,
		logger.WithField("layer", "service"),
	)

	var wg sync.WaitGroup
	if kafkaProducer != nil {
		worker := outbox.NewWorker(
			deps.OutboxRepo,
			kafka.NewOutboxPublisher(kafkaProducer, cfg.Kafka.Topic),
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithDLQPublisher(kafka.NewDLQPublisher(kafkaProducer, cfg.Kafka.Topic)),
			outbox.WithPollInterval(cfg.Outbox.PollInterval),
			outbox.WithBatchSize(cfg.Outbox.BatchSize),
			outbox.WithMaxAttempts(cfg.Outbox.MaxAttempts),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	} else {
		logger.Warn("kafka brokers are not configured, outbox worker is disabled")
	}

	healthHandler := newHealthHandler(deps)
	opsSrv := startOpsServer(ctx, cfg.Ops.Addr, logger, healthHandler)

	handler := httptransport.NewHandler(service, logger.WithField("layer", "http"))
	router := httptransport.NewRouter(handler, logger.WithField("layer", "http"))
	apiSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTP.Addr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, cfg.HTTP.ShutdownTimeout, logger)
		shutdownHTTP(opsSrv, cfg.HTTP.ShutdownTimeout, logger)
		wg.Wait()
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(opsSrv, cfg.HTTP.ShutdownTimeout, logger)
		wg.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// newHealthHandler регистрирует проверки доступных компонентов.
func newHealthHandler(deps *Dependencies) *healthcheck.Handler {
	handler := healthcheck.NewHandler(version.Version())

	if deps.Store != nil {
		handler.RegisterChecker("postgres", healthcheck.NewPingChecker("postgres", deps.Store.Ping))
	}

	type pinger interface {
		Ping(ctx context.Context) error
	}
	if client, ok := deps.Products.(pinger); ok {
		// сервис продуктов нужен для create/get, но сервис заказов
		// продолжает отвечать на list и без него
		handler.RegisterChecker("product-service", healthcheck.NewOptionalPingChecker("product-service", client.Ping))
	}

	return handler
}

// startOpsServer запускает служебный HTTP-сервер: /metrics, /healthz, /livez, /readyz.
func startOpsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("ops server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, 5*time.Second, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
