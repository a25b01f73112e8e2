package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики workflow заказов.
type OrderMetrics struct {
	// Счётчики операций
	ordersCreated     prometheus.Counter
	createFailures    *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	statusNoops       prometheus.Counter

	// Гистограммы времени выполнения
	productValidation *prometheus.HistogramVec

	// Счётчик событий outbox
	outboxEnqueued prometheus.Counter
}

// Результаты обращения к сервису продуктов для label outcome.
const (
	ValidationOutcomeOK          = "ok"
	ValidationOutcomeMissing     = "missing_ids"
	ValidationOutcomeUnavailable = "unavailable"
)

// Причины отказа создания заказа для label reason.
const (
	CreateFailureValidation  = "validation"
	CreateFailurePersistence = "persistence"
)

// NewOrderMetrics создаёт метрики в default registerer.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer создаёт метрики в указанном registerer.
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created successfully",
		}),
		createFailures: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orders_create_failures_total",
			Help: "Total number of failed order creations grouped by reason",
		}, []string{"reason"}),
		statusTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orders_status_transitions_total",
			Help: "Total number of persisted status transitions grouped by target status",
		}, []string{"status"}),
		statusNoops: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_status_noop_total",
			Help: "Total number of idempotent status transition no-ops",
		}),
		productValidation: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "orders_product_validation_duration_seconds",
			Help:    "Duration of product validation calls grouped by outcome",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"outcome"}),
		outboxEnqueued: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_outbox_enqueued_total",
			Help: "Total number of order events enqueued into transactional outbox",
		}),
	}
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordCreateFailure увеличивает счётчик отказов создания.
func (m *OrderMetrics) RecordCreateFailure(reason string) {
	m.createFailures.WithLabelValues(reason).Inc()
}

// RecordStatusTransition увеличивает счётчик переходов в целевой статус.
func (m *OrderMetrics) RecordStatusTransition(status string) {
	m.statusTransitions.WithLabelValues(status).Inc()
}

// RecordStatusNoop увеличивает счётчик идемпотентных повторов changeStatus.
func (m *OrderMetrics) RecordStatusNoop() {
	m.statusNoops.Inc()
}

// RecordProductValidation записывает длительность обращения к сервису продуктов.
func (m *OrderMetrics) RecordProductValidation(outcome string, duration time.Duration) {
	m.productValidation.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordOutboxEnqueued увеличивает счётчик поставленных в outbox событий.
func (m *OrderMetrics) RecordOutboxEnqueued() {
	m.outboxEnqueued.Inc()
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}
