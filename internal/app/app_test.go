package app

import (
	"context"
	"errors"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/config"
	"github.com/vladislavdragonenkov/orders/internal/service/products"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Addr:            "127.0.0.1:0",
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
		},
		Ops: config.OpsConfig{Addr: "127.0.0.1:0"},
		Outbox: config.OutboxConfig{
			PollInterval: 100 * time.Millisecond,
			BatchSize:    10,
			MaxAttempts:  3,
		},
	}
}

func TestNewDependencies_MemoryFallback(t *testing.T) {
	cfg := testConfig()

	deps, err := NewDependencies(context.Background(), cfg, log.WithField("component", "test"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer deps.Close()

	if deps.Store != nil {
		t.Fatal("expected no postgres store without dsn")
	}
	if deps.Repo == nil || deps.OutboxRepo == nil {
		t.Fatal("expected in-memory repositories to be initialized")
	}
	if _, ok := deps.Products.(*products.MockService); !ok {
		t.Fatalf("expected mock product catalog, got %T", deps.Products)
	}
}

func TestNewDependencies_ProductClient(t *testing.T) {
	cfg := testConfig()
	cfg.ProductService.BaseURL = "http://localhost:3000"

	deps, err := NewDependencies(context.Background(), cfg, log.WithField("component", "test"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer deps.Close()

	if _, ok := deps.Products.(*products.Client); !ok {
		t.Fatalf("expected http product client, got %T", deps.Products)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	cfg := testConfig()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, cfg)
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("application did not stop on context cancel")
	}
}

func TestInitKafkaProducer_EmptyBrokers(t *testing.T) {
	producer, err := initKafkaProducer(nil, log.WithField("component", "test"))
	if err != nil {
		t.Fatalf("expected no error for empty brokers, got %v", err)
	}
	if producer != nil {
		t.Fatal("expected nil producer for empty brokers")
	}
}

func TestNewHealthHandler_RegistersProductChecker(t *testing.T) {
	cfg := testConfig()

	deps, err := NewDependencies(context.Background(), cfg, log.WithField("component", "test"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer deps.Close()

	// mock-каталог не реализует Ping, postgres отсутствует:
	// handler без чекеров должен просто отвечать healthy
	handler := newHealthHandler(deps)
	if handler == nil {
		t.Fatal("expected health handler")
	}
}
