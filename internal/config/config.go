package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config описывает настройки сервиса заказов.
type Config struct {
	HTTP           HTTPConfig           `mapstructure:"http"`
	Ops            OpsConfig            `mapstructure:"ops"`
	Postgres       PostgresConfig       `mapstructure:"postgres"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	ProductService ProductServiceConfig `mapstructure:"product_service"`
	Outbox         OutboxConfig         `mapstructure:"outbox"`
	Log            LogConfig            `mapstructure:"log"`
}

// HTTPConfig описывает основной HTTP-сервер API.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// OpsConfig описывает служебный HTTP-сервер (метрики и health checks).
type OpsConfig struct {
	Addr string `mapstructure:"addr"`
}

// PostgresConfig описывает подключение к PostgreSQL.
// Пустой DSN означает работу на in-memory хранилище.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// KafkaConfig описывает подключение к Kafka.
// Пустой список brokers отключает публикацию событий.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// ProductServiceConfig описывает внешний сервис продуктов.
// Пустой BaseURL означает работу на встроенном mock-каталоге.
type ProductServiceConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// OutboxConfig описывает параметры outbox worker.
type OutboxConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

// LogConfig описывает настройки логирования.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load читает конфигурацию из yaml-файла (опционально) и переменных
// окружения с префиксом ORDERS_. Переменные окружения имеют приоритет.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("ORDERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.shutdown_timeout", 5*time.Second)
	v.SetDefault("ops.addr", ":9090")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "")
	v.SetDefault("product_service.base_url", "")
	v.SetDefault("outbox.poll_interval", time.Second)
	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.max_attempts", 3)
	v.SetDefault("log.level", "info")
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr must not be empty")
	}
	if c.Ops.Addr == "" {
		return fmt.Errorf("ops.addr must not be empty")
	}
	if c.HTTP.Addr == c.Ops.Addr {
		return fmt.Errorf("http.addr and ops.addr must differ")
	}
	if c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("outbox.batch_size must be positive")
	}
	if c.Outbox.MaxAttempts <= 0 {
		return fmt.Errorf("outbox.max_attempts must be positive")
	}
	if c.Outbox.PollInterval <= 0 {
		return fmt.Errorf("outbox.poll_interval must be positive")
	}
	return nil
}
