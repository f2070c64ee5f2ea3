package main

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/rolodex/libs/config"
	"github.com/md-rashed-zaman/rolodex/libs/httpx"
	otelx "github.com/md-rashed-zaman/rolodex/libs/otel"
)

const (
	sinkRedis = "redis"
	sinkKafka = "kafka"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"rolodex-service"`
	Port        string `env:"PORT" envDefault:"8000"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL    string `env:"DATABASE_URL,required,notEmpty"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"false"`
	RedisURL       string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	KafkaBrokers   string `env:"KAFKA_BROKERS"`

	OutboxSink         string        `env:"OUTBOX_SINK" envDefault:"redis"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"5s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`

	ConsumerEnabled   bool          `env:"CONSUMER_ENABLED" envDefault:"true"`
	ConsumerStream    string        `env:"CONSUMER_STREAM" envDefault:"outbox:ExternalIdentifierCreated"`
	ConsumerGroup     string        `env:"CONSUMER_GROUP" envDefault:"external_identifier_reader"`
	ConsumerName      string        `env:"CONSUMER_NAME" envDefault:"rolodex-data-product-consumer"`
	ConsumerBatchSize int64         `env:"CONSUMER_BATCH_SIZE" envDefault:"10"`
	ConsumerBlock     time.Duration `env:"CONSUMER_BLOCK" envDefault:"5s"`
	ConsumerRetry     time.Duration `env:"CONSUMER_RETRY_INTERVAL" envDefault:"30s"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"30m"`
	UsersFile string        `env:"USERS_FILE"`

	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"600"`
	RateLimitBackend   string `env:"RATE_LIMIT_BACKEND" envDefault:"redis"`
	// comma separated CIDRs whose X-Forwarded-For is believed
	TrustedProxies     string `env:"TRUSTED_PROXIES"`

	OTel otelx.Config
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := config.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if _, err := config.Port("PORT", c.Port); err != nil {
		return err
	}
	switch c.OutboxSink {
	case sinkRedis:
	case sinkKafka:
		if c.KafkaBrokers == "" {
			return fmt.Errorf("OUTBOX_SINK=kafka requires KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("OUTBOX_SINK must be %q or %q (got %q)", sinkRedis, sinkKafka, c.OutboxSink)
	}
	switch c.RateLimitBackend {
	case "redis", "memory":
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be redis or memory (got %q)", c.RateLimitBackend)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	return nil
}
