package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/rolodex/libs/auth"
	"github.com/md-rashed-zaman/rolodex/libs/db"
	"github.com/md-rashed-zaman/rolodex/libs/httpx"
	"github.com/md-rashed-zaman/rolodex/libs/kafkax"
	otelx "github.com/md-rashed-zaman/rolodex/libs/otel"
	"github.com/md-rashed-zaman/rolodex/libs/redisx"
	"github.com/md-rashed-zaman/rolodex/libs/runtime"
	"github.com/md-rashed-zaman/rolodex/services/rolodex-service/internal/consumer"
	"github.com/md-rashed-zaman/rolodex/services/rolodex-service/internal/handlers"
	"github.com/md-rashed-zaman/rolodex/services/rolodex-service/internal/outbox"
	"github.com/md-rashed-zaman/rolodex/services/rolodex-service/internal/storage"
	"github.com/md-rashed-zaman/rolodex/services/rolodex-service/migrations"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.ServiceName, cfg.LogLevel)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, cfg.ServiceName, cfg.OTel)
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	if cfg.MigrateOnStart {
		if err := db.MigrateUp(migrations.FS, migrations.Dir, cfg.DatabaseURL); err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
		logger.Info("migrations applied")
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	rdb, err := redisx.Open(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("redis connection failed", "err", err)
		panic(err)
	}
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "redis", Check: redisx.ReadyCheck(rdb)},
	}

	outboxRepo := outbox.NewRepository(pool)
	var publisher outbox.Publisher = outbox.NewRedisStreamPublisher(rdb)
	if cfg.OutboxSink == sinkKafka {
		brokers := kafkax.SplitBrokers(cfg.KafkaBrokers)
		kp := outbox.NewKafkaPublisher(brokers)
		defer kp.Close()
		publisher = kp
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	relay := outbox.NewRelay(outboxRepo, publisher, logger, outbox.NewMetrics(reg), outbox.RelayConfig{
		Interval:  cfg.OutboxPollInterval,
		BatchSize: cfg.OutboxBatchSize,
	})

	store := storage.NewRepository(pool, outboxRepo)
	streamConsumer := consumer.New(consumer.NewRedisStreams(rdb), store, logger, consumer.NewMetrics(reg), consumer.Config{
		Stream:        cfg.ConsumerStream,
		Group:         cfg.ConsumerGroup,
		Consumer:      cfg.ConsumerName,
		BatchSize:     cfg.ConsumerBatchSize,
		Block:         cfg.ConsumerBlock,
		RetryInterval: cfg.ConsumerRetry,
	})

	users, err := loadUsers(cfg, logger)
	if err != nil {
		logger.Error("load users failed", "err", err)
		panic(err)
	}
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	mux := runtime.NewBaseMux(reg, checks...)
	handlers.Register(mux,
		handlers.New(store, outboxRepo, logger),
		handlers.NewAuth(users, issuer, logger),
		issuer,
	)

	// validated by loadConfig
	trustedProxies, _ := httpx.ParseTrustedProxies(cfg.TrustedProxies)
	var limiter httpx.Limiter = httpx.NewMemoryLimiter(cfg.RateLimitPerMinute, time.Minute)
	if cfg.RateLimitBackend == "redis" {
		limiter = httpx.NewRedisLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "rolodex:ratelimit:")
	}
	handler := httpx.Chain(mux,
		httpx.WithRecover(logger),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.RateLimit(limiter, logger, true, trustedProxies...),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(30*time.Second),
	)
	handler = otelhttp.NewHandler(handler, cfg.ServiceName)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		relay.Run(gctx)
		return nil
	})
	if cfg.ConsumerEnabled {
		g.Go(func() error {
			streamConsumer.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "err", err)
		}
		logger.Info("http server stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("service stopped with error", "err", err)
	}
}
