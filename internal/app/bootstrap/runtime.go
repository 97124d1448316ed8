package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authadapter "github.com/linkfolio/profile-service/internal/adapters/auth"
	eventadapter "github.com/linkfolio/profile-service/internal/adapters/events"
	httpadapter "github.com/linkfolio/profile-service/internal/adapters/http"
	"github.com/linkfolio/profile-service/internal/adapters/postgres"
	redisadapter "github.com/linkfolio/profile-service/internal/adapters/redis"
	"github.com/linkfolio/profile-service/internal/application"
	"github.com/linkfolio/profile-service/internal/cache"
	"github.com/linkfolio/profile-service/internal/ports"
	"github.com/linkfolio/profile-service/internal/ratelimit"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	cacheMgr   *cache.Manager
	httpServer *http.Server
	outbox     *eventadapter.OutboxWorker
	consumer   *eventadapter.ConsumerWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	cacheMgr := cache.NewManager(logger)
	cacheMgr.SetSweepPolicy(cfg.CacheSweepInterval, cfg.CacheMaxEntryAge)

	// Rate limiting goes through redis when configured so every instance
	// shares one window; otherwise an in-process limiter still protects a
	// single node.
	var limiter ports.RateLimiter
	var limiterStop func()
	var closers []io.Closer
	if cfg.RedisURL != "" {
		redisClient, redisErr := redisadapter.Connect(ctx, cfg.RedisURL)
		if redisErr != nil {
			_ = sqlDB.Close()
			return nil, redisErr
		}
		limiter = redisadapter.NewWindowLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute)
		closers = append(closers, redisClient)
	} else {
		local := ratelimit.NewWindowLimiter(cfg.RateLimitPerMinute, time.Minute)
		limiter = local
		limiterStop = local.Stop
	}

	repos := postgres.NewRepositories(db)
	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:          cfg.ServiceID,
			UsernameCooldownDays: cfg.UsernameCooldownDays,
			UsernameRedirectDays: cfg.UsernameRedirectDays,
			IdempotencyTTL:       cfg.IdempotencyTTL,
			EventDedupTTL:        cfg.EventDedupTTL,
		},
		Profiles:          repos.Profiles,
		ReservedUsernames: repos.ReservedUsernames,
		UsernameHistory:   repos.UsernameHistory,
		Outbox:            repos.Outbox,
		EventDedup:        repos.EventDedup,
		Idempotency:       repos.Idempotency,
		Tokens:            authadapter.NewTokenValidator(cfg.JWTSecret, cfg.JWTIssuer),
		Cache:             cacheMgr,
	})

	handler := httpadapter.NewHandler(service, limiter)
	router := httpadapter.NewRouter(handler, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	publisher := ports.EventPublisher(eventadapter.NewLoggingPublisher(logger))
	consumerAdapter := eventadapter.Consumer(eventadapter.NewNoopConsumer())
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			application.EventProfileCreated:  cfg.KafkaTopicProfileEvents,
			application.EventProfileUpdated:  cfg.KafkaTopicProfileEvents,
			application.EventUsernameClaimed: cfg.KafkaTopicProfileEvents,
			application.EventUsernameChanged: cfg.KafkaTopicProfileEvents,
			application.EventWelcomeEmail:    cfg.KafkaTopicWelcomeEmail,
		})
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			closers = append(closers, kafkaPublisher)
		}

		kafkaConsumer, conErr := eventadapter.NewKafkaConsumer(
			cfg.KafkaBrokers,
			cfg.KafkaConsumerGroup,
			[]string{cfg.KafkaTopicUserRegistered, cfg.KafkaTopicUserDeleted},
		)
		if conErr != nil {
			logger.WarnContext(ctx, "kafka consumer disabled, using noop consumer", "error", conErr)
		} else {
			consumerAdapter = kafkaConsumer
			closers = append(closers, kafkaConsumer)
		}
	}
	outbox := eventadapter.NewOutboxWorker(logger, repos.Outbox, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	consumer := eventadapter.NewConsumerWorker(logger, consumerAdapter, map[string]eventadapter.Handler{
		cfg.KafkaTopicUserRegistered: service.HandleUserRegistered,
		cfg.KafkaTopicUserDeleted:    service.HandleUserDeleted,
	}, cfg.ConsumerPollInterval)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		cacheMgr:   cacheMgr,
		httpServer: httpServer,
		outbox:     outbox,
		consumer:   consumer,
		cleanupFn: func(ctx context.Context) {
			cacheMgr.Stop()
			if limiterStop != nil {
				limiterStop()
			}
			for _, closer := range closers {
				_ = closer.Close()
			}
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	r.cacheMgr.Start()
	errCh := make(chan error, 1)

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	r.cacheMgr.Start()
	errCh := make(chan error, 2)

	go func() {
		if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		r.cleanupFn(context.Background())
		return nil
	case err := <-errCh:
		r.cleanupFn(context.Background())
		return err
	}
}
