// Copyright (c) 2025 StudyLoop Inc. All Rights Reserved.
// This is licensed software from StudyLoop Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/studyloop/churn-risk-engine/internal/bootstrap"
	"github.com/studyloop/churn-risk-engine/internal/config"
	"github.com/studyloop/churn-risk-engine/internal/server"
	"github.com/studyloop/churn-risk-engine/pkg/evaluate"
)

// App holds all application dependencies and manages the application
// lifecycle. Components initialize in dependency order: Redis, evaluation
// config, stores, engine components, metrics server, telemetry.
type App struct {
	cfg               *config.Config
	engine            *Engine
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	if err := app.initRedis(ctx); err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	evalConfig, err := evaluate.LoadConfig(cfg.EngineConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load engine config from %s: %w", cfg.EngineConfigPath, err)
	}
	logrus.Infof("loaded engine configuration from %s", cfg.EngineConfigPath)

	components := bootstrap.InitComponents(app.redisClient, evalConfig)
	app.engine = &Engine{
		accessor:    components.Accessor,
		scorer:      components.Scorer,
		evaluator:   components.Evaluator,
		transaction: components.Transaction,
		recommender: components.Recommender,
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.OtelServiceName, cfg.Environment, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// Engine exposes the initialized scoring and calibration surface.
func (a *App) Engine() *Engine {
	return a.engine
}

// initRedis initializes the Redis client, retrying the initial ping with
// exponential backoff.
func (a *App) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisAddr(),
		Password:     a.cfg.RedisPassword,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(a.cfg.RedisRetryDelayMs) * time.Millisecond
	maxRetries := backoff.WithMaxRetries(b, uint64(a.cfg.RedisMaxRetries))

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		maxRetries,
	)

	if err != nil {
		return err
	}

	a.redisClient = client
	logrus.Info("Redis client initialized")
	return nil
}
