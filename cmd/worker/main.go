package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pricing-engine/internal/config"
	"github.com/noah-isme/pricing-engine/internal/obs"
	"github.com/noah-isme/pricing-engine/internal/rates"
	"github.com/noah-isme/pricing-engine/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	if cfg.RedisURL == "" {
		logger.Fatal().Msg("REDIS_URL is required for the worker")
	}
	if len(cfg.WarmPairs) == 0 {
		logger.Fatal().Msg("RATES_WARM_PAIRS is empty, nothing to warm")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	connOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis uri for queue")
	}

	warmer := rates.Warmer{
		Source: buildRateSource(cfg, redisClient, logger),
		Logger: logger,
	}

	scheduler := asynq.NewScheduler(connOpt, &asynq.SchedulerOpts{})
	interval := cfg.WarmInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	for _, pair := range cfg.WarmPairs {
		base, quoteCur, err := rates.ParsePair(pair)
		if err != nil {
			logger.Fatal().Err(err).Str("pair", pair).Msg("parse warm pair")
		}
		task, err := rates.NewWarmTask(base, quoteCur)
		if err != nil {
			logger.Fatal().Err(err).Str("pair", pair).Msg("build warm task")
		}
		spec := fmt.Sprintf("@every %s", interval)
		if _, err := scheduler.Register(spec, task); err != nil {
			logger.Fatal().Err(err).Str("pair", pair).Msg("schedule warm task")
		}
	}

	srv := asynq.NewServer(connOpt, asynq.Config{
		Concurrency: 2,
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(rates.TaskTypeWarm, warmer.HandleWarmTask)

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error().Err(err).Msg("scheduler stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		scheduler.Shutdown()
		srv.Shutdown()
	}()

	logger.Info().Int("pairs", len(cfg.WarmPairs)).Dur("interval", interval).Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
	logger.Info().Msg("worker shutdown complete")
}

// buildRateSource mirrors the API process: warming through the same chain
// fills the shared Redis cache the API reads from.
func buildRateSource(cfg *config.Config, redisClient *redis.Client, logger zerolog.Logger) rates.Source {
	var source rates.Source = &rates.HTTPSource{
		BaseURL: cfg.RatesBaseURL,
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{},
			Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second),
			BaseBackoff: cfg.RatesRetryBase,
			MaxAttempts: cfg.RatesMaxAttempts,
			Jitter:      0.2,
			Timeout:     cfg.RatesTimeout,
		},
		TTL: cfg.RatesTTL,
	}
	return &rates.RedisCache{Client: redisClient, Source: source, Logger: logger}
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
