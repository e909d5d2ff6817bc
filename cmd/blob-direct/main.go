// Command blob-direct runs the media redirect proxy.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/federationstudio/blob-direct/pkg/appview"
	"github.com/federationstudio/blob-direct/pkg/cache"
	"github.com/federationstudio/blob-direct/pkg/config"
	"github.com/federationstudio/blob-direct/pkg/logging"
	"github.com/federationstudio/blob-direct/pkg/resolver"
	"github.com/federationstudio/blob-direct/pkg/server"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.Setup(logging.DefaultConfig())
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.Setup(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	store := newStore(cfg, logger)

	client, err := appview.New(appview.Config{
		BaseURL:   cfg.Upstream.AppViewURL,
		PDSURL:    cfg.Upstream.PDSURL,
		UserAgent: cfg.Upstream.UserAgent,
		Timeout:   cfg.Upstream.Timeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create appview client")
	}

	resolvers := resolver.New(client, store, resolver.Config{
		IdentityTTL: cfg.TTL.Identity,
		ProfileTTL:  cfg.TTL.Profile,
		PostTTL:     cfg.TTL.Post,
	})
	dispatcher := resolver.NewDispatcher(resolvers, cfg.Server.HomepageURL)

	srv := server.New(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, dispatcher)

	go func() {
		logger.Info().
			Str("addr", cfg.Server.Host+":"+cfg.Server.Port).
			Str("appview", cfg.Upstream.AppViewURL).
			Msg("Starting redirect proxy")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Shutdown failed")
	}
}

// newStore selects the cache backend: redis when an address is
// configured, the in-process store otherwise.
func newStore(cfg *config.Config, logger zerolog.Logger) cache.Store {
	if cfg.Redis.Addr == "" {
		logger.Info().Msg("No redis configured, using in-process cache")
		return cache.NewMemoryStore(10 * time.Minute)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to redis")
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to redis")

	return cache.NewRedisStore(redisClient, cfg.Redis.Namespace)
}
