// Package main runs the wallet API: account balances, transfers, recharges and history.
package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-petr/pet-wallet/cmd/httpserver"
	"github.com/go-petr/pet-wallet/internal/memstore"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/pkg/configpkg"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"

	_ "github.com/lib/pq"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.CreateLogger(config)

	var storage httpserver.Storage

	switch config.DBDriver {
	case "memory":
		logger.Warn().Msg("using in-memory storage, balances are lost on restart")
		storage = httpserver.MemoryStorage(memstore.New())
	default:
		db, err := dbpkg.Setup(config.DBDriver, config.DBSource)
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot connect to database")
		}

		storage = httpserver.PostgresStorage(db)
	}

	server, err := httpserver.New(storage, connectCache(logger, config), logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	logger.Info().Msg("WALLET API SERVER HAS STARTED")

	err = server.Engine.Run(config.ServerAddress)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}

// connectCache returns the rate limiter cache, or nil when Redis is not
// configured or unreachable.
func connectCache(logger zerolog.Logger, config configpkg.Config) *redis.Client {
	if config.RedisURL == "" {
		return nil
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid redis url, rate limiting disabled")
		return nil
	}

	cache := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := cache.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
		_ = cache.Close()

		return nil
	}

	return cache
}
