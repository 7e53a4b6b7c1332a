package cache

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"

	"github.com/gofiber/storage/redis"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/ObservationDesk/internal/pkg/env"
)

// LimiterDatabase keeps the rate limiter counters apart from DB 0.
const LimiterDatabase = 1

// NewClient builds a Redis client from CACHE_HOST, CACHE_PORT and CACHE_PASSWORD.
func NewClient() *goredis.Client {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	return goredis.NewClient(&goredis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0, // use default DB
	})
}

// SetupCache initializes the connection to the cache server. It returns nil when
// the server does not answer, in which case callers fall back to in-memory state.
func SetupCache(ctx context.Context) *goredis.Client {
	client := NewClient()

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Printf("Warning: Could not connect to cache: %v", err)
		_ = client.Close()
		return nil
	}
	log.Printf("Successfully connected to cache: %s", pong)
	return client
}

// NewLimiterStorage creates the fiber.Storage for the rate limiter on the server
// client points at. client must have answered a ping; the storage panics otherwise.
func NewLimiterStorage(client *goredis.Client) *redis.Storage {
	host := "localhost"
	port := 6379
	opts := client.Options()
	if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: opts.Password,
		Database: LimiterDatabase,
		Reset:    false,
	})
}

// Ping checks the cache server.
func Ping(ctx context.Context, client *goredis.Client) error {
	return client.Ping(ctx).Err()
}
