package config

// Redis backs the distributed rate limiter, the availability response
// cache and the asynq task queues. If the initial ping fails the
// constructor returns nil and callers degrade by disabling caching
// and rate limiting; the background worker requires Redis and refuses
// to start without it.

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAddr resolves the Redis address from REDIS_HOST/REDIS_PORT or
// REDIS_ADDR, defaulting to localhost:6379. The asynq client takes a
// plain address rather than a client, so the resolution is shared.
func RedisAddr() string {
	host := os.Getenv("REDIS_HOST")
	port := os.Getenv("REDIS_PORT")
	addr := os.Getenv("REDIS_ADDR")
	if host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	return addr
}

// NewRedisClient instantiates a Redis client from the environment:
// RedisAddr resolution plus REDIS_PASSWORD, REDIS_DB and REDIS_TLS.
// Returns nil when the server cannot be reached at startup.
func NewRedisClient() *redis.Client {
	pwd := os.Getenv("REDIS_PASSWORD")
	dbNum := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if n, err := strconv.Atoi(dbStr); err == nil {
			dbNum = n
		}
	}
	var tlsConf *tls.Config
	if tlsEnv := os.Getenv("REDIS_TLS"); strings.EqualFold(tlsEnv, "true") || tlsEnv == "1" {
		tlsConf = &tls.Config{InsecureSkipVerify: true}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      RedisAddr(),
		Password:  pwd,
		DB:        dbNum,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
