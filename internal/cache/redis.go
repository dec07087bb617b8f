package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alphaxx001/bookloop-connect-campus/internal/config"
)

const (
	pingAttempts = 3
	pingTimeout  = 5 * time.Second
)

// ConnectRedis opens the client shared by the listing cache, the task queue and the mock
// mail store. The server must answer PING within pingAttempts tries.
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		err = rdb.Ping(ctx).Err()
		cancel()
		if err == nil {
			log.Printf("Connected to Redis at %s (db %d)", cfg.RedisAddr, cfg.RedisDB)
			return rdb, nil
		}
		log.Printf("Redis ping %d/%d failed: %v", attempt, pingAttempts, err)
		time.Sleep(time.Duration(attempt) * 200 * time.Millisecond)
	}

	_ = rdb.Close()
	return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
}

// DisconnectRedis closes the client. A nil client is a no-op.
func DisconnectRedis(client *redis.Client) error {
	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	log.Println("Redis connection closed.")
	return nil
}
