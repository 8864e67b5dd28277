package checkpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aluiziolira/go-crawl-nhl/models"
)

// Redis stores checkpoints in Redis so they survive restarts and are shared
// between crawler instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) Done(ctx context.Context, schemaVersion string, gameID models.GameID) (bool, error) {
	n, err := r.client.Exists(ctx, Key(schemaVersion, gameID)).Result()
	if err != nil {
		return false, fmt.Errorf("check checkpoint %s: %w", gameID, err)
	}
	return n > 0, nil
}

func (r *Redis) Mark(ctx context.Context, schemaVersion string, gameID models.GameID) error {
	value := time.Now().UTC().Format(time.RFC3339)
	if err := r.client.Set(ctx, Key(schemaVersion, gameID), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("mark checkpoint %s: %w", gameID, err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
