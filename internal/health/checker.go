package health

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-nursery/internal/repo"
)

// Probe checks the MongoDB and Redis dependencies the API relies on.
type Probe struct {
	Mongo *repo.Client
	Redis *redis.Client
}

// PingDB verifies the MongoDB deployment is reachable.
func (p Probe) PingDB(ctx context.Context, timeout time.Duration) error {
	if p.Mongo == nil {
		return errors.New("mongo not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Mongo.Ping(ctx)
}

// PingRedis verifies the Redis server is reachable.
func (p Probe) PingRedis(ctx context.Context, timeout time.Duration) error {
	if p.Redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Redis.Ping(ctx).Err()
}
