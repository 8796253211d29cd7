package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "fundwl:history:"

// redisRetention bounds how long a stale entry stays usable as a fallback.
const redisRetention = 7 * 24 * time.Hour

// Redis shares cached history between processes.
type Redis struct {
	rdb redis.UniversalClient
}

func NewRedis(rdb redis.UniversalClient) *Redis { return &Redis{rdb: rdb} }

// DialRedis connects using a redis:// URL and pings the server.
func DialRedis(ctx context.Context, url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

func (r *Redis) Get(ctx context.Context, code string) (Entry, bool, error) {
	b, err := r.rdb.Get(ctx, redisPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode %s: %w", code, err)
	}
	return e, true, nil
}

func (r *Redis) Set(ctx context.Context, code string, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, redisPrefix+code, b, redisRetention).Err()
}

func (r *Redis) Delete(ctx context.Context, code string) error {
	return r.rdb.Del(ctx, redisPrefix+code).Err()
}

func (r *Redis) Close() error { return r.rdb.Close() }
