package quota

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "sendgate:quota:"
	defaultTTL = 5 * time.Minute
)

// incrScript bumps the counter and arms a safety TTL on first increment,
// so a crashed owner cannot leave the shared quota pinned forever.
var incrScript = goredis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`)

var _ Counter = (*RedisCounter)(nil)

// RedisCounter is a Counter shared by multiple processes through Redis,
// for deployments where several senders consume one remote quota. Unlike
// the in-process Window, the window boundary is still driven by whichever
// engine runs the reset loop; the TTL is only a crash fallback.
type RedisCounter struct {
	client *goredis.Client
	key    string
	ttl    time.Duration
}

func NewRedisCounter(client *goredis.Client, name string, ttl time.Duration) (*RedisCounter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	normalized := strings.TrimSpace(name)
	if normalized == "" {
		return nil, fmt.Errorf("counter name is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &RedisCounter{
		client: client,
		key:    keyPrefix + normalized,
		ttl:    ttl,
	}, nil
}

func NewRedis(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func (r *RedisCounter) Add(ctx context.Context) (int64, error) {
	if r == nil || r.client == nil {
		return 0, fmt.Errorf("redis counter is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ttlSeconds := int64(r.ttl / time.Second)
	value, err := incrScript.Run(ctx, r.client, []string{r.key}, ttlSeconds).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to increment quota counter: %w", err)
	}

	return value, nil
}

func (r *RedisCounter) Value(ctx context.Context) (int64, error) {
	if r == nil || r.client == nil {
		return 0, fmt.Errorf("redis counter is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	value, err := r.client.Get(ctx, r.key).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read quota counter: %w", err)
	}

	return value, nil
}

func (r *RedisCounter) Reset(ctx context.Context) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("redis counter is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to reset quota counter: %w", err)
	}

	return nil
}
