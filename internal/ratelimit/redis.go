package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript увеличивает счётчик и при первом попадании в окно ставит TTL.
// Возвращает {count, pttl}.
var incrScript = redis.NewScript(`
local c = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if c == 1 or ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {c, ttl}
`)

// RedisStore хранит окна в redis, разделяя счётчики между всеми воркерами.
// Окно заканчивается вместе с TTL ключа.
type RedisStore struct {
	client redis.Scripter
	prefix string
}

// NewRedisStore создаёт хранилище поверх клиента redis.
func NewRedisStore(client redis.Scripter) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit:"}
}

// Incr атомарно увеличивает счётчик окна key.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration, now time.Time) (Window, error) {
	const op = "ratelimit.RedisStore.Incr"

	res, err := incrScript.Run(ctx, s.client, []string{s.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Window{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(res) != 2 {
		return Window{}, fmt.Errorf("%s: unexpected script result %v", op, res)
	}

	remaining := time.Duration(res[1]) * time.Millisecond
	return Window{
		Count: int(res[0]),
		Start: now.Add(remaining - window),
	}, nil
}
