// Package cache хранит JSON-снимки объектов в redis с ограниченным временем жизни.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/banner-generator/internal/config"
)

// Cache обёртка над клиентом redis.
type Cache struct {
	Db *redis.Client
}

// NewClient создаёт клиента redis по настройкам без проверки соединения.
func NewClient(cfg config.RedisConnection) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})
}

// InitServer подключается к redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"

	db := NewClient(cfg)
	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Get читает значение key в result. false без ошибки означает промах.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"

	val, err := c.Db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет value под key на время expiration.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	const op = "cache.Set"

	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = c.Db.Set(ctx, key, jsonData, expiration).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Invalidate удаляет key.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	const op = "cache.Invalidate"

	if err := c.Db.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// generationTTL время жизни счётчика поколений; должно быть намного больше
// длительности любого запроса.
const generationTTL = 24 * time.Hour

// setIfGenerationScript пишет снимок, только если поколение ключа не изменилось.
// Отсутствующий счётчик считается поколением 0.
var setIfGenerationScript = redis.NewScript(`
local current = redis.call("GET", KEYS[2])
if (current or "0") ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

func generationKey(key string) string {
	return key + ":gen"
}

// Generation возвращает текущее поколение key.
func (c *Cache) Generation(ctx context.Context, key string) (int64, error) {
	const op = "cache.Generation"

	gen, err := c.Db.Get(ctx, generationKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return gen, nil
}

// SetIfGeneration сохраняет value под key, если поколение key всё ещё равно gen.
// false без ошибки означает, что запись устарела и отброшена.
func (c *Cache) SetIfGeneration(ctx context.Context, key string, gen int64, value any, expiration time.Duration) (bool, error) {
	const op = "cache.SetIfGeneration"

	jsonData, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	stored, err := setIfGenerationScript.Run(ctx, c.Db,
		[]string{key, generationKey(key)},
		strconv.FormatInt(gen, 10), jsonData, expiration.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return stored == 1, nil
}

// Bump удаляет key и увеличивает его поколение, чтобы запись, прочитанная
// до изменения, не попала в кэш.
func (c *Cache) Bump(ctx context.Context, key string) error {
	const op = "cache.Bump"

	_, err := c.Db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(key))
		pipe.Expire(ctx, generationKey(key), generationTTL)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Ping проверяет доступность redis.
func (c *Cache) Ping(ctx context.Context) error {
	return c.Db.Ping(ctx).Err()
}

// Close закрывает клиента.
func (c *Cache) Close() error {
	return c.Db.Close()
}
