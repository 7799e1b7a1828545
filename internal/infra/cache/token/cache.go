package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKeySuffix = "gateway:access_token"

// Cache хранит токен платёжного шлюза в Redis, общий для всех инстансов сервиса
type Cache struct {
	client redis.Cmdable
	key    string
}

// NewCache создает кэш токена. keyPrefix отделяет ключи разных окружений.
func NewCache(client redis.Cmdable, keyPrefix string) *Cache {
	key := tokenKeySuffix
	if keyPrefix != "" {
		key = keyPrefix + ":" + tokenKeySuffix
	}
	return &Cache{client: client, key: key}
}

// Get возвращает закэшированный токен или ErrTokenNotFound
func (c *Cache) Get(ctx context.Context) (string, error) {
	value, err := c.client.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: Get - %v", ErrCache, err)
	}
	if value == "" {
		return "", ErrTokenNotFound
	}
	return value, nil
}

// Set сохраняет токен на ttl
func (c *Cache) Set(ctx context.Context, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: Set - %v", ErrCache, err)
	}
	return nil
}

// Delete удаляет токен (например, после 401 от шлюза)
func (c *Cache) Delete(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("%w: Delete - %v", ErrCache, err)
	}
	return nil
}

// NopCache используется, когда Redis не настроен: токен запрашивается на каждый платёж
type NopCache struct{}

func (NopCache) Get(context.Context) (string, error) { return "", ErrTokenNotFound }
func (NopCache) Set(context.Context, string, time.Duration) error { return nil }
func (NopCache) Delete(context.Context) error { return nil }

// Connect создает клиента Redis по URL и проверяет соединение
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: parse url: %v", ErrCache, err)
	}
	opts.MaxRetries = 3

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrCache, err)
	}

	return client, nil
}
