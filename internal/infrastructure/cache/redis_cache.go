package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
)

const versionKey = "kardex:cache:version"

var _ inventory.SnapshotCache = (*RedisCache)(nil)

// RedisCache guarda reportes en Redis con claves versionadas. Invalidate incrementa la versión,
// así las claves viejas dejan de leerse y expiran por TTL. Un *RedisCache nil no cachea.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache construye la caché.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// NewClient abre el cliente y verifica la conexión con PING.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisCache) version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return ver, err
}

// Fetch devuelve el valor de key en la versión vigente o lo calcula con loader y lo guarda.
func (c *RedisCache) Fetch(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader requerido")
	}
	if c == nil || c.client == nil {
		return loadInto(ctx, dest, loader)
	}
	ver, err := c.version(ctx)
	if err != nil {
		return err
	}
	fullKey := fmt.Sprintf("%s:v%d", key, ver)

	payload, err := c.client.Get(ctx, fullKey).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, fullKey, raw, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Invalidate sube la versión global de la caché.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey).Err()
}

func loadInto(ctx context.Context, dest any, loader func(context.Context) (any, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
