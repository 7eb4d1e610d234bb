package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache guarda as respostas do feed de partidas no Redis
type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

// chaves de lista por filtro de status; "all" é o feed sem filtro
var listFilters = []string{"all", "upcoming", "live", "completed", "cancelled"}

func KeyList(status string) string {
	if status == "" {
		status = "all"
	}
	return "feed:matches:" + status
}

func KeyMatch(matchID string) string { return "feed:match:" + matchID }

func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, key, b, ttl).Err()
}

// Invalidate apaga a partida e todas as listas, já que o status pode ter mudado de filtro
func (c *Cache) Invalidate(ctx context.Context, matchID string) error {
	keys := make([]string, 0, len(listFilters)+1)
	for _, f := range listFilters {
		keys = append(keys, KeyList(f))
	}
	if matchID != "" {
		keys = append(keys, KeyMatch(matchID))
	}
	return c.R.Del(ctx, keys...).Err()
}
