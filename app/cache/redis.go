package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const feedKeyPrefix = "newsfeed:feed:"

// Cache keeps rendered RSS documents in Redis between imports.
type Cache struct {
	client *redis.Client
}

type feedData struct {
	Content  string `json:"content"`
	CachedAt int64  `json:"cached_at"`
}

func NewCache(ctx context.Context, addr string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr)

	return &Cache{client: client}, nil
}

// FeedKey is stable for a channel link and item limit.
func FeedKey(link string, limit int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", link, limit)))
	return fmt.Sprintf("%s%x", feedKeyPrefix, hash[:8])
}

// GetFeed returns the cached document and whether it was found. Entries
// that cannot be decoded are dropped and reported as a miss.
func (c *Cache) GetFeed(ctx context.Context, key string) (string, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	var feed feedData
	if err := json.Unmarshal(data, &feed); err != nil {
		c.client.Del(ctx, key)
		return "", false, nil
	}

	return feed.Content, true, nil
}

func (c *Cache) SetFeed(ctx context.Context, key, content string, ttl time.Duration) error {
	data, err := json.Marshal(feedData{Content: content, CachedAt: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// InvalidateFeeds drops every cached document. It is called after a cycle
// that created records.
func (c *Cache) InvalidateFeeds(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, feedKeyPrefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan feed keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete feed keys: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}
