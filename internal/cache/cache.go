package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/therealutkarshpriyadarshi/edlkit/pkg/edl"
	"github.com/therealutkarshpriyadarshi/edlkit/pkg/models"
)

// Cache keeps parsed sessions and session records in Redis
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Parsed Session Operations

// parsedKey identifies a parse result by the content hash of the export and
// the options it was parsed with
func parsedKey(contentHash string, opts edl.Options) string {
	return fmt.Sprintf("parsed:%s:%s:%s", contentHash, opts.OnUnknownSection, opts.OnSectionParseError)
}

// SetParsed caches a parsed session
func (c *Cache) SetParsed(ctx context.Context, contentHash string, opts edl.Options, session *edl.Session, ttl time.Duration) error {
	return c.SetWithJSON(ctx, parsedKey(contentHash, opts), session, ttl)
}

// GetParsed returns a cached parse result, or nil on a miss
func (c *Cache) GetParsed(ctx context.Context, contentHash string, opts edl.Options) (*edl.Session, error) {
	var session edl.Session
	found, err := c.getJSON(ctx, parsedKey(contentHash, opts), &session)
	if err != nil || !found {
		return nil, err
	}
	return &session, nil
}

// Session Record Operations

// cachedSession carries the parsed document, which the record itself
// leaves out of its JSON
type cachedSession struct {
	Record   *models.Session `json:"record"`
	Document *edl.Session    `json:"document,omitempty"`
}

// SetSession caches a session record and its parsed document
func (c *Cache) SetSession(ctx context.Context, session *models.Session, ttl time.Duration) error {
	entry := cachedSession{Record: session, Document: session.Document.Session}
	return c.SetWithJSON(ctx, fmt.Sprintf("session:%s", session.ID), entry, ttl)
}

// GetSession retrieves a session record from cache, or nil on a miss
func (c *Cache) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var entry cachedSession
	found, err := c.getJSON(ctx, fmt.Sprintf("session:%s", sessionID), &entry)
	if err != nil || !found || entry.Record == nil {
		return nil, err
	}
	entry.Record.Document = models.Document{Session: entry.Document}
	return entry.Record, nil
}

// DeleteSession removes session metadata from cache
func (c *Cache) DeleteSession(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, fmt.Sprintf("session:%s", sessionID)).Err()
}

// Locking Operations for Distributed Systems

// AcquireLock attempts to acquire a distributed lock
func (c *Cache) AcquireLock(ctx context.Context, resource string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:%s", resource)
	return c.client.SetNX(ctx, key, "locked", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Cache) ReleaseLock(ctx context.Context, resource string) error {
	key := fmt.Sprintf("lock:%s", resource)
	return c.client.Del(ctx, key).Err()
}

// Rate Limiting Operations

// CheckRateLimit reports whether key is still within limit requests per window
func (c *Cache) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	rateLimitKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := c.client.Incr(ctx, rateLimitKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	// Set expiry on first request
	if count == 1 {
		if err := c.client.Expire(ctx, rateLimitKey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set expiry: %w", err)
		}
	}

	return count <= limit, nil
}

// Batch Operations

// DeletePattern deletes all keys matching a pattern
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// SetWithJSON sets a value with JSON marshaling
func (c *Cache) SetWithJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// getJSON reads a JSON value. A missing key is reported as found == false.
func (c *Cache) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // Cache miss
		}
		return false, fmt.Errorf("failed to get value from cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return true, nil
}

// Ping checks the Redis connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
