package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prohmpiriya/session-ticketing/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	availabilityKeyPrefix = "event:availability:"
	generationKeyPrefix   = "event:availability:gen:"
)

// setIfGenerationScript writes the value only while the generation counter
// still equals ARGV[1].
// KEYS[1] value key, KEYS[2] generation key
// ARGV[1] expected generation, ARGV[2] payload, ARGV[3] ttl in ms (0 = no expiry)
const setIfGenerationScript = `
local current = redis.call('GET', KEYS[2])
if not current then
	current = '0'
end
if current ~= ARGV[1] then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ttl)
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`

// invalidateScript bumps the generation and drops the value in one step.
// KEYS[1] value key, KEYS[2] generation key
const invalidateScript = `
redis.call('INCR', KEYS[2])
redis.call('DEL', KEYS[1])
return 1
`

// AvailabilityKey returns the Redis key holding an event's availability
func AvailabilityKey(eventID string) string {
	return availabilityKeyPrefix + eventID
}

// GenerationKey returns the Redis key holding an event's invalidation counter
func GenerationKey(eventID string) string {
	return generationKeyPrefix + eventID
}

// RedisAvailabilityCache implements AvailabilityCache with JSON values
type RedisAvailabilityCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisAvailabilityCache creates a new RedisAvailabilityCache
func NewRedisAvailabilityCache(client redis.Cmdable, ttl time.Duration) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{client: client, ttl: ttl}
}

// Get returns the cached availability and whether it was present
func (c *RedisAvailabilityCache) Get(ctx context.Context, eventID string) ([]domain.Availability, bool, error) {
	data, err := c.client.Get(ctx, AvailabilityKey(eventID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var availability []domain.Availability
	if err := json.Unmarshal(data, &availability); err != nil {
		return nil, false, fmt.Errorf("decode cached availability: %w", err)
	}
	return availability, true, nil
}

// Generation returns the current invalidation counter; a missing key is 0
func (c *RedisAvailabilityCache) Generation(ctx context.Context, eventID string) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey(eventID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return gen, nil
}

// Set stores availability for the configured TTL unless the event was
// invalidated after generation was read. It reports whether the value was written.
func (c *RedisAvailabilityCache) Set(ctx context.Context, eventID string, generation int64, availability []domain.Availability) (bool, error) {
	data, err := json.Marshal(availability)
	if err != nil {
		return false, err
	}
	written, err := c.client.Eval(ctx, setIfGenerationScript,
		[]string{AvailabilityKey(eventID), GenerationKey(eventID)},
		strconv.FormatInt(generation, 10), string(data), c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return written == 1, nil
}

// Invalidate drops the cached value and rejects writes computed before it
func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, eventID string) error {
	return c.client.Eval(ctx, invalidateScript,
		[]string{AvailabilityKey(eventID), GenerationKey(eventID)},
	).Err()
}

// NoopAvailabilityCache never hits; used when Redis is disabled
type NoopAvailabilityCache struct{}

func (NoopAvailabilityCache) Get(ctx context.Context, eventID string) ([]domain.Availability, bool, error) {
	return nil, false, nil
}

func (NoopAvailabilityCache) Generation(ctx context.Context, eventID string) (int64, error) {
	return 0, nil
}

func (NoopAvailabilityCache) Set(ctx context.Context, eventID string, generation int64, availability []domain.Availability) (bool, error) {
	return false, nil
}

func (NoopAvailabilityCache) Invalidate(ctx context.Context, eventID string) error {
	return nil
}
