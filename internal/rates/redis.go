package rates

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisCache shares fetched quotes between processes through Redis. Cache
// errors degrade to a direct fetch; a stale or duplicate fetch is tolerable,
// a missing price is not.
type RedisCache struct {
	Client *redis.Client
	Source Source
	Prefix string
	Logger zerolog.Logger
	Now    func() time.Time
}

// Rate returns the cached quote when present and fresh, otherwise fetches
// through and stores the result with a TTL matching its expiry.
func (c *RedisCache) Rate(ctx context.Context, base, quote string) (Rate, error) {
	key := c.key(base, quote)
	now := c.clock()

	if c.Client != nil {
		data, err := c.Client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var cached Rate
			if unmarshalErr := json.Unmarshal(data, &cached); unmarshalErr == nil && !cached.Expired(now) {
				recordCacheLookup("redis", "hit")
				return cached, nil
			}
		case err != redis.Nil:
			c.Logger.Warn().Err(err).Str("key", key).Msg("rate cache read failed")
		}
	}
	recordCacheLookup("redis", "miss")

	rate, err := c.Source.Rate(ctx, base, quote)
	if err != nil {
		return Rate{}, err
	}

	if c.Client != nil {
		if ttl := rate.ExpiresAt.Sub(now); ttl > 0 {
			data, marshalErr := json.Marshal(rate)
			if marshalErr == nil {
				if setErr := c.Client.Set(ctx, key, data, ttl).Err(); setErr != nil {
					c.Logger.Warn().Err(setErr).Str("key", key).Msg("rate cache write failed")
				}
			}
		}
	}
	return rate, nil
}

func (c *RedisCache) key(base, quote string) string {
	prefix := c.Prefix
	if prefix == "" {
		prefix = "rates:"
	}
	return prefix + PairKey(base, quote)
}

func (c *RedisCache) clock() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
