package relationship

import (
	"context"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis key prefixes for cached counts
const (
	followersCountKey = "social:followers:"
	followingCountKey = "social:following:"
	countCacheTTL     = 10 * time.Minute
)

// CounterCache maintains the denormalized follower/following counters. The
// edge table is the source of truth; every refresh recomputes from it, so a
// missed update heals on the next one. All failures are logged and swallowed.
type CounterCache struct {
	db    *sqlx.DB
	redis *redis.Client // nil if Redis disabled
}

// NewCounterCache creates a counter cache
func NewCounterCache(db *sqlx.DB, redisClient *redis.Client) *CounterCache {
	return &CounterCache{db: db, redis: redisClient}
}

// Refresh recomputes the stored counters for the given users. Best-effort:
// runs after the relationship mutation has committed and never fails it.
func (c *CounterCache) Refresh(ctx context.Context, userIDs ...int64) {
	for _, userID := range userIDs {
		c.refreshOne(ctx, userID)
	}
}

func (c *CounterCache) refreshOne(ctx context.Context, userID int64) {
	query := `
		UPDATE users SET
			followers_count = (SELECT COUNT(*) FROM follow_edges WHERE following_id = $1 AND state = 'active'),
			following_count = (SELECT COUNT(*) FROM follow_edges WHERE follower_id = $1 AND state = 'active')
		WHERE id = $1
		RETURNING followers_count, following_count
	`
	var followers, following int64
	if err := c.db.QueryRowContext(ctx, query, userID).Scan(&followers, &following); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to refresh denormalized counters")
		return
	}

	c.cacheCounts(ctx, userID, followers, following)
}

// FollowersCount returns the cached follower count, falling back to the
// users row on a cache miss.
func (c *CounterCache) FollowersCount(ctx context.Context, userID int64) (int64, error) {
	if c.redis != nil {
		val, err := c.redis.Get(ctx, followersCountKey+strconv.FormatInt(userID, 10)).Int64()
		if err == nil {
			return val, nil
		}
		if err != redis.Nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("Redis counter read failed, falling back to db")
		}
	}

	var count int64
	err := c.db.GetContext(ctx, &count, `SELECT followers_count FROM users WHERE id = $1`, userID)
	if err != nil {
		return 0, err
	}
	if c.redis != nil {
		if err := c.redis.Set(ctx, followersCountKey+strconv.FormatInt(userID, 10), count, countCacheTTL).Err(); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to populate counter cache")
		}
	}
	return count, nil
}

func (c *CounterCache) cacheCounts(ctx context.Context, userID, followers, following int64) {
	if c.redis == nil {
		return
	}
	id := strconv.FormatInt(userID, 10)
	if err := c.redis.Set(ctx, followersCountKey+id, followers, countCacheTTL).Err(); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to cache followers count")
		return
	}
	if err := c.redis.Set(ctx, followingCountKey+id, following, countCacheTTL).Err(); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to cache following count")
	}
}
