package leaderboard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/park285/Cheese-Cricket-bot/internal/cricket"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "cricket:lb"

// Redis keeps win counts in a sorted set and display names in a hash.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb, prefix: defaultKeyPrefix} }

// NewRedisFromURL parses a redis:// URL and pings the server.
func NewRedisFromURL(redisURL string) (*Redis, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedis(rdb), nil
}

func (s *Redis) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *Redis) keyWins() string  { return s.prefix + ":wins" }
func (s *Redis) keyNames() string { return s.prefix + ":names" }

func (s *Redis) IncrementWin(ctx context.Context, participantID, name string) error {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return ErrEmptyParticipant
	}
	pipe := s.rdb.TxPipeline()
	pipe.ZIncrBy(ctx, s.keyWins(), 1, participantID)
	if n := strings.TrimSpace(name); n != "" {
		pipe.HSet(ctx, s.keyNames(), participantID, n)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis increment win: %w", err)
	}
	return nil
}

func (s *Redis) TopN(ctx context.Context, n int) ([]cricket.Standing, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n - 1)
	}
	zs, err := s.rdb.ZRevRangeWithScores(ctx, s.keyWins(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis top: %w", err)
	}
	if len(zs) == 0 {
		return []cricket.Standing{}, nil
	}
	if n > 0 && len(zs) == n {
		// members tied with the cutoff may sort above the ones ZREVRANGE picked
		zs, err = s.rdb.ZRevRangeByScoreWithScores(ctx, s.keyWins(), &redis.ZRangeBy{
			Min: strconv.FormatFloat(zs[n-1].Score, 'f', -1, 64),
			Max: "+inf",
		}).Result()
		if err != nil {
			return nil, fmt.Errorf("redis top ties: %w", err)
		}
	}
	ids := make([]string, 0, len(zs))
	for _, z := range zs {
		ids = append(ids, fmt.Sprint(z.Member))
	}
	names, err := s.rdb.HMGet(ctx, s.keyNames(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis names: %w", err)
	}
	out := make([]cricket.Standing, 0, len(zs))
	for i, z := range zs {
		row := cricket.Standing{ParticipantID: ids[i], Wins: int(z.Score)}
		if i < len(names) {
			if v, ok := names[i].(string); ok {
				row.Name = v
			}
		}
		out = append(out, row)
	}
	// ZREVRANGE breaks score ties by member descending; keep the shared tie order.
	sortStandings(out)
	return limit(out, n), nil
}
