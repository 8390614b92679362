package redis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/studyforge/studyforge-backend/internal/logger"
)

// RateWindowStore counts events in a trailing time window per key. Record and
// Count are separate calls: callers read the window before deciding whether
// to record a new event.
type RateWindowStore interface {
	// Record appends an event at now for key.
	Record(ctx context.Context, key string, now time.Time, window time.Duration) error
	// Count returns how many events for key fall inside (now-window, now],
	// and the timestamp of the oldest such event (zero when the window is
	// empty).
	Count(ctx context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error)
	Close() error
}

type redisRateWindow struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewRateWindowStore(log *logger.Logger) (RateWindowStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisRateWindow{
		log: log.With("service", "RedisRateWindow"),
		rdb: rdb,
	}, nil
}

func (s *redisRateWindow) Record(ctx context.Context, key string, now time.Time, window time.Duration) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("rate window store not initialized")
	}
	redisKey := windowKey(key)
	score := float64(now.UnixMilli())
	member := fmt.Sprintf("%d-%d", now.UnixNano(), time.Now().UnixNano())

	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, redisKey, goredis.Z{Score: score, Member: member})
	// Old events fall out of every future window, drop them eagerly.
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(now.Add(-window).UnixMilli(), 10))
	pipe.Expire(ctx, redisKey, window+time.Minute)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisRateWindow) Count(ctx context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error) {
	if s == nil || s.rdb == nil {
		return 0, time.Time{}, fmt.Errorf("rate window store not initialized")
	}
	redisKey := windowKey(key)
	lower := strconv.FormatInt(now.Add(-window).UnixMilli()+1, 10)
	upper := strconv.FormatInt(now.UnixMilli(), 10)

	n, err := s.rdb.ZCount(ctx, redisKey, lower, upper).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	if n == 0 {
		return 0, time.Time{}, nil
	}

	oldest, err := s.rdb.ZRangeByScoreWithScores(ctx, redisKey, &goredis.ZRangeBy{
		Min: lower, Max: upper, Count: 1,
	}).Result()
	if err != nil {
		return int(n), time.Time{}, err
	}
	var oldestAt time.Time
	if len(oldest) > 0 {
		oldestAt = time.UnixMilli(int64(oldest[0].Score))
	}
	return int(n), oldestAt, nil
}

func (s *redisRateWindow) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func windowKey(key string) string {
	return "ratewindow:" + key
}
