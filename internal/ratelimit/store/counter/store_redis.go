package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"aidgate/internal/ratelimit/models"
	"aidgate/pkg/requestcontext"
)

const (
	hourlyKeyPrefix = "rl:h:"
	dailyKeyPrefix  = "rl:d:"
	blockKeyPrefix  = "rl:b:"
)

// admitScript conditionally increments both window counters in one atomic
// step. KEYS: hourly, daily. ARGV: maxHourly, maxDaily, hourlyTTL, dailyTTL
// (seconds). Returns {hourly, daily, admitted}.
var admitScript = redis.NewScript(`
	local h = tonumber(redis.call('GET', KEYS[1]) or '0')
	local d = tonumber(redis.call('GET', KEYS[2]) or '0')
	if h < tonumber(ARGV[1]) and d < tonumber(ARGV[2]) then
		h = redis.call('INCR', KEYS[1])
		if h == 1 then redis.call('EXPIRE', KEYS[1], ARGV[3]) end
		d = redis.call('INCR', KEYS[2])
		if d == 1 then redis.call('EXPIRE', KEYS[2], ARGV[4]) end
		return {h, d, 1}
	end
	return {h, d, 0}
`)

// RedisCounterStore shares admission counters across instances. Window
// buckets are encoded into the key so expiry needs no bookkeeping.
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Admit(ctx context.Context, source string, maxHourly, maxDaily int) (*models.CounterState, bool, error) {
	now := requestcontext.Now(ctx)
	hourKey := s.hourKey(source, now)
	dayKey := s.dayKey(source, now)

	res, err := admitScript.Run(ctx, s.client, []string{hourKey, dayKey},
		maxHourly, maxDaily, int((2 * time.Hour).Seconds()), int((48 * time.Hour).Seconds()),
	).Int64Slice()
	if err != nil {
		return nil, false, fmt.Errorf("admit counters: %w", err)
	}
	if len(res) != 3 {
		return nil, false, fmt.Errorf("admit counters: unexpected script reply length %d", len(res))
	}

	return &models.CounterState{
		SourceAddress: source,
		CountHourly:   int(res[0]),
		CountDaily:    int(res[1]),
	}, res[2] == 1, nil
}

func (s *RedisCounterStore) BlockedUntil(ctx context.Context, source string) (*time.Time, error) {
	val, err := s.client.Get(ctx, blockKeyPrefix+models.SanitizeKeySegment(source)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get block marker: %w", err)
	}
	until, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, fmt.Errorf("parse block expiry: %w", err)
	}
	if !until.After(requestcontext.Now(ctx)) {
		return nil, nil
	}
	return &until, nil
}

func (s *RedisCounterStore) Block(ctx context.Context, source string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	key := blockKeyPrefix + models.SanitizeKeySegment(source)
	if err := s.client.Set(ctx, key, until.Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("set block marker: %w", err)
	}
	return nil
}

func (s *RedisCounterStore) Reset(ctx context.Context, source string) error {
	now := requestcontext.Now(ctx)
	keys := []string{
		s.hourKey(source, now),
		s.dayKey(source, now),
		blockKeyPrefix + models.SanitizeKeySegment(source),
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("reset counters: %w", err)
	}
	return nil
}

func (s *RedisCounterStore) hourKey(source string, now time.Time) string {
	return fmt.Sprintf("%s%s:%s", hourlyKeyPrefix, models.SanitizeKeySegment(source), now.UTC().Format("2006010215"))
}

func (s *RedisCounterStore) dayKey(source string, now time.Time) string {
	return fmt.Sprintf("%s%s:%s", dailyKeyPrefix, models.SanitizeKeySegment(source), now.UTC().Format("20060102"))
}
