package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow ZSET 기반 sliding window (원자적 실행)
// 반환: {허용 여부, 남은 요청 수, 가장 오래된 요청 시각(ms)}
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window_ms)
	local count = redis.call('ZCARD', key)

	if count < limit then
		redis.call('ZADD', key, now, ARGV[4])
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	return {0, 0, tonumber(oldest[2])}
`)

// Decision 레이트 리밋 판정 결과
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // 거부 시 다음 슬롯까지 대기 시간
}

// RateLimiter 클라이언트별 sliding window 제한 (여러 API 인스턴스가 공유)
// ⭐ SSOT: 분산 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	limit  int
	window time.Duration
}

// NewRateLimiter window 동안 limit 건 허용
func NewRateLimiter(client *Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow 요청 1건 기록 후 판정 (Redis 비활성 시 항상 허용)
func (r *RateLimiter) Allow(ctx context.Context, subject string) (Decision, error) {
	if !r.client.Enabled() || r.limit <= 0 {
		return Decision{Allowed: true, Remaining: r.limit}, nil
	}

	now := time.Now().UnixMilli()
	res, err := slidingWindow.Run(ctx, r.client.rdb,
		[]string{r.client.Key("ratelimit", subject)},
		now,
		r.window.Milliseconds(),
		r.limit,
		fmt.Sprintf("%d-%s", now, uuid.NewString()),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", subject, err)
	}

	d := Decision{Allowed: res[0] == 1, Remaining: int(res[1])}
	if !d.Allowed && res[2] > 0 {
		d.RetryAfter = max(time.Duration(res[2]+r.window.Milliseconds()-now)*time.Millisecond, 0)
	}
	return d, nil
}
