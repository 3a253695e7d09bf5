package redis

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/maverick/backend/pkg/config"
)

const (
	dialTimeout = 3 * time.Second
	ioTimeout   = 500 * time.Millisecond
)

// Client go-redis 래퍼 (비활성 상태에서도 nil 없이 사용 가능)
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb       *redis.Client
	namespace string
}

// New REDIS_ENABLED=false 이면 비활성 클라이언트 반환, 활성이면 Ping으로 연결 확인
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", rdb.Options().Addr, err)
	}

	return &Client{rdb: rdb, namespace: "maverick"}, nil
}

// Enabled Redis 사용 여부
func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Key namespace가 붙은 키 ("maverick:ratelimit:api:10.0.0.1")
func (c *Client) Key(parts ...string) string {
	return c.namespace + ":" + strings.Join(parts, ":")
}

// Ping 헬스체크 (비활성이면 nil)
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close 연결 종료
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}
