package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/maverick/backend/pkg/config"
)

// pingTimeout 연결 확인 제한 시간
const pingTimeout = 5 * time.Second

// DB 수익률 조회용 pgx 풀
// ⭐ SSOT: DB 연결은 이 패키지에서만 생성
type DB struct {
	Pool *pgxpool.Pool
}

// PoolConfig config → pgxpool 설정 (연결 없이 검증 가능)
// MinConns는 MaxConns를 넘지 않음
func PoolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	db := cfg.Database
	if db.MaxConns > 0 {
		pc.MaxConns = int32(db.MaxConns)
	}
	if db.MinConns > 0 {
		pc.MinConns = min(int32(db.MinConns), pc.MaxConns)
	}
	if db.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = db.MaxConnLifetime
	}
	if db.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = db.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "maverick-risk"
	return pc, nil
}

// New 풀 생성 후 Ping으로 연결 확인
// ⭐ SSOT: 유일하게 pgxpool.NewWithConfig()를 호출하는 함수
func New(ctx context.Context, cfg *config.Config) (*DB, error) {
	pc, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	db := &DB{Pool: pool}
	if err := db.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// Close 풀 종료
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping pingTimeout 안에 응답하는지 확인 (/health 의존성 체크)
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
