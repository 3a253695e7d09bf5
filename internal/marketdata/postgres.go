package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/maverick/backend/internal/contracts"
)

// PostgresSource 일별 종가 테이블 기반 수익률/섹터 제공자
// ⭐ 읽기 전용: data.daily_prices, data.stocks 는 외부 수집기가 채움
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource 새 Postgres 제공자 생성
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// Returns implements contracts.ReturnSource
// 최근 days+1개 종가로 days개 단순 수익률 계산 (days <= 0 이면 전체)
func (r *PostgresSource) Returns(ctx context.Context, ticker string, days int) (contracts.ReturnSeries, error) {
	query := `
		SELECT trade_date, close_price::float8 AS close_price
		FROM (
			SELECT trade_date, close_price::float8 AS close_price
			FROM data.daily_prices
			WHERE stock_code = $1 AND close_price > 0
			ORDER BY trade_date DESC
			LIMIT $2
		) recent
		ORDER BY trade_date ASC
	`

	var limit any // NULL → LIMIT ALL
	if days > 0 {
		limit = days + 1
	}

	rows, err := r.pool.Query(ctx, query, ticker, limit)
	if err != nil {
		return contracts.ReturnSeries{}, fmt.Errorf("query prices %s: %w", ticker, err)
	}

	type closeRow struct {
		date  time.Time
		price float64
	}
	closes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (closeRow, error) {
		var c closeRow
		err := row.Scan(&c.date, &c.price)
		return c, err
	})
	if err != nil {
		return contracts.ReturnSeries{}, fmt.Errorf("scan prices %s: %w", ticker, err)
	}

	if len(closes) < 2 {
		return contracts.ReturnSeries{}, fmt.Errorf("%w: %s has %d closes",
			contracts.ErrInsufficientData, ticker, len(closes))
	}

	series := contracts.ReturnSeries{
		Ticker: ticker,
		Dates:  make([]time.Time, 0, len(closes)-1),
		Values: make([]float64, 0, len(closes)-1),
	}
	for i := 1; i < len(closes); i++ {
		series.Dates = append(series.Dates, closes[i].date)
		series.Values = append(series.Values, closes[i].price/closes[i-1].price-1)
	}
	return series, nil
}

// Sectors implements contracts.SectorSource
func (r *PostgresSource) Sectors(ctx context.Context, tickers []string) (map[string]string, error) {
	query := `
		SELECT code, COALESCE(sector, '')
		FROM data.stocks
		WHERE code = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, tickers)
	if err != nil {
		return nil, fmt.Errorf("query sectors: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string, len(tickers))
	for rows.Next() {
		var code, sector string
		if err := rows.Scan(&code, &sector); err != nil {
			return nil, fmt.Errorf("scan sector: %w", err)
		}
		if sector != "" {
			out[code] = sector
		}
	}
	return out, rows.Err()
}
