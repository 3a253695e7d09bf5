package contracts

import "context"

// ReturnSource 수익률 시계열 제공자 (외부 협력자)
// ⭐ SSOT: 계산기는 데이터를 직접 가져오지 않고 이 인터페이스로만 받음
// 구현: marketdata.MemorySource, marketdata.PostgresSource
type ReturnSource interface {
	// Returns 최근 days개 일별 수익률 (days <= 0 이면 보유 전체)
	Returns(ctx context.Context, ticker string, days int) (ReturnSeries, error)
}

// SectorSource 티커 → 섹터 매핑 제공자
type SectorSource interface {
	Sectors(ctx context.Context, tickers []string) (map[string]string, error)
}
