package marketdata

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/maverick/backend/internal/contracts"
)

// MemorySource 메모리 기반 수익률/섹터 제공자
// API 요청의 inline returns, CLI 입력, 테스트에서 사용
type MemorySource struct {
	mu      sync.RWMutex
	series  map[string]contracts.ReturnSeries
	sectors map[string]string
}

// NewMemorySource 새 메모리 제공자 생성
func NewMemorySource() *MemorySource {
	return &MemorySource{
		series:  make(map[string]contracts.ReturnSeries),
		sectors: make(map[string]string),
	}
}

// FromReturns ticker → 수익률 맵으로 생성 (날짜 없음)
func FromReturns(returns map[string][]float64) *MemorySource {
	src := NewMemorySource()
	for ticker, values := range returns {
		src.Put(contracts.NewReturnSeries(ticker, values))
	}
	return src
}

// Put 시계열 등록 (같은 종목은 덮어씀)
func (m *MemorySource) Put(s contracts.ReturnSeries) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[s.Ticker] = s
}

// PutSector 섹터 등록
func (m *MemorySource) PutSector(ticker, sector string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sectors[ticker] = sector
}

// Returns implements contracts.ReturnSource
func (m *MemorySource) Returns(_ context.Context, ticker string, days int) (contracts.ReturnSeries, error) {
	m.mu.RLock()
	s, ok := m.series[ticker]
	m.mu.RUnlock()
	if !ok {
		return contracts.ReturnSeries{}, fmt.Errorf("%w: no returns for %s", contracts.ErrInsufficientData, ticker)
	}
	return s.Tail(days), nil
}

// Sectors implements contracts.SectorSource
// 섹터 정보가 없는 종목은 결과에서 빠짐
func (m *MemorySource) Sectors(_ context.Context, tickers []string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(tickers))
	for _, t := range tickers {
		if sector, ok := m.sectors[t]; ok && sector != "" {
			out[t] = sector
		}
	}
	return out, nil
}
