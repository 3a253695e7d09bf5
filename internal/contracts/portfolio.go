package contracts

import (
	"fmt"
	"math"
	"strings"
)

// Position 보유 종목 (호출자가 전달)
// ⭐ 계약: MarketValue >= 0, Sector는 선택
type Position struct {
	Ticker      string  `json:"ticker"`
	MarketValue float64 `json:"market_value"`
	Sector      string  `json:"sector,omitempty"`
}

// HasSector 섹터 정보 보유 여부
func (p Position) HasSector() bool {
	return strings.TrimSpace(p.Sector) != ""
}

// ValidatePositions 포지션 목록 계약 검증
// 빈 목록, 음수 금액, 빈 티커, 총액 0은 ErrInvalidInput
func ValidatePositions(positions []Position) error {
	if len(positions) == 0 {
		return fmt.Errorf("%w: empty position list", ErrInvalidInput)
	}

	total := 0.0
	for i, p := range positions {
		if strings.TrimSpace(p.Ticker) == "" {
			return fmt.Errorf("%w: position %d has no ticker", ErrInvalidInput, i)
		}
		if math.IsNaN(p.MarketValue) || math.IsInf(p.MarketValue, 0) {
			return fmt.Errorf("%w: %s market value", ErrNonFinite, p.Ticker)
		}
		if p.MarketValue < 0 {
			return fmt.Errorf("%w: %s market value %.2f < 0", ErrInvalidInput, p.Ticker, p.MarketValue)
		}
		total += p.MarketValue
	}
	if total <= 0 {
		return fmt.Errorf("%w: total market value must be > 0", ErrInvalidInput)
	}
	return nil
}

// TotalValue 포지션 총 평가금액
func TotalValue(positions []Position) float64 {
	total := 0.0
	for _, p := range positions {
		total += p.MarketValue
	}
	return total
}

// Weights 티커별 비중 (weight = market_value / Σ market_value)
// 같은 티커가 여러 번 나오면 합산
func Weights(positions []Position) (map[string]float64, error) {
	if err := ValidatePositions(positions); err != nil {
		return nil, err
	}

	total := TotalValue(positions)
	weights := make(map[string]float64, len(positions))
	for _, p := range positions {
		weights[p.Ticker] += p.MarketValue / total
	}
	return weights, nil
}
