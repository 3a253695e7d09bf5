package risk

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/maverick/backend/internal/contracts"
)

// TradingDays 연간 거래일 수 (연환산 고정 규약)
const TradingDays = 252

// =============================================================================
// 통계 유틸리티 (gonum/stat 기반)
// =============================================================================

// Mean 평균 계산
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev 표본 표준편차 (n-1), 관측치 2개 미만이면 0
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// Variance 표본 분산 (n-1), 관측치 2개 미만이면 0
func Variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.Variance(values, nil)
}

// IsConstant 모든 값이 같은지 (분산 0 판정, 평균 계산 잔차 무시)
func IsConstant(values []float64) bool {
	for _, v := range values[min(1, len(values)):] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// checkFinite NaN/Inf 입력은 결함으로 보고
func checkFinite(name string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s[%d]", contracts.ErrNonFinite, name, i)
		}
	}
	return nil
}

// checkResult 계산 결과의 NaN/Inf 검사
func checkResult(name string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: computed %s", contracts.ErrNonFinite, name)
		}
	}
	return nil
}

// PortfolioReturns 종목별 수익률에서 포트폴리오 수익률 계산
// weights: 종목별 비중 map[ticker]weight
// assetReturns: 종목별 수익률 시계열 (최근 관측치 기준으로 끝을 맞춤)
// 수익률이 없는 종목은 제외하고 나머지 비중을 재정규화
func PortfolioReturns(weights map[string]float64, assetReturns map[string][]float64) ([]float64, error) {
	tickers := make([]string, 0, len(weights))
	series := make([][]float64, 0, len(weights))
	covered := 0.0
	// 합산 순서 고정 (부동소수 재현성)
	for _, ticker := range slices.Sorted(maps.Keys(weights)) {
		w := weights[ticker]
		returns, ok := assetReturns[ticker]
		if !ok || len(returns) == 0 || w <= 0 {
			continue
		}
		if err := checkFinite(ticker, returns); err != nil {
			return nil, err
		}
		tickers = append(tickers, ticker)
		series = append(series, returns)
		covered += w
	}
	if len(series) == 0 || covered <= 0 {
		return nil, fmt.Errorf("%w: no position has return data", contracts.ErrInsufficientData)
	}

	aligned := contracts.AlignTrailing(series...)
	n := len(aligned[0])
	if n == 0 {
		return nil, fmt.Errorf("%w: no overlapping observations", contracts.ErrInsufficientData)
	}

	out := make([]float64, n)
	for k, ticker := range tickers {
		w := weights[ticker] / covered
		for i, r := range aligned[k] {
			out[i] += w * r
		}
	}
	return out, nil
}
