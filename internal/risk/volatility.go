package risk

import (
	"fmt"
	"math"

	"github.com/wonny/maverick/backend/internal/contracts"
)

// VolatilityAnalyzer 변동성 분석기 (포트폴리오/개별 종목 공용)
type VolatilityAnalyzer struct{}

// NewVolatilityAnalyzer 새 변동성 분석기 생성
func NewVolatilityAnalyzer() *VolatilityAnalyzer {
	return &VolatilityAnalyzer{}
}

// Analyze 일별 수익률 변동성 분석
// value: 시계열의 현재 평가금액 (금액 환산용)
func (a *VolatilityAnalyzer) Analyze(returns []float64, value float64) (VolatilityResult, error) {
	if len(returns) == 0 {
		return VolatilityResult{}, fmt.Errorf("%w: empty return series", contracts.ErrInvalidInput)
	}
	if len(returns) < 2 {
		return VolatilityResult{}, fmt.Errorf("%w: volatility needs >= 2 returns, got %d",
			contracts.ErrInsufficientData, len(returns))
	}
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return VolatilityResult{}, fmt.Errorf("%w: value %v", contracts.ErrInvalidInput, value)
	}
	if err := checkFinite("returns", returns); err != nil {
		return VolatilityResult{}, err
	}

	mean := Mean(returns)
	daily := StdDev(returns)

	// 하방/상방 부분집합 (관측치 2개 미만이면 0)
	var down, up []float64
	maxLoss, maxGain := returns[0], returns[0]
	for _, r := range returns {
		switch {
		case r < 0:
			down = append(down, r)
		case r > 0:
			up = append(up, r)
		}
		maxLoss = math.Min(maxLoss, r)
		maxGain = math.Max(maxGain, r)
	}
	downside := StdDev(down)
	upside := StdDev(up)

	skew := 0.0
	if daily > 0 {
		skew = (upside - downside) / daily
	}

	extreme := 0
	for _, r := range returns {
		if daily > 0 && math.Abs(r-mean) > 2*daily {
			extreme++
		}
	}

	annualized := daily * math.Sqrt(TradingDays)
	result := VolatilityResult{
		DailyVolatility:            daily,
		AnnualizedVolatility:       annualized,
		DownsideVolatility:         downside,
		UpsideVolatility:           upside,
		Skew:                       skew,
		MeanReturn:                 mean,
		MaxDailyLoss:               maxLoss,
		MaxDailyGain:               maxGain,
		ExtremeDays:                extreme,
		DailyVolatilityAmount:      daily * value,
		AnnualizedVolatilityAmount: annualized * value,
		PortfolioValue:             value,
		SampleSize:                 len(returns),
	}
	if err := checkResult("volatility", daily, downside, upside, skew); err != nil {
		return VolatilityResult{}, err
	}
	return result, nil
}
