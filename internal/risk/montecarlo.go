package risk

import (
	"math/rand/v2"
	"sort"
	"time"
)

// MonteCarloSimulator 과거 수익률 Bootstrap 시뮬레이터
// 호출마다 생성 (rng는 goroutine-safe 하지 않음)
type MonteCarloSimulator struct {
	simulations   int
	holdingPeriod int
	rng           *rand.Rand
}

// NewMonteCarloSimulator 새 시뮬레이터 생성
// seed 0이면 현재 시각 기반 (재현 불가)
func NewMonteCarloSimulator(simulations, holdingPeriod int, seed int64) *MonteCarloSimulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if holdingPeriod <= 0 {
		holdingPeriod = 1
	}

	return &MonteCarloSimulator{
		simulations:   simulations,
		holdingPeriod: holdingPeriod,
		rng:           rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
	}
}

// Simulate 보유 기간 누적 수익률 시뮬레이션
// 과거 수익률을 랜덤하게 재샘플링
func (mc *MonteCarloSimulator) Simulate(returns []float64) []float64 {
	results := make([]float64, mc.simulations)
	if len(returns) == 0 {
		return results
	}

	for i := range mc.simulations {
		cumReturn := 1.0
		for range mc.holdingPeriod {
			cumReturn *= 1 + returns[mc.rng.IntN(len(returns))]
		}
		results[i] = cumReturn - 1
	}
	return results
}

// monteCarloStrategy HoldingDays 누적 Bootstrap 분포에 Historical 추정기 적용
func monteCarloStrategy(c *VaRCalculator, returns []float64, levels ...float64) []TailEstimate {
	simulated := NewMonteCarloSimulator(c.cfg.Simulations, c.cfg.HoldingDays, c.cfg.Seed).Simulate(returns)
	sort.Float64s(simulated)

	out := make([]TailEstimate, len(levels))
	for i, cl := range levels {
		out[i] = HistoricalTail(simulated, cl)
	}
	return out
}
