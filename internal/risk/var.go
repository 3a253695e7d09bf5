package risk

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wonny/maverick/backend/internal/contracts"
)

// =============================================================================
// VaR (Value at Risk) Calculation
// =============================================================================

const (
	confidence95 = 0.95
	confidence99 = 0.99

	// consistencyTolerance 부동소수 오차 허용 범위
	consistencyTolerance = 1e-12
)

// VaRConfig VaR 계산기 설정
type VaRConfig struct {
	Method      VaRMethod // 기본 방식
	MinSamples  int       // 표본 기반 방식에서 미만이면 LowConfidence
	Simulations int       // monte_carlo 시뮬레이션 횟수
	HoldingDays int       // monte_carlo 보유 기간 (일, 기본 1)
	Seed        int64     // monte_carlo 시드 (0 = 랜덤)
}

// DefaultVaRConfig 기본 VaR 설정
func DefaultVaRConfig() VaRConfig {
	return VaRConfig{
		Method:      MethodHistorical,
		MinSamples:  20,
		Simulations: 10000,
		HoldingDays: 1,
	}
}

// TailEstimate 단일 신뢰수준의 VaR/CVaR (손실은 음수)
type TailEstimate struct {
	Confidence float64
	VaR        float64
	CVaR       float64
}

// varStrategy VaR 방식별 추정기 (같은 결과 계약)
type varStrategy func(c *VaRCalculator, returns []float64, levels ...float64) []TailEstimate

// strategies 방식별 추정기 dispatch 테이블
// sampleBased: 표본 기반 방식 (표본 부족 시 low_confidence)
var strategies = map[VaRMethod]struct {
	estimate    varStrategy
	sampleBased bool
}{
	MethodHistorical: {estimate: historicalStrategy, sampleBased: true},
	MethodParametric: {estimate: parametricStrategy, sampleBased: false},
	MethodMonteCarlo: {estimate: monteCarloStrategy, sampleBased: true},
}

// VaRCalculator VaR/CVaR 계산기 (순수 계산, 상태 없음)
type VaRCalculator struct {
	cfg VaRConfig
}

// NewVaRCalculator 새 VaR 계산기 생성
func NewVaRCalculator(cfg VaRConfig) *VaRCalculator {
	if cfg.Method == "" {
		cfg.Method = MethodHistorical
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = 20
	}
	if cfg.Simulations <= 0 {
		cfg.Simulations = 10000
	}
	if cfg.HoldingDays <= 0 {
		cfg.HoldingDays = 1
	}
	return &VaRCalculator{cfg: cfg}
}

// Calculate 95%/99% VaR, CVaR 계산
// returns: 일별 수익률 (양수=이익, 음수=손실)
// method: 빈 값이면 설정의 기본 방식
func (c *VaRCalculator) Calculate(returns []float64, portfolioValue float64, method VaRMethod) (VaRResult, error) {
	if method == "" {
		method = c.cfg.Method
	}
	strategy, ok := strategies[method]
	if !ok {
		return VaRResult{}, fmt.Errorf("%w: unknown var method %q", contracts.ErrInvalidInput, method)
	}
	if portfolioValue < 0 || math.IsNaN(portfolioValue) || math.IsInf(portfolioValue, 0) {
		return VaRResult{}, fmt.Errorf("%w: portfolio value %v", contracts.ErrInvalidInput, portfolioValue)
	}
	if err := checkFinite("returns", returns); err != nil {
		return VaRResult{}, err
	}

	minLen := 1
	if !strategy.sampleBased {
		minLen = 2 // 표준편차 필요
	}
	if len(returns) < minLen {
		return VaRResult{}, fmt.Errorf("%w: %s VaR needs >= %d returns, got %d",
			contracts.ErrInsufficientData, method, minLen, len(returns))
	}

	est := strategy.estimate(c, returns, confidence95, confidence99)
	e95, e99 := est[0], est[1]
	if err := checkResult("var", e95.VaR, e95.CVaR, e99.VaR, e99.CVaR); err != nil {
		return VaRResult{}, err
	}

	holdingDays := 1
	if method == MethodMonteCarlo {
		holdingDays = c.cfg.HoldingDays
	}

	result := VaRResult{
		Method:         method,
		Convention:     VaRConvention,
		HoldingDays:    holdingDays,
		VaR95:          e95.VaR,
		VaR99:          e99.VaR,
		CVaR95:         e95.CVaR,
		CVaR99:         e99.CVaR,
		VaR95Amount:    e95.VaR * portfolioValue,
		VaR99Amount:    e99.VaR * portfolioValue,
		CVaR95Amount:   e95.CVaR * portfolioValue,
		CVaR99Amount:   e99.CVaR * portfolioValue,
		PortfolioValue: portfolioValue,
		SampleSize:     len(returns),
		LowConfidence:  strategy.sampleBased && len(returns) < c.cfg.MinSamples,
		Consistent:     true,
	}
	if result.LowConfidence {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("only %d observations; 99%% quantile needs >= %d for a stable estimate",
				len(returns), c.cfg.MinSamples))
	}
	checkConsistency(&result)

	return result, nil
}

// checkConsistency 결과 계약 검사 (위반은 보고만 하고 보정하지 않음)
func checkConsistency(r *VaRResult) {
	if r.VaR99 > r.VaR95+consistencyTolerance {
		r.Consistent = false
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("var_99 %.6f is less severe than var_95 %.6f; consider another method", r.VaR99, r.VaR95))
	}
	if r.CVaR95 > r.VaR95+consistencyTolerance {
		r.Consistent = false
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("cvar_95 %.6f is less severe than var_95 %.6f", r.CVaR95, r.VaR95))
	}
	if r.CVaR99 > r.VaR99+consistencyTolerance {
		r.Consistent = false
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("cvar_99 %.6f is less severe than var_99 %.6f", r.CVaR99, r.VaR99))
	}
}

// =============================================================================
// Historical VaR (Historical Simulation)
// =============================================================================

func historicalStrategy(_ *VaRCalculator, returns []float64, levels ...float64) []TailEstimate {
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	out := make([]TailEstimate, len(levels))
	for i, cl := range levels {
		out[i] = HistoricalTail(sorted, cl)
	}
	return out
}

// HistoricalTail 오름차순 정렬된 수익률에서 VaR/CVaR
// tail = ceil((1-confidence) × n), 최소 1개
// VaR = tail 내 최대값 (경계), CVaR = tail 평균, 둘 다 0 이하로 제한 (손실 없음 = 0)
func HistoricalTail(sorted []float64, confidence float64) TailEstimate {
	if len(sorted) == 0 {
		return TailEstimate{Confidence: confidence}
	}

	// (1-0.95)×100 = 5.000000000000004 같은 부동소수 오차 제거
	tail := int(math.Ceil((1-confidence)*float64(len(sorted)) - 1e-9))
	if tail < 1 {
		tail = 1
	}
	if tail > len(sorted) {
		tail = len(sorted)
	}

	var sum float64
	for _, r := range sorted[:tail] {
		sum += r
	}

	return TailEstimate{
		Confidence: confidence,
		VaR:        math.Min(sorted[tail-1], 0),
		CVaR:       math.Min(sum/float64(tail), 0),
	}
}

// =============================================================================
// Parametric VaR (정규분포 가정)
// =============================================================================

func parametricStrategy(_ *VaRCalculator, returns []float64, levels ...float64) []TailEstimate {
	mean := Mean(returns)
	stdDev := StdDev(returns)

	out := make([]TailEstimate, len(levels))
	for i, cl := range levels {
		out[i] = ParametricTail(mean, stdDev, cl)
	}
	return out
}

// ParametricTail 정규분포 가정 VaR/CVaR
// VaR  = μ + σ·Φ⁻¹(1-c)
// CVaR = μ - σ·φ(Φ⁻¹(1-c)) / (1-c)
func ParametricTail(mean, stdDev, confidence float64) TailEstimate {
	alpha := 1 - confidence
	z := distuv.UnitNormal.Quantile(alpha) // 음수
	phi := distuv.UnitNormal.Prob(z)

	return TailEstimate{
		Confidence: confidence,
		VaR:        math.Min(mean+stdDev*z, 0),
		CVaR:       math.Min(mean-stdDev*phi/alpha, 0),
	}
}
