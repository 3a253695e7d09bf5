package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/maverick/backend/internal/contracts"
)

// BetaAnalyzer 벤치마크 대비 회귀 분석기
// 벤치마크 수익률은 외부 입력 (내부에서 계산/조회하지 않음)
type BetaAnalyzer struct {
	defaultBenchmark []float64
}

// BetaOption BetaAnalyzer 옵션
type BetaOption func(*BetaAnalyzer)

// WithDefaultBenchmark 호출 시 벤치마크가 없을 때 사용할 시계열
func WithDefaultBenchmark(returns []float64) BetaOption {
	return func(a *BetaAnalyzer) {
		a.defaultBenchmark = append([]float64(nil), returns...)
	}
}

// NewBetaAnalyzer 새 Beta 분석기 생성
func NewBetaAnalyzer(opts ...BetaOption) *BetaAnalyzer {
	a := &BetaAnalyzer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HasDefaultBenchmark 기본 벤치마크 설정 여부
func (a *BetaAnalyzer) HasDefaultBenchmark() bool {
	return len(a.defaultBenchmark) > 0
}

// Analyze 포트폴리오 수익률 vs 벤치마크 수익률 회귀
// benchmark가 비어 있으면 기본 벤치마크 사용, 둘 다 없으면 ErrInvalidInput
// 두 시계열은 최근 관측치 기준으로 정렬
func (a *BetaAnalyzer) Analyze(portfolio, benchmark []float64) (BetaResult, error) {
	if len(benchmark) == 0 {
		benchmark = a.defaultBenchmark
	}
	if len(benchmark) == 0 {
		return BetaResult{}, fmt.Errorf("%w: no benchmark returns supplied or configured", contracts.ErrInvalidInput)
	}
	if err := checkFinite("portfolio", portfolio); err != nil {
		return BetaResult{}, err
	}
	if err := checkFinite("benchmark", benchmark); err != nil {
		return BetaResult{}, err
	}

	aligned := contracts.AlignTrailing(portfolio, benchmark)
	p, b := aligned[0], aligned[1]
	if len(p) < 2 {
		return BetaResult{}, fmt.Errorf("%w: beta needs >= 2 aligned returns, got %d",
			contracts.ErrInsufficientData, len(p))
	}

	varB := stat.Variance(b, nil)
	if varB == 0 || IsConstant(b) {
		return BetaResult{}, fmt.Errorf("%w: benchmark variance is zero, beta undefined", contracts.ErrDegenerateInput)
	}
	if IsConstant(p) {
		return BetaResult{}, fmt.Errorf("%w: portfolio variance is zero, correlation undefined", contracts.ErrDegenerateInput)
	}

	beta := stat.Covariance(p, b, nil) / varB
	alpha := stat.Mean(p, nil) - beta*stat.Mean(b, nil)
	corr := clampUnit(stat.Correlation(p, b, nil))

	if err := checkResult("beta", beta, alpha, corr); err != nil {
		return BetaResult{}, err
	}

	return BetaResult{
		Beta:            beta,
		Alpha:           alpha,
		AnnualizedAlpha: alpha * TradingDays,
		RSquared:        corr * corr,
		Correlation:     corr,
		Interpretation:  InterpretBeta(beta),
		SampleSize:      len(p),
	}, nil
}

// InterpretBeta 고정 구간 해석
func InterpretBeta(beta float64) string {
	switch {
	case beta >= 1.5:
		return "high-beta/aggressive"
	case beta >= 1.2:
		return "above-market risk"
	case beta >= 0.8:
		return "market-like"
	case beta >= 0.5:
		return "defensive"
	default:
		return "low-beta/uncorrelated"
	}
}

// clampUnit 부동소수 오차로 [-1, 1]을 벗어난 값 보정
func clampUnit(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}
