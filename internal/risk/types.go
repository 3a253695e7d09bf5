package risk

import (
	"fmt"
	"strings"

	"github.com/wonny/maverick/backend/internal/contracts"
)

// =============================================================================
// VaR Method & Convention
// =============================================================================

// VaRMethod VaR 계산 방식
type VaRMethod string

const (
	MethodHistorical VaRMethod = "historical"  // 경험적 분위수
	MethodParametric VaRMethod = "parametric"  // 정규분포 가정
	MethodMonteCarlo VaRMethod = "monte_carlo" // 과거 수익률 Bootstrap
)

// ParseVaRMethod 문자열 → VaRMethod (빈 문자열은 "" 반환, 호출자가 기본값 적용)
func ParseVaRMethod(s string) (VaRMethod, error) {
	switch m := VaRMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case "", MethodHistorical, MethodParametric, MethodMonteCarlo:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown var_method %q", contracts.ErrInvalidInput, s)
	}
}

// VaRConvention VaR 부호 규약 (VaRResult.Convention 으로 응답에 포함)
// ⭐ SSOT: 손실은 음수 소수 (VaR95=-0.03 → 95% 신뢰수준에서 최대 3% 손실)
const VaRConvention = "loss_negative"

// =============================================================================
// Result Types
// =============================================================================

// VaRResult VaR/CVaR 계산 결과
// ⭐ 계약: |VaR99| >= |VaR95|, |CVaR_c| >= |VaR_c| (위반 시 Consistent=false, 보정하지 않음)
type VaRResult struct {
	Method         VaRMethod `json:"method"`
	Convention     string    `json:"convention"`   // 항상 VaRConvention
	HoldingDays    int       `json:"holding_days"` // monte_carlo 외에는 1
	VaR95          float64   `json:"var_95"`
	VaR99          float64   `json:"var_99"`
	CVaR95         float64   `json:"cvar_95"`
	CVaR99         float64   `json:"cvar_99"`
	VaR95Amount    float64   `json:"var_95_amount"`
	VaR99Amount    float64   `json:"var_99_amount"`
	CVaR95Amount   float64   `json:"cvar_95_amount"`
	CVaR99Amount   float64   `json:"cvar_99_amount"`
	PortfolioValue float64   `json:"portfolio_value"`
	SampleSize     int       `json:"sample_size"`
	LowConfidence  bool      `json:"low_confidence"` // 표본 부족 (UI에서 낮은 신뢰도로 표시)
	Consistent     bool      `json:"consistent"`
	Warnings       []string  `json:"warnings,omitempty"`
}

// VolatilityResult 변동성 분석 결과 (소수 단위)
type VolatilityResult struct {
	DailyVolatility            float64 `json:"daily_volatility"`
	AnnualizedVolatility       float64 `json:"annualized_volatility"`
	DownsideVolatility         float64 `json:"downside_volatility"`
	UpsideVolatility           float64 `json:"upside_volatility"`
	Skew                       float64 `json:"skew"`
	MeanReturn                 float64 `json:"mean_return"`
	MaxDailyLoss               float64 `json:"max_daily_loss"`
	MaxDailyGain               float64 `json:"max_daily_gain"`
	ExtremeDays                int     `json:"extreme_days"` // |r - mean| > 2σ 인 날 수
	DailyVolatilityAmount      float64 `json:"daily_volatility_amount"`
	AnnualizedVolatilityAmount float64 `json:"annualized_volatility_amount"`
	PortfolioValue             float64 `json:"portfolio_value"`
	SampleSize                 int     `json:"sample_size"`
}

// BetaResult 벤치마크 대비 회귀 결과
type BetaResult struct {
	Beta            float64 `json:"beta"`
	Alpha           float64 `json:"alpha"`            // 일간 alpha
	AnnualizedAlpha float64 `json:"annualized_alpha"` // alpha × 252
	RSquared        float64 `json:"r_squared"`
	Correlation     float64 `json:"correlation"`
	Interpretation  string  `json:"interpretation"`
	SampleSize      int     `json:"sample_size"`
}

// Scenario 이름 있는 스트레스 시나리오 (불변 레코드)
type Scenario struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	MarketReturn float64 `json:"market_return"` // 음수 소수
	DurationDays int     `json:"duration_days"`
	RecoveryDays *int    `json:"recovery_days"`
}

// StressTestResult 시나리오별 예상 손실
// ⭐ 계약: EstimatedPortfolioLoss = beta × MarketReturn (선형 가정, 큰 beta는 손실 과대평가 가능)
type StressTestResult struct {
	ScenarioID             string  `json:"scenario_id"`
	ScenarioName           string  `json:"scenario_name"`
	Description            string  `json:"description"`
	MarketReturn           float64 `json:"market_return"`
	PortfolioBeta          float64 `json:"portfolio_beta"`
	EstimatedPortfolioLoss float64 `json:"estimated_portfolio_loss"`
	EstimatedLossAmount    float64 `json:"estimated_loss_amount"`
	PortfolioValue         float64 `json:"portfolio_value"`
	DurationDays           int     `json:"duration_days"`
	RecoveryEstimateDays   *int    `json:"recovery_estimate_days"` // 추정 불가 시 null
	Custom                 bool    `json:"custom"`
}

// =============================================================================
// Risk Summary Types
// =============================================================================

// RiskLevel 종합 리스크 등급
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// ClassifyRisk 0-100 점수 → 등급
func ClassifyRisk(score float64) RiskLevel {
	switch {
	case score >= 70:
		return RiskVeryHigh
	case score >= 50:
		return RiskHigh
	case score >= 30:
		return RiskModerate
	default:
		return RiskLow
	}
}

// ScoreComponents 리스크 점수 구성 요소 (각 0-100)
type ScoreComponents struct {
	Volatility float64 `json:"volatility"`
	Beta       float64 `json:"beta"`
	VaR        float64 `json:"var"`
	Stress     float64 `json:"stress"`
}

// RiskMetricsSummary Beta/Volatility/VaR/StressTest 종합
type RiskMetricsSummary struct {
	Beta        BetaResult         `json:"beta"`
	Volatility  VolatilityResult   `json:"volatility"`
	VaR         VaRResult          `json:"var"`
	StressTests []StressTestResult `json:"stress_tests"`
	WorstCase   *StressTestResult  `json:"worst_case,omitempty"`
	RiskScore   float64            `json:"risk_score"` // 0-100
	RiskLevel   RiskLevel          `json:"risk_level"`
	Components  ScoreComponents    `json:"components"`
}
