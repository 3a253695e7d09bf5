package riskconfig

// Config 리스크 엔진 전체 설정
// ⭐ SSOT: 가중치/임계값/벤치마크 테이블은 여기서만 정의 (모듈 전역변수 금지)
type Config struct {
	Meta            Meta                  `yaml:"meta" json:"meta"`
	Correlation     CorrelationConfig     `yaml:"correlation" json:"correlation"`
	VaR             VaRConfig             `yaml:"var" json:"var"`
	Beta            BetaConfig            `yaml:"beta" json:"beta"`
	Stress          StressConfig          `yaml:"stress" json:"stress"`
	Diversification DiversificationConfig `yaml:"diversification" json:"diversification"`
	Sectors         SectorConfig          `yaml:"sectors" json:"sectors"`
	RiskScore       RiskScoreConfig       `yaml:"risk_score" json:"risk_score"`
	Alerts          AlertConfig           `yaml:"alerts" json:"alerts"`
	Watch           WatchConfig           `yaml:"watch" json:"watch"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
}

// CorrelationConfig 상관관계 엔진 설정
type CorrelationConfig struct {
	DefaultPeriodDays int           `yaml:"default_period_days" json:"default_period_days"`
	Periods           []int         `yaml:"periods" json:"periods"`               // multi-period 기본 구간
	Workers           int           `yaml:"workers" json:"workers"`               // 행렬 계산 worker 수
	HighThreshold     float64       `yaml:"high_threshold" json:"high_threshold"` // |corr| 이상이면 high pair
	LowThreshold      float64       `yaml:"low_threshold" json:"low_threshold"`   // |corr| 미만이면 low pair
	Strength          StrengthBands `yaml:"strength" json:"strength"`
}

// StrengthBands 상관 강도 구간 하한 (|corr|, 오름차순)
type StrengthBands struct {
	VeryStrong float64 `yaml:"very_strong" json:"very_strong"`
	Strong     float64 `yaml:"strong" json:"strong"`
	Moderate   float64 `yaml:"moderate" json:"moderate"`
	Weak       float64 `yaml:"weak" json:"weak"`
}

// VaRConfig VaR 계산 설정
type VaRConfig struct {
	DefaultMethod string           `yaml:"default_method" json:"default_method"` // historical/parametric/monte_carlo
	MinSamples    int              `yaml:"min_samples" json:"min_samples"`       // 미만이면 low_confidence
	MonteCarlo    MonteCarloConfig `yaml:"monte_carlo" json:"monte_carlo"`
}

// MonteCarloConfig 부트스트랩 시뮬레이션 설정
type MonteCarloConfig struct {
	Simulations int   `yaml:"simulations" json:"simulations"`
	HoldingDays int   `yaml:"holding_days" json:"holding_days"` // 시뮬레이션 보유 기간 (일)
	Seed        int64 `yaml:"seed" json:"seed"`                 // 0 = 랜덤
}

// BetaConfig 베타 분석 설정
type BetaConfig struct {
	// DefaultBenchmarkTicker 요청에 벤치마크가 없을 때 시작 시 로드할 티커 (빈 값 = 사용 안 함)
	DefaultBenchmarkTicker string `yaml:"default_benchmark_ticker" json:"default_benchmark_ticker"`
}

// StressConfig 스트레스 테스트 설정
type StressConfig struct {
	RecoveryMatchBand float64    `yaml:"recovery_match_band" json:"recovery_match_band"` // 유사 시나리오 판정 폭
	Scenarios         []Scenario `yaml:"scenarios" json:"scenarios"`
}

// Scenario 이름 있는 스트레스 시나리오
type Scenario struct {
	ID           string  `yaml:"id" json:"id"`
	Name         string  `yaml:"name" json:"name"`
	Description  string  `yaml:"description" json:"description"`
	MarketReturn float64 `yaml:"market_return" json:"market_return"` // 음수 소수
	DurationDays int     `yaml:"duration_days" json:"duration_days"`
	RecoveryDays *int    `yaml:"recovery_days,omitempty" json:"recovery_days,omitempty"`
}

// DiversificationConfig 분산 점수 설정
type DiversificationConfig struct {
	Weights                 SubScoreWeights `yaml:"weights" json:"weights"`
	FullCreditPositions     int             `yaml:"full_credit_positions" json:"full_credit_positions"`
	OverPenaltyScale        float64         `yaml:"over_penalty_scale" json:"over_penalty_scale"`
	MissingSectorPenalty    float64         `yaml:"missing_sector_penalty" json:"missing_sector_penalty"`
	RecommendationThreshold float64         `yaml:"recommendation_threshold" json:"recommendation_threshold"`
}

// SubScoreWeights 하위 점수 가중치 (합 = 1.0)
type SubScoreWeights struct {
	Position      float64 `yaml:"position" json:"position"`
	Sector        float64 `yaml:"sector" json:"sector"`
	Correlation   float64 `yaml:"correlation" json:"correlation"`
	Concentration float64 `yaml:"concentration" json:"concentration"`
}

// Sum returns the sum of all weights
func (w SubScoreWeights) Sum() float64 {
	return w.Position + w.Sector + w.Correlation + w.Concentration
}

// SectorConfig 섹터 벤치마크/목표 테이블
type SectorConfig struct {
	Benchmark map[string]float64            `yaml:"benchmark" json:"benchmark"`
	Aliases   map[string]string             `yaml:"aliases" json:"aliases"`
	Profiles  map[string]map[string]float64 `yaml:"profiles" json:"profiles"`
}

// RiskScoreConfig 종합 리스크 점수 설정
type RiskScoreConfig struct {
	Weights RiskScoreWeights `yaml:"weights" json:"weights"`
	Caps    RiskScoreCaps    `yaml:"caps" json:"caps"`
}

// RiskScoreWeights 구성 요소 가중치 (합 = 1.0)
type RiskScoreWeights struct {
	Volatility float64 `yaml:"volatility" json:"volatility"`
	Beta       float64 `yaml:"beta" json:"beta"`
	VaR        float64 `yaml:"var" json:"var"`
	Stress     float64 `yaml:"stress" json:"stress"`
}

// Sum returns the sum of all weights
func (w RiskScoreWeights) Sum() float64 {
	return w.Volatility + w.Beta + w.VaR + w.Stress
}

// RiskScoreCaps 100점에 해당하는 값
type RiskScoreCaps struct {
	AnnualVolatility float64 `yaml:"annual_volatility" json:"annual_volatility"`
	Beta             float64 `yaml:"beta" json:"beta"`
	VaR95            float64 `yaml:"var_95" json:"var_95"`
	StressLoss       float64 `yaml:"stress_loss" json:"stress_loss"`
}

// AlertConfig 알림 한도 설정
type AlertConfig struct {
	Mode   string      `yaml:"mode" json:"mode"` // shadow/enforce/off
	Limits AlertLimits `yaml:"limits" json:"limits"`
}

// AlertLimits 한도 (손실은 양수 크기로 기록)
type AlertLimits struct {
	MaxVaR95                float64 `yaml:"max_var_95" json:"max_var_95"`
	MaxVaR99                float64 `yaml:"max_var_99" json:"max_var_99"`
	MaxAnnualVolatility     float64 `yaml:"max_annual_volatility" json:"max_annual_volatility"`
	MaxBeta                 float64 `yaml:"max_beta" json:"max_beta"`
	MaxSinglePosition       float64 `yaml:"max_single_position" json:"max_single_position"`
	MinDiversificationScore float64 `yaml:"min_diversification_score" json:"min_diversification_score"`
	MaxRiskScore            float64 `yaml:"max_risk_score" json:"max_risk_score"`
}

// WatchConfig 스케줄러가 감시하는 포트폴리오
type WatchConfig struct {
	Schedule        string          `yaml:"schedule" json:"schedule"` // cron (초 포함)
	PeriodDays      int             `yaml:"period_days" json:"period_days"`
	BenchmarkTicker string          `yaml:"benchmark_ticker" json:"benchmark_ticker"`
	VaRMethod       string          `yaml:"var_method" json:"var_method"`
	TargetProfile   string          `yaml:"target_profile" json:"target_profile"`
	Positions       []WatchPosition `yaml:"positions" json:"positions"`
}

// WatchPosition 감시 대상 포지션
type WatchPosition struct {
	Ticker      string  `yaml:"ticker" json:"ticker"`
	MarketValue float64 `yaml:"market_value" json:"market_value"`
	Sector      string  `yaml:"sector,omitempty" json:"sector,omitempty"`
}
