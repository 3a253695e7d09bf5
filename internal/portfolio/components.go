package portfolio

import (
	"context"
	"fmt"

	"github.com/wonny/maverick/backend/internal/contracts"
	"github.com/wonny/maverick/backend/internal/correlation"
	"github.com/wonny/maverick/backend/internal/diversification"
	"github.com/wonny/maverick/backend/internal/risk"
	"github.com/wonny/maverick/backend/internal/riskconfig"
	"github.com/wonny/maverick/backend/internal/sector"
)

// Components 설정으로 조립된 계산기 묶음
// ⭐ SSOT: riskconfig → 계산기 변환은 여기서만
// 각 계산기는 독립적으로 호출 가능 (API 개별 엔드포인트에서 직접 사용)
type Components struct {
	VaR             *risk.VaRCalculator
	Beta            *risk.BetaAnalyzer
	Volatility      *risk.VolatilityAnalyzer
	Stress          *risk.StressTestEngine
	Aggregator      *risk.Aggregator
	Diversification *diversification.Scorer
	Sectors         *sector.Analyzer

	CorrelationWorkers    int
	CorrelationPeriods    []int
	CorrelationThresholds correlation.Thresholds
	DefaultPeriodDays     int
}

// Option Components 조립 옵션
type Option func(*options)

type options struct {
	defaultBenchmark []float64
}

// WithDefaultBenchmark 요청에 벤치마크가 없을 때 쓰는 수익률 (beta.default_benchmark_ticker 로드 결과)
func WithDefaultBenchmark(returns []float64) Option {
	return func(o *options) {
		o.defaultBenchmark = returns
	}
}

// LoadDefaultBenchmark 데이터 소스에서 기본 벤치마크 수익률 조회
// ticker가 비어 있으면 기본 벤치마크 없음 (nil, nil)
func LoadDefaultBenchmark(ctx context.Context, source contracts.ReturnSource, ticker string, days int) ([]float64, error) {
	if ticker == "" {
		return nil, nil
	}
	series, err := source.Returns(ctx, ticker, days)
	if err != nil {
		return nil, fmt.Errorf("load default benchmark %s: %w", ticker, err)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("default benchmark %s: %w", ticker, err)
	}
	if len(series.Values) < 2 {
		return nil, fmt.Errorf("%w: default benchmark %s has %d returns",
			contracts.ErrInsufficientData, ticker, len(series.Values))
	}
	return series.Values, nil
}

// NewComponents 설정으로 계산기 생성
// workers > 0 이면 설정의 상관행렬 worker 수를 덮어씀
func NewComponents(cfg *riskconfig.Config, workers int, opts ...Option) (*Components, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	method, err := risk.ParseVaRMethod(cfg.VaR.DefaultMethod)
	if err != nil {
		return nil, err
	}
	varCalc := risk.NewVaRCalculator(risk.VaRConfig{
		Method:      method,
		MinSamples:  cfg.VaR.MinSamples,
		Simulations: cfg.VaR.MonteCarlo.Simulations,
		HoldingDays: cfg.VaR.MonteCarlo.HoldingDays,
		Seed:        cfg.VaR.MonteCarlo.Seed,
	})

	scenarios := make([]risk.Scenario, 0, len(cfg.Stress.Scenarios))
	for _, s := range cfg.Stress.Scenarios {
		scenarios = append(scenarios, risk.Scenario{
			ID:           s.ID,
			Name:         s.Name,
			Description:  s.Description,
			MarketReturn: s.MarketReturn,
			DurationDays: s.DurationDays,
			RecoveryDays: s.RecoveryDays,
		})
	}
	stress, err := risk.NewStressTestEngine(scenarios, cfg.Stress.RecoveryMatchBand)
	if err != nil {
		return nil, fmt.Errorf("stress scenarios: %w", err)
	}

	dc := cfg.Diversification
	scorer, err := diversification.NewScorer(diversification.Config{
		Weights: diversification.Weights{
			Position:      dc.Weights.Position,
			Sector:        dc.Weights.Sector,
			Correlation:   dc.Weights.Correlation,
			Concentration: dc.Weights.Concentration,
		},
		FullCreditPositions:     dc.FullCreditPositions,
		OverPenaltyScale:        dc.OverPenaltyScale,
		MissingSectorPenalty:    dc.MissingSectorPenalty,
		RecommendationThreshold: dc.RecommendationThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("diversification: %w", err)
	}

	sectors, err := sector.NewAnalyzer(sector.Config{
		Benchmark: cfg.Sectors.Benchmark,
		Aliases:   cfg.Sectors.Aliases,
		Profiles:  cfg.Sectors.Profiles,
	})
	if err != nil {
		return nil, fmt.Errorf("sectors: %w", err)
	}

	rs := cfg.RiskScore
	score := risk.ScoreConfig{
		Weights: risk.ScoreWeights{
			Volatility: rs.Weights.Volatility,
			Beta:       rs.Weights.Beta,
			VaR:        rs.Weights.VaR,
			Stress:     rs.Weights.Stress,
		},
		Caps: risk.ScoreCaps{
			AnnualVolatility: rs.Caps.AnnualVolatility,
			Beta:             rs.Caps.Beta,
			VaR95:            rs.Caps.VaR95,
			StressLoss:       rs.Caps.StressLoss,
		},
	}

	var betaOpts []risk.BetaOption
	if len(o.defaultBenchmark) > 0 {
		betaOpts = append(betaOpts, risk.WithDefaultBenchmark(o.defaultBenchmark))
	}
	beta := risk.NewBetaAnalyzer(betaOpts...)
	volatility := risk.NewVolatilityAnalyzer()

	if workers <= 0 {
		workers = cfg.Correlation.Workers
	}
	cc := cfg.Correlation
	thresholds := correlation.Thresholds{
		High:       cc.HighThreshold,
		Low:        cc.LowThreshold,
		VeryStrong: cc.Strength.VeryStrong,
		Strong:     cc.Strength.Strong,
		Moderate:   cc.Strength.Moderate,
		Weak:       cc.Strength.Weak,
	}
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("correlation: %w", err)
	}

	return &Components{
		VaR:                   varCalc,
		Beta:                  beta,
		Volatility:            volatility,
		Stress:                stress,
		Aggregator:            risk.NewAggregator(beta, volatility, varCalc, stress, score),
		Diversification:       scorer,
		Sectors:               sectors,
		CorrelationWorkers:    workers,
		CorrelationPeriods:    append([]int(nil), cc.Periods...),
		CorrelationThresholds: thresholds,
		DefaultPeriodDays:     cc.DefaultPeriodDays,
	}, nil
}

// CorrelationEngine 주어진 수익률 제공자로 상관계수 엔진 생성
func (c *Components) CorrelationEngine(source contracts.ReturnSource) *correlation.Engine {
	return correlation.NewEngine(source,
		correlation.WithWorkers(c.CorrelationWorkers),
		correlation.WithPeriods(c.CorrelationPeriods),
		correlation.WithThresholds(c.CorrelationThresholds),
	)
}
