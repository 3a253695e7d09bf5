package risk

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/maverick/backend/internal/contracts"
)

// =============================================================================
// Risk Summary Aggregator
// =============================================================================

// ScoreWeights 리스크 점수 가중치 (합 = 1)
type ScoreWeights struct {
	Volatility float64
	Beta       float64
	VaR        float64
	Stress     float64
}

// ScoreCaps 각 지표를 100점으로 보는 상한 (소수, beta는 배수)
type ScoreCaps struct {
	AnnualVolatility float64
	Beta             float64
	VaR95            float64
	StressLoss       float64
}

// ScoreConfig 리스크 점수 설정
type ScoreConfig struct {
	Weights ScoreWeights
	Caps    ScoreCaps
}

// DefaultScoreConfig 기본 리스크 점수 설정
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		Weights: ScoreWeights{Volatility: 0.35, Beta: 0.25, VaR: 0.25, Stress: 0.15},
		Caps:    ScoreCaps{AnnualVolatility: 0.40, Beta: 2.0, VaR95: 0.05, StressLoss: 0.50},
	}
}

// SummaryInput 종합 리스크 계산 입력
type SummaryInput struct {
	PortfolioReturns []float64
	BenchmarkReturns []float64 // 비어 있으면 BetaAnalyzer 기본 벤치마크
	PortfolioValue   float64
	VaRMethod        VaRMethod // 빈 값이면 VaRCalculator 기본 방식
	ScenarioIDs      []string  // 비어 있으면 전체 시나리오
}

// Aggregator Beta/Volatility/VaR/StressTest 조합
// 하위 계산기는 서로 독립이며 stress만 beta 결과를 사용
type Aggregator struct {
	beta       *BetaAnalyzer
	volatility *VolatilityAnalyzer
	varCalc    *VaRCalculator
	stress     *StressTestEngine
	score      ScoreConfig
}

// NewAggregator 새 Aggregator 생성
func NewAggregator(
	beta *BetaAnalyzer,
	volatility *VolatilityAnalyzer,
	varCalc *VaRCalculator,
	stress *StressTestEngine,
	score ScoreConfig,
) *Aggregator {
	return &Aggregator{
		beta:       beta,
		volatility: volatility,
		varCalc:    varCalc,
		stress:     stress,
		score:      score,
	}
}

// Summarize 종합 리스크 요약
// 하위 계산은 병렬 실행, 하나라도 실패하면 첫 에러 반환 (부분 결과 없음)
func (a *Aggregator) Summarize(ctx context.Context, in SummaryInput) (RiskMetricsSummary, error) {
	if len(in.PortfolioReturns) == 0 {
		return RiskMetricsSummary{}, fmt.Errorf("%w: portfolio returns are empty", contracts.ErrInvalidInput)
	}

	var (
		summary RiskMetricsSummary
		g       errgroup.Group
	)

	g.Go(func() error {
		beta, err := a.beta.Analyze(in.PortfolioReturns, in.BenchmarkReturns)
		if err != nil {
			return fmt.Errorf("beta: %w", err)
		}
		stress, err := a.stress.Run(beta.Beta, in.PortfolioValue, in.ScenarioIDs...)
		if err != nil {
			return fmt.Errorf("stress: %w", err)
		}
		summary.Beta = beta
		summary.StressTests = stress
		return nil
	})

	g.Go(func() error {
		vol, err := a.volatility.Analyze(in.PortfolioReturns, in.PortfolioValue)
		if err != nil {
			return fmt.Errorf("volatility: %w", err)
		}
		summary.Volatility = vol
		return nil
	})

	g.Go(func() error {
		v, err := a.varCalc.Calculate(in.PortfolioReturns, in.PortfolioValue, in.VaRMethod)
		if err != nil {
			return fmt.Errorf("var: %w", err)
		}
		summary.VaR = v
		return nil
	})

	if err := g.Wait(); err != nil {
		return RiskMetricsSummary{}, err
	}
	if err := ctx.Err(); err != nil {
		return RiskMetricsSummary{}, err
	}

	if len(summary.StressTests) > 0 {
		worst := summary.StressTests[0]
		summary.WorstCase = &worst
	}

	summary.Components = a.components(summary)
	summary.RiskScore = a.riskScore(summary.Components)
	summary.RiskLevel = ClassifyRisk(summary.RiskScore)

	return summary, nil
}

// components 지표별 0-100 정규화 점수
func (a *Aggregator) components(s RiskMetricsSummary) ScoreComponents {
	var worstLoss float64
	if s.WorstCase != nil {
		worstLoss = s.WorstCase.EstimatedPortfolioLoss
	}
	caps := a.score.Caps
	return ScoreComponents{
		Volatility: normalize(s.Volatility.AnnualizedVolatility, caps.AnnualVolatility),
		Beta:       normalize(s.Beta.Beta, caps.Beta),
		VaR:        normalize(s.VaR.VaR95, caps.VaR95),
		Stress:     normalize(math.Min(worstLoss, 0), caps.StressLoss),
	}
}

// riskScore 가중 합 (0-100)
func (a *Aggregator) riskScore(c ScoreComponents) float64 {
	w := a.score.Weights
	total := w.Volatility + w.Beta + w.VaR + w.Stress
	if total <= 0 {
		return 0
	}
	score := (c.Volatility*w.Volatility + c.Beta*w.Beta + c.VaR*w.VaR + c.Stress*w.Stress) / total
	return math.Max(0, math.Min(100, score))
}

// normalize min(|x|/cap, 1) × 100
func normalize(x, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return math.Min(math.Abs(x)/limit, 1) * 100
}
