package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/maverick/backend/internal/contracts"
)

func newTestAggregator(t *testing.T) *Aggregator {
	t.Helper()
	stress, err := NewStressTestEngine(testScenarios(), 0.05)
	require.NoError(t, err)
	return NewAggregator(
		NewBetaAnalyzer(),
		NewVolatilityAnalyzer(),
		NewVaRCalculator(DefaultVaRConfig()),
		stress,
		DefaultScoreConfig(),
	)
}

func TestSummarize(t *testing.T) {
	bench := seededReturns(41, 252, 0.0003, 0.011)
	noise := seededReturns(42, 252, 0, 0.004)
	portfolio := make([]float64, len(bench))
	for i := range bench {
		portfolio[i] = 1.2*bench[i] + noise[i]
	}

	s, err := newTestAggregator(t).Summarize(context.Background(), SummaryInput{
		PortfolioReturns: portfolio,
		BenchmarkReturns: bench,
		PortfolioValue:   250_000,
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.2, s.Beta.Beta, 0.15)
	require.Len(t, s.StressTests, 4)
	require.NotNil(t, s.WorstCase)
	assert.Equal(t, s.StressTests[0], *s.WorstCase)
	assert.Equal(t, MethodHistorical, s.VaR.Method)
	assert.Equal(t, 252, s.Volatility.SampleSize)

	assert.GreaterOrEqual(t, s.RiskScore, 0.0)
	assert.LessOrEqual(t, s.RiskScore, 100.0)
	assert.Equal(t, ClassifyRisk(s.RiskScore), s.RiskLevel)

	w := DefaultScoreConfig().Weights
	c := s.Components
	want := c.Volatility*w.Volatility + c.Beta*w.Beta + c.VaR*w.VaR + c.Stress*w.Stress
	assert.InDelta(t, want, s.RiskScore, 1e-9)
}

func TestSummarizePropagatesErrors(t *testing.T) {
	agg := newTestAggregator(t)
	ctx := context.Background()

	_, err := agg.Summarize(ctx, SummaryInput{})
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)

	_, err = agg.Summarize(ctx, SummaryInput{
		PortfolioReturns: []float64{0.01, -0.02, 0.015},
		BenchmarkReturns: []float64{0.25, 0.25, 0.25},
		PortfolioValue:   1000,
	})
	assert.ErrorIs(t, err, contracts.ErrDegenerateInput)

	_, err = agg.Summarize(ctx, SummaryInput{
		PortfolioReturns: seededReturns(1, 30, 0, 0.01),
		BenchmarkReturns: seededReturns(2, 30, 0, 0.01),
		PortfolioValue:   1000,
		ScenarioIDs:      []string{"missing"},
	})
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
}

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		score float64
		want  RiskLevel
	}{
		{0, RiskLow},
		{29.9, RiskLow},
		{30, RiskModerate},
		{50, RiskHigh},
		{69.99, RiskHigh},
		{70, RiskVeryHigh},
		{100, RiskVeryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyRisk(tt.score), "score=%v", tt.score)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 50.0, normalize(-0.025, 0.05))
	assert.Equal(t, 100.0, normalize(3.0, 2.0))
	assert.Equal(t, 0.0, normalize(1.0, 0))
}

func TestPortfolioReturns(t *testing.T) {
	weights := map[string]float64{"A": 0.5, "B": 0.3, "C": 0.2}
	returns := map[string][]float64{
		"A": {0.01, 0.02, -0.01},
		"B": {0.00, 0.01, 0.03, -0.02},
	}

	got, err := PortfolioReturns(weights, returns)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// C 제외 후 A:B = 0.625:0.375
	assert.InDelta(t, 0.625*0.01+0.375*0.01, got[0], 1e-12)
	assert.InDelta(t, 0.625*0.02+0.375*0.03, got[1], 1e-12)
	assert.InDelta(t, 0.625*-0.01+0.375*-0.02, got[2], 1e-12)

	_, err = PortfolioReturns(weights, map[string][]float64{})
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}
