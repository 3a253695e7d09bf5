package diversification

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/maverick/backend/internal/contracts"
)

var sectors = []string{
	"Technology", "Healthcare", "Financial Services", "Consumer Cyclical",
	"Consumer Defensive", "Communication Services", "Industrials", "Energy",
	"Utilities", "Real Estate", "Basic Materials",
}

func newScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(DefaultConfig())
	require.NoError(t, err)
	return s
}

func equalWeighted(n int) []contracts.Position {
	positions := make([]contracts.Position, n)
	for i := range positions {
		positions[i] = contracts.Position{
			Ticker:      fmt.Sprintf("T%02d", i),
			MarketValue: 10_000,
			Sector:      sectors[i%len(sectors)],
		}
	}
	return positions
}

func ptr(v float64) *float64 { return &v }

func TestHHIScenario(t *testing.T) {
	d, err := newScorer(t).Score(ScoreInput{Positions: []contracts.Position{
		{Ticker: "AAPL", MarketValue: 60_000, Sector: "Technology"},
		{Ticker: "MSFT", MarketValue: 40_000, Sector: "Technology"},
	}})
	require.NoError(t, err)

	assert.InDelta(t, 0.52, d.HHI, 1e-12)
	assert.InDelta(t, 1.923, d.EffectivePositions, 1e-3)
	assert.InDelta(t, 1/d.HHI, d.EffectivePositions, 1e-12)
	assert.InDelta(t, 0.04, d.HHINormalized, 1e-12) // (0.52-0.5)/(1-0.5)
	assert.Equal(t, 2, d.PositionCount)
	assert.Equal(t, 1, d.SectorCount)
	assert.Equal(t, []string{"AAPL", "MSFT"}, d.OverweightPositions)
}

func TestSinglePositionAlwaysVeryPoor(t *testing.T) {
	s := newScorer(t)

	inputs := []ScoreInput{
		{Positions: []contracts.Position{{Ticker: "AAPL", MarketValue: 1_000, Sector: "Technology"}}},
		{Positions: []contracts.Position{{Ticker: "AAPL", MarketValue: 1_000}}},
		{Positions: []contracts.Position{{Ticker: "AAPL", MarketValue: 1_000, Sector: "Technology"}}, AvgCorrelation: ptr(-1)},
		{Positions: []contracts.Position{
			{Ticker: "AAPL", MarketValue: 500, Sector: "Technology"},
			{Ticker: "AAPL", MarketValue: 500, Sector: "Technology"},
		}},
	}
	for i, in := range inputs {
		d, err := s.Score(in)
		require.NoError(t, err, "case %d", i)
		assert.Equal(t, LevelVeryPoor, d.Level, "case %d score=%.2f", i, d.Score)
		assert.Equal(t, 1.0, d.HHI)
		assert.Equal(t, 1.0, d.EffectivePositions)
		assert.Nil(t, d.Breakdown.CorrelationScore, "single position has no pairs")
	}
}

func TestCorrelationOrdering(t *testing.T) {
	s := newScorer(t)

	for _, n := range []int{2, 5, 11, 25} {
		positions := equalWeighted(n)
		low, err := s.Score(ScoreInput{Positions: positions, AvgCorrelation: ptr(0)})
		require.NoError(t, err)
		high, err := s.Score(ScoreInput{Positions: positions, AvgCorrelation: ptr(1)})
		require.NoError(t, err)

		assert.Greater(t, low.Score, high.Score, "n=%d", n)
	}
}

func TestScoreBounds(t *testing.T) {
	s := newScorer(t)
	cases := [][]contracts.Position{
		equalWeighted(1),
		equalWeighted(3),
		equalWeighted(40),
		{
			{Ticker: "A", MarketValue: 90, Sector: "Energy"},
			{Ticker: "B", MarketValue: 5},
			{Ticker: "C", MarketValue: 5},
			{Ticker: "D", MarketValue: 0, Sector: "Utilities"},
		},
	}
	for i, positions := range cases {
		for _, corr := range []*float64{nil, ptr(-1), ptr(0.3), ptr(1)} {
			d, err := s.Score(ScoreInput{Positions: positions, AvgCorrelation: corr})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, d.Score, 0.0, "case %d", i)
			assert.LessOrEqual(t, d.Score, 100.0, "case %d", i)
			assert.Equal(t, ClassifyLevel(d.Score), d.Level)
		}
	}
}

func TestWeightedSum(t *testing.T) {
	d, err := newScorer(t).Score(ScoreInput{Positions: equalWeighted(8), AvgCorrelation: ptr(0.4)})
	require.NoError(t, err)

	b := d.Breakdown
	require.NotNil(t, b.CorrelationScore)
	assert.InDelta(t, 60.0, *b.CorrelationScore, 1e-9)
	want := b.PositionScore*b.Weights.Position + b.SectorScore*b.Weights.Sector +
		*b.CorrelationScore*b.Weights.Correlation + b.ConcentrationScore*b.Weights.Concentration
	assert.InDelta(t, want, d.Score, 1e-9)

	// 8종목 균등: 유효 종목 8, 포지션 수 충족도 8/20
	assert.InDelta(t, 40.0, b.PositionScore, 1e-9)
	// 8개 섹터 균등
	assert.InDelta(t, 100*8.0/11, b.SectorScore, 1e-9)
	assert.Equal(t, 100.0, b.ConcentrationScore)
}

func TestCorrelationExcludedRenormalizes(t *testing.T) {
	d, err := newScorer(t).Score(ScoreInput{Positions: equalWeighted(5)})
	require.NoError(t, err)

	w := d.Breakdown.Weights
	assert.Nil(t, d.Breakdown.CorrelationScore)
	assert.Equal(t, 0.0, w.Correlation)
	assert.InDelta(t, 1.0, w.Sum(), 1e-12)
	assert.InDelta(t, 0.30/0.75, w.Position, 1e-12)
}

func TestConcentrationPenalties(t *testing.T) {
	d, err := newScorer(t).Score(ScoreInput{Positions: []contracts.Position{
		{Ticker: "BIG", MarketValue: 30, Sector: "Technology"},
		{Ticker: "B", MarketValue: 14, Sector: "Energy"},
		{Ticker: "C", MarketValue: 14, Sector: "Utilities"},
		{Ticker: "D", MarketValue: 14, Sector: "Healthcare"},
		{Ticker: "E", MarketValue: 14},
		{Ticker: "F", MarketValue: 14},
	}})
	require.NoError(t, err)

	// 100 - (0.30-0.20)×200 - 2×5
	assert.InDelta(t, 70.0, d.Breakdown.ConcentrationScore, 1e-9)
	assert.Equal(t, []string{"BIG"}, d.OverweightPositions)
	assert.Equal(t, []string{"E", "F"}, d.MissingSectorPositions)
	assert.NotContains(t, d.SectorWeights, "")
}

func TestRecommendations(t *testing.T) {
	d, err := newScorer(t).Score(ScoreInput{
		Positions: []contracts.Position{
			{Ticker: "AAPL", MarketValue: 70, Sector: "Technology"},
			{Ticker: "MSFT", MarketValue: 20, Sector: "Technology"},
			{Ticker: "XYZ", MarketValue: 10},
		},
		AvgCorrelation: ptr(0.85),
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(d.Recommendations), 4)
	top := d.TopRecommendations(3)
	assert.Len(t, top, 3)
	assert.Equal(t, d.Recommendations[:3], top)

	joined := fmt.Sprint(d.Recommendations)
	assert.Contains(t, joined, "AAPL is 70.0% of the portfolio")
	assert.Contains(t, joined, "XYZ")
	assert.Contains(t, joined, "0.85")

	assert.Len(t, d.TopRecommendations(10), len(d.Recommendations))
}

func TestWellDiversifiedRecommendation(t *testing.T) {
	d, err := newScorer(t).Score(ScoreInput{Positions: equalWeighted(22), AvgCorrelation: ptr(0.1)})
	require.NoError(t, err)
	assert.Equal(t, LevelExcellent, d.Level)
	assert.Equal(t, []string{"Portfolio is well diversified; maintain the current allocation"}, d.Recommendations)
}

func TestScoreErrors(t *testing.T) {
	s := newScorer(t)

	_, err := s.Score(ScoreInput{})
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)

	_, err = s.Score(ScoreInput{Positions: equalWeighted(3), AvgCorrelation: ptr(1.5)})
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"weights sum", func(c *Config) { c.Weights.Position = 0.5 }},
		{"negative weight", func(c *Config) { c.Weights.Sector = -0.25; c.Weights.Position = 0.80 }},
		{"full credit too small", func(c *Config) { c.FullCreditPositions = 3 }},
		{"penalty scale too small", func(c *Config) { c.OverPenaltyScale = 100 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewScorer(cfg)
			assert.ErrorIs(t, err, contracts.ErrInvalidInput)
		})
	}
}

func TestClassifyLevel(t *testing.T) {
	assert.Equal(t, LevelExcellent, ClassifyLevel(80))
	assert.Equal(t, LevelGood, ClassifyLevel(79.9))
	assert.Equal(t, LevelModerate, ClassifyLevel(40))
	assert.Equal(t, LevelPoor, ClassifyLevel(20))
	assert.Equal(t, LevelVeryPoor, ClassifyLevel(19.99))
}
