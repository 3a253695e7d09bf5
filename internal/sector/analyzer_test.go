package sector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/maverick/backend/internal/contracts"
	"github.com/wonny/maverick/backend/internal/riskconfig"
)

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	sc := riskconfig.Default().Sectors
	a, err := NewAnalyzer(Config{Benchmark: sc.Benchmark, Aliases: sc.Aliases, Profiles: sc.Profiles})
	require.NoError(t, err)
	return a
}

func TestSingleSectorPortfolio(t *testing.T) {
	a := newAnalyzer(t)
	exp, err := a.Exposure([]contracts.Position{
		{Ticker: "AAPL", MarketValue: 60_000, Sector: "Technology"},
		{Ticker: "MSFT", MarketValue: 40_000, Sector: "Information Technology"},
	})
	require.NoError(t, err)

	tech, ok := exp.Item("Technology")
	require.True(t, ok)
	assert.Equal(t, StatusOverweight, tech.Status)
	assert.InDelta(t, 1.0, tech.Weight, 1e-12)
	assert.InDelta(t, 1.0-0.315, tech.Deviation, 1e-12)
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, tech.Tickers)

	for _, it := range exp.Items {
		if it.Sector == "Technology" {
			continue
		}
		assert.Equal(t, 0.0, it.Weight)
		if it.BenchmarkWeight > MaterialityThreshold {
			assert.Equal(t, StatusMissing, it.Status, it.Sector)
		} else {
			assert.NotEqual(t, StatusMissing, it.Status, it.Sector)
		}
	}
	assert.ElementsMatch(t,
		[]string{"Financial Services", "Healthcare", "Consumer Cyclical", "Communication Services",
			"Industrials", "Consumer Defensive", "Energy"},
		exp.ByStatus(StatusMissing))
}

func TestExposureWeightsBounded(t *testing.T) {
	a := newAnalyzer(t)
	positions := []contracts.Position{
		{Ticker: "AAPL", MarketValue: 30, Sector: "Technology"},
		{Ticker: "JPM", MarketValue: 20, Sector: "Financials"},
		{Ticker: "XOM", MarketValue: 10, Sector: "energy"},
		{Ticker: "BTC", MarketValue: 15, Sector: "Crypto"},
		{Ticker: "UNK", MarketValue: 25},
	}
	exp, err := a.Exposure(positions)
	require.NoError(t, err)

	var sum float64
	for _, it := range exp.Items {
		sum += it.Weight
		assert.InDelta(t, it.Weight-it.BenchmarkWeight, it.Deviation, 1e-12)
	}
	assert.LessOrEqual(t, sum, 1.0+1e-9)
	assert.InDelta(t, 0.75, exp.ClassifiedWeight, 1e-12)
	assert.InDelta(t, 0.25, exp.MissingDataWeight, 1e-12)
	assert.Equal(t, []string{"UNK"}, exp.MissingDataPositions)

	fin, ok := exp.Item("Financial Services")
	require.True(t, ok)
	assert.InDelta(t, 0.20, fin.Weight, 1e-12)
	assert.Equal(t, StatusOverweight, fin.Status) // 0.20 - 0.13

	energy, ok := exp.Item("Energy")
	require.True(t, ok)
	assert.Equal(t, StatusOverweight, energy.Status)

	crypto, ok := exp.Item("Crypto")
	require.True(t, ok)
	assert.Equal(t, 0.0, crypto.BenchmarkWeight)
	assert.Equal(t, StatusOverweight, crypto.Status)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		weight, bench float64
		want          Status
	}{
		{"overweight", 0.20, 0.10, StatusOverweight},
		{"underweight", 0.05, 0.12, StatusUnderweight},
		{"neutral band", 0.11, 0.12, StatusNeutral},
		{"missing material", 0, 0.09, StatusMissing},
		{"absent immaterial", 0, 0.025, StatusUnderweight},
		{"absent tiny", 0, 0.01, StatusNeutral},
		{"not in benchmark", 0.01, 0, StatusNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.weight, tt.bench))
		})
	}
}

func TestRebalance(t *testing.T) {
	a := newAnalyzer(t)
	exp, err := a.Exposure([]contracts.Position{
		{Ticker: "AAPL", MarketValue: 50_000, Sector: "Technology"},
		{Ticker: "JNJ", MarketValue: 12_500, Sector: "Healthcare"},
		{Ticker: "KO", MarketValue: 7_500, Sector: "Consumer Defensive"},
		{Ticker: "XOM", MarketValue: 30_000, Sector: "Energy"},
	})
	require.NoError(t, err)

	plan, err := a.Rebalance(exp, "Balanced")
	require.NoError(t, err)
	assert.Equal(t, "balanced", plan.Profile)
	require.Len(t, plan.Suggestions, 11)

	bySector := make(map[string]Suggestion)
	for _, s := range plan.Suggestions {
		bySector[s.Sector] = s
		assert.InDelta(t, s.TargetWeight-s.CurrentWeight, s.ChangeNeeded, 1e-12)
		assert.InDelta(t, s.ChangeNeeded*100_000, s.ChangeAmount, 1e-6)
	}

	tech := bySector["Technology"] // 0.50 → 0.25
	assert.Equal(t, ActionSell, tech.Action)
	assert.Equal(t, PriorityHigh, tech.Priority)

	hc := bySector["Healthcare"] // 0.125 → 0.13
	assert.Equal(t, ActionHold, hc.Action)
	assert.Equal(t, PriorityLow, hc.Priority)

	cd := bySector["Consumer Defensive"] // 0.075 → 0.08
	assert.Equal(t, ActionHold, cd.Action)

	fin := bySector["Financial Services"] // 0 → 0.13
	assert.Equal(t, ActionBuy, fin.Action)
	assert.Equal(t, PriorityHigh, fin.Priority)

	util := bySector["Utilities"] // 0 → 0.03
	assert.Equal(t, ActionBuy, util.Action)
	assert.Equal(t, PriorityMedium, util.Priority)

	// 우선순위 정렬
	for i := 1; i < len(plan.Suggestions); i++ {
		assert.LessOrEqual(t,
			priorityRank[plan.Suggestions[i-1].Priority],
			priorityRank[plan.Suggestions[i].Priority])
	}
}

func TestRebalanceHeldSectorOutsideProfile(t *testing.T) {
	a := newAnalyzer(t)
	exp, err := a.Exposure([]contracts.Position{
		{Ticker: "BTC", MarketValue: 100, Sector: "Crypto"},
	})
	require.NoError(t, err)

	plan, err := a.Rebalance(exp, "defensive")
	require.NoError(t, err)
	require.Len(t, plan.Suggestions, 12)
	assert.Equal(t, "Crypto", plan.Suggestions[0].Sector)
	assert.Equal(t, ActionSell, plan.Suggestions[0].Action)
	assert.InDelta(t, -1.0, plan.Suggestions[0].ChangeNeeded, 1e-12)
}

func TestRebalanceUnknownProfile(t *testing.T) {
	a := newAnalyzer(t)
	exp, err := a.Exposure([]contracts.Position{{Ticker: "AAPL", MarketValue: 1, Sector: "Technology"}})
	require.NoError(t, err)

	_, err = a.Rebalance(exp, "yolo")
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
}

func TestCanonical(t *testing.T) {
	a := newAnalyzer(t)
	assert.Equal(t, "Technology", a.Canonical(" information technology "))
	assert.Equal(t, "Healthcare", a.Canonical("Health Care"))
	assert.Equal(t, "Energy", a.Canonical("ENERGY"))
	assert.Equal(t, "Crypto", a.Canonical(" Crypto"))
	assert.Equal(t, []string{"aggressive", "balanced", "defensive"}, a.Profiles())
}

func TestNewAnalyzerRejectsBadTable(t *testing.T) {
	_, err := NewAnalyzer(Config{Benchmark: map[string]float64{"Technology": 0.5}})
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)

	_, err = NewAnalyzer(Config{
		Benchmark: map[string]float64{"Technology": 1},
		Profiles:  map[string]map[string]float64{"odd": {"Technology": 1.4}},
	})
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
}

func TestProfileKeysCanonicalized(t *testing.T) {
	a, err := NewAnalyzer(Config{
		Benchmark: map[string]float64{"Technology": 0.5, "Healthcare": 0.5},
		Aliases:   map[string]string{"Health Care": "Healthcare"},
		Profiles:  map[string]map[string]float64{"Mixed": {"Health Care": 0.5, "technology": 0.5}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"mixed"}, a.Profiles())

	exp, err := a.Exposure([]contracts.Position{{Ticker: "JNJ", MarketValue: 1000, Sector: "Healthcare"}})
	require.NoError(t, err)
	plan, err := a.Rebalance(exp, "MIXED")
	require.NoError(t, err)

	targets := make(map[string]float64)
	for _, s := range plan.Suggestions {
		targets[s.Sector] = s.TargetWeight
	}
	assert.Equal(t, map[string]float64{"Healthcare": 0.5, "Technology": 0.5}, targets)
}

func TestExposureEmpty(t *testing.T) {
	_, err := newAnalyzer(t).Exposure(nil)
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
}
