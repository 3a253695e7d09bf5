package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/maverick/backend/internal/contracts"
)

func testScenarios() []Scenario {
	return []Scenario{
		{ID: "mild", Name: "Mild", MarketReturn: -0.10, DurationDays: 20, RecoveryDays: intPtr(60)},
		{ID: "crash", Name: "Crash", MarketReturn: -0.40, DurationDays: 300, RecoveryDays: intPtr(900)},
		{ID: "bear", Name: "Bear", MarketReturn: -0.22, DurationDays: 200},
		{ID: "shock", Name: "Shock", MarketReturn: -0.20, DurationDays: 5, RecoveryDays: intPtr(100)},
	}
}

func TestStressRunSorted(t *testing.T) {
	engine, err := NewStressTestEngine(testScenarios(), 0.05)
	require.NoError(t, err)

	for _, beta := range []float64{0.3, 1.0, 1.8, -0.5} {
		results, err := engine.Run(beta, 100_000)
		require.NoError(t, err)
		require.Len(t, results, 4)

		for i := 1; i < len(results); i++ {
			assert.LessOrEqual(t, results[i-1].EstimatedPortfolioLoss, results[i].EstimatedPortfolioLoss,
				"beta=%v index=%d", beta, i)
		}
		for _, r := range results {
			assert.InDelta(t, beta*r.MarketReturn, r.EstimatedPortfolioLoss, 1e-12)
			assert.InDelta(t, r.EstimatedPortfolioLoss*100_000, r.EstimatedLossAmount, 1e-6)
		}
	}
}

func TestStressRunWorstFirst(t *testing.T) {
	engine, err := NewStressTestEngine(testScenarios(), 0.05)
	require.NoError(t, err)

	results, err := engine.Run(1.0, 10_000)
	require.NoError(t, err)
	assert.Equal(t, "crash", results[0].ScenarioID)
	assert.Equal(t, "mild", results[len(results)-1].ScenarioID)
	assert.Equal(t, "bear", results[1].ScenarioID)
	assert.Nil(t, results[1].RecoveryEstimateDays)
}

func TestStressRunSubset(t *testing.T) {
	engine, err := NewStressTestEngine(testScenarios(), 0.05)
	require.NoError(t, err)

	results, err := engine.Run(1.0, 1000, "mild", "shock", "mild")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "shock", results[0].ScenarioID)

	_, err = engine.Run(1.0, 1000, "unknown")
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
}

func TestStressCustom(t *testing.T) {
	engine, err := NewStressTestEngine(testScenarios(), 0.05)
	require.NoError(t, err)

	r, err := engine.Custom(1.2, 100_000, 20, "")
	require.NoError(t, err)
	assert.InDelta(t, -0.24, r.EstimatedPortfolioLoss, 1e-12)
	assert.InDelta(t, -24_000, r.EstimatedLossAmount, 1e-6)
	assert.Equal(t, CustomScenarioID, r.ScenarioID)
	assert.Equal(t, "Custom 20.0% market drop", r.ScenarioName)
	assert.True(t, r.Custom)

	// shock(-0.20, 100일)과 bear(-0.22, 회복 정보 없음)만 5pp 이내
	require.NotNil(t, r.RecoveryEstimateDays)
	assert.Equal(t, 100, *r.RecoveryEstimateDays)
}

func TestStressCustomRecoveryUnavailable(t *testing.T) {
	engine, err := NewStressTestEngine(testScenarios(), 0.05)
	require.NoError(t, err)

	r, err := engine.Custom(1.0, 1000, 75, "Meltdown")
	require.NoError(t, err)
	assert.Equal(t, "Meltdown", r.ScenarioName)
	assert.Nil(t, r.RecoveryEstimateDays)
}

func TestStressCustomInvalid(t *testing.T) {
	engine, err := NewStressTestEngine(testScenarios(), 0.05)
	require.NoError(t, err)

	for _, drop := range []float64{0, -5, 100.5, 120, nan()} {
		_, err := engine.Custom(1.0, 1000, drop, "")
		assert.ErrorIs(t, err, contracts.ErrInvalidInput, "drop=%v", drop)
	}

	// 100% 하락은 허용 경계
	r, err := engine.Custom(1.0, 1000, 100, "")
	require.NoError(t, err)
	assert.InDelta(t, -1.0, r.MarketReturn, 1e-12)
}

func TestStressDuplicateScenario(t *testing.T) {
	scenarios := append(testScenarios(), Scenario{ID: "mild", MarketReturn: -0.05})
	_, err := NewStressTestEngine(scenarios, 0.05)
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
}

func TestStressScenariosCopy(t *testing.T) {
	engine, err := NewStressTestEngine(testScenarios(), 0.05)
	require.NoError(t, err)

	list := engine.Scenarios()
	list[0].MarketReturn = -0.99

	assert.Equal(t, -0.10, engine.Scenarios()[0].MarketReturn)
}
