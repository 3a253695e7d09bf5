package jobs

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/maverick/backend/internal/alert"
	"github.com/wonny/maverick/backend/internal/contracts"
	"github.com/wonny/maverick/backend/internal/marketdata"
	"github.com/wonny/maverick/backend/internal/portfolio"
	"github.com/wonny/maverick/backend/internal/riskconfig"
)

func randomReturns(seed uint64, n int, std float64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed+99))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * std
	}
	return out
}

func watchConfig() riskconfig.WatchConfig {
	w := riskconfig.Default().Watch
	w.PeriodDays = 120
	w.Positions = []riskconfig.WatchPosition{
		{Ticker: "AAPL", MarketValue: 50000},
		{Ticker: "XOM", MarketValue: 30000, Sector: "Energy"},
		{Ticker: "NEWCO", MarketValue: 20000, Sector: "Industrials"},
	}
	return w
}

func newTestJob(t *testing.T, watch riskconfig.WatchConfig, source contracts.ReturnSource) *RiskWatchJob {
	t.Helper()
	cfg := riskconfig.Default()
	analyzer, err := portfolio.NewAnalyzer(cfg, 2, nil)
	require.NoError(t, err)
	monitor, err := alert.NewMonitorFromConfig(cfg.Alerts, nil)
	require.NoError(t, err)
	return NewRiskWatchJob(watch, analyzer, monitor, source, nil)
}

func memorySource() *marketdata.MemorySource {
	src := marketdata.FromReturns(map[string][]float64{
		"AAPL": randomReturns(1, 200, 0.02),
		"XOM":  randomReturns(2, 200, 0.015),
		"SPY":  randomReturns(3, 200, 0.01),
	})
	src.PutSector("AAPL", "Information Technology")
	src.PutSector("XOM", "Utilities")
	return src
}

func TestRiskWatchRun(t *testing.T) {
	job := newTestJob(t, watchConfig(), memorySource())

	_, ok := job.LastReport()
	assert.False(t, ok)

	require.NoError(t, job.Run(context.Background()))

	last, ok := job.LastReport()
	require.True(t, ok)
	assert.Equal(t, []string{"NEWCO"}, last.MissingPrices)
	require.NotNil(t, last.Report)
	require.NotNil(t, last.Report.Risk, "benchmark SPY loaded")
	assert.Equal(t, 120, last.Report.Risk.VaR.SampleSize)
	require.NotNil(t, last.Alerts)
	assert.Equal(t, alert.ModeShadow, last.Alerts.Mode)

	// 소스 섹터는 별칭 정규화, 설정 섹터가 소스보다 우선
	_, ok = last.Report.SectorExposure.Item("Technology")
	assert.True(t, ok)
	energy, ok := last.Report.SectorExposure.Item("Energy")
	require.True(t, ok)
	assert.InDelta(t, 0.3, energy.Weight, 1e-12)

	// 50% 단일 종목 → 한도 20% 대비 critical
	require.NotEmpty(t, last.Alerts.Alerts)
	found := false
	for _, a := range last.Alerts.Alerts {
		if a.Code == alert.CodeSingleExposure {
			found = true
			assert.Equal(t, alert.SeverityCritical, a.Severity)
		}
	}
	assert.True(t, found)
}

func TestRiskWatchWithoutBenchmark(t *testing.T) {
	watch := watchConfig()
	watch.BenchmarkTicker = "QQQ"
	job := newTestJob(t, watch, memorySource())

	require.NoError(t, job.Run(context.Background()))
	last, _ := job.LastReport()
	assert.Nil(t, last.Report.Risk)
	assert.NotNil(t, last.Report.VaR)
}

func TestRiskWatchNoPositions(t *testing.T) {
	watch := watchConfig()
	watch.Positions = nil
	job := newTestJob(t, watch, memorySource())

	err := job.Run(context.Background())
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
}

type failingSource struct{}

func (failingSource) Returns(context.Context, string, int) (contracts.ReturnSeries, error) {
	return contracts.ReturnSeries{}, errors.New("connection refused")
}

func TestRiskWatchSourceError(t *testing.T) {
	job := newTestJob(t, watchConfig(), failingSource{})

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	_, ok := job.LastReport()
	assert.False(t, ok)
}

func TestRiskWatchSchedule(t *testing.T) {
	watch := watchConfig()
	assert.Equal(t, "0 30 16 * * 1-5", newTestJob(t, watch, memorySource()).Schedule())

	watch.Schedule = "@hourly"
	job := newTestJob(t, watch, memorySource())
	assert.Equal(t, "@hourly", job.Schedule())
	assert.Equal(t, RiskWatchJobName, job.Name())
}
