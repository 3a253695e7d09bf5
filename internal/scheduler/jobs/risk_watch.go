package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/maverick/backend/internal/alert"
	"github.com/wonny/maverick/backend/internal/contracts"
	"github.com/wonny/maverick/backend/internal/portfolio"
	"github.com/wonny/maverick/backend/internal/riskconfig"
	"github.com/wonny/maverick/backend/pkg/logger"
)

// RiskWatchJobName 감시 작업 이름
const RiskWatchJobName = "risk_watch"

// loadWorkers 종목 수익률 동시 조회 수
const loadWorkers = 4

// WatchReport 감시 실행 결과
type WatchReport struct {
	Report        *portfolio.AnalysisReport `json:"report"`
	Alerts        *alert.Result             `json:"alerts"`
	MissingPrices []string                  `json:"missing_prices,omitempty"`
	CompletedAt   time.Time                 `json:"completed_at"`
}

// RiskWatchJob 설정된 감시 포트폴리오를 주기적으로 분석하고 한도 알림 평가
type RiskWatchJob struct {
	watch    riskconfig.WatchConfig
	analyzer *portfolio.Analyzer
	monitor  *alert.Monitor
	source   contracts.ReturnSource
	logger   *logger.Logger

	mu   sync.RWMutex
	last *WatchReport
}

// NewRiskWatchJob creates a new risk watch job
func NewRiskWatchJob(
	watch riskconfig.WatchConfig,
	analyzer *portfolio.Analyzer,
	monitor *alert.Monitor,
	source contracts.ReturnSource,
	log *logger.Logger,
) *RiskWatchJob {
	log = logger.OrNop(log)
	return &RiskWatchJob{
		watch:    watch,
		analyzer: analyzer,
		monitor:  monitor,
		source:   source,
		logger:   log.WithComponent("risk_watch"),
	}
}

// Name returns the job name
func (j *RiskWatchJob) Name() string {
	return RiskWatchJobName
}

// Schedule returns the cron schedule
func (j *RiskWatchJob) Schedule() string {
	if j.watch.Schedule == "" {
		return "0 30 16 * * 1-5" // 평일 장 마감 후
	}
	return j.watch.Schedule
}

// LastReport 마지막 성공 실행 결과
func (j *RiskWatchJob) LastReport() (*WatchReport, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last, j.last != nil
}

// Run executes the watch: load → analyze → evaluate alerts
func (j *RiskWatchJob) Run(ctx context.Context) error {
	start := time.Now()

	req, missing, err := j.buildRequest(ctx)
	if err != nil {
		return err
	}

	report, err := j.analyzer.Analyze(ctx, req)
	if err != nil {
		return fmt.Errorf("analyze watch portfolio: %w", err)
	}
	result := j.monitor.Evaluate(report)

	watch := &WatchReport{
		Report:        report,
		Alerts:        result,
		MissingPrices: missing,
		CompletedAt:   time.Now().UTC(),
	}
	j.mu.Lock()
	j.last = watch
	j.mu.Unlock()

	fields := map[string]interface{}{
		"positions": len(req.Positions),
		"missing":   len(missing),
		"alerts":    len(result.Alerts),
		"passed":    result.Passed,
		"duration":  time.Since(start).String(),
	}
	if report.Risk != nil {
		fields["risk_score"] = report.Risk.RiskScore
	}
	if report.Diversification != nil {
		fields["diversification"] = report.Diversification.Score
	}
	j.logger.WithRunID(report.RunID).WithFields(fields).Info("Risk watch completed")

	return nil
}

// buildRequest 감시 포트폴리오 → 분석 요청
// 수익률이 없는 종목은 missing으로 보고하고 구성 기반 분석만 반영
func (j *RiskWatchJob) buildRequest(ctx context.Context) (contracts.AnalysisRequest, []string, error) {
	if len(j.watch.Positions) == 0 {
		return contracts.AnalysisRequest{}, nil, fmt.Errorf("%w: watch portfolio has no positions", contracts.ErrInvalidInput)
	}

	positions := make([]contracts.Position, len(j.watch.Positions))
	tickers := make([]string, len(j.watch.Positions))
	for i, p := range j.watch.Positions {
		positions[i] = contracts.Position{Ticker: p.Ticker, MarketValue: p.MarketValue, Sector: p.Sector}
		tickers[i] = p.Ticker
	}

	series := make([][]float64, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadWorkers)
	for i, ticker := range tickers {
		g.Go(func() error {
			s, err := j.source.Returns(gctx, ticker, j.watch.PeriodDays)
			if errors.Is(err, contracts.ErrInsufficientData) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("load returns %s: %w", ticker, err)
			}
			series[i] = s.Values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return contracts.AnalysisRequest{}, nil, err
	}

	returns := make(map[string][]float64, len(tickers))
	var missing []string
	for i, ticker := range tickers {
		if len(series[i]) == 0 {
			missing = append(missing, ticker)
			continue
		}
		returns[ticker] = series[i]
	}
	if len(missing) > 0 {
		j.logger.WithField("tickers", missing).Warn("Watch positions without return data")
	}

	req := contracts.AnalysisRequest{
		Positions:     positions,
		Returns:       returns,
		PeriodDays:    j.watch.PeriodDays,
		VaRMethod:     j.watch.VaRMethod,
		TargetProfile: j.watch.TargetProfile,
	}

	if j.watch.BenchmarkTicker != "" {
		bench, err := j.source.Returns(ctx, j.watch.BenchmarkTicker, j.watch.PeriodDays)
		switch {
		case errors.Is(err, contracts.ErrInsufficientData):
			j.logger.WithField("benchmark", j.watch.BenchmarkTicker).Warn("Benchmark returns unavailable")
		case err != nil:
			return contracts.AnalysisRequest{}, nil, fmt.Errorf("load benchmark %s: %w", j.watch.BenchmarkTicker, err)
		default:
			req.BenchmarkReturns = bench.Values
		}
	}

	if sectors, ok := j.source.(contracts.SectorSource); ok {
		sectorMap, err := sectors.Sectors(ctx, tickers)
		if err != nil {
			return contracts.AnalysisRequest{}, nil, fmt.Errorf("load sectors: %w", err)
		}
		// 설정에 명시된 섹터가 우선
		for _, p := range positions {
			if p.HasSector() {
				delete(sectorMap, p.Ticker)
			}
		}
		req.SectorMap = sectorMap
	}

	return req, missing, nil
}
