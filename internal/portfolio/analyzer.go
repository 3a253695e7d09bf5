package portfolio

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/maverick/backend/internal/contracts"
	"github.com/wonny/maverick/backend/internal/correlation"
	"github.com/wonny/maverick/backend/internal/diversification"
	"github.com/wonny/maverick/backend/internal/marketdata"
	"github.com/wonny/maverick/backend/internal/risk"
	"github.com/wonny/maverick/backend/internal/riskconfig"
	"github.com/wonny/maverick/backend/internal/sector"
	"github.com/wonny/maverick/backend/pkg/logger"
)

// DefaultProfile target_profile 미지정 시 사용
const DefaultProfile = "balanced"

// AnalysisReport 전체 포트폴리오 리스크 분석 결과
// 데이터 부족으로 계산하지 못한 섹션은 nil + Warnings에 사유
type AnalysisReport struct {
	RunID         string    `json:"run_id"`
	GeneratedAt   time.Time `json:"generated_at"`
	DurationMs    int64     `json:"duration_ms"`
	ConfigID      string    `json:"config_id"`
	ConfigVersion string    `json:"config_version"`
	ConfigHash    string    `json:"config_hash"`

	PortfolioValue    float64            `json:"portfolio_value"`
	PeriodDays        int                `json:"period_days"`
	VaRMethod         risk.VaRMethod     `json:"var_method"`
	TargetProfile     string             `json:"target_profile"`
	Weights           map[string]float64 `json:"weights"`
	MaxPositionWeight float64            `json:"max_position_weight"`
	MaxPositionTicker string             `json:"max_position_ticker"`

	Risk            *risk.RiskMetricsSummary              `json:"risk,omitempty"`
	VaR             *risk.VaRResult                       `json:"var,omitempty"`        // 벤치마크 없을 때 단독 계산
	Volatility      *risk.VolatilityResult                `json:"volatility,omitempty"` // 벤치마크 없을 때 단독 계산
	Correlation     *correlation.CorrelationMatrix        `json:"correlation,omitempty"`
	Diversification *diversification.DiversificationScore `json:"diversification,omitempty"`
	SectorExposure  *sector.Exposure                      `json:"sector_exposure,omitempty"`
	Rebalance       *sector.RebalancePlan                 `json:"rebalance,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
}

// VaRMetrics 리포트의 VaR 결과 (요약 또는 단독 계산)
func (r *AnalysisReport) VaRMetrics() (risk.VaRResult, bool) {
	switch {
	case r.Risk != nil:
		return r.Risk.VaR, true
	case r.VaR != nil:
		return *r.VaR, true
	default:
		return risk.VaRResult{}, false
	}
}

// AnnualVolatility 리포트의 연환산 변동성
func (r *AnalysisReport) AnnualVolatility() (float64, bool) {
	switch {
	case r.Risk != nil:
		return r.Risk.Volatility.AnnualizedVolatility, true
	case r.Volatility != nil:
		return r.Volatility.AnnualizedVolatility, true
	default:
		return 0, false
	}
}

// Analyzer 포트폴리오 단위 리스크 분석 (계산기 조합 + 로깅)
type Analyzer struct {
	cfg        *riskconfig.Config
	hash       string
	components *Components
	logger     *logger.Logger
}

// NewAnalyzer 새 분석기 생성
// workers > 0 이면 설정의 상관행렬 worker 수를 덮어씀
func NewAnalyzer(cfg *riskconfig.Config, workers int, log *logger.Logger, opts ...Option) (*Analyzer, error) {
	log = logger.OrNop(log)
	hash, err := riskconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash risk config: %w", err)
	}
	components, err := NewComponents(cfg, workers, opts...)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		cfg:        cfg,
		hash:       hash,
		components: components,
		logger:     log.WithComponent("portfolio"),
	}, nil
}

// Components 조립된 계산기
func (a *Analyzer) Components() *Components {
	return a.components
}

// Config 사용 중인 리스크 설정
func (a *Analyzer) Config() *riskconfig.Config {
	return a.cfg
}

// ConfigHash 사용 중인 설정 해시
func (a *Analyzer) ConfigHash() string {
	return a.hash
}

// Analyze 전체 분석 실행
// 입력 계약 위반은 에러, 데이터 부족/퇴화 입력은 섹션 생략 + 경고
func (a *Analyzer) Analyze(ctx context.Context, req contracts.AnalysisRequest) (*AnalysisReport, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	method, err := risk.ParseVaRMethod(req.VaRMethod)
	if err != nil {
		return nil, err
	}
	if method == "" {
		method, _ = risk.ParseVaRMethod(a.cfg.VaR.DefaultMethod)
	}
	profile := strings.ToLower(strings.TrimSpace(req.TargetProfile))
	if profile == "" {
		profile = DefaultProfile
	}
	if !slices.Contains(a.components.Sectors.Profiles(), profile) {
		return nil, fmt.Errorf("%w: unknown target_profile %q", contracts.ErrInvalidInput, req.TargetProfile)
	}
	periodDays := req.PeriodDays
	if periodDays == 0 {
		periodDays = a.components.DefaultPeriodDays
	}

	positions := a.components.Sectors.Canonicalize(req.ResolvedPositions())
	weights, err := contracts.Weights(positions)
	if err != nil {
		return nil, err
	}
	value := req.EffectiveValue()

	report := &AnalysisReport{
		RunID:          uuid.NewString(),
		GeneratedAt:    start.UTC(),
		ConfigID:       a.cfg.Meta.ConfigID,
		ConfigVersion:  a.cfg.Meta.Version,
		ConfigHash:     a.hash,
		PortfolioValue: value,
		PeriodDays:     periodDays,
		VaRMethod:      method,
		TargetProfile:  profile,
		Weights:        weights,
	}
	report.MaxPositionTicker, report.MaxPositionWeight = largest(weights)

	returns := truncate(req.Returns, periodDays)
	benchmark := req.BenchmarkReturns
	if len(benchmark) > periodDays && periodDays > 0 {
		benchmark = benchmark[len(benchmark)-periodDays:]
	}

	var (
		mu       sync.Mutex
		warnings []string
	)
	// skip 데이터 부족은 경고로 남기고 계속, 그 외 에러는 전파
	skip := func(section string, err error) error {
		if errors.Is(err, contracts.ErrInsufficientData) || errors.Is(err, contracts.ErrDegenerateInput) {
			mu.Lock()
			warnings = append(warnings, fmt.Sprintf("%s skipped: %v", section, err))
			mu.Unlock()
			return nil
		}
		return fmt.Errorf("%s: %w", section, err)
	}

	// 1. 포트폴리오 수익률 + 상관행렬 (분산 점수 입력)
	portfolioReturns, err := risk.PortfolioReturns(weights, returns)
	if err != nil {
		if err := skip("risk", err); err != nil {
			return nil, err
		}
	}

	var avgCorr *float64
	if series := seriesFor(weights, returns); len(series) >= 2 {
		engine := a.components.CorrelationEngine(marketdata.NewMemorySource())
		m, err := engine.MatrixFromSeries(ctx, series, periodDays)
		if err != nil {
			if err := skip("correlation", err); err != nil {
				return nil, err
			}
		} else {
			report.Correlation = m
			avgCorr = correlation.AverageCorrelation(m)
		}
	}

	// 2. 독립 섹션 병렬 실행
	g, gctx := errgroup.WithContext(ctx)

	if portfolioReturns != nil {
		g.Go(func() error {
			return a.riskSection(gctx, report, portfolioReturns, benchmark, value, method, req.Scenarios, skip)
		})
	}

	g.Go(func() error {
		score, err := a.components.Diversification.Score(diversification.ScoreInput{
			Positions:      positions,
			AvgCorrelation: avgCorr,
		})
		if err != nil {
			return skip("diversification", err)
		}
		report.Diversification = &score
		return nil
	})

	g.Go(func() error {
		exposure, err := a.components.Sectors.Exposure(positions)
		if err != nil {
			return skip("sectors", err)
		}
		plan, err := a.components.Sectors.Rebalance(exposure, profile)
		if err != nil {
			return skip("rebalance", err)
		}
		report.SectorExposure = exposure
		report.Rebalance = plan
		return nil
	})

	if err := g.Wait(); err != nil {
		a.logger.WithError(err).WithField("positions", len(weights)).Warn("Analysis failed")
		return nil, err
	}

	slices.Sort(warnings)
	report.Warnings = warnings
	report.DurationMs = time.Since(start).Milliseconds()

	fields := map[string]interface{}{
		"positions":   len(weights),
		"with_prices": len(returns),
		"method":      string(method),
		"profile":     profile,
		"warnings":    len(warnings),
		"duration":    time.Since(start).String(),
	}
	if report.Risk != nil {
		fields["risk_score"] = report.Risk.RiskScore
		fields["risk_level"] = string(report.Risk.RiskLevel)
	}
	a.logger.WithRunID(report.RunID).WithFields(fields).Info("Portfolio analysis completed")

	return report, nil
}

// riskSection 벤치마크(요청 또는 기본값)가 있으면 종합 요약
// 요약이 데이터 부족/퇴화로 실패하거나 벤치마크가 없으면 VaR/변동성만 단독 계산
func (a *Analyzer) riskSection(
	ctx context.Context,
	report *AnalysisReport,
	portfolioReturns, benchmark []float64,
	value float64,
	method risk.VaRMethod,
	scenarios []string,
	skip func(string, error) error,
) error {
	var summaryErr error
	if len(benchmark) > 0 || a.components.Beta.HasDefaultBenchmark() {
		summary, err := a.components.Aggregator.Summarize(ctx, risk.SummaryInput{
			PortfolioReturns: portfolioReturns,
			BenchmarkReturns: benchmark,
			PortfolioValue:   value,
			VaRMethod:        method,
			ScenarioIDs:      scenarios,
		})
		if err == nil {
			report.Risk = &summary
			return nil
		}
		summaryErr = err
	} else {
		summaryErr = fmt.Errorf("%w: benchmark_returns not supplied, beta and stress tests omitted",
			contracts.ErrInsufficientData)
	}
	if err := skip("risk summary", summaryErr); err != nil {
		return err
	}

	if v, err := a.components.VaR.Calculate(portfolioReturns, value, method); err != nil {
		if err := skip("var", err); err != nil {
			return err
		}
	} else {
		report.VaR = &v
	}
	if vol, err := a.components.Volatility.Analyze(portfolioReturns, value); err != nil {
		if err := skip("volatility", err); err != nil {
			return err
		}
	} else {
		report.Volatility = &vol
	}
	return nil
}

// truncate 종목별 최근 days개 수익률
func truncate(returns map[string][]float64, days int) map[string][]float64 {
	out := make(map[string][]float64, len(returns))
	for ticker, values := range returns {
		if days > 0 && len(values) > days {
			values = values[len(values)-days:]
		}
		out[ticker] = values
	}
	return out
}

// seriesFor 비중 > 0 이고 수익률이 있는 종목의 시계열 (티커 순)
func seriesFor(weights map[string]float64, returns map[string][]float64) []contracts.ReturnSeries {
	var out []contracts.ReturnSeries
	for _, ticker := range slices.Sorted(maps.Keys(weights)) {
		if values := returns[ticker]; weights[ticker] > 0 && len(values) > 0 {
			out = append(out, contracts.NewReturnSeries(ticker, values))
		}
	}
	return out
}

// largest 최대 비중 종목
func largest(weights map[string]float64) (string, float64) {
	var ticker string
	var weight float64
	for _, t := range slices.Sorted(maps.Keys(weights)) {
		if w := weights[t]; w > weight {
			ticker, weight = t, w
		}
	}
	return ticker, weight
}
