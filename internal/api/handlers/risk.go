package handlers

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/wonny/maverick/backend/internal/contracts"
	"github.com/wonny/maverick/backend/internal/correlation"
	"github.com/wonny/maverick/backend/internal/diversification"
	"github.com/wonny/maverick/backend/internal/marketdata"
	"github.com/wonny/maverick/backend/internal/portfolio"
	"github.com/wonny/maverick/backend/internal/risk"
	"github.com/wonny/maverick/backend/internal/scheduler/jobs"
	"github.com/wonny/maverick/backend/pkg/logger"
)

// WatchReporter 마지막 감시 결과 제공자
type WatchReporter interface {
	LastReport() (*jobs.WatchReport, bool)
}

// RiskHandler handles risk analytics API endpoints
// ⭐ SSOT: 리스크 API 핸들러는 이 구조체에서만
type RiskHandler struct {
	analyzer   *portfolio.Analyzer
	components *portfolio.Components
	source     contracts.ReturnSource
	watch      WatchReporter
	logger     *logger.Logger
}

// NewRiskHandler creates a new risk handler
// source: 인라인 수익률이 없을 때 상관계수 엔드포인트가 사용 (nil 허용)
// watch: 감시 작업 (nil이면 /api/risk/watch 404)
func NewRiskHandler(
	analyzer *portfolio.Analyzer,
	source contracts.ReturnSource,
	watch WatchReporter,
	log *logger.Logger,
) *RiskHandler {
	log = logger.OrNop(log)
	if source == nil {
		source = marketdata.NewMemorySource()
	}
	return &RiskHandler{
		analyzer:   analyzer,
		components: analyzer.Components(),
		source:     source,
		watch:      watch,
		logger:     log.WithComponent("api"),
	}
}

// =============================================================================
// Request Types
// =============================================================================

// VaRRequest POST /api/risk/var
type VaRRequest struct {
	Returns        []float64 `json:"returns"`
	PortfolioValue float64   `json:"portfolio_value"`
	Method         string    `json:"method"`
}

// BetaRequest POST /api/risk/beta
type BetaRequest struct {
	PortfolioReturns []float64 `json:"portfolio_returns"`
	BenchmarkReturns []float64 `json:"benchmark_returns"`
}

// VolatilityRequest POST /api/risk/volatility
type VolatilityRequest struct {
	Returns        []float64 `json:"returns"`
	PortfolioValue float64   `json:"portfolio_value"`
}

// CustomScenario 사용자 정의 시장 하락
type CustomScenario struct {
	MarketDropPercent float64 `json:"market_drop_percent"` // 양수 퍼센트 (20 = 20% 하락)
	Name              string  `json:"name"`
}

// StressRequest POST /api/risk/stress
// Custom이 있으면 사용자 시나리오 1건, 없으면 이름 있는 시나리오 (Scenarios 비면 전체)
type StressRequest struct {
	Beta           float64         `json:"beta"`
	PortfolioValue float64         `json:"portfolio_value"`
	Scenarios      []string        `json:"scenarios,omitempty"`
	Custom         *CustomScenario `json:"custom,omitempty"`
}

// CorrelationRequest 상관계수 엔드포인트 공용 요청
// Returns가 비어 있으면 설정된 ReturnSource에서 조회
type CorrelationRequest struct {
	Tickers    []string             `json:"tickers"`
	Returns    map[string][]float64 `json:"returns,omitempty"`
	PeriodDays int                  `json:"period_days"`
	Window     int                  `json:"window,omitempty"`     // rolling
	TotalDays  int                  `json:"total_days,omitempty"` // rolling
	Periods    []int                `json:"periods,omitempty"`    // multi-period
	Threshold  float64              `json:"threshold,omitempty"`  // matrix high pairs
}

// DiversificationRequest POST /api/risk/diversification
// AvgCorrelation이 없고 Returns가 있으면 상관행렬 평균으로 계산
type DiversificationRequest struct {
	Positions      []contracts.Position `json:"positions"`
	SectorMap      map[string]string    `json:"sector_map,omitempty"`
	AvgCorrelation *float64             `json:"avg_correlation,omitempty"`
	Returns        map[string][]float64 `json:"returns,omitempty"`
	PeriodDays     int                  `json:"period_days,omitempty"`
}

// SectorRequest POST /api/risk/sectors
type SectorRequest struct {
	Positions     []contracts.Position `json:"positions"`
	SectorMap     map[string]string    `json:"sector_map,omitempty"`
	TargetProfile string               `json:"target_profile"`
}

// SummaryRequest POST /api/risk/summary
type SummaryRequest struct {
	PortfolioReturns []float64 `json:"portfolio_returns"`
	BenchmarkReturns []float64 `json:"benchmark_returns"`
	PortfolioValue   float64   `json:"portfolio_value"`
	VaRMethod        string    `json:"var_method"`
	Scenarios        []string  `json:"scenarios,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

// GetScenarios lists named stress scenarios
// GET /api/risk/scenarios
func (h *RiskHandler) GetScenarios(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scenarios": h.components.Stress.Scenarios(),
	})
}

// CalculateVaR computes VaR/CVaR
// POST /api/risk/var
func (h *RiskHandler) CalculateVaR(w http.ResponseWriter, r *http.Request) {
	var req VaRRequest
	if err := decode(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}
	method, err := risk.ParseVaRMethod(req.Method)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	result, err := h.components.VaR.Calculate(req.Returns, req.PortfolioValue, method)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// CalculateBeta regresses portfolio on benchmark
// POST /api/risk/beta
func (h *RiskHandler) CalculateBeta(w http.ResponseWriter, r *http.Request) {
	var req BetaRequest
	if err := decode(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}

	result, err := h.components.Beta.Analyze(req.PortfolioReturns, req.BenchmarkReturns)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// AnalyzeVolatility computes volatility statistics
// POST /api/risk/volatility
func (h *RiskHandler) AnalyzeVolatility(w http.ResponseWriter, r *http.Request) {
	var req VolatilityRequest
	if err := decode(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}

	result, err := h.components.Volatility.Analyze(req.Returns, req.PortfolioValue)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// RunStress applies named or custom scenarios
// POST /api/risk/stress
func (h *RiskHandler) RunStress(w http.ResponseWriter, r *http.Request) {
	var req StressRequest
	if err := decode(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}

	if req.Custom != nil {
		result, err := h.components.Stress.Custom(req.Beta, req.PortfolioValue, req.Custom.MarketDropPercent, req.Custom.Name)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"results": []risk.StressTestResult{result},
		})
		return
	}

	results, err := h.components.Stress.Run(req.Beta, req.PortfolioValue, req.Scenarios...)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// PairwiseCorrelation correlates two tickers
// POST /api/risk/correlation/pairwise
func (h *RiskHandler) PairwiseCorrelation(w http.ResponseWriter, r *http.Request) {
	req, source, err := h.correlationInput(r, 2)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	ctx := r.Context()

	days := h.periodOrDefault(req.PeriodDays)
	a, err := source.Returns(ctx, req.Tickers[0], days)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	b, err := source.Returns(ctx, req.Tickers[1], days)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	c, err := correlation.Pairwise(a, b)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	th := h.components.CorrelationThresholds
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker_a":       req.Tickers[0],
		"ticker_b":       req.Tickers[1],
		"correlation":    c,
		"strength":       th.Strength(c),
		"direction":      correlation.Direction(c),
		"interpretation": th.Interpret(c),
		"data_points":    contracts.Align(a, b).Len(),
	})
}

// CorrelationMatrix builds the pairwise matrix
// POST /api/risk/correlation/matrix
func (h *RiskHandler) CorrelationMatrix(w http.ResponseWriter, r *http.Request) {
	req, source, err := h.correlationInput(r, 0)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	m, err := h.components.CorrelationEngine(source).Matrix(r.Context(), req.Tickers, h.periodOrDefault(req.PeriodDays))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = h.components.CorrelationThresholds.High
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"matrix":     m,
		"high_pairs": m.HighPairs(threshold),
	})
}

// RollingCorrelation computes windowed correlation
// POST /api/risk/correlation/rolling
func (h *RiskHandler) RollingCorrelation(w http.ResponseWriter, r *http.Request) {
	req, source, err := h.correlationInput(r, 2)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	window := req.Window
	if window == 0 {
		window = 30
	}

	seq, err := h.components.CorrelationEngine(source).Rolling(r.Context(), req.Tickers[0], req.Tickers[1], window, req.TotalDays)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	points := slices.Collect(seq)
	if points == nil {
		points = []correlation.RollingPoint{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker_a": req.Tickers[0],
		"ticker_b": req.Tickers[1],
		"window":   window,
		"points":   points,
	})
}

// MultiPeriodCorrelation compares correlation across lookbacks
// POST /api/risk/correlation/multi-period
func (h *RiskHandler) MultiPeriodCorrelation(w http.ResponseWriter, r *http.Request) {
	req, source, err := h.correlationInput(r, 2)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	// 구간 생략 시 엔진의 설정 구간 사용
	result, err := h.components.CorrelationEngine(source).MultiPeriod(r.Context(), req.Tickers[0], req.Tickers[1], req.Periods)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ScoreDiversification scores portfolio composition
// POST /api/risk/diversification
func (h *RiskHandler) ScoreDiversification(w http.ResponseWriter, r *http.Request) {
	var req DiversificationRequest
	if err := decode(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if err := contracts.ValidatePositions(req.Positions); err != nil {
		h.respondErr(w, r, err)
		return
	}
	positions := h.components.Sectors.Canonicalize(
		contracts.AnalysisRequest{Positions: req.Positions, SectorMap: req.SectorMap}.ResolvedPositions())

	avg := req.AvgCorrelation
	if avg == nil && len(req.Returns) >= 2 {
		m, err := h.matrixFromInline(r.Context(), req.Returns, req.PeriodDays)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		avg = correlation.AverageCorrelation(m)
	}

	score, err := h.components.Diversification.Score(diversification.ScoreInput{
		Positions:      positions,
		AvgCorrelation: avg,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, score)
}

// AnalyzeSectors computes sector exposure and rebalance plan
// POST /api/risk/sectors
func (h *RiskHandler) AnalyzeSectors(w http.ResponseWriter, r *http.Request) {
	var req SectorRequest
	if err := decode(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}
	positions := h.components.Sectors.Canonicalize(
		contracts.AnalysisRequest{Positions: req.Positions, SectorMap: req.SectorMap}.ResolvedPositions())

	exposure, err := h.components.Sectors.Exposure(positions)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	profile := strings.ToLower(strings.TrimSpace(req.TargetProfile))
	if profile == "" {
		profile = portfolio.DefaultProfile
	}
	plan, err := h.components.Sectors.Rebalance(exposure, profile)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"exposure":  exposure,
		"rebalance": plan,
	})
}

// Summarize aggregates beta, volatility, VaR and stress tests
// POST /api/risk/summary
func (h *RiskHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := decode(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}
	method, err := risk.ParseVaRMethod(req.VaRMethod)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	summary, err := h.components.Aggregator.Summarize(r.Context(), risk.SummaryInput{
		PortfolioReturns: req.PortfolioReturns,
		BenchmarkReturns: req.BenchmarkReturns,
		PortfolioValue:   req.PortfolioValue,
		VaRMethod:        method,
		ScenarioIDs:      req.Scenarios,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Analyze runs the full portfolio analysis
// POST /api/risk/analyze
func (h *RiskHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req contracts.AnalysisRequest
	if err := decode(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}

	report, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// GetWatch returns the last scheduled watch report
// GET /api/risk/watch
func (h *RiskHandler) GetWatch(w http.ResponseWriter, r *http.Request) {
	if h.watch == nil {
		respondError(w, http.StatusNotFound, "Risk watch is not configured")
		return
	}
	report, ok := h.watch.LastReport()
	if !ok {
		respondError(w, http.StatusNotFound, "No watch report yet")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// =============================================================================
// Helpers
// =============================================================================

// correlationInput 요청 해석 + 수익률 제공자 선택
// want > 0 이면 티커 수가 정확히 want개여야 함
func (h *RiskHandler) correlationInput(r *http.Request, want int) (CorrelationRequest, contracts.ReturnSource, error) {
	var req CorrelationRequest
	if err := decode(r, &req); err != nil {
		return req, nil, err
	}
	if want > 0 && len(req.Tickers) != want {
		return req, nil, fmt.Errorf("%w: expected %d tickers, got %d", contracts.ErrInvalidInput, want, len(req.Tickers))
	}
	if req.PeriodDays < 0 {
		return req, nil, fmt.Errorf("%w: period_days %d < 0", contracts.ErrInvalidInput, req.PeriodDays)
	}
	if len(req.Returns) > 0 {
		return req, marketdata.FromReturns(req.Returns), nil
	}
	return req, h.source, nil
}

// matrixFromInline 인라인 수익률로 상관행렬 계산
func (h *RiskHandler) matrixFromInline(ctx context.Context, returns map[string][]float64, periodDays int) (*correlation.CorrelationMatrix, error) {
	tickers := make([]string, 0, len(returns))
	for t := range returns {
		tickers = append(tickers, t)
	}
	slices.Sort(tickers)
	return h.components.CorrelationEngine(marketdata.FromReturns(returns)).Matrix(ctx, tickers, h.periodOrDefault(periodDays))
}

func (h *RiskHandler) periodOrDefault(days int) int {
	if days <= 0 {
		return h.components.DefaultPeriodDays
	}
	return days
}

var _ WatchReporter = (*jobs.RiskWatchJob)(nil)
