package correlation

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"math"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/wonny/maverick/backend/internal/contracts"
)

// =============================================================================
// Thresholds & Defaults
// =============================================================================

const defaultWorkers = 8

// Thresholds 상관 강도 판정 기준 (|corr| 하한)
// ⭐ 계약: 0 < Low < High <= 1, 0 < Weak < Moderate < Strong < VeryStrong <= 1
type Thresholds struct {
	High float64 // 이상이면 high pair
	Low  float64 // 미만이면 low pair

	VeryStrong float64
	Strong     float64
	Moderate   float64
	Weak       float64
}

// DefaultThresholds 기본 판정 기준
func DefaultThresholds() Thresholds {
	return Thresholds{
		High:       0.7,
		Low:        0.3,
		VeryStrong: 0.8,
		Strong:     0.6,
		Moderate:   0.4,
		Weak:       0.2,
	}
}

// Validate 구간 순서 확인
func (t Thresholds) Validate() error {
	if !(t.Low > 0 && t.Low < t.High && t.High <= 1) {
		return fmt.Errorf("%w: thresholds need 0 < low < high <= 1, got low=%v high=%v",
			contracts.ErrInvalidInput, t.Low, t.High)
	}
	if !(t.Weak > 0 && t.Weak < t.Moderate && t.Moderate < t.Strong && t.Strong < t.VeryStrong && t.VeryStrong <= 1) {
		return fmt.Errorf("%w: strength bands must be increasing in (0, 1]", contracts.ErrInvalidInput)
	}
	return nil
}

// DefaultPeriods multi-period 기본 구간 (일)
func DefaultPeriods() []int {
	return []int{30, 90, 180, 252}
}

// =============================================================================
// Result Types
// =============================================================================

// CorrelationMatrix N×N 상관행렬
// ⭐ 계약: 대칭, 대각 = 1.0, 모든 값 [-1, 1], N = len(Tickers)
type CorrelationMatrix struct {
	Tickers    []string    `json:"tickers"`
	Matrix     [][]float64 `json:"matrix"`
	PeriodDays int         `json:"period_days"`
	DataPoints int         `json:"data_points"` // 쌍별 겹침 관측치 중 최소값
	Summary    Summary     `json:"summary"`

	sym *mat.SymDense
}

// Summary 대각 제외 요약 통계
type Summary struct {
	AvgCorrelation float64 `json:"avg_correlation"`
	MaxCorrelation float64 `json:"max_correlation"`
	MinCorrelation float64 `json:"min_correlation"`
	HighPairs      int     `json:"high_pairs"` // |corr| >= Thresholds.High
	LowPairs       int     `json:"low_pairs"`  // |corr| < Thresholds.Low
	PairCount      int     `json:"pair_count"`
}

// Pair 종목 쌍 상관계수
type Pair struct {
	TickerA     string  `json:"ticker_a"`
	TickerB     string  `json:"ticker_b"`
	Correlation float64 `json:"correlation"`
}

// At (i, j) 상관계수
func (m *CorrelationMatrix) At(i, j int) float64 {
	if m.sym != nil {
		return m.sym.At(i, j)
	}
	return m.Matrix[i][j]
}

// HighPairs |corr| >= threshold 인 쌍 (|corr| 내림차순)
func (m *CorrelationMatrix) HighPairs(threshold float64) []Pair {
	var pairs []Pair
	for i := range m.Tickers {
		for j := i + 1; j < len(m.Tickers); j++ {
			c := m.At(i, j)
			if math.Abs(c) >= threshold {
				pairs = append(pairs, Pair{TickerA: m.Tickers[i], TickerB: m.Tickers[j], Correlation: c})
			}
		}
	}
	slices.SortStableFunc(pairs, func(a, b Pair) int {
		return cmp.Compare(math.Abs(b.Correlation), math.Abs(a.Correlation))
	})
	return pairs
}

// RollingPoint rolling window 한 점
type RollingPoint struct {
	Index       int        `json:"index"` // window 마지막 관측치 위치
	Date        *time.Time `json:"date,omitempty"`
	Correlation float64    `json:"correlation"`
}

// PeriodCorrelation 구간별 상관계수
type PeriodCorrelation struct {
	PeriodDays     int     `json:"period_days"`
	Correlation    float64 `json:"correlation"`
	DataPoints     int     `json:"data_points"`
	Strength       string  `json:"strength"`
	Direction      string  `json:"direction"`
	Interpretation string  `json:"interpretation"`
}

// MultiPeriodResult 여러 구간 상관계수
type MultiPeriodResult struct {
	TickerA     string              `json:"ticker_a"`
	TickerB     string              `json:"ticker_b"`
	Periods     []PeriodCorrelation `json:"periods"`
	Unavailable []int               `json:"unavailable,omitempty"` // 데이터 부족 구간
}

// =============================================================================
// Engine
// =============================================================================

// Engine 상관계수 엔진
// 수익률은 ReturnSource에서 조회, 계산 자체는 순수 함수
type Engine struct {
	source     contracts.ReturnSource
	workers    int
	periods    []int
	thresholds Thresholds
}

// Option Engine 옵션
type Option func(*Engine)

// WithWorkers 행렬 계산 worker 수
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithPeriods multi-period 기본 구간
func WithPeriods(periods []int) Option {
	return func(e *Engine) {
		if len(periods) > 0 {
			e.periods = slices.Clone(periods)
		}
	}
}

// WithThresholds 강도 판정 기준 (검증은 호출자 책임)
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) {
		e.thresholds = t
	}
}

// NewEngine 새 상관계수 엔진 생성
func NewEngine(source contracts.ReturnSource, opts ...Option) *Engine {
	e := &Engine{
		source:     source,
		workers:    defaultWorkers,
		periods:    DefaultPeriods(),
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Thresholds 사용 중인 판정 기준
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Matrix 종목 목록의 상관행렬
// 중복 종목 제거 후 2개 미만이면 ErrInvalidInput
func (e *Engine) Matrix(ctx context.Context, tickers []string, periodDays int) (*CorrelationMatrix, error) {
	unique := dedupe(tickers)
	if len(unique) < 2 {
		return nil, fmt.Errorf("%w: correlation matrix needs >= 2 distinct tickers, got %d",
			contracts.ErrInvalidInput, len(unique))
	}

	series, err := e.load(ctx, unique, periodDays)
	if err != nil {
		return nil, err
	}
	return e.MatrixFromSeries(ctx, series, periodDays)
}

// MatrixFromSeries 이미 조회된 시계열로 상관행렬 계산
// 쌍별 계산은 worker pool에서 병렬 실행, 하나라도 실패하면 전체 실패
func (e *Engine) MatrixFromSeries(ctx context.Context, series []contracts.ReturnSeries, periodDays int) (*CorrelationMatrix, error) {
	series = dedupeSeries(series)
	n := len(series)
	if n < 2 {
		return nil, fmt.Errorf("%w: correlation matrix needs >= 2 distinct tickers, got %d",
			contracts.ErrInvalidInput, n)
	}
	for i := range series {
		series[i] = series[i].Tail(periodDays)
	}

	type cell struct {
		i, j   int
		corr   float64
		points int
	}
	cells := make([]cell, 0, n*(n-1)/2)
	for i := range n {
		for j := i + 1; j < n; j++ {
			cells = append(cells, cell{i: i, j: j})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for k := range cells {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := &cells[k]
			a, b := series[c.i], series[c.j]
			pair := contracts.Align(a, b)
			corr, err := alignedCorrelation(pair.A, pair.B, a.Ticker, b.Ticker)
			if err != nil {
				return err
			}
			c.corr = corr
			c.points = pair.Len()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sym := mat.NewSymDense(n, nil)
	for i := range n {
		sym.SetSym(i, i, 1.0)
	}
	dataPoints := math.MaxInt
	for _, c := range cells {
		sym.SetSym(c.i, c.j, c.corr)
		dataPoints = min(dataPoints, c.points)
	}

	tickers := make([]string, n)
	for i, s := range series {
		tickers[i] = s.Ticker
	}

	out := &CorrelationMatrix{
		Tickers:    tickers,
		Matrix:     toRows(sym),
		PeriodDays: periodDays,
		DataPoints: dataPoints,
		sym:        sym,
	}
	out.Summary = summarize(out, e.thresholds)
	return out, nil
}

// Rolling 두 종목의 rolling window 상관계수
// totalDays: 조회 구간 (0이면 전체)
func (e *Engine) Rolling(ctx context.Context, tickerA, tickerB string, window, totalDays int) (iter.Seq[RollingPoint], error) {
	if window < MinOverlap {
		return nil, fmt.Errorf("%w: window %d < %d", contracts.ErrInvalidInput, window, MinOverlap)
	}
	series, err := e.load(ctx, []string{tickerA, tickerB}, totalDays)
	if err != nil {
		return nil, err
	}
	return RollingSeries(series[0], series[1], window)
}

// RollingSeries 두 시계열의 rolling window 상관계수 시퀀스
// 지연 평가, 여러 번 순회 가능, window 내 분산 0이면 해당 점 생략
func RollingSeries(a, b contracts.ReturnSeries, window int) (iter.Seq[RollingPoint], error) {
	if window < MinOverlap {
		return nil, fmt.Errorf("%w: window %d < %d", contracts.ErrInvalidInput, window, MinOverlap)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	pair := contracts.Align(a, b)
	same := a.Ticker != "" && a.Ticker == b.Ticker

	return func(yield func(RollingPoint) bool) {
		for end := window; end <= pair.Len(); end++ {
			x, y := pair.A[end-window:end], pair.B[end-window:end]

			corr := 1.0
			if !same {
				c, err := alignedCorrelation(x, y, a.Ticker, b.Ticker)
				if err != nil {
					continue
				}
				corr = c
			}

			p := RollingPoint{Index: end - 1, Correlation: corr}
			if len(pair.Dates) > 0 {
				d := pair.Dates[end-1]
				p.Date = &d
			}
			if !yield(p) {
				return
			}
		}
	}, nil
}

// MultiPeriod 여러 구간의 상관계수와 해석
// 가장 긴 구간을 한 번 조회한 뒤 구간별로 잘라 계산
func (e *Engine) MultiPeriod(ctx context.Context, tickerA, tickerB string, periods []int) (*MultiPeriodResult, error) {
	if len(periods) == 0 {
		periods = e.periods
	}
	longest := 0
	for _, p := range periods {
		if p <= 0 {
			return nil, fmt.Errorf("%w: period %d <= 0", contracts.ErrInvalidInput, p)
		}
		longest = max(longest, p)
	}

	series, err := e.load(ctx, []string{tickerA, tickerB}, longest)
	if err != nil {
		return nil, err
	}
	return e.MultiPeriodSeries(series[0], series[1], periods)
}

// MultiPeriodSeries 조회된 시계열로 구간별 상관계수 계산
func (e *Engine) MultiPeriodSeries(a, b contracts.ReturnSeries, periods []int) (*MultiPeriodResult, error) {
	if len(periods) == 0 {
		periods = e.periods
	}
	out := &MultiPeriodResult{TickerA: a.Ticker, TickerB: b.Ticker}

	var lastErr error
	for _, p := range periods {
		ta, tb := a.Tail(p), b.Tail(p)
		corr, err := Pairwise(ta, tb)
		if err != nil {
			lastErr = err
			out.Unavailable = append(out.Unavailable, p)
			continue
		}
		out.Periods = append(out.Periods, PeriodCorrelation{
			PeriodDays:     p,
			Correlation:    corr,
			DataPoints:     contracts.Align(ta, tb).Len(),
			Strength:       e.thresholds.Strength(corr),
			Direction:      Direction(corr),
			Interpretation: e.thresholds.Interpret(corr),
		})
	}

	if len(out.Periods) == 0 {
		return nil, fmt.Errorf("%w: no period has enough data for %s/%s (last: %v)",
			contracts.ErrInsufficientData, a.Ticker, b.Ticker, lastErr)
	}
	return out, nil
}

// AverageCorrelation 상관행렬의 대각 제외 평균 (종목 1개 이하면 nil)
func AverageCorrelation(m *CorrelationMatrix) *float64 {
	if m == nil || len(m.Tickers) < 2 {
		return nil
	}
	avg := m.Summary.AvgCorrelation
	return &avg
}

// =============================================================================
// Helpers
// =============================================================================

func (e *Engine) load(ctx context.Context, tickers []string, days int) ([]contracts.ReturnSeries, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: no return source configured", contracts.ErrInvalidInput)
	}
	out := make([]contracts.ReturnSeries, len(tickers))
	for i, t := range tickers {
		s, err := e.source.Returns(ctx, t, days)
		if err != nil {
			return nil, fmt.Errorf("load returns %s: %w", t, err)
		}
		if s.Ticker == "" {
			s.Ticker = t
		}
		out[i] = s
	}
	return out, nil
}

func summarize(m *CorrelationMatrix, t Thresholds) Summary {
	s := Summary{MaxCorrelation: math.Inf(-1), MinCorrelation: math.Inf(1)}
	var sum float64
	for i := range m.Tickers {
		for j := i + 1; j < len(m.Tickers); j++ {
			c := m.At(i, j)
			sum += c
			s.PairCount++
			s.MaxCorrelation = math.Max(s.MaxCorrelation, c)
			s.MinCorrelation = math.Min(s.MinCorrelation, c)
			switch a := math.Abs(c); {
			case a >= t.High:
				s.HighPairs++
			case a < t.Low:
				s.LowPairs++
			}
		}
	}
	if s.PairCount == 0 {
		return Summary{}
	}
	s.AvgCorrelation = sum / float64(s.PairCount)
	return s
}

func toRows(sym *mat.SymDense) [][]float64 {
	n := sym.SymmetricDim()
	rows := make([][]float64, n)
	for i := range n {
		rows[i] = make([]float64, n)
		for j := range n {
			rows[i][j] = sym.At(i, j)
		}
	}
	return rows
}

func dedupe(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func dedupeSeries(series []contracts.ReturnSeries) []contracts.ReturnSeries {
	seen := make(map[string]bool, len(series))
	out := make([]contracts.ReturnSeries, 0, len(series))
	for _, s := range series {
		if s.Ticker != "" && seen[s.Ticker] {
			continue
		}
		seen[s.Ticker] = true
		out = append(out, s)
	}
	return out
}
