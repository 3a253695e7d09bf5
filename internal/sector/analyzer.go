package sector

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/wonny/maverick/backend/internal/contracts"
)

// =============================================================================
// Thresholds (고정 규약)
// =============================================================================

const (
	// DeviationThreshold ±2pp 초과 시 overweight/underweight
	DeviationThreshold = 0.02
	// MaterialityThreshold 벤치마크 비중이 이보다 크고 보유 0이면 missing
	MaterialityThreshold = 0.03
	// RebalanceBand ±1pp 이내면 hold
	RebalanceBand = 0.01
	// HighPriorityChange 5pp 초과 변경은 high
	HighPriorityChange = 0.05
	// MediumPriorityChange 2pp 초과 변경은 medium
	MediumPriorityChange = 0.02

	tableTolerance = 0.005
)

// Status 섹터 편차 상태
type Status string

const (
	StatusOverweight  Status = "overweight"
	StatusUnderweight Status = "underweight"
	StatusNeutral     Status = "neutral"
	StatusMissing     Status = "missing"
)

// Action 리밸런싱 동작
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Priority 리밸런싱 우선순위
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var priorityRank = map[Priority]int{PriorityHigh: 0, PriorityMedium: 1, PriorityLow: 2}

// =============================================================================
// Config
// =============================================================================

// Config 섹터 분석 설정
// Profiles: 성향 → 목표 섹터 비중 (테이블 추가만으로 성향 추가)
type Config struct {
	Benchmark map[string]float64
	Aliases   map[string]string
	Profiles  map[string]map[string]float64
}

// =============================================================================
// Result Types
// =============================================================================

// ExposureItem 섹터별 비중과 벤치마크 편차
// ⭐ 계약: Deviation = Weight - BenchmarkWeight
type ExposureItem struct {
	Sector          string   `json:"sector"`
	Weight          float64  `json:"weight"`
	BenchmarkWeight float64  `json:"benchmark_weight"`
	Deviation       float64  `json:"deviation"`
	Status          Status   `json:"status"`
	Value           float64  `json:"value"`
	Tickers         []string `json:"tickers,omitempty"`
}

// Exposure 포트폴리오 섹터 노출
// 섹터 정보 없는 포지션은 어느 섹터에도 합산하지 않고 별도 집계
type Exposure struct {
	Items                []ExposureItem `json:"items"`
	TotalValue           float64        `json:"total_value"`
	ClassifiedWeight     float64        `json:"classified_weight"` // Σ Items.Weight (<= 1)
	MissingDataPositions []string       `json:"missing_data_positions,omitempty"`
	MissingDataWeight    float64        `json:"missing_data_weight"`
}

// Item 섹터 항목 조회
func (e *Exposure) Item(sector string) (ExposureItem, bool) {
	for _, it := range e.Items {
		if it.Sector == sector {
			return it, true
		}
	}
	return ExposureItem{}, false
}

// ByStatus 상태별 섹터 목록
func (e *Exposure) ByStatus(status Status) []string {
	var out []string
	for _, it := range e.Items {
		if it.Status == status {
			out = append(out, it.Sector)
		}
	}
	return out
}

// Suggestion 섹터 리밸런싱 제안
// ⭐ 계약: ChangeNeeded = TargetWeight - CurrentWeight
type Suggestion struct {
	Sector        string   `json:"sector"`
	CurrentWeight float64  `json:"current_weight"`
	TargetWeight  float64  `json:"target_weight"`
	Action        Action   `json:"action"`
	ChangeNeeded  float64  `json:"change_needed"`
	ChangeAmount  float64  `json:"change_amount"`
	Priority      Priority `json:"priority"`
}

// RebalancePlan 성향별 리밸런싱 계획 (우선순위, 변경 크기 순)
type RebalancePlan struct {
	Profile     string       `json:"profile"`
	TotalValue  float64      `json:"total_value"`
	Suggestions []Suggestion `json:"suggestions"`
}

// =============================================================================
// Analyzer
// =============================================================================

// Analyzer 섹터 노출 분석기
type Analyzer struct {
	benchmark map[string]float64
	aliases   map[string]string // 소문자 별칭 → 표준명
	profiles  map[string]map[string]float64
}

// NewAnalyzer 새 섹터 분석기 생성
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := validateTable("benchmark", cfg.Benchmark); err != nil {
		return nil, err
	}
	for name, table := range cfg.Profiles {
		if err := validateTable("profile "+name, table); err != nil {
			return nil, err
		}
	}

	a := &Analyzer{
		benchmark: maps.Clone(cfg.Benchmark),
		aliases:   make(map[string]string, len(cfg.Aliases)+len(cfg.Benchmark)),
		profiles:  make(map[string]map[string]float64, len(cfg.Profiles)),
	}
	for sector := range cfg.Benchmark {
		a.aliases[strings.ToLower(sector)] = sector
	}
	for alias, sector := range cfg.Aliases {
		a.aliases[strings.ToLower(strings.TrimSpace(alias))] = sector
	}
	// 목표 테이블도 별칭을 표준 섹터명으로 정규화
	for name, table := range cfg.Profiles {
		profile := make(map[string]float64, len(table))
		for sector, w := range table {
			profile[a.Canonical(sector)] += w
		}
		a.profiles[strings.ToLower(strings.TrimSpace(name))] = profile
	}
	return a, nil
}

// Canonical 별칭 → 표준 섹터명 (모르는 이름은 공백만 정리)
func (a *Analyzer) Canonical(sector string) string {
	s := strings.TrimSpace(sector)
	if canonical, ok := a.aliases[strings.ToLower(s)]; ok {
		return canonical
	}
	return s
}

// Canonicalize 포지션 섹터를 표준명으로 바꾼 복사본
func (a *Analyzer) Canonicalize(positions []contracts.Position) []contracts.Position {
	out := make([]contracts.Position, len(positions))
	for i, p := range positions {
		p.Sector = a.Canonical(p.Sector)
		out[i] = p
	}
	return out
}

// Profiles 등록된 성향 목록
func (a *Analyzer) Profiles() []string {
	return slices.Sorted(maps.Keys(a.profiles))
}

// Benchmark 벤치마크 비중 복사본
func (a *Analyzer) Benchmark() map[string]float64 {
	return maps.Clone(a.benchmark)
}

// Exposure 섹터별 비중과 벤치마크 대비 상태
func (a *Analyzer) Exposure(positions []contracts.Position) (*Exposure, error) {
	if err := contracts.ValidatePositions(positions); err != nil {
		return nil, err
	}

	total := contracts.TotalValue(positions)
	values := make(map[string]float64)
	tickers := make(map[string][]string)
	out := &Exposure{TotalValue: total}

	for _, p := range positions {
		if !p.HasSector() {
			if p.MarketValue > 0 && !slices.Contains(out.MissingDataPositions, p.Ticker) {
				out.MissingDataPositions = append(out.MissingDataPositions, p.Ticker)
			}
			out.MissingDataWeight += p.MarketValue / total
			continue
		}
		sector := a.Canonical(p.Sector)
		values[sector] += p.MarketValue
		if p.MarketValue > 0 && !slices.Contains(tickers[sector], p.Ticker) {
			tickers[sector] = append(tickers[sector], p.Ticker)
		}
	}

	sectors := make(map[string]bool, len(values)+len(a.benchmark))
	for s := range values {
		sectors[s] = true
	}
	for s := range a.benchmark {
		sectors[s] = true
	}

	for sector := range sectors {
		weight := values[sector] / total
		bench := a.benchmark[sector]
		out.Items = append(out.Items, ExposureItem{
			Sector:          sector,
			Weight:          weight,
			BenchmarkWeight: bench,
			Deviation:       weight - bench,
			Status:          classify(weight, bench),
			Value:           values[sector],
			Tickers:         tickers[sector],
		})
	}

	slices.SortFunc(out.Items, func(x, y ExposureItem) int {
		if c := cmp.Compare(y.Weight, x.Weight); c != 0 {
			return c
		}
		if c := cmp.Compare(y.BenchmarkWeight, x.BenchmarkWeight); c != 0 {
			return c
		}
		return cmp.Compare(x.Sector, y.Sector)
	})
	for _, it := range out.Items {
		out.ClassifiedWeight += it.Weight
	}
	return out, nil
}

// classify missing → overweight → underweight → neutral 순으로 판정
func classify(weight, bench float64) Status {
	deviation := weight - bench
	switch {
	case weight == 0 && bench > MaterialityThreshold:
		return StatusMissing
	case deviation > DeviationThreshold:
		return StatusOverweight
	case deviation < -DeviationThreshold && bench > 0:
		return StatusUnderweight
	default:
		return StatusNeutral
	}
}

// Rebalance 성향별 목표 비중 대비 리밸런싱 제안
// 목표 테이블에 없는 보유 섹터는 목표 0 (sell)
func (a *Analyzer) Rebalance(exposure *Exposure, profile string) (*RebalancePlan, error) {
	if exposure == nil {
		return nil, fmt.Errorf("%w: nil exposure", contracts.ErrInvalidInput)
	}
	key := strings.ToLower(strings.TrimSpace(profile))
	targets, ok := a.profiles[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown target profile %q (known: %s)",
			contracts.ErrInvalidInput, profile, strings.Join(a.Profiles(), ", "))
	}

	current := make(map[string]float64, len(exposure.Items))
	for _, it := range exposure.Items {
		current[it.Sector] = it.Weight
	}

	sectors := make(map[string]bool, len(targets)+len(current))
	for s := range targets {
		sectors[s] = true
	}
	for s, w := range current {
		if w > 0 {
			sectors[s] = true
		}
	}

	plan := &RebalancePlan{Profile: key, TotalValue: exposure.TotalValue}
	for sector := range sectors {
		cur, target := current[sector], targets[sector]
		change := target - cur
		plan.Suggestions = append(plan.Suggestions, Suggestion{
			Sector:        sector,
			CurrentWeight: cur,
			TargetWeight:  target,
			Action:        actionFor(cur, target),
			ChangeNeeded:  change,
			ChangeAmount:  change * exposure.TotalValue,
			Priority:      priorityFor(change),
		})
	}

	slices.SortFunc(plan.Suggestions, func(x, y Suggestion) int {
		if c := cmp.Compare(priorityRank[x.Priority], priorityRank[y.Priority]); c != 0 {
			return c
		}
		if c := cmp.Compare(math.Abs(y.ChangeNeeded), math.Abs(x.ChangeNeeded)); c != 0 {
			return c
		}
		return cmp.Compare(x.Sector, y.Sector)
	})
	return plan, nil
}

func actionFor(current, target float64) Action {
	switch {
	case current < target-RebalanceBand:
		return ActionBuy
	case current > target+RebalanceBand:
		return ActionSell
	default:
		return ActionHold
	}
}

func priorityFor(change float64) Priority {
	switch a := math.Abs(change); {
	case a > HighPriorityChange:
		return PriorityHigh
	case a > MediumPriorityChange:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func validateTable(name string, table map[string]float64) error {
	if len(table) == 0 {
		return fmt.Errorf("%w: %s table is empty", contracts.ErrInvalidInput, name)
	}
	var sum float64
	for sector, w := range table {
		if w < 0 || w > 1 || math.IsNaN(w) {
			return fmt.Errorf("%w: %s weight for %s = %v", contracts.ErrInvalidInput, name, sector, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > tableTolerance {
		return fmt.Errorf("%w: %s weights sum to %.4f, want 1", contracts.ErrInvalidInput, name, sum)
	}
	return nil
}
