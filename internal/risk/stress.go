package risk

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/wonny/maverick/backend/internal/contracts"
)

// =============================================================================
// Stress Test (순수 계산)
// =============================================================================

// CustomScenarioID 사용자 정의 시나리오 ID
const CustomScenarioID = "custom"

// StressTestEngine 스트레스 시나리오 엔진
// 손실 = portfolio_beta × market_return (비선형/tail 보정 없음)
type StressTestEngine struct {
	scenarios    []Scenario
	index        map[string]int
	recoveryBand float64
}

// NewStressTestEngine 새 스트레스 엔진 생성
// recoveryBand: 사용자 정의 시나리오 회복기간 추정 시 유사 시나리오로 보는 market_return 차이
func NewStressTestEngine(scenarios []Scenario, recoveryBand float64) (*StressTestEngine, error) {
	e := &StressTestEngine{
		scenarios:    make([]Scenario, 0, len(scenarios)),
		index:        make(map[string]int, len(scenarios)),
		recoveryBand: recoveryBand,
	}
	for _, s := range scenarios {
		if s.ID == "" {
			return nil, fmt.Errorf("%w: scenario without id", contracts.ErrInvalidInput)
		}
		if _, dup := e.index[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate scenario id %q", contracts.ErrInvalidInput, s.ID)
		}
		if s.RecoveryDays != nil {
			days := *s.RecoveryDays
			s.RecoveryDays = &days
		}
		e.index[s.ID] = len(e.scenarios)
		e.scenarios = append(e.scenarios, s)
	}
	return e, nil
}

// Scenarios 등록된 시나리오 복사본
func (e *StressTestEngine) Scenarios() []Scenario {
	return slices.Clone(e.scenarios)
}

// Run 시나리오별 예상 손실 계산
// ids가 비어 있으면 전체 시나리오
// 반환: 손실이 큰 순서 (가장 음수가 results[0])
func (e *StressTestEngine) Run(beta, portfolioValue float64, ids ...string) ([]StressTestResult, error) {
	if err := validateStressInput(beta, portfolioValue); err != nil {
		return nil, err
	}

	selected := e.scenarios
	if len(ids) > 0 {
		selected = make([]Scenario, 0, len(ids))
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			i, ok := e.index[id]
			if !ok {
				return nil, fmt.Errorf("%w: unknown scenario %q", contracts.ErrInvalidInput, id)
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			selected = append(selected, e.scenarios[i])
		}
	}

	results := make([]StressTestResult, 0, len(selected))
	for _, s := range selected {
		results = append(results, applyScenario(s, beta, portfolioValue, false))
	}
	SortBySeverity(results)

	return results, nil
}

// Custom 사용자 정의 단일 시나리오
// marketDropPercent: 시장 하락률 (20 = -20%), 0 초과 100 이하
func (e *StressTestEngine) Custom(beta, portfolioValue, marketDropPercent float64, name string) (StressTestResult, error) {
	if math.IsNaN(marketDropPercent) || marketDropPercent <= 0 || marketDropPercent > 100 {
		return StressTestResult{}, fmt.Errorf("%w: market_drop_percent must be in (0, 100], got %v",
			contracts.ErrInvalidInput, marketDropPercent)
	}
	if err := validateStressInput(beta, portfolioValue); err != nil {
		return StressTestResult{}, err
	}

	marketReturn := -marketDropPercent / 100
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Custom %.1f%% market drop", marketDropPercent)
	}

	s := Scenario{
		ID:           CustomScenarioID,
		Name:         name,
		Description:  fmt.Sprintf("Ad-hoc scenario: market falls %.1f%%", marketDropPercent),
		MarketReturn: marketReturn,
		RecoveryDays: e.estimateRecovery(marketReturn),
	}
	return applyScenario(s, beta, portfolioValue, true), nil
}

// estimateRecovery 유사 심각도 시나리오의 평균 회복기간 (없으면 nil)
func (e *StressTestEngine) estimateRecovery(marketReturn float64) *int {
	var sum, count int
	for _, s := range e.scenarios {
		if s.RecoveryDays == nil {
			continue
		}
		if math.Abs(s.MarketReturn-marketReturn) <= e.recoveryBand+1e-12 {
			sum += *s.RecoveryDays
			count++
		}
	}
	if count == 0 {
		return nil
	}
	days := int(math.Round(float64(sum) / float64(count)))
	return &days
}

// SortBySeverity 손실 심각도 내림차순 정렬 (동률은 시나리오 ID 순)
func SortBySeverity(results []StressTestResult) {
	slices.SortStableFunc(results, func(a, b StressTestResult) int {
		if c := cmp.Compare(a.EstimatedPortfolioLoss, b.EstimatedPortfolioLoss); c != 0 {
			return c
		}
		return cmp.Compare(a.ScenarioID, b.ScenarioID)
	})
}

func applyScenario(s Scenario, beta, portfolioValue float64, custom bool) StressTestResult {
	loss := beta * s.MarketReturn
	return StressTestResult{
		ScenarioID:             s.ID,
		ScenarioName:           s.Name,
		Description:            s.Description,
		MarketReturn:           s.MarketReturn,
		PortfolioBeta:          beta,
		EstimatedPortfolioLoss: loss,
		EstimatedLossAmount:    loss * portfolioValue,
		PortfolioValue:         portfolioValue,
		DurationDays:           s.DurationDays,
		RecoveryEstimateDays:   s.RecoveryDays,
		Custom:                 custom,
	}
}

func validateStressInput(beta, portfolioValue float64) error {
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return fmt.Errorf("%w: portfolio beta", contracts.ErrNonFinite)
	}
	if portfolioValue < 0 || math.IsNaN(portfolioValue) || math.IsInf(portfolioValue, 0) {
		return fmt.Errorf("%w: portfolio value %v", contracts.ErrInvalidInput, portfolioValue)
	}
	return nil
}
