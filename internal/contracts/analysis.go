package contracts

import (
	"fmt"
	"strings"
)

// AnalysisRequest 포트폴리오 리스크 분석 요청 (API/CLI 공용 입력)
// ⭐ 계약: 필드 이름과 단위는 대시보드/알림이 의존하는 wire contract
// 비율은 소수 (0.05 = 5%)
type AnalysisRequest struct {
	Positions        []Position           `json:"positions"`
	Returns          map[string][]float64 `json:"returns"`
	BenchmarkReturns []float64            `json:"benchmark_returns,omitempty"`
	SectorMap        map[string]string    `json:"sector_map,omitempty"`
	PeriodDays       int                  `json:"period_days"`
	PortfolioValue   float64              `json:"portfolio_value"`
	VaRMethod        string               `json:"var_method"`
	TargetProfile    string               `json:"target_profile"`
	Scenarios        []string             `json:"scenarios,omitempty"`
}

// ResolvedPositions SectorMap을 반영한 포지션 복사본
// SectorMap이 포지션 자체 섹터보다 우선
func (r AnalysisRequest) ResolvedPositions() []Position {
	out := make([]Position, len(r.Positions))
	for i, p := range r.Positions {
		if sector, ok := r.SectorMap[p.Ticker]; ok && strings.TrimSpace(sector) != "" {
			p.Sector = sector
		}
		out[i] = p
	}
	return out
}

// Validate 요청 기본 계약 검증 (계산기별 세부 검증은 각 계산기에서)
func (r AnalysisRequest) Validate() error {
	if err := ValidatePositions(r.Positions); err != nil {
		return err
	}
	if r.PortfolioValue < 0 {
		return fmt.Errorf("%w: portfolio_value %.2f < 0", ErrInvalidInput, r.PortfolioValue)
	}
	if r.PeriodDays < 0 {
		return fmt.Errorf("%w: period_days %d < 0", ErrInvalidInput, r.PeriodDays)
	}
	return nil
}

// EffectiveValue 요청 포트폴리오 금액 (0이면 포지션 합계)
func (r AnalysisRequest) EffectiveValue() float64 {
	if r.PortfolioValue > 0 {
		return r.PortfolioValue
	}
	return TotalValue(r.Positions)
}
