package diversification

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/wonny/maverick/backend/internal/contracts"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// UniverseSectors 기준 섹터 수 (GICS 11개)
	UniverseSectors = 11

	// OverThreshold 단일 종목 과집중 기준 (20%)
	OverThreshold = 0.20

	// minFullCreditPositions 단일 종목 포지션 점수가 20점 미만이 되는 하한
	minFullCreditPositions = 6

	weightTolerance = 1e-6
)

// Level 분산 등급 (5단계)
type Level string

const (
	LevelExcellent Level = "excellent"
	LevelGood      Level = "good"
	LevelModerate  Level = "moderate"
	LevelPoor      Level = "poor"
	LevelVeryPoor  Level = "very_poor"
)

// ClassifyLevel 점수 → 등급
func ClassifyLevel(score float64) Level {
	switch {
	case score >= 80:
		return LevelExcellent
	case score >= 60:
		return LevelGood
	case score >= 40:
		return LevelModerate
	case score >= 20:
		return LevelPoor
	default:
		return LevelVeryPoor
	}
}

// =============================================================================
// Config
// =============================================================================

// Weights 하위 점수 가중치 (합 = 1)
type Weights struct {
	Position      float64 `json:"position"`
	Sector        float64 `json:"sector"`
	Correlation   float64 `json:"correlation"`
	Concentration float64 `json:"concentration"`
}

// Sum 가중치 합
func (w Weights) Sum() float64 {
	return w.Position + w.Sector + w.Correlation + w.Concentration
}

// Config 분산 점수 설정
type Config struct {
	Weights                 Weights
	FullCreditPositions     int     // 이 수 이상이면 포지션 수 감점 없음
	OverPenaltyScale        float64 // 초과 비중 1.0당 감점
	MissingSectorPenalty    float64 // 섹터 없는 포지션당 감점
	RecommendationThreshold float64 // 이 점수 미만 하위 항목에 권고 생성
}

// DefaultConfig 기본 분산 점수 설정
func DefaultConfig() Config {
	return Config{
		Weights:                 Weights{Position: 0.30, Sector: 0.25, Correlation: 0.25, Concentration: 0.20},
		FullCreditPositions:     20,
		OverPenaltyScale:        200,
		MissingSectorPenalty:    5,
		RecommendationThreshold: 60,
	}
}

// Validate 설정 검증
// 단일 종목 포트폴리오가 항상 very_poor 가 되도록 하한을 강제
func (c Config) Validate() error {
	w := c.Weights
	if w.Position < 0 || w.Sector < 0 || w.Correlation < 0 || w.Concentration < 0 {
		return fmt.Errorf("%w: diversification weights must be >= 0", contracts.ErrInvalidInput)
	}
	if math.Abs(w.Sum()-1) > weightTolerance {
		return fmt.Errorf("%w: diversification weights sum to %.6f, want 1", contracts.ErrInvalidInput, w.Sum())
	}
	if c.FullCreditPositions < minFullCreditPositions {
		return fmt.Errorf("%w: full_credit_positions %d < %d",
			contracts.ErrInvalidInput, c.FullCreditPositions, minFullCreditPositions)
	}
	if c.OverPenaltyScale*(1-OverThreshold) < 100 {
		return fmt.Errorf("%w: over_penalty_scale %.1f cannot zero a single-position concentration score",
			contracts.ErrInvalidInput, c.OverPenaltyScale)
	}
	if c.MissingSectorPenalty < 0 {
		return fmt.Errorf("%w: missing_sector_penalty must be >= 0", contracts.ErrInvalidInput)
	}
	return nil
}

// =============================================================================
// Result Types
// =============================================================================

// Breakdown 하위 점수와 실제 적용 가중치
// Correlation이 nil이면 제외되고 나머지 가중치가 재정규화됨
type Breakdown struct {
	PositionScore      float64  `json:"position_score"`
	SectorScore        float64  `json:"sector_score"`
	CorrelationScore   *float64 `json:"correlation_score"`
	ConcentrationScore float64  `json:"concentration_score"`
	Weights            Weights  `json:"weights"`
}

// DiversificationScore 분산 점수 결과
// ⭐ 계약: Score = Σ sub_score × weight, EffectivePositions = 1/HHI
type DiversificationScore struct {
	Score                  float64            `json:"score"` // 0-100
	Level                  Level              `json:"level"`
	HHI                    float64            `json:"hhi"`
	HHINormalized          float64            `json:"hhi_normalized"` // [1/n, 1] → [0, 1]
	EffectivePositions     float64            `json:"effective_positions"`
	PositionCount          int                `json:"position_count"`
	SectorCount            int                `json:"sector_count"`
	SectorWeights          map[string]float64 `json:"sector_weights"`
	OverweightPositions    []string           `json:"overweight_positions,omitempty"`
	MissingSectorPositions []string           `json:"missing_sector_positions,omitempty"`
	Breakdown              Breakdown          `json:"breakdown"`
	Recommendations        []string           `json:"recommendations"`
}

// TopRecommendations 상위 n개 권고 (관례상 3개)
func (d DiversificationScore) TopRecommendations(n int) []string {
	if n < 0 || n >= len(d.Recommendations) {
		return slices.Clone(d.Recommendations)
	}
	return slices.Clone(d.Recommendations[:n])
}

// =============================================================================
// Scorer
// =============================================================================

// ScoreInput 분산 점수 입력
type ScoreInput struct {
	Positions      []contracts.Position
	AvgCorrelation *float64 // 호출자가 계산한 평균 상관계수 (선택)
}

// Scorer HHI 기반 분산 점수 계산기
type Scorer struct {
	cfg Config
}

// NewScorer 새 분산 점수 계산기 생성
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// holding 티커 단위로 합산된 포지션
type holding struct {
	ticker string
	weight float64
	sector string
}

// Score 분산 점수 계산
func (s *Scorer) Score(in ScoreInput) (DiversificationScore, error) {
	holdings, err := aggregate(in.Positions)
	if err != nil {
		return DiversificationScore{}, err
	}
	if in.AvgCorrelation != nil {
		c := *in.AvgCorrelation
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return DiversificationScore{}, fmt.Errorf("%w: avg_correlation", contracts.ErrNonFinite)
		}
		if c < -1 || c > 1 {
			return DiversificationScore{}, fmt.Errorf("%w: avg_correlation %.4f outside [-1, 1]",
				contracts.ErrInvalidInput, c)
		}
	}

	n := len(holdings)
	weights := make([]float64, n)
	for i, h := range holdings {
		weights[i] = h.weight
	}
	hhi := herfindahl(weights)

	out := DiversificationScore{
		HHI:                hhi,
		HHINormalized:      1,
		EffectivePositions: 1 / hhi,
		PositionCount:      n,
		SectorWeights:      make(map[string]float64),
	}
	if n > 1 {
		floor := 1 / float64(n)
		out.HHINormalized = clamp((hhi-floor)/(1-floor), 0, 1)
	}

	for _, h := range holdings {
		if h.weight > OverThreshold {
			out.OverweightPositions = append(out.OverweightPositions, h.ticker)
		}
		if h.sector == "" {
			out.MissingSectorPositions = append(out.MissingSectorPositions, h.ticker)
			continue
		}
		out.SectorWeights[h.sector] += h.weight
	}
	out.SectorCount = len(out.SectorWeights)

	b := Breakdown{
		PositionScore:      s.positionScore(out.EffectivePositions, n),
		SectorScore:        sectorScore(out.SectorWeights),
		ConcentrationScore: s.concentrationScore(holdings, len(out.MissingSectorPositions)),
	}
	if in.AvgCorrelation != nil && n > 1 {
		cs := clamp(100*(1-*in.AvgCorrelation), 0, 100)
		b.CorrelationScore = &cs
	}
	b.Weights = s.effectiveWeights(b.CorrelationScore != nil)

	score := b.PositionScore*b.Weights.Position +
		b.SectorScore*b.Weights.Sector +
		b.ConcentrationScore*b.Weights.Concentration
	if b.CorrelationScore != nil {
		score += *b.CorrelationScore * b.Weights.Correlation
	}

	out.Breakdown = b
	out.Score = clamp(score, 0, 100)
	out.Level = ClassifyLevel(out.Score)
	out.Recommendations = s.recommend(out, holdings, in.AvgCorrelation)

	return out, nil
}

// positionScore 유효 종목 수 / 종목 수 × 포지션 수 충족도
func (s *Scorer) positionScore(effective float64, n int) float64 {
	evenness := effective / float64(n)
	coverage := math.Min(float64(n)/float64(s.cfg.FullCreditPositions), 1)
	return clamp(100*evenness*coverage, 0, 100)
}

// sectorScore 섹터 커버리지 × 섹터 비중 균등도
// 섹터 비중은 섹터 정보가 있는 포지션 안에서 재정규화
func sectorScore(sectorWeights map[string]float64) float64 {
	k := len(sectorWeights)
	if k == 0 {
		return 0
	}
	hhi := herfindahl(slices.Collect(maps.Values(sectorWeights)))
	coverage := math.Min(float64(k)/UniverseSectors, 1)
	evenness := (1 / hhi) / float64(k)
	return clamp(100*coverage*evenness, 0, 100)
}

// herfindahl Σ share² (share = w / Σw)
func herfindahl(weights []float64) float64 {
	shares := slices.Clone(weights)
	floats.Scale(1/floats.Sum(shares), shares)
	return floats.Dot(shares, shares)
}

// concentrationScore 과집중 포지션, 섹터 누락 포지션 감점
func (s *Scorer) concentrationScore(holdings []holding, missing int) float64 {
	score := 100.0
	for _, h := range holdings {
		if h.weight > OverThreshold {
			score -= (h.weight - OverThreshold) * s.cfg.OverPenaltyScale
		}
	}
	score -= s.cfg.MissingSectorPenalty * float64(missing)
	return clamp(score, 0, 100)
}

// effectiveWeights correlation 제외 시 나머지 가중치 재정규화
func (s *Scorer) effectiveWeights(withCorrelation bool) Weights {
	w := s.cfg.Weights
	if withCorrelation {
		return w
	}
	rest := w.Position + w.Sector + w.Concentration
	if rest <= 0 {
		return Weights{}
	}
	return Weights{
		Position:      w.Position / rest,
		Sector:        w.Sector / rest,
		Concentration: w.Concentration / rest,
	}
}

// =============================================================================
// Recommendations
// =============================================================================

type weakness struct {
	score float64
	order int
	texts []string
}

// recommend 약한 하위 항목 순으로 권고 생성
func (s *Scorer) recommend(d DiversificationScore, holdings []holding, avgCorr *float64) []string {
	threshold := s.cfg.RecommendationThreshold
	b := d.Breakdown
	var items []weakness

	if b.PositionScore < threshold {
		largest := holdings[0]
		items = append(items, weakness{score: b.PositionScore, order: 0, texts: []string{
			fmt.Sprintf("Portfolio behaves like %.1f equally weighted positions across %d holdings; add positions or trim %s (%.1f%%)",
				d.EffectivePositions, d.PositionCount, largest.ticker, largest.weight*100),
		}})
	}

	if b.SectorScore < threshold {
		text := "No position has sector data; classify holdings to measure sector spread"
		if d.SectorCount > 0 {
			top, topWeight := dominantSector(d.SectorWeights)
			text = fmt.Sprintf("Holdings span %d of %d sectors and %s carries %.1f%%; add exposure to other sectors",
				d.SectorCount, UniverseSectors, top, topWeight*100)
		}
		items = append(items, weakness{score: b.SectorScore, order: 1, texts: []string{text}})
	}

	if b.CorrelationScore != nil && *b.CorrelationScore < threshold {
		items = append(items, weakness{score: *b.CorrelationScore, order: 2, texts: []string{
			fmt.Sprintf("Average pairwise correlation is %.2f; add assets that move less with existing holdings", *avgCorr),
		}})
	}

	if b.ConcentrationScore < threshold {
		var texts []string
		for _, h := range holdings {
			if h.weight > OverThreshold {
				texts = append(texts, fmt.Sprintf("%s is %.1f%% of the portfolio, above the %.0f%% limit; consider trimming",
					h.ticker, h.weight*100, OverThreshold*100))
			}
		}
		if n := len(d.MissingSectorPositions); n > 0 {
			texts = append(texts, fmt.Sprintf("%d position(s) lack sector data (%s); classify them for accurate sector analysis",
				n, strings.Join(d.MissingSectorPositions, ", ")))
		}
		if len(texts) > 0 {
			items = append(items, weakness{score: b.ConcentrationScore, order: 3, texts: texts})
		}
	}

	slices.SortStableFunc(items, func(a, b weakness) int {
		if c := cmp.Compare(a.score, b.score); c != 0 {
			return c
		}
		return cmp.Compare(a.order, b.order)
	})

	var out []string
	for _, it := range items {
		out = append(out, it.texts...)
	}
	if len(out) == 0 {
		out = append(out, "Portfolio is well diversified; maintain the current allocation")
	}
	return out
}

func dominantSector(weights map[string]float64) (string, float64) {
	var top string
	var topWeight float64
	for _, sector := range slices.Sorted(maps.Keys(weights)) {
		if w := weights[sector]; w > topWeight {
			top, topWeight = sector, w
		}
	}
	return top, topWeight
}

// =============================================================================
// Helpers
// =============================================================================

// aggregate 티커별 합산, 비중 내림차순 (동률은 티커 순)
func aggregate(positions []contracts.Position) ([]holding, error) {
	weights, err := contracts.Weights(positions)
	if err != nil {
		return nil, err
	}

	sectors := make(map[string]string, len(positions))
	for _, p := range positions {
		if _, ok := sectors[p.Ticker]; !ok && p.HasSector() {
			sectors[p.Ticker] = strings.TrimSpace(p.Sector)
		}
	}

	holdings := make([]holding, 0, len(weights))
	for ticker, w := range weights {
		if w <= 0 {
			continue
		}
		holdings = append(holdings, holding{ticker: ticker, weight: w, sector: sectors[ticker]})
	}
	slices.SortFunc(holdings, func(a, b holding) int {
		if c := cmp.Compare(b.weight, a.weight); c != 0 {
			return c
		}
		return cmp.Compare(a.ticker, b.ticker)
	})
	return holdings, nil
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
