package correlation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/maverick/backend/internal/contracts"
)

// MinOverlap 상관계수 계산 최소 겹침 관측치
const MinOverlap = 2

// Pairwise 두 시계열의 Pearson 상관계수 (겹치는 구간 기준)
// 같은 종목이면 계산 없이 1.0
func Pairwise(a, b contracts.ReturnSeries) (float64, error) {
	if a.Ticker != "" && a.Ticker == b.Ticker {
		return 1.0, nil
	}
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}

	pair := contracts.Align(a, b)
	return alignedCorrelation(pair.A, pair.B, a.Ticker, b.Ticker)
}

// alignedCorrelation 정렬된 두 시계열의 상관계수
func alignedCorrelation(x, y []float64, nameX, nameY string) (float64, error) {
	if len(x) < MinOverlap {
		return 0, fmt.Errorf("%w: %s/%s overlap %d < %d",
			contracts.ErrInsufficientData, nameX, nameY, len(x), MinOverlap)
	}
	if floats.Equal(x, y) {
		return 1.0, nil
	}
	if constant(x) || constant(y) {
		return 0, fmt.Errorf("%w: %s/%s has zero variance, correlation undefined",
			contracts.ErrDegenerateInput, nameX, nameY)
	}

	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0, fmt.Errorf("%w: correlation %s/%s", contracts.ErrNonFinite, nameX, nameY)
	}
	return math.Max(-1, math.Min(1, c)), nil
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// =============================================================================
// Interpretation
// =============================================================================

// Strength 상관 강도 구간
func (t Thresholds) Strength(c float64) string {
	switch a := math.Abs(c); {
	case a >= t.VeryStrong:
		return "very strong"
	case a >= t.Strong:
		return "strong"
	case a >= t.Moderate:
		return "moderate"
	case a >= t.Weak:
		return "weak"
	default:
		return "very low"
	}
}

// Direction 상관 방향
func Direction(c float64) string {
	if c < 0 {
		return "negatively"
	}
	return "positively"
}

// Interpret 사람이 읽는 해석 ("strong, positively correlated")
func (t Thresholds) Interpret(c float64) string {
	return fmt.Sprintf("%s, %s correlated", t.Strength(c), Direction(c))
}
