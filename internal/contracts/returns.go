package contracts

import (
	"fmt"
	"math"
	"time"
)

// ReturnSeries 일별 수익률 시계열 (외부 데이터 제공자가 조립)
// ⭐ 계약: Values는 소수 수익률 (0.01 = 1%), 결측일 forward-fill 금지
// Dates가 있으면 Values와 길이가 같아야 하고 오름차순
type ReturnSeries struct {
	Ticker string      `json:"ticker"`
	Dates  []time.Time `json:"dates,omitempty"`
	Values []float64   `json:"values"`
}

// NewReturnSeries 날짜 없는 시계열 생성
func NewReturnSeries(ticker string, values []float64) ReturnSeries {
	return ReturnSeries{Ticker: ticker, Values: values}
}

// Len 관측치 수
func (s ReturnSeries) Len() int {
	return len(s.Values)
}

// Dated 날짜 정보 보유 여부
func (s ReturnSeries) Dated() bool {
	return len(s.Dates) > 0 && len(s.Dates) == len(s.Values)
}

// Validate 시계열 계약 검증
func (s ReturnSeries) Validate() error {
	if len(s.Dates) > 0 && len(s.Dates) != len(s.Values) {
		return fmt.Errorf("%w: %s has %d dates for %d values",
			ErrInvalidInput, s.Ticker, len(s.Dates), len(s.Values))
	}
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s value at %d", ErrNonFinite, s.Ticker, i)
		}
	}
	for i := 1; i < len(s.Dates); i++ {
		if !s.Dates[i].After(s.Dates[i-1]) {
			return fmt.Errorf("%w: %s dates not strictly ascending at %d",
				ErrInvalidInput, s.Ticker, i)
		}
	}
	return nil
}

// Tail 최근 n개 관측치 (n <= 0 이거나 길이 이하이면 전체)
func (s ReturnSeries) Tail(n int) ReturnSeries {
	if n <= 0 || n >= len(s.Values) {
		return s
	}
	out := ReturnSeries{Ticker: s.Ticker, Values: s.Values[len(s.Values)-n:]}
	if s.Dated() {
		out.Dates = s.Dates[len(s.Dates)-n:]
	}
	return out
}

// =============================================================================
// Alignment
// =============================================================================

// AlignedPair 겹치는 구간으로 정렬된 두 시계열
type AlignedPair struct {
	Dates []time.Time // 날짜 기준 정렬일 때만 채워짐
	A     []float64
	B     []float64
}

// Len 정렬된 관측치 수
func (p AlignedPair) Len() int {
	return len(p.A)
}

// Align 두 시계열의 겹치는 구간 추출
// 둘 다 날짜가 있으면 날짜 교집합, 아니면 최근 관측치 기준(끝을 맞춤)
func Align(a, b ReturnSeries) AlignedPair {
	if a.Dated() && b.Dated() {
		return alignByDate(a, b)
	}

	n := min(len(a.Values), len(b.Values))
	return AlignedPair{
		A: a.Values[len(a.Values)-n:],
		B: b.Values[len(b.Values)-n:],
	}
}

func alignByDate(a, b ReturnSeries) AlignedPair {
	var out AlignedPair
	i, j := 0, 0
	for i < len(a.Dates) && j < len(b.Dates) {
		da, db := a.Dates[i], b.Dates[j]
		switch {
		case da.Equal(db):
			out.Dates = append(out.Dates, da)
			out.A = append(out.A, a.Values[i])
			out.B = append(out.B, b.Values[j])
			i++
			j++
		case da.Before(db):
			i++
		default:
			j++
		}
	}
	return out
}

// AlignTrailing 여러 시계열을 최근 관측치 기준으로 같은 길이로 자름
func AlignTrailing(series ...[]float64) [][]float64 {
	if len(series) == 0 {
		return nil
	}
	n := len(series[0])
	for _, s := range series[1:] {
		n = min(n, len(s))
	}
	out := make([][]float64, len(series))
	for i, s := range series {
		out[i] = s[len(s)-n:]
	}
	return out
}
