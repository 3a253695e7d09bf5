package contracts

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestReturnSeriesValidate(t *testing.T) {
	tests := []struct {
		name    string
		series  ReturnSeries
		wantErr error
	}{
		{"undated ok", NewReturnSeries("A", []float64{0.01, 0.02}), nil},
		{"dated ok", ReturnSeries{Ticker: "A", Dates: []time.Time{day(0), day(1)}, Values: []float64{0.01, 0.02}}, nil},
		{"length mismatch", ReturnSeries{Ticker: "A", Dates: []time.Time{day(0)}, Values: []float64{0.01, 0.02}}, ErrInvalidInput},
		{"not ascending", ReturnSeries{Ticker: "A", Dates: []time.Time{day(1), day(1)}, Values: []float64{0.01, 0.02}}, ErrInvalidInput},
		{"nan", NewReturnSeries("A", []float64{0.01, math.NaN()}), ErrNonFinite},
		{"inf", NewReturnSeries("A", []float64{math.Inf(-1)}), ErrNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.series.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReturnSeriesTail(t *testing.T) {
	s := ReturnSeries{
		Ticker: "A",
		Dates:  []time.Time{day(0), day(1), day(2), day(3)},
		Values: []float64{1, 2, 3, 4},
	}

	tail := s.Tail(2)
	assert.Equal(t, []float64{3, 4}, tail.Values)
	assert.Equal(t, []time.Time{day(2), day(3)}, tail.Dates)
	assert.Equal(t, 4, s.Tail(0).Len())
	assert.Equal(t, 4, s.Tail(10).Len())
}

func TestAlignByDate(t *testing.T) {
	a := ReturnSeries{Ticker: "A", Dates: []time.Time{day(0), day(1), day(2), day(4)}, Values: []float64{1, 2, 3, 4}}
	b := ReturnSeries{Ticker: "B", Dates: []time.Time{day(1), day(2), day(3), day(4)}, Values: []float64{10, 20, 30, 40}}

	pair := Align(a, b)
	require.Equal(t, 3, pair.Len())
	assert.Equal(t, []float64{2, 3, 4}, pair.A)
	assert.Equal(t, []float64{10, 20, 40}, pair.B)
	assert.Equal(t, []time.Time{day(1), day(2), day(4)}, pair.Dates)
}

func TestAlignTrailing(t *testing.T) {
	// 날짜 없는 시계열은 끝(최근 관측치)을 맞춤
	pair := Align(NewReturnSeries("A", []float64{1, 2, 3, 4, 5}), NewReturnSeries("B", []float64{7, 8}))
	assert.Equal(t, []float64{4, 5}, pair.A)
	assert.Equal(t, []float64{7, 8}, pair.B)
	assert.Nil(t, pair.Dates)

	out := AlignTrailing([]float64{1, 2, 3}, []float64{9}, []float64{5, 6})
	assert.Equal(t, [][]float64{{3}, {9}, {6}}, out)
	assert.Nil(t, AlignTrailing())
}
