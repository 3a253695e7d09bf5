package risk

import (
	"math"
	"math/rand/v2"
)

// seededReturns 재현 가능한 정규분포 일별 수익률
func seededReturns(seed uint64, n int, mean, std float64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + std*rng.NormFloat64()
	}
	return out
}

func intPtr(v int) *int { return &v }

func nan() float64 { return math.NaN() }
