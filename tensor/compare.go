package tensor

import (
	"math"
	"time"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
	"github.com/klauspost/cpuid/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// CPUInfo describes the processor the comparison ran on.
type CPUInfo struct {
	Brand         string
	PhysicalCores int
	LogicalCores  int
	SIMD          []string
}

// DetectCPU reports the brand, core counts and the SIMD extensions that
// gonum's assembly kernels can take advantage of.
func DetectCPU() CPUInfo {
	info := CPUInfo{
		Brand:         cpuid.CPU.BrandName,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
	}
	simd := []struct {
		id   cpuid.FeatureID
		name string
	}{
		{cpuid.SSE2, "SSE2"},
		{cpuid.AVX, "AVX"},
		{cpuid.AVX2, "AVX2"},
		{cpuid.FMA3, "FMA3"},
		{cpuid.AVX512F, "AVX512F"},
		{cpuid.ASIMD, "ASIMD"},
	}
	for _, f := range simd {
		if cpuid.CPU.Supports(f.id) {
			info.SIMD = append(info.SIMD, f.name)
		}
	}
	return info
}

// Comparison is the outcome of timing relu(x + y) naive versus vectorized.
type Comparison struct {
	Rounds     int
	Naive      time.Duration
	Vectorized time.Duration
	// MaxAbsDiff is the largest entry-wise difference between the two
	// results; it must be zero.
	MaxAbsDiff float64
	CPU        CPUInfo
}

// Speedup is Naive / Vectorized.
func (c Comparison) Speedup() float64 {
	if c.Vectorized <= 0 {
		return math.Inf(1)
	}
	return float64(c.Naive) / float64(c.Vectorized)
}

// Compare computes relu(x + y) rounds times with the naive loops and rounds
// times with the gonum kernels, and reports both wall-clock totals.
func Compare(x, y mat.Matrix, rounds int) (Comparison, error) {
	if rounds <= 0 {
		return Comparison{}, errors.NewValidationError("rounds", "must be positive", rounds)
	}
	cmp := Comparison{Rounds: rounds, CPU: DetectCPU()}

	var naive *mat.Dense
	start := time.Now()
	for i := 0; i < rounds; i++ {
		sum, err := NaiveAdd(x, y)
		if err != nil {
			return Comparison{}, err
		}
		if naive, err = NaiveReLU(sum); err != nil {
			return Comparison{}, err
		}
	}
	cmp.Naive = time.Since(start)

	var fast *mat.Dense
	start = time.Now()
	for i := 0; i < rounds; i++ {
		sum, err := Add(x, y)
		if err != nil {
			return Comparison{}, err
		}
		ReLUInPlace(sum)
		fast = sum
	}
	cmp.Vectorized = time.Since(start)

	cmp.MaxAbsDiff = floats.Distance(naive.RawMatrix().Data, fast.RawMatrix().Data, math.Inf(1))
	return cmp, nil
}
