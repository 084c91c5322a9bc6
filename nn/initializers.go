package nn

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/denseflow/pkg/errors"
)

// Initializer names accepted by WithKernelInitializer and
// WithBiasInitializer.
const (
	GlorotUniform = "glorot_uniform"
	GlorotNormal  = "glorot_normal"
	HeNormal      = "he_normal"
	HeUniform     = "he_uniform"
	Zeros         = "zeros"
	Ones          = "ones"
)

// initializer fills dst with starting values for a parameter whose layer
// maps fanIn inputs to fanOut outputs.
type initializer func(rng *rand.Rand, fanIn, fanOut int, dst []float64)

var initializers = map[string]initializer{
	GlorotUniform: func(rng *rand.Rand, fanIn, fanOut int, dst []float64) {
		uniform(rng, math.Sqrt(6/float64(fanIn+fanOut)), dst)
	},
	GlorotNormal: func(rng *rand.Rand, fanIn, fanOut int, dst []float64) {
		truncatedNormal(rng, math.Sqrt(2/float64(fanIn+fanOut)), dst)
	},
	HeNormal: func(rng *rand.Rand, fanIn, _ int, dst []float64) {
		truncatedNormal(rng, math.Sqrt(2/float64(fanIn)), dst)
	},
	HeUniform: func(rng *rand.Rand, fanIn, _ int, dst []float64) {
		uniform(rng, math.Sqrt(6/float64(fanIn)), dst)
	},
	Zeros: func(_ *rand.Rand, _, _ int, dst []float64) {
		for i := range dst {
			dst[i] = 0
		}
	},
	Ones: func(_ *rand.Rand, _, _ int, dst []float64) {
		for i := range dst {
			dst[i] = 1
		}
	},
}

func lookupInitializer(name string) (initializer, error) {
	init, ok := initializers[name]
	if !ok {
		return nil, errors.NewValidationError("initializer", "unknown initializer, want one of "+joinNames(initializers), name)
	}
	return init, nil
}

// uniform samples U(-limit, limit).
func uniform(rng *rand.Rand, limit float64, dst []float64) {
	for i := range dst {
		dst[i] = (2*rng.Float64() - 1) * limit
	}
}

// truncatedNormal samples N(0, stddev²) and redraws anything beyond two
// standard deviations. The stddev is corrected for the truncation.
func truncatedNormal(rng *rand.Rand, stddev float64, dst []float64) {
	const truncationCorrection = 0.87962566103423978
	stddev /= truncationCorrection
	for i := range dst {
		v := rng.NormFloat64()
		for math.Abs(v) > 2 {
			v = rng.NormFloat64()
		}
		dst[i] = v * stddev
	}
}
