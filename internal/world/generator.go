package world

import (
	"math/rand/v2"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// GeneratorKind selects the stochastic model behind field regeneration.
type GeneratorKind string

const (
	// GenNegBinom draws each cell from a negative binomial distribution whose
	// dispersion is controlled by the aggregation parameter.
	GenNegBinom GeneratorKind = "negbinom"
	// GenSimplex layers simplex noise, with aggregation mapped to feature size.
	GenSimplex GeneratorKind = "simplex"
)

// Generator produces resource fields with a controllable mean level and
// spatial aggregation. The same generator (and parameters) is used for the
// initial field and for every daily regeneration.
type Generator struct {
	kind          GeneratorKind
	size          int
	resourceLevel float64
	aggregation   float64
	rng           *rand.Rand

	// Negative binomial parameters derived once from level and aggregation.
	nbN float64
	nbP float64
}

// NewGenerator creates a field generator. resourceLevel and aggregation are
// both expected in [0,1].
func NewGenerator(kind GeneratorKind, size int, resourceLevel, aggregation float64, rng *rand.Rand) *Generator {
	g := &Generator{
		kind:          kind,
		size:          size,
		resourceLevel: resourceLevel,
		aggregation:   aggregation,
		rng:           rng,
	}

	// Lower aggregation means more dispersion trials, so less clumping.
	if aggregation > 0 {
		g.nbN = max(1.0, 10.0/aggregation)
	} else {
		g.nbN = 100.0
	}
	g.nbP = g.nbN / (g.nbN + resourceLevel)

	return g
}

// Generate produces a fresh field, normalized so densities sum to size².
// Regeneration is independent of any prior field.
func (g *Generator) Generate() *Field {
	f := NewField(g.size)

	switch g.kind {
	case GenSimplex:
		g.fillSimplex(f)
	default:
		g.fillNegBinom(f)
	}

	total := floats.Sum(f.data)
	if total > 0 {
		floats.Scale(float64(g.size*g.size)/total, f.data)
	}
	return f
}

// fillNegBinom samples NB(n,p) per cell as a gamma–Poisson mixture:
// lambda ~ Gamma(n, p/(1-p)), count ~ Poisson(lambda).
func (g *Generator) fillNegBinom(f *Field) {
	gamma := distuv.Gamma{
		Alpha: g.nbN,
		Beta:  g.nbP / (1 - g.nbP),
		Src:   g.rng,
	}
	for i := range f.data {
		lambda := gamma.Rand()
		if lambda <= 0 {
			continue
		}
		pois := distuv.Poisson{Lambda: lambda, Src: g.rng}
		f.data[i] = pois.Rand()
	}
}

// fillSimplex layers octaved simplex noise. Aggregation lowers the base
// frequency, growing the resource patches; the raw level scales with
// resourceLevel before normalization.
func (g *Generator) fillSimplex(f *Field) {
	noise := opensimplex.NewNormalized(int64(g.rng.Uint64()))
	freq := 0.12 * (1 - 0.9*g.aggregation)

	for x := 0; x < g.size; x++ {
		for y := 0; y < g.size; y++ {
			v := octaveNoise(noise, float64(x), float64(y), 4, freq, 0.5)
			f.data[x*g.size+y] = v * g.resourceLevel
		}
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
