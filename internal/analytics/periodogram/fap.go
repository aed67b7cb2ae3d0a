package periodogram

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FAPInput carries everything a FAP method needs besides the observed power
type FAPInput struct {
	Times         []float64
	Values        []float64
	Errors        []float64
	MaxFrequency  float64
	Normalization Normalization
	Config        Config
}

// FAPMethod converts a periodogram power into a false-alarm probability
type FAPMethod interface {
	// Name returns the method name
	Name() string
	// FAP returns the probability that noise alone produces a peak of at least z
	FAP(z float64, in FAPInput) (float64, error)
}

// Registry holds available FAP methods
var methodRegistry = make(map[string]FAPMethod)

// RegisterMethod adds a FAP method to the registry
func RegisterMethod(name string, method FAPMethod) {
	methodRegistry[name] = method
}

// GetMethod returns a FAP method by name
func GetMethod(name string) (FAPMethod, error) {
	if method, ok := methodRegistry[name]; ok {
		return method, nil
	}
	return nil, fmt.Errorf("unknown FAP method: %s", name)
}

// ListMethods returns the registered method names in sorted order
func ListMethods() []string {
	names := make([]string, 0, len(methodRegistry))
	for name := range methodRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterMethod("single", singleMethod{})
	RegisterMethod("naive", naiveMethod{})
	RegisterMethod("davies", daviesMethod{})
	RegisterMethod("baluev", baluevMethod{})
	RegisterMethod("bootstrap", bootstrapMethod{})
}

// degrees of freedom for the constant (H) and constant+sinusoid (K) models
const (
	dofNull     = 1
	dofPeriodic = 3
)

// FAPSingle is the false-alarm probability of power z at one frequency
// for a series of n points.
func FAPSingle(z float64, n int, norm Normalization) (float64, error) {
	nk := float64(n - dofPeriodic)
	switch norm {
	case "", NormalizationStandard:
		if z >= 1 {
			return 0, nil
		}
		return math.Pow(1-z, 0.5*nk), nil
	case NormalizationModel:
		return math.Pow(1+z, -0.5*nk), nil
	case NormalizationLog:
		return math.Exp(-0.5 * nk * z), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownNormalization, norm)
	}
}

// gammaRatio is sqrt(2/n)·Γ(n/2)/Γ((n-1)/2)
func gammaRatio(n float64) float64 {
	a, _ := math.Lgamma(n / 2)
	b, _ := math.Lgamma((n - 1) / 2)
	return math.Sqrt(2/n) * math.Exp(a-b)
}

// weightedVariance is the inverse-variance weighted population variance of x
func weightedVariance(x, errs []float64) float64 {
	w := make([]float64, len(errs))
	for i, e := range errs {
		w[i] = 1 / (e * e)
	}
	sq := make([]float64, len(x))
	floats.MulTo(sq, x, x)
	m := stat.Mean(x, w)
	return stat.Mean(sq, w) - m*m
}

// tauDavies is the expected number of upcrossings of level z over the band up to fmax
func tauDavies(z float64, in FAPInput) (float64, error) {
	n := len(in.Times)
	nh := float64(n - dofNull)
	nk := float64(n - dofPeriodic)

	rel := make([]float64, n)
	copy(rel, in.Times)
	floats.AddConst(-in.Times[0], rel)
	teff := math.Sqrt(4 * math.Pi * weightedVariance(rel, in.Errors))
	w := in.MaxFrequency * teff

	switch in.Normalization {
	case "", NormalizationStandard:
		if z >= 1 {
			return 0, nil
		}
		return gammaRatio(nh) * w * math.Pow(1-z, 0.5*(nk-1)) * math.Sqrt(0.5*nh*z), nil
	case NormalizationModel:
		return gammaRatio(nk) * w * math.Pow(1+z, -0.5*nk) * math.Sqrt(0.5*nk*z), nil
	case NormalizationLog:
		return gammaRatio(nk) * w * math.Exp(-0.5*z*(nk-0.5)) * math.Sqrt(nk*math.Sinh(0.5*z)), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownNormalization, in.Normalization)
	}
}

type singleMethod struct{}

func (singleMethod) Name() string { return "single" }

func (singleMethod) FAP(z float64, in FAPInput) (float64, error) {
	return FAPSingle(z, len(in.Times), in.Normalization)
}

type naiveMethod struct{}

func (naiveMethod) Name() string { return "naive" }

func (naiveMethod) FAP(z float64, in FAPInput) (float64, error) {
	fs, err := FAPSingle(z, len(in.Times), in.Normalization)
	if err != nil {
		return 0, err
	}
	baseline := in.Times[len(in.Times)-1] - in.Times[0]
	nEff := in.MaxFrequency * baseline
	return clamp01(-math.Expm1(nEff * math.Log1p(-fs))), nil
}

type daviesMethod struct{}

func (daviesMethod) Name() string { return "davies" }

func (daviesMethod) FAP(z float64, in FAPInput) (float64, error) {
	fs, err := FAPSingle(z, len(in.Times), in.Normalization)
	if err != nil {
		return 0, err
	}
	tau, err := tauDavies(z, in)
	if err != nil {
		return 0, err
	}
	return clamp01(fs + tau), nil
}

type baluevMethod struct{}

func (baluevMethod) Name() string { return "baluev" }

func (baluevMethod) FAP(z float64, in FAPInput) (float64, error) {
	fs, err := FAPSingle(z, len(in.Times), in.Normalization)
	if err != nil {
		return 0, err
	}
	tau, err := tauDavies(z, in)
	if err != nil {
		return 0, err
	}
	return clamp01(1 - (1-fs)*math.Exp(-tau)), nil
}

// bootstrapMethod resamples (value, error) pairs with replacement and compares z
// against the distribution of maximum power. The generator is seeded from the
// config on every call so repeated evaluations are reproducible.
type bootstrapMethod struct{}

func (bootstrapMethod) Name() string { return "bootstrap" }

func (bootstrapMethod) FAP(z float64, in FAPInput) (float64, error) {
	n := len(in.Times)
	rounds := in.Config.Bootstraps
	if rounds <= 0 {
		rounds = DefaultConfig().Bootstraps
	}

	grid, err := Autofrequency(in.Times, in.Config.SamplesPerPeak, in.Config.NyquistFactor, in.MaxFrequency)
	if err != nil {
		return 0, err
	}
	freqs := grid.Frequencies()

	rng := rand.New(rand.NewPCG(in.Config.Seed, in.Config.Seed^0x5851f42d4c957f2d))
	ys := make([]float64, n)
	es := make([]float64, n)
	maxima := make([]float64, rounds)

	for r := 0; r < rounds; r++ {
		for i := 0; i < n; i++ {
			j := rng.IntN(n)
			ys[i] = in.Values[j]
			es[i] = in.Errors[j]
		}
		power, err := Spectrum(in.Times, ys, es, freqs, in.Normalization)
		if err != nil {
			return 0, err
		}
		maxima[r] = floats.Max(power)
	}

	sort.Float64s(maxima)
	below := sort.SearchFloat64s(maxima, z)
	return 1 - float64(below)/float64(rounds), nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 1
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
