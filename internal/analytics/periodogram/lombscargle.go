package periodogram

import (
	"errors"
	"fmt"
	"math"
)

// Normalization selects how raw power is scaled
type Normalization string

const (
	// NormalizationStandard scales power by the weighted variance, giving values in [0,1]
	NormalizationStandard Normalization = "standard"
	// NormalizationModel is chi² reduction relative to the periodic model: p/(1-p)
	NormalizationModel Normalization = "model"
	// NormalizationLog is the log-likelihood form: -ln(1-p)
	NormalizationLog Normalization = "log"
)

// minPoints is the smallest series for which the periodic model (offset, sine,
// cosine) leaves a positive number of degrees of freedom.
const minPoints = 4

var (
	// ErrTooFewPoints is returned when the series cannot constrain a sinusoid fit
	ErrTooFewPoints = fmt.Errorf("periodogram needs at least %d points", minPoints)
	// ErrInvalidFrequency is returned for frequencies that are not finite and positive
	ErrInvalidFrequency = errors.New("frequency must be finite and positive")
	// ErrZeroBaseline is returned when all timestamps coincide
	ErrZeroBaseline = errors.New("series baseline is zero")
	// ErrUnknownNormalization is returned for unsupported normalizations
	ErrUnknownNormalization = errors.New("unknown normalization")
)

// ParseNormalization converts a config string into a Normalization
func ParseNormalization(s string) (Normalization, error) {
	switch Normalization(s) {
	case "", NormalizationStandard:
		return NormalizationStandard, nil
	case NormalizationModel:
		return NormalizationModel, nil
	case NormalizationLog:
		return NormalizationLog, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownNormalization, s)
	}
}

// prepared holds per-series quantities shared across frequencies
type prepared struct {
	t  []float64 // relative to the first timestamp
	yc []float64 // values minus weighted mean
	w  []float64 // normalized weights, sum to 1
	yy float64   // weighted variance of the values
}

func prepare(times, values, errs []float64) (*prepared, error) {
	n := len(times)
	if len(values) != n || len(errs) != n {
		return nil, fmt.Errorf("length mismatch: times=%d values=%d errors=%d", n, len(values), len(errs))
	}
	if n < minPoints {
		return nil, ErrTooFewPoints
	}

	p := &prepared{
		t:  make([]float64, n),
		yc: make([]float64, n),
		w:  make([]float64, n),
	}

	var wsum float64
	for i, e := range errs {
		if !(e > 0) {
			return nil, fmt.Errorf("uncertainty at index %d must be positive, got %v", i, e)
		}
		p.w[i] = 1 / (e * e)
		wsum += p.w[i]
	}

	var ymean float64
	t0 := times[0]
	for i := range p.w {
		p.w[i] /= wsum
		p.t[i] = times[i] - t0
		ymean += p.w[i] * values[i]
	}
	for i, y := range values {
		p.yc[i] = y - ymean
		p.yy += p.w[i] * p.yc[i] * p.yc[i]
	}

	return p, nil
}

// power returns the standard-normalized power at one frequency
func (p *prepared) power(frequency float64) float64 {
	if p.yy <= 0 {
		return 0
	}

	omega := 2 * math.Pi * frequency

	var s, c, s2, c2 float64
	for i, t := range p.t {
		sn, cs := math.Sincos(omega * t)
		w := p.w[i]
		s += w * sn
		c += w * cs
		s2 += 2 * w * sn * cs
		c2 += w * (cs*cs - sn*sn)
	}
	s2 -= 2 * s * c
	c2 -= c*c - s*s

	omegaTau := 0.5 * math.Atan2(s2, c2)

	var y, yc, ys, cc, ss, ct, st float64
	for i, t := range p.t {
		sn, cs := math.Sincos(omega*t - omegaTau)
		w := p.w[i]
		wy := w * p.yc[i]
		y += wy
		yc += wy * cs
		ys += wy * sn
		cc += w * cs * cs
		ss += w * sn * sn
		ct += w * cs
		st += w * sn
	}
	yc -= y * ct
	ys -= y * st
	cc -= ct * ct
	ss -= st * st

	// Phases that collapse onto a single point leave the basis degenerate
	const eps = 1e-12
	var pw float64
	if cc > eps {
		pw += yc * yc / cc
	}
	if ss > eps {
		pw += ys * ys / ss
	}

	z := pw / (p.yy - y*y)
	switch {
	case z < 0 || math.IsNaN(z):
		return 0
	case z > 1:
		return 1
	}
	return z
}

// Power evaluates the periodogram at a single frequency
func Power(times, values, errs []float64, frequency float64, norm Normalization) (float64, error) {
	if !(frequency > 0) || math.IsInf(frequency, 0) {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidFrequency, frequency)
	}
	p, err := prepare(times, values, errs)
	if err != nil {
		return 0, err
	}
	return convert(p.power(frequency), norm)
}

// Spectrum evaluates the periodogram on a frequency grid
func Spectrum(times, values, errs []float64, freqs []float64, norm Normalization) ([]float64, error) {
	p, err := prepare(times, values, errs)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(freqs))
	for i, f := range freqs {
		if !(f > 0) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: index %d got %v", ErrInvalidFrequency, i, f)
		}
		if out[i], err = convert(p.power(f), norm); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// convert maps standard power onto the requested normalization
func convert(z float64, norm Normalization) (float64, error) {
	switch norm {
	case "", NormalizationStandard:
		return z, nil
	case NormalizationModel:
		if z >= 1 {
			return math.Inf(1), nil
		}
		return z / (1 - z), nil
	case NormalizationLog:
		if z >= 1 {
			return math.Inf(1), nil
		}
		return -math.Log1p(-z), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownNormalization, norm)
	}
}
