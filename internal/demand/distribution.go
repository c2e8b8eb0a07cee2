// Package demand builds continuous demand distributions and draws discrete
// demand scenarios from them.
package demand

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	Normal      = "normal"
	LogNormal   = "lognormal"
	Uniform     = "uniform"
	Triangle    = "triangle"
	Exponential = "exponential"

	// maxRejections bounds the redraws Rand makes before falling back to
	// inverse-transform sampling.
	maxRejections = 64

	// positiveMassFloor is the smallest share of probability a distribution
	// must place on positive demand.
	positiveMassFloor = 0.01
)

// ErrInvalidDistribution reports unknown names or out-of-range parameters.
var ErrInvalidDistribution = errors.New("invalid demand distribution")

var distributionAliases = map[string]string{
	"normal":      Normal,
	"gaussian":    Normal,
	"norm":        Normal,
	"lognormal":   LogNormal,
	"log-normal":  LogNormal,
	"lognorm":     LogNormal,
	"uniform":     Uniform,
	"triangle":    Triangle,
	"triangular":  Triangle,
	"exponential": Exponential,
	"exp":         Exponential,
}

// CanonicalDistribution normalises a user supplied distribution name.
func CanonicalDistribution(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "_", "-")
	canonical, ok := distributionAliases[key]
	return canonical, ok
}

// Params names a distribution and carries its parameters. Only the fields
// relevant to Name are read.
type Params struct {
	Name   string  `json:"name" yaml:"name" mapstructure:"name"`
	Mean   float64 `json:"mean,omitempty" yaml:"mean,omitempty" mapstructure:"mean"`
	StdDev float64 `json:"stdDev,omitempty" yaml:"stdDev,omitempty" mapstructure:"stdDev"`
	Mu     float64 `json:"mu,omitempty" yaml:"mu,omitempty" mapstructure:"mu"`
	Sigma  float64 `json:"sigma,omitempty" yaml:"sigma,omitempty" mapstructure:"sigma"`
	Min    float64 `json:"min,omitempty" yaml:"min,omitempty" mapstructure:"min"`
	Max    float64 `json:"max,omitempty" yaml:"max,omitempty" mapstructure:"max"`
	Mode   float64 `json:"mode,omitempty" yaml:"mode,omitempty" mapstructure:"mode"`
	Rate   float64 `json:"rate,omitempty" yaml:"rate,omitempty" mapstructure:"rate"`
}

// Validate checks the parameters of the named distribution.
func (p Params) Validate() error {
	name, ok := CanonicalDistribution(p.Name)
	if !ok {
		return fmt.Errorf("%w: unknown distribution %q", ErrInvalidDistribution, p.Name)
	}
	for _, v := range []float64{p.Mean, p.StdDev, p.Mu, p.Sigma, p.Min, p.Max, p.Mode, p.Rate} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s parameters must be finite", ErrInvalidDistribution, name)
		}
	}

	switch name {
	case Normal:
		if p.StdDev <= 0 {
			return fmt.Errorf("%w: normal stdDev must be positive, got %v", ErrInvalidDistribution, p.StdDev)
		}
	case LogNormal:
		if p.Sigma <= 0 {
			return fmt.Errorf("%w: lognormal sigma must be positive, got %v", ErrInvalidDistribution, p.Sigma)
		}
	case Uniform:
		if p.Min >= p.Max {
			return fmt.Errorf("%w: uniform min %v must be below max %v", ErrInvalidDistribution, p.Min, p.Max)
		}
	case Triangle:
		if p.Min >= p.Max || p.Mode < p.Min || p.Mode > p.Max {
			return fmt.Errorf("%w: triangle requires min < max and min <= mode <= max (got %v, %v, %v)",
				ErrInvalidDistribution, p.Min, p.Mode, p.Max)
		}
	case Exponential:
		if p.Rate <= 0 {
			return fmt.Errorf("%w: exponential rate must be positive, got %v", ErrInvalidDistribution, p.Rate)
		}
	}
	return nil
}

// Distribution is a continuous demand distribution restricted to positive
// values.
type Distribution interface {
	CDF(x float64) float64
	Quantile(p float64) float64
	Rand() float64
}

// New builds the distribution described by p, conditioned on demand > 0.
// The same seed always yields the same sequence of draws.
//
// Every draw, including rejection retries, advances one PCG source owned by
// the returned Distribution. It must not be shared across goroutines: give
// each goroutine its own Distribution, built with its own seed.
func New(p Params, seed uint64) (Distribution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	name, _ := CanonicalDistribution(p.Name)
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)

	var b Distribution
	switch name {
	case Normal:
		b = distuv.Normal{Mu: p.Mean, Sigma: p.StdDev, Src: src}
	case LogNormal:
		b = distuv.LogNormal{Mu: p.Mu, Sigma: p.Sigma, Src: src}
	case Uniform:
		b = distuv.Uniform{Min: p.Min, Max: p.Max, Src: src}
	case Triangle:
		b = distuv.NewTriangle(p.Min, p.Max, p.Mode, src)
	case Exponential:
		b = distuv.Exponential{Rate: p.Rate, Src: src}
	}

	below := math.Max(b.CDF(0), 0)
	if 1-below < positiveMassFloor {
		return nil, fmt.Errorf("%w: %s places %.4f of its mass on positive demand", ErrInvalidDistribution, name, 1-below)
	}
	return &positive{base: b, below: below, rng: rand.New(src)}, nil
}

// positive conditions a distribution on x > 0.
type positive struct {
	base  Distribution
	below float64
	rng   *rand.Rand
}

func (d *positive) CDF(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return (d.base.CDF(x) - d.below) / (1 - d.below)
}

func (d *positive) Quantile(p float64) float64 {
	if d.below == 0 {
		return d.base.Quantile(p)
	}
	return d.base.Quantile(d.below + p*(1-d.below))
}

// Rand redraws non-positive values. After maxRejections misses it inverts
// a uniform draw instead.
func (d *positive) Rand() float64 {
	for i := 0; i < maxRejections; i++ {
		if x := d.base.Rand(); x > 0 {
			return x
		}
	}
	for {
		u := d.rng.Float64()
		if u == 0 {
			continue
		}
		if x := d.Quantile(u); x > 0 {
			return x
		}
	}
}
