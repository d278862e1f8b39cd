package dist

import (
	"math"
	"math/rand"
)

// Sampler draws from Gamma and Beta distributions using an injected random
// source, so tests can pin a seed while production uses an arbitrary one.
type Sampler struct {
	rnd *rand.Rand
}

// NewSampler wraps the given source. A nil rnd gets a time-free default
// seed; callers that care should pass their own.
func NewSampler(rnd *rand.Rand) *Sampler {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	return &Sampler{rnd: rnd}
}

// Gamma draws from Gamma(shape, 1) with the Marsaglia-Tsang method.
// Shapes below 1 are boosted: Gamma(shape) = Gamma(shape+1) * U^(1/shape).
func (s *Sampler) Gamma(shape float64) float64 {
	if shape <= 0 {
		return 0
	}
	if shape < 1 {
		u := s.rnd.Float64()
		for u == 0 {
			u = s.rnd.Float64()
		}
		return s.Gamma(shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		x := s.rnd.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := s.rnd.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if u > 0 && math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// Beta draws from Beta(a,b) via two independent Gamma draws.
func (s *Sampler) Beta(a, b float64) float64 {
	ga := s.Gamma(a)
	gb := s.Gamma(b)
	if ga+gb == 0 {
		return 0.5
	}
	return ga / (ga + gb)
}

// Thompson draws one sample from the posterior Beta(alpha+successes,
// beta+failures). Exploration happens because uncertain posteriors spread
// their draws while well-observed ones concentrate.
func (s *Sampler) Thompson(prior Beta, successes, failures float64) float64 {
	post := Posterior(prior, successes, failures)
	return s.Beta(post.Alpha, post.Beta)
}

// Float64 exposes the underlying uniform source for cumulative draws.
func (s *Sampler) Float64() float64 {
	return s.rnd.Float64()
}
