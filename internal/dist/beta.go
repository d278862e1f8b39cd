package dist

import "math"

// Beta is a Beta(Alpha, Beta) distribution, used as prior and posterior of
// the per-key accuracy model.
type Beta struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// UniformPrior is the neutral Beta(1,1) prior used for unseen keys.
func UniformPrior() Beta {
	return Beta{Alpha: 1, Beta: 1}
}

// Posterior returns the conjugate update of the prior after observing the
// given success and failure counts.
func Posterior(prior Beta, successes, failures float64) Beta {
	if successes < 0 {
		successes = 0
	}
	if failures < 0 {
		failures = 0
	}
	return Beta{Alpha: prior.Alpha + successes, Beta: prior.Beta + failures}
}

// Mean returns alpha/(alpha+beta).
func (d Beta) Mean() float64 {
	return d.Alpha / (d.Alpha + d.Beta)
}

// Variance returns ab / ((a+b)^2 (a+b+1)).
func (d Beta) Variance() float64 {
	s := d.Alpha + d.Beta
	return d.Alpha * d.Beta / (s * s * (s + 1))
}

// CredibleInterval returns the equal-tailed interval at the given level,
// e.g. level 0.95 inverts the CDF at 0.025 and 0.975.
func (d Beta) CredibleInterval(level float64) (lo, hi float64) {
	tail := (1 - level) / 2
	lo = InverseRegIncompleteBeta(tail, d.Alpha, d.Beta)
	hi = InverseRegIncompleteBeta(1-tail, d.Alpha, d.Beta)
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// Confidence maps an effective sample size onto [0,1], saturating at 100
// observations.
func Confidence(effectiveN float64) float64 {
	if effectiveN < 0 {
		effectiveN = 0
	}
	return math.Min(1, effectiveN/100)
}
