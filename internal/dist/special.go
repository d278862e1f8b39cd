// Package dist implements the probability machinery behind the weakness
// engine: log-gamma, the regularized incomplete beta function and its
// inverse, Beta posteriors with credible intervals, and Gamma/Beta sampling
// for Thompson draws.
package dist

import "math"

// lanczosG and lanczosCoef are the standard g=7, n=9 Lanczos parameters.
var lanczosCoef = [9]float64{
	0.99999999999980993,
	676.5203681218851,
	-1259.1392167224028,
	771.32342877765313,
	-176.61502916214059,
	12.507343278686905,
	-0.13857109526572012,
	9.9843695780195716e-6,
	1.5056327351493116e-7,
}

const lanczosG = 7.0

// LogGamma returns ln Γ(x) for x > 0 via the Lanczos approximation.
func LogGamma(x float64) float64 {
	if x < 0.5 {
		// Reflection formula keeps the approximation in its stable range.
		return math.Log(math.Pi/math.Sin(math.Pi*x)) - LogGamma(1-x)
	}
	x--
	a := lanczosCoef[0]
	t := x + lanczosG + 0.5
	for i := 1; i < len(lanczosCoef); i++ {
		a += lanczosCoef[i] / (x + float64(i))
	}
	return 0.5*math.Log(2*math.Pi) + (x+0.5)*math.Log(t) - t + math.Log(a)
}

// logBeta returns ln B(a,b).
func logBeta(a, b float64) float64 {
	return LogGamma(a) + LogGamma(b) - LogGamma(a+b)
}

// RegIncompleteBeta returns I_x(a,b), the regularized incomplete beta
// function, evaluated with the Lentz continued fraction.
func RegIncompleteBeta(x, a, b float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	// Front factor x^a (1-x)^b / (a B(a,b)).
	lnFront := a*math.Log(x) + b*math.Log(1-x) - logBeta(a, b)
	front := math.Exp(lnFront) / a

	if x < (a+1)/(a+b+2) {
		return front * betaCF(x, a, b)
	}
	// Symmetry: I_x(a,b) = 1 - I_{1-x}(b,a).
	lnFrontSym := b*math.Log(1-x) + a*math.Log(x) - logBeta(a, b)
	return 1 - math.Exp(lnFrontSym)/b*betaCF(1-x, b, a)
}

// betaCF evaluates the continued fraction for the incomplete beta integral
// using the modified Lentz method.
func betaCF(x, a, b float64) float64 {
	const (
		maxIter = 200
		eps     = 3e-14
		tiny    = 1e-30
	)
	qab := a + b
	qap := a + 1
	qam := a - 1
	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d
	for m := 1; m <= maxIter; m++ {
		fm := float64(m)
		m2 := 2 * fm
		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c
		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < eps {
			break
		}
	}
	return h
}

// InverseRegIncompleteBeta solves I_x(a,b) = p for x with Newton-Raphson.
// Ten iterations, each step clamped to [0.001, 0.999]; if the budget runs
// out the last clamped estimate is returned, so results are best-effort
// rather than exact.
func InverseRegIncompleteBeta(p, a, b float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	x := a / (a + b) // start at the mean
	for i := 0; i < 10; i++ {
		f := RegIncompleteBeta(x, a, b) - p
		// Derivative is the beta density at x.
		lnPDF := (a-1)*math.Log(x) + (b-1)*math.Log(1-x) - logBeta(a, b)
		pdf := math.Exp(lnPDF)
		if pdf == 0 {
			break
		}
		x -= f / pdf
		if x < 0.001 {
			x = 0.001
		} else if x > 0.999 {
			x = 0.999
		}
	}
	return x
}
