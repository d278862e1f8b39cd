package dist

import (
	"math"
	"math/rand"
	"testing"
)

func TestLogGamma_KnownValues(t *testing.T) {
	cases := []struct {
		x    float64
		want float64
	}{
		{1, 0},            // Γ(1) = 1
		{2, 0},            // Γ(2) = 1
		{5, math.Log(24)}, // Γ(5) = 24
		{0.5, math.Log(math.Sqrt(math.Pi))},
		{10, math.Log(362880)}, // Γ(10) = 9!
	}
	for _, c := range cases {
		got := LogGamma(c.x)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("LogGamma(%v) = %v, want %v", c.x, got, c.want)
		}
	}
}

func TestRegIncompleteBeta_Bounds(t *testing.T) {
	if got := RegIncompleteBeta(0, 2, 3); got != 0 {
		t.Errorf("I_0 = %v, want 0", got)
	}
	if got := RegIncompleteBeta(1, 2, 3); got != 1 {
		t.Errorf("I_1 = %v, want 1", got)
	}
	// Uniform case: I_x(1,1) = x.
	for _, x := range []float64{0.1, 0.25, 0.5, 0.9} {
		if got := RegIncompleteBeta(x, 1, 1); math.Abs(got-x) > 1e-10 {
			t.Errorf("I_%v(1,1) = %v, want %v", x, got, x)
		}
	}
	// Symmetric case: I_0.5(a,a) = 0.5.
	if got := RegIncompleteBeta(0.5, 3, 3); math.Abs(got-0.5) > 1e-10 {
		t.Errorf("I_0.5(3,3) = %v, want 0.5", got)
	}
}

func TestInverseRegIncompleteBeta_RoundTrip(t *testing.T) {
	for _, c := range []struct{ p, a, b float64 }{
		{0.5, 2, 2},
		{0.25, 5, 3},
		{0.9, 9, 3},
	} {
		x := InverseRegIncompleteBeta(c.p, c.a, c.b)
		back := RegIncompleteBeta(x, c.a, c.b)
		if math.Abs(back-c.p) > 1e-3 {
			t.Errorf("round trip p=%v a=%v b=%v: x=%v back=%v", c.p, c.a, c.b, x, back)
		}
	}
}

func TestInverseRegIncompleteBeta_Clamped(t *testing.T) {
	x := InverseRegIncompleteBeta(1e-9, 50, 1)
	if x < 0.001 || x > 0.999 {
		t.Errorf("inverse escaped clamp range: %v", x)
	}
}

func TestBeta_MeanInOpenUnitInterval(t *testing.T) {
	for _, d := range []Beta{{1, 1}, {0.5, 0.5}, {9, 3}, {100, 1}} {
		m := d.Mean()
		if m <= 0 || m >= 1 {
			t.Errorf("Beta(%v,%v).Mean() = %v, want in (0,1)", d.Alpha, d.Beta, m)
		}
		want := d.Alpha / (d.Alpha + d.Beta)
		if m != want {
			t.Errorf("Mean = %v, want exactly %v", m, want)
		}
	}
}

func TestBeta_Variance(t *testing.T) {
	d := Beta{Alpha: 2, Beta: 2}
	want := 4.0 / (16.0 * 5.0)
	if got := d.Variance(); math.Abs(got-want) > 1e-15 {
		t.Errorf("Variance = %v, want %v", got, want)
	}
}

func TestPosterior_ScenarioEightOfTen(t *testing.T) {
	post := Posterior(UniformPrior(), 8, 2)
	if got := post.Mean(); math.Abs(got-0.75) > 1e-15 {
		t.Errorf("posterior mean = %v, want 0.75", got)
	}

	lo, hi := post.CredibleInterval(0.95)
	if !(0 <= lo && lo <= 0.75 && 0.75 <= hi && hi <= 1) {
		t.Errorf("interval [%v, %v] does not bracket the mean", lo, hi)
	}

	// Ten times the data at the same ratio must tighten the interval.
	big := Posterior(UniformPrior(), 80, 20)
	blo, bhi := big.CredibleInterval(0.95)
	if (bhi - blo) >= (hi - lo) {
		t.Errorf("interval with n=100 (%v) not tighter than n=10 (%v)", bhi-blo, hi-lo)
	}
}

func TestCredibleInterval_OrderedAroundMean(t *testing.T) {
	for _, c := range []struct{ s, f float64 }{{0, 0}, {1, 0}, {0, 1}, {3, 7}, {50, 50}} {
		post := Posterior(UniformPrior(), c.s, c.f)
		lo, hi := post.CredibleInterval(0.9)
		m := post.Mean()
		if !(0 <= lo && lo <= m && m <= hi && hi <= 1) {
			t.Errorf("s=%v f=%v: want 0 <= %v <= %v <= %v <= 1", c.s, c.f, lo, m, hi)
		}
	}
}

func TestConfidence(t *testing.T) {
	if got := Confidence(0); got != 0 {
		t.Errorf("Confidence(0) = %v", got)
	}
	if got := Confidence(50); got != 0.5 {
		t.Errorf("Confidence(50) = %v, want 0.5", got)
	}
	if got := Confidence(1000); got != 1 {
		t.Errorf("Confidence(1000) = %v, want 1", got)
	}
}

func TestSampler_GammaMeanMatchesShape(t *testing.T) {
	s := NewSampler(rand.New(rand.NewSource(42)))
	for _, shape := range []float64{0.5, 1, 2.5, 9} {
		const n = 20000
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += s.Gamma(shape)
		}
		mean := sum / n
		// Gamma(shape, 1) has mean = shape; allow generous sampling error.
		if math.Abs(mean-shape) > 0.08*shape+0.05 {
			t.Errorf("shape %v: sample mean %v", shape, mean)
		}
	}
}

func TestSampler_BetaWithinUnitInterval(t *testing.T) {
	s := NewSampler(rand.New(rand.NewSource(7)))
	for i := 0; i < 5000; i++ {
		v := s.Beta(2, 5)
		if v < 0 || v > 1 {
			t.Fatalf("Beta draw out of range: %v", v)
		}
	}
}

func TestSampler_ThompsonDeterministicWithSeed(t *testing.T) {
	a := NewSampler(rand.New(rand.NewSource(99)))
	b := NewSampler(rand.New(rand.NewSource(99)))
	for i := 0; i < 100; i++ {
		if a.Thompson(UniformPrior(), 8, 2) != b.Thompson(UniformPrior(), 8, 2) {
			t.Fatal("same seed produced diverging Thompson draws")
		}
	}
}

func TestSampler_ThompsonConcentratesWithData(t *testing.T) {
	s := NewSampler(rand.New(rand.NewSource(3)))
	const n = 5000
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += s.Thompson(UniformPrior(), 80, 20)
	}
	mean := sum / n
	if math.Abs(mean-0.794) > 0.03 {
		t.Errorf("Thompson sample mean = %v, want near posterior mean 0.794", mean)
	}
}
