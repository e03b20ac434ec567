package decay

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	persistence "github.com/rmera/persistence"
	"github.com/rmera/persistence/autocorr"
)

// exact returns C(n) = exp(-n*lb/lp) for lags 0..nlags-1.
func exact(Te *testing.T, lp, lb float64, nlags int) *autocorr.Correlation {
	Te.Helper()
	p := make([]autocorr.Point, nlags)
	for i := range p {
		p[i] = autocorr.Point{Lag: i, Value: math.Exp(-float64(i) * lb / lp)}
	}
	c, err := autocorr.NewCorrelation(p, lb, nil)
	if err != nil {
		Te.Fatal(err)
	}
	return c
}

func within(got, want, rel float64) bool {
	return math.Abs(got-want) <= rel*math.Abs(want)
}

func TestExactDecay(Te *testing.T) {
	for _, v := range []struct{ lp, lb float64 }{{10, 1.5}, {3.8, 3.8}, {50, 1.54}, {2, 1}} {
		F, err := FitDecay(exact(Te, v.lp, v.lb, 20), nil)
		if err != nil {
			Te.Fatalf("l_P %g: %v", v.lp, err)
		}
		if !within(F.PersistenceLength(), v.lp, 0.01) {
			Te.Errorf("expected l_P %g, got %g", v.lp, F.PersistenceLength())
		}
		if F.RSquared() < 0.999 {
			Te.Errorf("l_P %g: R^2 %g for exact data", v.lp, F.RSquared())
		}
		Te.Log(F)
	}
}

func TestBadInitialGuess(Te *testing.T) {
	c := exact(Te, 12, 1.5, 25)
	for _, g := range []float64{0.5, 3, 100, 1000} {
		o := DefaultOptions()
		o.InitialGuess = g
		F, err := FitDecay(c, o)
		if err != nil {
			Te.Fatalf("guess %g: %v", g, err)
		}
		if !within(F.PersistenceLength(), 12, 0.01) {
			Te.Errorf("guess %g: expected l_P 12, got %g", g, F.PersistenceLength())
		}
		if F.InitialGuess() != g {
			Te.Errorf("guess %g was not used, reported %g", g, F.InitialGuess())
		}
	}
}

func TestWeightedAndMaxLag(Te *testing.T) {
	p := make([]autocorr.Point, 30)
	counts := make([]int, 30)
	for i := range p {
		v := math.Exp(-float64(i) / 8)
		//noisy tail, with few samples
		if i > 15 {
			v += 0.05 * float64(i%3-1)
		}
		p[i] = autocorr.Point{Lag: i, Value: v}
		counts[i] = 30 - i
	}
	c, err := autocorr.NewCorrelation(p, 1, counts)
	if err != nil {
		Te.Fatal(err)
	}
	o := DefaultOptions()
	o.MaxLag = 15
	F, err := FitDecay(c, o)
	if err != nil {
		Te.Fatal(err)
	}
	if !within(F.PersistenceLength(), 8, 0.01) {
		Te.Errorf("with the noisy tail excluded, expected l_P 8, got %g", F.PersistenceLength())
	}
	if len(F.Curve()) != 16 || F.Curve()[15].Lag != 15 {
		Te.Errorf("the curve should cover lags 0 to 15, got %d points", len(F.Curve()))
	}
	o = DefaultOptions()
	o.Weighted = true
	F, err = FitDecay(c, o)
	if err != nil {
		Te.Fatal(err)
	}
	if !within(F.PersistenceLength(), 8, 0.1) {
		Te.Errorf("weighted fit too far from 8: %g", F.PersistenceLength())
	}
}

// Noise keeps BFGS's line search from resolving the minimum, which
// should not make the fit fail.
func TestNoisyDecay(Te *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const lb = 1.5
	ssr := func(p []autocorr.Point, k float64) float64 {
		var s float64
		for _, v := range p {
			d := v.Value - math.Exp(-float64(v.Lag)*k)
			s += d * d
		}
		return s
	}
	for trial := 0; trial < 100; trial++ {
		lp := 1 + 19.5*rng.Float64()
		p := make([]autocorr.Point, 10+rng.Intn(81))
		for i := range p {
			p[i] = autocorr.Point{Lag: i, Value: math.Exp(-float64(i)*lb/lp) + 0.03*rng.NormFloat64()}
		}
		p[0].Value = 1
		c, err := autocorr.NewCorrelation(p, lb, nil)
		if err != nil {
			Te.Fatal(err)
		}
		F, err := FitDecay(c, nil)
		if err != nil {
			Te.Fatalf("trial %d (l_P %g, %d lags): %v", trial, lp, len(p), err)
		}
		if truth := ssr(p, lb/lp); F.SSR() > truth*(1+1e-9) {
			Te.Errorf("trial %d: SSR %g is larger than the %g of the true l_P", trial, F.SSR(), truth)
		}
		theta := math.Log(F.Rate())
		for _, h := range []float64{-1e-3, 1e-3} {
			if s := ssr(p, math.Exp(theta+h)); s < F.SSR() {
				Te.Errorf("trial %d: ln k %g is not a minimum, SSR %g at %+g", trial, theta, s, h)
			}
		}
		if len(p) >= 20 && !within(F.PersistenceLength(), lp, 0.25) {
			Te.Errorf("trial %d: expected l_P near %g, got %g", trial, lp, F.PersistenceLength())
		}
	}
}

func TestPolishRejectsNonMinimum(Te *testing.T) {
	r := &residuals{n: []float64{0, 1, 2, 3}, y: []float64{1, 0.5, 0.25, 0.125}, w: []float64{1, 1, 1, 1}}
	lnk := math.Log(math.Ln2)
	if !r.isMinimum(lnk, 1e-4) {
		Te.Errorf("ln k = %g should be a minimum", lnk)
	}
	if r.isMinimum(lnk+0.5, 1e-4) || r.isMinimum(lnk-0.5, 1e-4) {
		Te.Error("points away from the minimum taken as minima")
	}
	res, err := polish(r, []float64{lnk + 1}, r.f([]float64{lnk + 1}), nil, DefaultOptions().withDefaults())
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(res.X[0]-lnk) > 1e-3 {
		Te.Errorf("expected ln k %g, got %g", lnk, res.X[0])
	}
}

func TestStraightChainsDoNotConverge(Te *testing.T) {
	p := []autocorr.Point{{Lag: 0, Value: 1}, {Lag: 1, Value: 1}, {Lag: 2, Value: 1}, {Lag: 3, Value: 1}}
	c, err := autocorr.NewCorrelation(p, 1.5, []int{12, 9, 6, 3})
	if err != nil {
		Te.Fatal(err)
	}
	F, err := FitDecay(c, nil)
	if !errors.Is(err, persistence.ErrFitDidNotConverge) {
		Te.Errorf("expected ErrFitDidNotConverge, got %v (fit: %v)", err, F)
	}
	if F != nil {
		Te.Error("no fit should be returned")
	}
}

func TestNotEnoughLags(Te *testing.T) {
	c, err := autocorr.NewCorrelation([]autocorr.Point{{Lag: 0, Value: 1}}, 1, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if _, err = FitDecay(c, nil); !errors.Is(err, persistence.ErrNotEnoughLags) {
		Te.Errorf("expected ErrNotEnoughLags, got %v", err)
	}
	o := DefaultOptions()
	o.MaxLag = 1
	c = exact(Te, 5, 1, 10)
	if _, err = FitDecay(c, o); err != nil {
		Te.Errorf("two lags should be enough: %v", err)
	}
}

func TestRepeatable(Te *testing.T) {
	p := make([]autocorr.Point, 15)
	for i := range p {
		p[i] = autocorr.Point{Lag: i, Value: math.Exp(-float64(i)/5) + 0.01*math.Sin(float64(i))}
	}
	p[0].Value = 1
	c, err := autocorr.NewCorrelation(p, 1.2, nil)
	if err != nil {
		Te.Fatal(err)
	}
	F1, err := FitDecay(c, nil)
	if err != nil {
		Te.Fatal(err)
	}
	F2, err := FitDecay(c, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if F1.PersistenceLength() != F2.PersistenceLength() || F1.SSR() != F2.SSR() {
		Te.Errorf("fits differ: %v and %v", F1, F2)
	}
	if !within(F1.PersistenceLength(), 6, 0.1) {
		Te.Errorf("expected l_P near 6, got %g", F1.PersistenceLength())
	}
	if math.Abs(F1.Rate()*F1.PersistenceLength()-F1.BondLength()) > 1e-12 {
		Te.Error("rate and persistence length are inconsistent")
	}
}

func TestInitialGuess(Te *testing.T) {
	//crosses 1/e between lags 3 and 4
	p := []autocorr.Point{{Lag: 0, Value: 1}, {Lag: 1, Value: 0.8}, {Lag: 2, Value: 0.6}, {Lag: 3, Value: 0.4}, {Lag: 4, Value: 0.3}}
	c, err := autocorr.NewCorrelation(p, 2, nil)
	if err != nil {
		Te.Fatal(err)
	}
	ne := 3 + (0.4-1/math.E)/(0.4-0.3)
	if g := InitialGuess(c); math.Abs(g-2*ne) > 1e-12 {
		Te.Errorf("expected %g, got %g", 2*ne, g)
	}
	//never crosses, log-linear slope
	c = exact(Te, 30, 1, 5)
	if g := InitialGuess(c); !within(g, 30, 1e-9) {
		Te.Errorf("expected 30 from the log slope, got %g", g)
	}
	//no decay at all
	p = []autocorr.Point{{Lag: 0, Value: 1}, {Lag: 1, Value: 1}, {Lag: 2, Value: 1}}
	c, err = autocorr.NewCorrelation(p, 1.5, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if g := InitialGuess(c); g != 4.5 {
		Te.Errorf("expected the fallback 4.5, got %g", g)
	}
}

func TestOptionsDefaults(Te *testing.T) {
	o := (&Options{MaxLag: -3, Weighted: true}).withDefaults()
	if o.MaxLag != 0 || !o.Weighted || o.MaxIterations != DefaultMaxIterations || o.GradientTol != DefaultGradientTol || o.MinimumStep != DefaultMinimumStep {
		Te.Errorf("defaults not filled in: %+v", o)
	}
	var n *Options
	if n.withDefaults() != *DefaultOptions() {
		Te.Error("nil options should give the defaults")
	}
}
