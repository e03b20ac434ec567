/*
 * fit.go, part of persistence.
 *
 *
 * Copyright 2024 Raul Mera rauldotmeraatusachdotcl
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

/*
Package decay fits the exponential decay

	C(n) = exp(-n*l_B/l_P)

to a bond autocorrelation function, to obtain the persistence length l_P.

The fit is a least-squares minimization over the decay rate k = l_B/l_P,
done in terms of ln k so k stays positive. It uses gonum's BFGS with the
analytic gradient, and Nelder-Mead to finish the minimization when noise
makes BFGS's line search fail.
*/
package decay

import (
	"fmt"
	"math"

	persistence "github.com/rmera/persistence"
	"github.com/rmera/persistence/autocorr"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Fit is the result of fitting a correlation function.
type Fit struct {
	lp          float64
	k           float64
	lb          float64
	ssr         float64
	r2          float64
	iterations  int
	evaluations int
	guess       float64
	lags        []int
}

// PersistenceLength returns l_P, in the units of the coordinates.
func (F *Fit) PersistenceLength() float64 { return F.lp }

// Rate returns the fitted k = l_B/l_P, the decay per bond.
func (F *Fit) Rate() float64 { return F.k }

// BondLength returns the l_B used in the fit.
func (F *Fit) BondLength() float64 { return F.lb }

// SSR returns the (weighted, if requested) sum of squared residuals at the minimum.
func (F *Fit) SSR() float64 { return F.ssr }

// RSquared returns the coefficient of determination of the fit.
func (F *Fit) RSquared() float64 { return F.r2 }

// Iterations returns the major iterations the optimizer took.
func (F *Fit) Iterations() int { return F.iterations }

// Evaluations returns the number of times the objective function was evaluated.
func (F *Fit) Evaluations() int { return F.evaluations }

// InitialGuess returns the l_P the optimization started from.
func (F *Fit) InitialGuess() float64 { return F.guess }

// Curve returns the fitted model, exp(-n*k), at each lag used in the fit.
func (F *Fit) Curve() []autocorr.Point {
	ret := make([]autocorr.Point, len(F.lags))
	for i, n := range F.lags {
		ret[i] = autocorr.Point{Lag: n, Value: math.Exp(-float64(n) * F.k)}
	}
	return ret
}

func (F *Fit) String() string {
	return fmt.Sprintf("l_P: %.4f l_B: %.4f R^2: %.5f SSR: %.3g (%d iterations)", F.lp, F.lb, F.r2, F.ssr, F.iterations)
}

// residuals holds the data for the objective function.
type residuals struct {
	n []float64
	y []float64
	w []float64
}

// f returns the sum of squared residuals at theta = ln k.
func (r *residuals) f(x []float64) float64 {
	k := math.Exp(x[0])
	var s float64
	for i, n := range r.n {
		d := r.y[i] - math.Exp(-n*k)
		s += r.w[i] * d * d
	}
	return s
}

// grad puts in g the derivative of f with respect to theta.
func (r *residuals) grad(g, x []float64) {
	k := math.Exp(x[0])
	var s float64
	for i, n := range r.n {
		e := math.Exp(-n * k)
		s += 2 * r.w[i] * (r.y[i] - e) * n * k * e
	}
	g[0] = s
}

func (r *residuals) curve(k float64) []float64 {
	ret := make([]float64, len(r.n))
	for i, n := range r.n {
		ret[i] = math.Exp(-n * k)
	}
	return ret
}

// FitDecay fits exp(-n*l_B/l_P) to c, and returns the fit. o can be nil,
// in which case DefaultOptions are used.
// It fails with persistence.ErrNotEnoughLags if fewer than 2 lags are available,
// and with persistence.ErrFitDidNotConverge if the optimizer did not converge
// or the data do not decay (l_P is not bounded by them).
// FitDecay has no side effects, the same input gives the same output.
func FitDecay(c *autocorr.Correlation, o *Options) (*Fit, error) {
	const caller = "decay.FitDecay"
	if c == nil {
		return nil, persistence.NewError(persistence.ErrInput, "nil correlation", true, caller)
	}
	opt := o.withDefaults()
	lb := c.BondLength()
	r := new(residuals)
	lags := make([]int, 0, c.Len())
	values := make([]float64, 0, c.Len())
	counts := c.Counts()
	for i, v := range c.Points() {
		if opt.MaxLag > 0 && v.Lag > opt.MaxLag {
			break
		}
		lags = append(lags, v.Lag)
		values = append(values, v.Value)
		r.n = append(r.n, float64(v.Lag))
		r.y = append(r.y, v.Value)
		w := 1.0
		if opt.Weighted {
			w = float64(counts[i])
		}
		r.w = append(r.w, w)
	}
	if len(lags) < 2 {
		return nil, persistence.Errorf(persistence.ErrNotEnoughLags, caller, "%d lags available", len(lags)).SetCritical(true)
	}
	lp0 := opt.InitialGuess
	if !(lp0 > 0) || math.IsInf(lp0, 0) {
		lp0 = guess(lags, values, lb)
	}
	x0 := []float64{math.Log(lb / lp0)}
	f0 := r.f(x0)
	p := optimize.Problem{Func: r.f, Grad: r.grad}
	settings := &optimize.Settings{
		MajorIterations:   opt.MaxIterations,
		GradientThreshold: opt.GradientTol,
		Converger: &optimize.FunctionConverge{
			Absolute:   opt.FunctionTol,
			Iterations: opt.StallIterations,
		},
	}
	res, err := optimize.Minimize(p, x0, settings, &optimize.BFGS{})
	iterations, evaluations := 0, 0
	if res != nil {
		iterations, evaluations = res.Stats.MajorIterations, res.Stats.FuncEvaluations
	}
	if err != nil || res.Status.Early() {
		//With noisy data the line search runs out of resolution close to the
		//minimum, and BFGS reports a failure there.
		res, err = polish(r, x0, f0, res, opt)
		if err != nil {
			return nil, persistence.DecorateError(err, caller)
		}
		iterations += res.Stats.MajorIterations
		evaluations += res.Stats.FuncEvaluations
	}
	k := math.Exp(res.X[0])
	ssr := res.F
	if !(ssr <= f0) {
		return nil, persistence.Errorf(persistence.ErrFitDidNotConverge, caller, "residual went from %g to %g", f0, ssr).SetCritical(true)
	}
	maxLag := r.n[len(r.n)-1]
	if !(k > 0) || math.IsInf(k, 0) || k*maxLag < opt.MinDecay {
		return nil, persistence.Errorf(persistence.ErrFitDidNotConverge, caller, "no decay in the data (rate %g per bond), persistence length is unbounded", k).SetCritical(true)
	}
	var weights []float64
	if opt.Weighted {
		weights = r.w
	}
	F := &Fit{
		lp:          lb / k,
		k:           k,
		lb:          lb,
		ssr:         ssr,
		r2:          stat.RSquaredFrom(r.curve(k), r.y, weights),
		iterations:  iterations,
		evaluations: evaluations,
		guess:       lp0,
		lags:        lags,
	}
	return F, nil
}

// polish continues a failed minimization with Nelder-Mead, which needs no line
// search, from the best point found so far. The result is accepted only if
// it is a minimum at the resolution opt.MinimumStep.
func polish(r *residuals, x0 []float64, f0 float64, prev *optimize.Result, opt Options) (*optimize.Result, error) {
	const caller = "decay.polish"
	start := x0
	if prev != nil && len(prev.X) == 1 && prev.F <= f0 && !math.IsNaN(prev.X[0]) && !math.IsInf(prev.X[0], 0) {
		start = prev.X
	}
	settings := &optimize.Settings{
		MajorIterations: 4 * opt.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   opt.FunctionTol,
			Iterations: opt.StallIterations,
		},
	}
	res, err := optimize.Minimize(optimize.Problem{Func: r.f}, start, settings, &optimize.NelderMead{SimplexSize: 0.1})
	if err != nil {
		return nil, persistence.NewError(persistence.ErrFitDidNotConverge, err.Error(), true, caller)
	}
	if res.Status.Early() {
		return nil, persistence.Errorf(persistence.ErrFitDidNotConverge, caller, "optimizer stopped early: %s", res.Status).SetCritical(true)
	}
	if !r.isMinimum(res.X[0], opt.MinimumStep) {
		return nil, persistence.Errorf(persistence.ErrFitDidNotConverge, caller, "ln k = %g is not a minimum within %g", res.X[0], opt.MinimumStep).SetCritical(true)
	}
	return res, nil
}

// isMinimum returns true if the residual at theta is not larger than at theta+/-h.
func (r *residuals) isMinimum(theta, h float64) bool {
	f := r.f([]float64{theta})
	return f <= r.f([]float64{theta - h}) && f <= r.f([]float64{theta + h})
}
