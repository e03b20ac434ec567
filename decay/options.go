/*
 * options.go, part of persistence.
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

package decay

const (
	DefaultMaxIterations   = 200
	DefaultGradientTol     = 1e-10
	DefaultFunctionTol     = 1e-12
	DefaultStallIterations = 20
	DefaultMinDecay        = 1e-3
	DefaultMinimumStep     = 1e-4
)

// Options controls the fit. Zero values are replaced by the defaults, so
// an Options read from a partial YAML file is still usable.
type Options struct {
	//Only lags up to MaxLag are fitted. 0 means all.
	MaxLag int `yaml:"max_lag"`
	//Weight each squared residual by the number of samples behind its C(n).
	Weighted bool `yaml:"weighted"`
	//Starting l_P, in the units of the coordinates. If 0, it is estimated from the data.
	InitialGuess    float64 `yaml:"initial_guess"`
	MaxIterations   int     `yaml:"max_iterations"`
	GradientTol     float64 `yaml:"gradient_tol"`
	FunctionTol     float64 `yaml:"function_tol"`
	StallIterations int     `yaml:"stall_iterations"`
	//A fitted decay over the longest lag, k*n_max, smaller than this is taken
	//as no decay at all (l_P unbounded by the data).
	MinDecay float64 `yaml:"min_decay"`
	//A fitted ln k must give a residual no larger than those at ln k +/- MinimumStep.
	MinimumStep float64 `yaml:"minimum_step"`
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{
		MaxIterations:   DefaultMaxIterations,
		GradientTol:     DefaultGradientTol,
		FunctionTol:     DefaultFunctionTol,
		StallIterations: DefaultStallIterations,
		MinDecay:        DefaultMinDecay,
		MinimumStep:     DefaultMinimumStep,
	}
}

// withDefaults returns a copy of O with the unset fields filled in.
func (O *Options) withDefaults() Options {
	if O == nil {
		return *DefaultOptions()
	}
	r := *O
	d := DefaultOptions()
	if r.MaxIterations <= 0 {
		r.MaxIterations = d.MaxIterations
	}
	if r.GradientTol <= 0 {
		r.GradientTol = d.GradientTol
	}
	if r.FunctionTol <= 0 {
		r.FunctionTol = d.FunctionTol
	}
	if r.StallIterations <= 0 {
		r.StallIterations = d.StallIterations
	}
	if r.MinDecay <= 0 {
		r.MinDecay = d.MinDecay
	}
	if r.MinimumStep <= 0 {
		r.MinimumStep = d.MinimumStep
	}
	if r.MaxLag < 0 {
		r.MaxLag = 0
	}
	return r
}
