/*
 * correlation.go, part of persistence.
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

package autocorr

import (
	"fmt"
	"math"
	"strings"

	persistence "github.com/rmera/persistence"
)

// Point is the value of C(n) for one lag.
type Point struct {
	Lag   int
	Value float64
}

// Correlation is a finished correlation function C(n), with the average bond
// length of the data it came from. It is immutable: all the slices returned
// by its methods are copies.
type Correlation struct {
	points     []Point
	counts     []int
	bondLength float64
}

// NewCorrelation builds a Correlation from values obtained elsewhere (or synthetic ones).
// Lags must be non-negative and strictly increasing, values finite and bondLength
// positive. counts, the number of samples behind each point, can be nil, in which
// case every point counts as one sample.
func NewCorrelation(points []Point, bondLength float64, counts []int) (*Correlation, error) {
	const caller = "autocorr.NewCorrelation"
	if !(bondLength > 0) || math.IsInf(bondLength, 0) {
		return nil, persistence.Errorf(persistence.ErrInput, caller, "bond length must be positive and finite, got %g", bondLength)
	}
	if counts != nil && len(counts) != len(points) {
		return nil, persistence.Errorf(persistence.ErrInput, caller, "%d counts for %d points", len(counts), len(points))
	}
	for i, v := range points {
		if v.Lag < 0 || (i > 0 && v.Lag <= points[i-1].Lag) {
			return nil, persistence.Errorf(persistence.ErrInput, caller, "lags must be non-negative and increasing, got %d at position %d", v.Lag, i)
		}
		if math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
			return nil, persistence.Errorf(persistence.ErrInput, caller, "non-finite value at lag %d", v.Lag)
		}
	}
	C := &Correlation{points: append([]Point(nil), points...), bondLength: bondLength}
	C.counts = make([]int, len(points))
	for i := range C.counts {
		C.counts[i] = 1
		if counts != nil {
			C.counts[i] = counts[i]
		}
	}
	return C, nil
}

// Len returns the number of lags for which C(n) is defined.
func (C *Correlation) Len() int { return len(C.points) }

// Points returns the (lag, value) pairs, in lag order.
func (C *Correlation) Points() []Point {
	return append([]Point(nil), C.points...)
}

// Lags returns the lags for which C(n) is defined, in order.
func (C *Correlation) Lags() []int {
	ret := make([]int, len(C.points))
	for i, v := range C.points {
		ret[i] = v.Lag
	}
	return ret
}

// Values returns C(n) for each lag in Lags.
func (C *Correlation) Values() []float64 {
	ret := make([]float64, len(C.points))
	for i, v := range C.points {
		ret[i] = v.Value
	}
	return ret
}

// X returns the contour distance for each lag in Lags, that is, n times the
// average bond length.
func (C *Correlation) X() []float64 {
	ret := make([]float64, len(C.points))
	for i, v := range C.points {
		ret[i] = float64(v.Lag) * C.bondLength
	}
	return ret
}

// Counts returns how many samples were averaged for each lag in Lags.
func (C *Correlation) Counts() []int {
	return append([]int(nil), C.counts...)
}

// At returns C(lag) and true, or 0 and false if C is not defined for lag.
func (C *Correlation) At(lag int) (float64, bool) {
	for _, v := range C.points {
		if v.Lag == lag {
			return v.Value, true
		}
		if v.Lag > lag {
			break
		}
	}
	return 0, false
}

// BondLength returns the average bond length, l_B.
func (C *Correlation) BondLength() float64 { return C.bondLength }

// String returns a table with the lags, values and counts, one lag per line.
func (C *Correlation) String() string {
	ret := make([]string, 0, len(C.points)+1)
	ret = append(ret, fmt.Sprintf("l_B: %.4f", C.bondLength))
	for i, v := range C.points {
		ret = append(ret, fmt.Sprintf("%5d %9.5f %8d", v.Lag, v.Value, C.counts[i]))
	}
	return strings.Join(ret, "\n")
}
