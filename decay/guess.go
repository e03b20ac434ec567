/*
 * guess.go, part of persistence.
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

import (
	"math"

	"github.com/rmera/persistence/autocorr"
)

// InitialGuess estimates l_P from a correlation function, to start the fit.
// It takes the contour distance at which C(n) first drops below 1/e
// (interpolating linearly between lags). If C(n) never gets there, it uses the
// slope of ln C(n) against n, through the origin. If that fails too, it returns
// the contour length of the longest lag available.
func InitialGuess(c *autocorr.Correlation) float64 {
	return guess(c.Lags(), c.Values(), c.BondLength())
}

func guess(lags []int, values []float64, lb float64) float64 {
	invE := 1 / math.E
	for i, v := range values {
		if v >= invE {
			continue
		}
		if i == 0 {
			break
		}
		n0, n1 := float64(lags[i-1]), float64(lags[i])
		ne := n0 + (values[i-1]-invE)/(values[i-1]-v)*(n1-n0)
		if ne > 0 {
			return ne * lb
		}
		break
	}
	var num, den float64
	for i, v := range values {
		if lags[i] == 0 || v <= 0 {
			continue
		}
		n := float64(lags[i])
		num += n * math.Log(v)
		den += n * n
	}
	if den > 0 {
		if k := -num / den; k > 0 && !math.IsInf(k, 0) {
			return lb / k
		}
	}
	return float64(len(lags)) * lb
}
