/*
 * accumulator.go, part of persistence.
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
Package autocorr accumulates the bond-vector autocorrelation function

	C(n) = <u_i . u_(i+n)>

over every start position i of every chain in every frame, and the average
bond length. All the (i, i+n) pairs of a chain are used, so lags near the
length of the chain get fewer samples, and noisier values.

Chains and frames are pooled additively in the same sums, so the order in which
they are added does not matter, and partial accumulators can be merged.
*/
package autocorr

import (
	"fmt"
	"math"
	"sort"
	"strings"

	persistence "github.com/rmera/persistence"
	"github.com/rmera/persistence/bonds"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultC0Tolerance is the largest deviation from 1 allowed for C(0).
const DefaultC0Tolerance = 1e-9

// Method is the algorithm used to correlate the bonds of a chain.
type Method int

const (
	// Direct loops over all the pairs of bonds. Cost grows with the square
	// of the chain length.
	Direct Method = iota
	// FFT obtains the same sums through fast Fourier transforms. Worth it
	// only for long chains.
	FFT
)

func (m Method) String() string {
	switch m {
	case Direct:
		return "direct"
	case FFT:
		return "fft"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler, so methods can be given by name in options files.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	p, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = p
	return nil
}

// ParseMethod returns the Method with the given name, case-insensitive.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "direct":
		return Direct, nil
	case "fft":
		return FFT, nil
	}
	return Direct, persistence.Errorf(persistence.ErrInput, "autocorr.ParseMethod", "unknown correlation method %q", s)
}

// Accumulator holds the running sums for C(n) and the bond lengths.
// sum[n] and count[n] are the sum of the dot products of unit bond vectors
// n bonds apart, and how many of those products were added.
// The zero value is ready to use.
type Accumulator struct {
	sum       []float64
	count     []int
	lengthSum float64
	bonds     int
	chains    int
	frames    int
	method    Method
	fft       *fftCorr
	lengths   []float64 //scratch
}

// New returns an empty accumulator that uses the given method (Direct if not given).
func New(method ...Method) *Accumulator {
	A := new(Accumulator)
	if len(method) > 0 {
		A.method = method[0]
	}
	return A
}

// grow makes room for lags up to m-1, keeping what was already accumulated.
func (A *Accumulator) grow(m int) {
	if m <= len(A.sum) {
		return
	}
	sum := make([]float64, m)
	count := make([]int, m)
	copy(sum, A.sum)
	copy(count, A.count)
	A.sum = sum
	A.count = count
}

// AddChain adds the contribution of one chain, given its bonds in chain order.
// A chain with M bonds contributes M-n products to lag n, for n in [0, M).
// An empty slice adds nothing.
func (A *Accumulator) AddChain(b []bonds.Bond) {
	m := len(b)
	if m == 0 {
		return
	}
	A.grow(m)
	switch A.method {
	case FFT:
		if A.fft == nil || A.fft.m != m {
			A.fft = newFFTCorr(m)
		}
		A.fft.add(b, A.sum)
	default:
		for i, v := range b {
			for n, w := range b[i:] {
				A.sum[n] += r3.Dot(v.Unit, w.Unit)
			}
		}
	}
	for n := 0; n < m; n++ {
		A.count[n] += m - n
	}
	A.lengths = bonds.Lengths(b, A.lengths)
	A.lengthSum += floats.Sum(A.lengths)
	A.bonds += m
	A.chains++
}

// AddFrame adds all the chains of one frame, in the order of their sorted
// identifiers, and counts the frame.
func (A *Accumulator) AddFrame(chains map[string][]bonds.Bond) {
	ids := make([]string, 0, len(chains))
	for k := range chains {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	for _, id := range ids {
		A.AddChain(chains[id])
	}
	A.MarkFrame()
}

// MarkFrame counts one more frame. Frames are only counted, they play no role
// in the averages.
func (A *Accumulator) MarkFrame() {
	A.frames++
}

// Merge adds the sums and counts of B to the receiver. B is not modified.
// Merging is commutative and associative, up to floating point rounding.
func (A *Accumulator) Merge(B *Accumulator) {
	if B == nil {
		return
	}
	A.grow(len(B.sum))
	floats.Add(A.sum[:len(B.sum)], B.sum)
	for i, v := range B.count {
		A.count[i] += v
	}
	A.lengthSum += B.lengthSum
	A.bonds += B.bonds
	A.chains += B.chains
	A.frames += B.frames
}

// Clone returns a deep copy of the accumulator.
func (A *Accumulator) Clone() *Accumulator {
	B := New(A.method)
	B.Merge(A)
	return B
}

// Lags returns the number of lags tracked, i.e. the bonds of the longest chain seen.
func (A *Accumulator) Lags() int { return len(A.sum) }

// Sum returns the accumulated sum of dot products for lag n (0 if n is not tracked).
func (A *Accumulator) Sum(n int) float64 {
	if n < 0 || n >= len(A.sum) {
		return 0
	}
	return A.sum[n]
}

// Count returns how many products were added for lag n (0 if n is not tracked).
func (A *Accumulator) Count(n int) int {
	if n < 0 || n >= len(A.count) {
		return 0
	}
	return A.count[n]
}

// Bonds returns the number of bonds accumulated.
func (A *Accumulator) Bonds() int { return A.bonds }

// Chains returns the number of chains accumulated.
func (A *Accumulator) Chains() int { return A.chains }

// Frames returns the number of frames counted with MarkFrame.
func (A *Accumulator) Frames() int { return A.frames }

// Method returns the correlation method of the accumulator.
func (A *Accumulator) Method() Method { return A.method }

// BondLength returns the average length of all the bonds accumulated, or NaN if
// there are none.
func (A *Accumulator) BondLength() float64 {
	if A.bonds == 0 {
		return math.NaN()
	}
	return A.lengthSum / float64(A.bonds)
}

// Finalize returns C(n) = sum[n]/count[n] for every lag with at least one
// sample. Lags without samples are left out. It fails with persistence.ErrNoData
// if nothing was accumulated, and with persistence.ErrInvariant if C(0) differs
// from 1 by more than tol (DefaultC0Tolerance if tol <= 0).
// The accumulator is not modified, and can still take data.
func (A *Accumulator) Finalize(tol float64) (*Correlation, error) {
	if tol <= 0 {
		tol = DefaultC0Tolerance
	}
	if A.bonds == 0 {
		return nil, persistence.NewError(persistence.ErrNoData, "", true, "autocorr.Accumulator.Finalize")
	}
	points := make([]Point, 0, len(A.sum))
	counts := make([]int, 0, len(A.sum))
	for n, c := range A.count {
		if c < 1 {
			continue
		}
		points = append(points, Point{Lag: n, Value: A.sum[n] / float64(c)})
		counts = append(counts, c)
	}
	if len(points) == 0 || points[0].Lag != 0 {
		return nil, persistence.NewError(persistence.ErrInvariant, "C(0) has no samples", true, "autocorr.Accumulator.Finalize")
	}
	if d := math.Abs(points[0].Value - 1); !(d <= tol) {
		return nil, persistence.Errorf(persistence.ErrInvariant, "autocorr.Accumulator.Finalize", "C(0) = %.15g, more than %g away from 1", points[0].Value, tol).SetCritical(true)
	}
	return &Correlation{points: points, counts: counts, bondLength: A.BondLength()}, nil
}
