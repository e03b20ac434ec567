/*
 * bonds.go, part of persistence.
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

// Package bonds turns the ordered backbone coordinates of a chain into
// unit bond vectors and bond lengths.
package bonds

import (
	"iter"
	"math"

	persistence "github.com/rmera/persistence"
	v3 "github.com/rmera/persistence/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Bond is the bond between two consecutive backbone atoms.
type Bond struct {
	Unit   r3.Vec  //the normalized bond vector, pointing from atom i to atom i+1
	Length float64 //the length of the bond vector
}

// Chain is the backbone of one molecule in one frame.
type Chain struct {
	coords *v3.Matrix
}

// New returns a Chain for the given coordinates, one atom per row, in bonding
// order. It fails with persistence.ErrInsufficientAtoms if there are fewer
// than 2 atoms. coords is not copied, and must not change while the Chain is used.
func New(coords *v3.Matrix) (*Chain, error) {
	if coords == nil {
		return nil, persistence.NewError(persistence.ErrInsufficientAtoms, "nil coordinates", false, "bonds.New")
	}
	if n := coords.NVecs(); n < 2 {
		return nil, persistence.Errorf(persistence.ErrInsufficientAtoms, "bonds.New", "%d atoms", n)
	}
	return &Chain{coords: coords}, nil
}

// Len returns the number of bonds in the chain, i.e. one less than the atoms.
func (C *Chain) Len() int {
	return C.coords.NVecs() - 1
}

// unitTol is how far from 1 the norm of a normalized bond can be.
const unitTol = 1e-9

// At returns the ith bond of the chain, that between atoms i and i+1.
// A bond with zero or non-finite length, or one too short to be normalized
// (e.g. a subnormal length), gives an error wrapping persistence.ErrDegenerateBond.
func (C *Chain) At(i int) (Bond, error) {
	d := r3.Sub(C.coords.Vec(i+1), C.coords.Vec(i))
	l := r3.Norm(d)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Bond{}, persistence.Errorf(persistence.ErrDegenerateBond, "bonds.Chain.At", "bond %d (atoms %d-%d) has length %g", i, i, i+1, l)
	}
	u := r3.Scale(1/l, d)
	if !finite(u) || math.Abs(r3.Norm(u)-1) > unitTol {
		return Bond{}, persistence.Errorf(persistence.ErrDegenerateBond, "bonds.Chain.At", "bond %d (atoms %d-%d) of length %g can't be normalized", i, i, i+1, l)
	}
	return Bond{Unit: u, Length: l}, nil
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// All returns the bonds of the chain in order. The sequence is lazy and can
// be iterated as many times as needed, each time from the first bond.
// If a bond is degenerate, the sequence yields the error and stops.
func (C *Chain) All() iter.Seq2[Bond, error] {
	return func(yield func(Bond, error) bool) {
		for i := 0; i < C.Len(); i++ {
			b, err := C.At(i)
			if err != nil {
				yield(Bond{}, err)
				return
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}

// Extract returns all the bonds for the chain with coordinates coords.
// It is all-or-nothing: if any bond is degenerate, no bonds are returned.
func Extract(coords *v3.Matrix) ([]Bond, error) {
	C, err := New(coords)
	if err != nil {
		return nil, err
	}
	ret := make([]Bond, 0, C.Len())
	for b, err := range C.All() {
		if err != nil {
			return nil, persistence.DecorateError(err, "bonds.Extract")
		}
		ret = append(ret, b)
	}
	return ret, nil
}

// Lengths returns the lengths of the given bonds.
func Lengths(b []Bond, dst ...[]float64) []float64 {
	var ret []float64
	if len(dst) > 0 && cap(dst[0]) >= len(b) {
		ret = dst[0][:len(b)]
	} else {
		ret = make([]float64, len(b))
	}
	for i, v := range b {
		ret[i] = v.Length
	}
	return ret
}
