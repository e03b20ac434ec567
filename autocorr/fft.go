/*
 * fft.go, part of persistence.
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
	"math/cmplx"

	"github.com/rmera/persistence/bonds"
	"gonum.org/v1/gonum/dsp/fourier"
)

// fftCorr obtains the sums over i of u_i . u_(i+n) for all n at once, as the sum
// of the (linear, not circular) autocorrelations of the 3 components of the
// unit vectors. The sequences are zero-padded to twice their length so the
// periodic correlation from the FFT does not wrap around.
// Buffers are kept, as consecutive chains usually have the same length.
type fftCorr struct {
	m      int
	f      *fourier.FFT
	seq    []float64
	coeffs []complex128
	corr   []float64
}

func newFFTCorr(m int) *fftCorr {
	l := 2 * m
	return &fftCorr{
		m:      m,
		f:      fourier.NewFFT(l),
		seq:    make([]float64, l),
		coeffs: make([]complex128, l/2+1),
		corr:   make([]float64, l),
	}
}

// add adds to dst[n], for n in [0, m), the sum of the products of the unit
// vectors in b that are n bonds apart. len(b) must be f.m, and len(dst) at least f.m.
func (f *fftCorr) add(b []bonds.Bond, dst []float64) {
	if len(b) != f.m {
		panic("persistence/autocorr: fftCorr used for a chain of the wrong length")
	}
	norm := 1.0 / float64(len(f.seq)) //gonum's inverse transform is not normalized
	for comp := 0; comp < 3; comp++ {
		for i := range f.seq {
			f.seq[i] = 0
		}
		for i, v := range b {
			switch comp {
			case 0:
				f.seq[i] = v.Unit.X
			case 1:
				f.seq[i] = v.Unit.Y
			default:
				f.seq[i] = v.Unit.Z
			}
		}
		f.f.Coefficients(f.coeffs, f.seq)
		powerSpectrum(f.coeffs)
		f.f.Sequence(f.corr, f.coeffs)
		for n := 0; n < f.m; n++ {
			dst[n] += f.corr[n] * norm
		}
	}
}

// powerSpectrum replaces each coefficient by its product with its own conjugate.
func powerSpectrum(c []complex128) {
	for i, v := range c {
		c[i] = v * cmplx.Conj(v)
	}
}
