/*
 * checkpoint.go, part of persistence.
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
	"encoding/json"
	"errors"
	"io"

	"github.com/klauspost/compress/zstd"
	persistence "github.com/rmera/persistence"
)

//Checkpoints are the JSON form of an accumulator, zstd-compressed. They allow
//partial accumulators obtained in different runs (say, for different pieces of
//a long trajectory) to be stored and merged later.

type accumulatorJSON struct {
	Method    Method    `json:"method"`
	Sum       []float64 `json:"sum"`
	Count     []int     `json:"count"`
	LengthSum float64   `json:"length_sum"`
	Bonds     int       `json:"bonds"`
	Chains    int       `json:"chains"`
	Frames    int       `json:"frames"`
}

func (A *Accumulator) MarshalJSON() ([]byte, error) {
	j, err := json.Marshal(accumulatorJSON{
		Method:    A.method,
		Sum:       A.sum,
		Count:     A.count,
		LengthSum: A.lengthSum,
		Bonds:     A.bonds,
		Chains:    A.chains,
		Frames:    A.frames,
	})
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (A *Accumulator) UnmarshalJSON(b []byte) error {
	const caller = "autocorr.Accumulator.UnmarshalJSON"
	var a accumulatorJSON
	err := json.Unmarshal(b, &a)
	if err != nil {
		return persistence.NewError(persistence.ErrCheckpoint, err.Error(), true, caller)
	}
	if len(a.Sum) != len(a.Count) {
		return persistence.Errorf(persistence.ErrCheckpoint, caller, "%d sums but %d counts", len(a.Sum), len(a.Count)).SetCritical(true)
	}
	if a.Bonds < 0 || a.Chains < 0 || a.Frames < 0 {
		return persistence.NewError(persistence.ErrCheckpoint, "negative totals", true, caller)
	}
	for i, v := range a.Count {
		if v < 0 || (i > 0 && v > a.Count[i-1]) {
			return persistence.Errorf(persistence.ErrCheckpoint, caller, "count %d for lag %d is impossible", v, i).SetCritical(true)
		}
	}
	A.method = a.Method
	A.sum = a.Sum
	A.count = a.Count
	A.lengthSum = a.LengthSum
	A.bonds = a.Bonds
	A.chains = a.Chains
	A.frames = a.Frames
	A.fft = nil
	return nil
}

// WriteCheckpoint writes the state of the accumulator to w, as zstd-compressed JSON.
func (A *Accumulator) WriteCheckpoint(w io.Writer) error {
	const caller = "autocorr.Accumulator.WriteCheckpoint"
	z, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return persistence.NewError(persistence.ErrCheckpoint, err.Error(), true, caller)
	}
	if err = json.NewEncoder(z).Encode(A); err != nil {
		z.Close()
		return persistence.NewError(persistence.ErrCheckpoint, err.Error(), true, caller)
	}
	if err = z.Close(); err != nil {
		return persistence.NewError(persistence.ErrCheckpoint, err.Error(), true, caller)
	}
	return nil
}

// ReadCheckpoint reads an accumulator written by WriteCheckpoint.
func ReadCheckpoint(r io.Reader) (*Accumulator, error) {
	const caller = "autocorr.ReadCheckpoint"
	z, err := zstd.NewReader(r)
	if err != nil {
		return nil, persistence.NewError(persistence.ErrCheckpoint, err.Error(), true, caller)
	}
	defer z.Close()
	A := new(Accumulator)
	if err = json.NewDecoder(z).Decode(A); err != nil {
		var perr *persistence.Error
		if errors.As(err, &perr) {
			return nil, persistence.DecorateError(err, caller)
		}
		return nil, persistence.NewError(persistence.ErrCheckpoint, err.Error(), true, caller)
	}
	return A, nil
}
