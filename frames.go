/*
 * frames.go, part of persistence.
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

package persistence

import (
	"fmt"
	"sort"

	v3 "github.com/rmera/persistence/v3"
)

// Frame maps a chain identifier to the ordered backbone coordinates of that
// chain in one frame. Row i of each matrix is bonded to row i+1.
type Frame map[string]*v3.Matrix

// IDs returns the chain identifiers of the frame, sorted.
func (F Frame) IDs() []string {
	ids := make([]string, 0, len(F))
	for k := range F {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	return ids
}

// SliceSource is a FrameSource over frames held in memory.
type SliceSource struct {
	frames  []Frame
	current int
}

// NewSliceSource returns a FrameSource that yields the given frames, in order.
func NewSliceSource(frames ...Frame) *SliceSource {
	return &SliceSource{frames: frames}
}

// Next returns the next frame, or a LastFrameError when there are none left.
func (S *SliceSource) Next() (Frame, error) {
	if S.current >= len(S.frames) {
		return nil, NewLastFrameError("SliceSource.Next")
	}
	S.current++
	return S.frames[S.current-1], nil
}

// MemTraj is a Traj over coordinates held in memory, one matrix per frame,
// with the same number of atoms in every frame.
type MemTraj struct {
	coords  []*v3.Matrix
	natoms  int
	current int
}

// NewMemTraj returns a Traj over the given frames.
func NewMemTraj(frames ...*v3.Matrix) (*MemTraj, error) {
	if len(frames) == 0 {
		return nil, NewError(ErrInput, "no frames given", true, "NewMemTraj")
	}
	natoms := frames[0].NVecs()
	for i, v := range frames {
		if v.NVecs() != natoms {
			return nil, Errorf(ErrInput, "NewMemTraj", "frame %d has %d atoms, %d expected", i, v.NVecs(), natoms).SetCritical(true)
		}
	}
	return &MemTraj{coords: frames, natoms: natoms}, nil
}

// Readable returns true if there are frames left to read.
func (M *MemTraj) Readable() bool {
	return M.current < len(M.coords)
}

// Next copies the next frame into output, or just skips it if output is nil.
// the box is never filled.
func (M *MemTraj) Next(output *v3.Matrix, box ...[]float64) error {
	if !M.Readable() {
		return NewLastFrameError("MemTraj.Next")
	}
	M.current++
	if output == nil {
		return nil
	}
	if output.NVecs() != M.natoms {
		return Errorf(ErrInput, "MemTraj.Next", "output has %d vectors, %d expected", output.NVecs(), M.natoms).SetCritical(true)
	}
	output.Copy(M.coords[M.current-1].Dense)
	return nil
}

// Len returns the number of atoms per frame.
func (M *MemTraj) Len() int {
	return M.natoms
}

// Selection defines the chains of an analysis: for each chain identifier,
// the indexes, in the full system, of its backbone atoms in bonding order.
type Selection map[string][]int

// TrajFrames is a FrameSource that builds, from each frame of a Traj, a Frame
// with the chains of a Selection.
type TrajFrames struct {
	traj   Traj
	sel    Selection
	ids    []string
	buffer *v3.Matrix
}

// NewTrajFrames returns a FrameSource for the chains in sel along traj.
// It fails if any index in sel is out of range for traj. sel is not copied.
func NewTrajFrames(traj Traj, sel Selection) (*TrajFrames, error) {
	n := traj.Len()
	if n <= 0 {
		return nil, NewError(ErrInput, "trajectory has no atoms", true, "NewTrajFrames")
	}
	for id, indexes := range sel {
		for _, i := range indexes {
			if i < 0 || i >= n {
				return nil, Errorf(ErrInput, "NewTrajFrames", "chain %s: atom index %d out of range for %d atoms", id, i, n).SetCritical(true)
			}
		}
	}
	T := &TrajFrames{traj: traj, sel: sel, buffer: v3.Zeros(n)}
	T.ids = make([]string, 0, len(sel))
	for id := range sel {
		T.ids = append(T.ids, id)
	}
	sort.Strings(T.ids)
	return T, nil
}

// Next reads the next frame from the trajectory. Chains with no atoms selected
// are given as nil matrices. A chain matrix is a copy, it does not change
// with later frames. If sel was changed to hold an index out of range, Next
// fails with ErrInput.
func (T *TrajFrames) Next() (Frame, error) {
	if err := T.traj.Next(T.buffer); err != nil {
		return nil, DecorateError(err, "TrajFrames.Next")
	}
	f := make(Frame, len(T.ids))
	for _, id := range T.ids {
		indexes := T.sel[id]
		if len(indexes) == 0 {
			f[id] = nil
			continue
		}
		c := v3.Zeros(len(indexes))
		if err := c.SomeVecsSafe(T.buffer, indexes); err != nil {
			return nil, NewError(ErrInput, fmt.Sprintf("chain %s: %s", id, err.Error()), true, "TrajFrames.Next")
		}
		f[id] = c
	}
	return f, nil
}
