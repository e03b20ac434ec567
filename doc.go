/*
 * doc.go, part of persistence.
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
Package persistence holds the contracts shared by the packages that compute the
persistence length of linear polymer chains from molecular-dynamics trajectories.

The calculation has two stages. The bond-vector autocorrelation

	C(n) = <u_i . u_(i+n)>

is pooled over every start position i, every chain and every frame (packages bonds
and autocorr). The persistence length l_P is then obtained by fitting

	C(n) = exp(-n*l_B/l_P)

where l_B is the average bond length (package decay). Package analysis drives both
stages over a FrameSource.

This package provides the error taxonomy used by all of them, the FrameSource
and Traj interfaces through which coordinates come in, and a couple of in-memory
implementations of those.

The reference for the method is the MDAnalysis PersistenceLength analysis
(10.1002/jcc.21787). If you use this library in your research, please cite it.
*/
package persistence
