/*
 * doc.go, part of gotrr.
 *
 * Copyright 2024 The goTRR Authors
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
Package trr reads and writes GROMACS TRR trajectories (the "full precision" trajectory
format written by mdrun, which may contain positions, velocities and forces).

The low-level part of the package (ReadFrame, WriteFrame, Scan) works in GROMACS units:
nm for lengths, ps for time, nm/ps for velocities and kJ/(mol nm) for forces.
The Next/WNext methods, which implement the gotrr.Traj and gotrr.TrajWriter interfaces,
work with positions and box vectors in Angstrom, like the rest of the library.

Files ending in .gz, .zst or .lzw are transparently (de)compressed. Compressed
files can only be read sequentially.

******************** Format ***************************************************

A TRR file is a sequence of frames, with no global header. Everything is
XDR-encoded (big endian, 4-byte aligned). Each frame starts with a header:

	int    magic        1993
	int    slen         13 (length of the version string plus one)
	string version      "GMX_trn_file" (XDR string: length, then 12 bytes)
	int    ir_size, e_size, box_size, vir_size, pres_size,
	       top_size, sym_size, x_size, v_size, f_size
	int    natoms, step, nre
	real   t, lambda

The sizes are in bytes. A real is a float, or a double in double-precision
files. The precision is not stored anywhere, it is deduced from the
sizes (box_size/9, or x_size/(3*natoms), and so on), so the header is 84 bytes long
in single precision and 92 in double precision.

After the header come, when their size is not zero, the box (3x3 reals),
the virial (3x3), the pressure (3x3), and the positions, velocities and
forces (natoms x 3 reals each). This package reads the virial and pressure
but discards them.

**********************************************************************************
*/
package trr
