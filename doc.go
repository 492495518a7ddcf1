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

/*Package gotrr contains the interfaces shared by the trajectory readers and writers of the
library, and a few functions that work on any of them.

The actual TRR reader and writer are in the traj/trr package, coordinates are
held in the v3.Matrix type from the v3 package, and cmd/trrtool is a small
command line program to inspect and convert TRR files.

	**Capabilities**

    Reads GROMACS TRR files, single and double precision, sequentially,
	concurrently, or, for uncompressed files, randomly, with an optional on-disk
	cache of frame offsets.

    Writes TRR files with any combination of box, positions, velocities and forces.

    Transparently reads and writes gzip, z-standard and lzw compressed trajectories.
*/
package gotrr
