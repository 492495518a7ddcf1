/*
 * frame.go, part of gotrr.
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

package trr

import (
	v3 "github.com/rmera/gotrr/v3"
)

//Frame is one frame of a TRR trajectory, in GROMACS units.
//
//When reading, a nil Box, X, V or F means that the section is read
//and discarded. After the read, Props and HasBox tell what the frame actually
//contained: the matrices of sections that are not present are left untouched.
//When writing, a nil matrix means that the section is not written.
type Frame struct {
	Step   int
	Time   float64
	Lambda float64
	Box    *v3.Matrix //3x3, one box vector per row.
	X      *v3.Matrix
	V      *v3.Matrix
	F      *v3.Matrix
	Props  Props
	HasBox bool
	Double bool
	NAtoms int
}

//NewFrame returns a frame with a box and space for the sections given in p, for natoms atoms.
func NewFrame(natoms int, p Props) *Frame {
	fr := &Frame{NAtoms: natoms, Box: v3.Zeros(dim)}
	if p&HasX != 0 {
		fr.X = v3.Zeros(natoms)
	}
	if p&HasV != 0 {
		fr.V = v3.Zeros(natoms)
	}
	if p&HasF != 0 {
		fr.F = v3.Zeros(natoms)
	}
	return fr
}

//props returns the sections present in fr, for writing.
func (fr *Frame) props() Props {
	var p Props
	if fr.X != nil {
		p |= HasX
	}
	if fr.V != nil {
		p |= HasV
	}
	if fr.F != nil {
		p |= HasF
	}
	return p
}
