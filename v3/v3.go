/*
 * v3.go, part of gotrr.
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

package v3

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const cols int = 3

//Matrix is a set of vectors in 3D space.
//Within the package it is understood that a "vector" is a row vector, i.e. the
//cartesian coordinates of a point in 3D space. The name of some funcitions in
//the library reflect this.
type Matrix struct {
	*mat.Dense
}

//Zeros returns a zero-filled Matrix with vecs vectors and 3 in the other dimension.
func Zeros(vecs int) *Matrix {
	f := make([]float64, cols*vecs, cols*vecs)
	return &Matrix{mat.NewDense(vecs, cols, f)}
}

//NewMatrix generates and returns a Matrix with 3 columns from data.
//data is used as the backing slice, it is not copied.
func NewMatrix(data []float64) (*Matrix, error) {
	l := len(data)
	rows := l / cols
	if l%cols != 0 || l == 0 {
		return nil, Error{fmt.Sprintf("Input slice lenght %d not divisible by %d or zero", l, cols), []string{"NewMatrix"}, true}
	}
	return &Matrix{mat.NewDense(rows, cols, data)}, nil
}

//NVecs returns the number of vecs in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != cols {
		panic(ErrNotXx3Matrix)
	}
	return r
}

//VecView returns view of the given vector of the matrix in the receiver
func (F *Matrix) VecView(i int) *Matrix {
	r := F.Dense.Slice(i, i+1, 0, cols).(*mat.Dense)
	return &Matrix{r}
}

//SomeVecs puts in the receiver all the ith vectors of matrix A,
//where i are the numbers in clist. The vectors are in the same order
//than the clist.
func (F *Matrix) SomeVecs(A *Matrix, clist []int) {
	ar, ac := A.Dims()
	fr, fc := F.Dims()
	if ac != fc || fr != len(clist) {
		panic(ErrShape)
	}
	for key, val := range clist {
		if val < 0 || val >= ar {
			panic(ErrIndexOutOfRange)
		}
		for j := 0; j < ac; j++ {
			F.Set(key, j, A.At(val, j))
		}
	}
}

//SomeVecsSafe is like SomeVecs but returns an error instead of panicking.
func (F *Matrix) SomeVecsSafe(A *Matrix, clist []int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case PanicMsg:
				err = Error{string(e), []string{"SomeVecsSafe"}, true}
			case mat.Error:
				err = Error{fmt.Sprintf("goTRR/v3: Error in a gonum function: %s", e.Error()), []string{"SomeVecsSafe"}, true}
			default:
				panic(r)
			}
		}
	}()
	F.SomeVecs(A, clist)
	return err
}

//FillFloat64 sets the vectors of F from a flat slice x1,y1,z1,x2,y2,z2...
//multiplying each value by scale. flat must contain at least 3*F.NVecs() elements.
func (F *Matrix) FillFloat64(flat []float64, scale float64) {
	n := F.NVecs()
	if len(flat) < n*cols {
		panic(ErrNotEnoughElements)
	}
	for i := 0; i < n; i++ {
		row := F.RawRowView(i)
		row[0] = flat[i*cols] * scale
		row[1] = flat[i*cols+1] * scale
		row[2] = flat[i*cols+2] * scale
	}
}

//Float64s puts the vectors of F, multiplied by scale, in dst as
//x1,y1,z1,x2,y2,z2... and returns it. If dst is too small, a new slice is allocated.
func (F *Matrix) Float64s(dst []float64, scale float64) []float64 {
	n := F.NVecs()
	if cap(dst) < n*cols {
		dst = make([]float64, n*cols)
	}
	dst = dst[:n*cols]
	for i := 0; i < n; i++ {
		row := F.RawRowView(i)
		dst[i*cols] = row[0] * scale
		dst[i*cols+1] = row[1] * scale
		dst[i*cols+2] = row[2] * scale
	}
	return dst
}

//String returns a neat string representation of a Matrix
func (F *Matrix) String() string {
	r, _ := F.Dims()
	v := make([]string, r+2)
	v[0] = "\n["
	v[len(v)-1] = " ]"
	for i := 0; i < r; i++ {
		row := F.RawRowView(i)
		switch {
		case i == 0 && r > 1:
			v[i+1] = fmt.Sprintf("%6.2f %6.2f %6.2f\n", row[0], row[1], row[2])
		case i == 0:
			v[i+1] = fmt.Sprintf("%6.2f %6.2f %6.2f", row[0], row[1], row[2])
		case i == r-1:
			v[i+1] = fmt.Sprintf(" %6.2f %6.2f %6.2f", row[0], row[1], row[2])
		default:
			v[i+1] = fmt.Sprintf(" %6.2f %6.2f %6.2f\n", row[0], row[1], row[2])
		}
	}
	return strings.Join(v, "")
}

//Error is the error type for the v3 package.
type Error struct {
	message  string
	deco     []string
	critical bool
}

//Error returns a string with an error message.
func (err Error) Error() string {
	return err.message
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical return whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix      = PanicMsg("goTRR/v3: A Matrix should have 3 columns")
	ErrNotEnoughElements = PanicMsg("goTRR/v3: not enough elements in Matrix")
	ErrShape             = PanicMsg("goTRR/v3: Dimension mismatch")
	ErrIndexOutOfRange   = PanicMsg("goTRR/v3: index out of range")
)
