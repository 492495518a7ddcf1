/*
 * v3_test.go, part of gotrr.
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
	"testing"
)

func TestNewMatrix(Te *testing.T) {
	a := []float64{1.0, 2.0, 3, 4, 5, 6, 7, 8, 9}
	A, err := NewMatrix(a)
	if err != nil {
		Te.Fatal(err)
	}
	if A.NVecs() != 3 {
		Te.Errorf("expected 3 vecs, got %d", A.NVecs())
	}
	if _, err := NewMatrix([]float64{1, 2, 3, 4}); err == nil {
		Te.Error("a slice of 4 elements should not make a Matrix")
	}
	View := A.VecView(1)
	View.Set(0, 0, 100)
	if A.At(1, 0) != 100 {
		Te.Errorf("changes in the view should be seen in the matrix: %v", A)
	}
	fmt.Println("View\n", A, "\n", View)
}

func TestSomeVecs(Te *testing.T) {
	a := []float64{1.0, 2.0, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18}
	A, err := NewMatrix(a)
	if err != nil {
		Te.Fatal(err)
	}
	B := Zeros(3)
	cind := []int{1, 3, 5}
	err = B.SomeVecsSafe(A, cind)
	if err != nil {
		Te.Fatal(err)
	}
	if B.At(2, 2) != 18 || B.At(0, 0) != 4 {
		Te.Errorf("wrong vectors selected: %v", B)
	}
	//the selection is a copy, and it keeps the order of the indexes.
	B.Set(1, 1, 55)
	if A.At(3, 1) != 11 {
		Te.Errorf("A should not see the changes in B: %v", A)
	}
	if err := B.SomeVecsSafe(A, []int{5, 0, 5}); err != nil {
		Te.Fatal(err)
	}
	if B.At(0, 0) != 16 || B.At(1, 2) != 3 || B.At(2, 1) != 17 {
		Te.Errorf("wrong order in the selection: %v", B)
	}
	err = B.SomeVecsSafe(A, []int{1, 2, 40})
	if err == nil {
		Te.Error("an out-of-range index should give an error")
	}
	err = Zeros(2).SomeVecsSafe(A, cind)
	if err == nil {
		Te.Error("a receiver of the wrong size should give an error")
	}
}

func TestFlat(Te *testing.T) {
	A := Zeros(2)
	A.FillFloat64([]float64{0.1, 0.2, 0.3, 1, 2, 3}, 10)
	if A.At(1, 2) != 30 {
		Te.Errorf("expected 30, got %v", A.At(1, 2))
	}
	back := A.VecView(0).Float64s(nil, 0.1)
	for i, v := range []float64{0.1, 0.2, 0.3} {
		if d := back[i] - v; d > 1e-9 || d < -1e-9 {
			Te.Errorf("element %d: %v != %v", i, back[i], v)
		}
	}
	flat64 := []float64{1, 2, 3, 4, 5, 6}
	A.FillFloat64(flat64, 1)
	dst := make([]float64, 0, 6)
	dst = A.Float64s(dst, 2)
	if len(dst) != 6 || dst[5] != 12 {
		Te.Errorf("unexpected Float64s output %v", dst)
	}
	defer func() {
		if r := recover(); r == nil {
			Te.Error("FillFloat64 should panic with a too-short slice")
		}
	}()
	A.FillFloat64(flat64[:4], 1)
}

func TestString(Te *testing.T) {
	A, _ := NewMatrix([]float64{1, 2, 3})
	s := A.String()
	if s != "\n[  1.00   2.00   3.00 ]" {
		Te.Errorf("unexpected string %q", s)
	}
}
