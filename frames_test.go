/*
 * frames_test.go, part of gotrr.
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

package gotrr

import (
	"errors"
	"testing"

	v3 "github.com/rmera/gotrr/v3"
)

//memTraj is a trajectory in memory. The frame i has all coordinates equal to i.
type memTraj struct {
	natoms  int
	nframes int
	current int
	failAt  int //-1 for never
}

type memEOF struct{}

func (memEOF) Error() string                { return "EOF" }
func (memEOF) Decorate(string) []string     { return nil }
func (memEOF) Critical() bool               { return false }
func (memEOF) FileName() string             { return "" }
func (memEOF) Format() string               { return "mem" }
func (memEOF) NormalLastFrameTermination() {}

type memErr struct{ deco []string }

func (e *memErr) Error() string { return "broken frame" }
func (e *memErr) Decorate(d string) []string {
	if d != "" {
		e.deco = append(e.deco, d)
	}
	return e.deco
}

func (M *memTraj) Readable() bool { return M.current < M.nframes }
func (M *memTraj) Len() int       { return M.natoms }
func (M *memTraj) Next(c *v3.Matrix, box ...[]float64) error {
	if M.current == M.failAt {
		return &memErr{}
	}
	if M.current >= M.nframes {
		return memEOF{}
	}
	if c != nil {
		for i := 0; i < M.natoms; i++ {
			for j := 0; j < 3; j++ {
				c.Set(i, j, float64(M.current))
			}
		}
		if len(box) > 0 && len(box[0]) >= 9 {
			box[0][0], box[0][4], box[0][8] = 10, 10, 10
		}
	}
	M.current++
	return nil
}

type memWriter struct {
	natoms int
	frames []float64 //first coordinate of each frame written
	boxes  int
}

func (W *memWriter) Len() int     { return W.natoms }
func (W *memWriter) Close() error { return nil }
func (W *memWriter) WNext(c *v3.Matrix, box ...[]float64) error {
	W.frames = append(W.frames, c.At(0, 0))
	if len(box) > 0 {
		W.boxes++
	}
	return nil
}

func TestReadFrames(Te *testing.T) {
	t := &memTraj{natoms: 4, nframes: 10, failAt: -1}
	coords, read, err := ReadFrames(t, 2, 7, 2)
	if err != nil {
		Te.Fatal(err)
	}
	if len(coords) != 3 || read != 8 {
		Te.Fatalf("expected 3 frames kept out of 8 read, got %d, %d", len(coords), read)
	}
	for i, want := range []float64{2, 4, 6} {
		if coords[i].At(3, 2) != want {
			Te.Errorf("frame %d: expected %v, got %v", i, want, coords[i].At(3, 2))
		}
	}
	t = &memTraj{natoms: 4, nframes: 5, failAt: -1}
	coords, read, err = ReadFrames(t, 0, -1, 1)
	if err != nil {
		Te.Fatal(err)
	}
	if len(coords) != 5 || read != 5 {
		Te.Errorf("the whole trajectory should be read, got %d frames, %d read", len(coords), read)
	}
}

func TestReadFramesError(Te *testing.T) {
	t := &memTraj{natoms: 2, nframes: 10, failAt: 3}
	coords, _, err := ReadFrames(t, 0, -1, 1)
	if err == nil {
		Te.Fatal("a broken frame should give an error")
	}
	var merr *memErr
	if !errors.As(err, &merr) || len(merr.deco) != 1 {
		Te.Errorf("the error should be decorated once: %v", err)
	}
	if len(coords) != 3 {
		Te.Errorf("the frames before the error should be returned, got %d", len(coords))
	}
}

func TestCopyFrames(Te *testing.T) {
	t := &memTraj{natoms: 3, nframes: 7, failAt: -1}
	w := &memWriter{natoms: 3}
	n, err := CopyFrames(w, t, 3)
	if err != nil {
		Te.Fatal(err)
	}
	if n != 3 || len(w.frames) != 3 {
		Te.Fatalf("expected 3 frames written, got %d", n)
	}
	if w.frames[2] != 6 || w.boxes != 3 {
		Te.Errorf("wrong frames copied: %v, %d boxes", w.frames, w.boxes)
	}
	if _, err := CopyFrames(&memWriter{natoms: 2}, &memTraj{natoms: 3, failAt: -1}, 1); err == nil {
		Te.Error("different numbers of atoms should give an error")
	}
}
