/*
 * frames.go, part of gotrr.
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
	"fmt"

	v3 "github.com/rmera/gotrr/v3"
)

/*ReadFrames reads the coordinates for frames starting from ini to end (or the
last frame in the trajectory), both included, keeping one frame every skip frames.
The frames are returned as a slice of *v3.Matrix.
It returns also the number of frames read from t, kept or not, and
error/nil in failure/success. Note that if there are less frames than
end, the function wont return error, just the read frames.
A negative end means the whole trajectory.*/
func ReadFrames(t Traj, ini, end, skip int) ([]*v3.Matrix, int, error) {
	if skip < 1 {
		skip = 1
	}
	if ini < 0 {
		ini = 0
	}
	var coords []*v3.Matrix
	i := 0
	for ; end < 0 || i <= end; i++ {
		var err error
		if i < ini || (i-ini)%skip != 0 {
			err = t.Next(nil)
		} else {
			c := v3.Zeros(t.Len())
			err = t.Next(c)
			if err == nil {
				coords = append(coords, c)
			}
		}
		if err != nil {
			switch err := err.(type) {
			case LastFrameError:
				return coords, i, nil //No more frames is not really an error
			case Error:
				err.Decorate(fmt.Sprintf("ReadFrames: Failed while reading the %d th frame", i))
				return coords, i, err
			default:
				return coords, i, err
			}
		}
	}
	return coords, i, nil
}

//CopyFrames reads src to the end and writes one every stride frames, with the box vectors, to dst.
//It returns the number of frames written. dst is not closed.
func CopyFrames(dst TrajWriter, src Traj, stride int) (int, error) {
	if dst.Len() != src.Len() {
		return 0, fmt.Errorf("Mismatched number of atoms: %d in source, %d in destination", src.Len(), dst.Len())
	}
	if stride < 1 {
		stride = 1
	}
	coords := v3.Zeros(src.Len())
	box := make([]float64, 9)
	written := 0
	for i := 0; ; i++ {
		if i%stride != 0 {
			if err := src.Next(nil); err != nil {
				return written, lastOrDecorated(err, i)
			}
			continue
		}
		for j := range box {
			box[j] = 0
		}
		if err := src.Next(coords, box); err != nil {
			return written, lastOrDecorated(err, i)
		}
		var err error
		if isZero(box) {
			err = dst.WNext(coords)
		} else {
			err = dst.WNext(coords, box)
		}
		if err != nil {
			if e, ok := err.(Error); ok {
				e.Decorate(fmt.Sprintf("CopyFrames: Failed while writing the %d th frame", i))
			}
			return written, err
		}
		written++
	}
}

//lastOrDecorated returns nil for the end of the trajectory, and err otherwise.
func lastOrDecorated(err error, frame int) error {
	switch err := err.(type) {
	case LastFrameError:
		return nil
	case Error:
		err.Decorate(fmt.Sprintf("CopyFrames: Failed while reading the %d th frame", frame))
		return err
	default:
		return err
	}
}

func isZero(s []float64) bool {
	for _, v := range s {
		if v != 0 {
			return false
		}
	}
	return true
}
