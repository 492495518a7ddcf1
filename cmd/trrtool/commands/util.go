/*
 * util.go, part of gotrr.
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

package commands

import (
	"fmt"
	"io"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/rmera/gotrr/internal/config"
	"github.com/rmera/gotrr/traj/trr"
	v3 "github.com/rmera/gotrr/v3"
)

// open opens a trajectory with the configured index cache policy.
func (a *app) open(path string) (*trr.Reader, error) {
	R, err := trr.New(path, trr.WithIndexCache(a.cfg.Index.Cache))
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	level.Debug(a.logger).Log("msg", "trajectory opened", "file", path, "atoms", R.Len(), "double", R.Double(), "compression", R.Compression())
	return R, nil
}

// lengthScale is the factor that takes GROMACS lengths to the configured units.
func (a *app) lengthScale() float64 {
	if a.cfg.Units == config.Angstroms {
		return trr.NmToAngstrom
	}
	return 1
}

// each reads the frames of R in order, calling fn on each. Frames with a different
// number of atoms are skipped with a warning. The loop ends at the end of the
// trajectory, at an incomplete last frame, or when fn returns errStop.
func (a *app) each(R *trr.Reader, fr *trr.Frame, fn func(i int, fr *trr.Frame) error) error {
	for i := 0; ; i++ {
		err := R.ReadFrame(fr)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, trr.ErrEndOfFile) {
			level.Warn(a.logger).Log("msg", "trajectory ends in an incomplete frame", "frames", i, "err", err)
			return nil
		}
		if errors.Is(err, trr.ErrNAtoms) {
			level.Warn(a.logger).Log("msg", "skipping frame", "frame", i, "err", err)
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "reading frame %d", i)
		}
		if err := fn(i, fr); err != nil {
			if err == errStop {
				return nil
			}
			return err
		}
	}
}

var errStop = errors.New("stop")

// offsets returns the frame index of the trajectory at path. Compressed
// trajectories are indexed by decompressing them.
func (a *app) offsets(R *trr.Reader, path string) (*trr.Index, error) {
	idx, err := R.Index()
	if err == nil {
		return idx, nil
	}
	if !errors.Is(err, trr.ErrNotSeekable) {
		return nil, errors.Wrapf(err, "indexing %s", path)
	}
	level.Debug(a.logger).Log("msg", "trajectory not seekable, scanning the stream", "file", path)
	n, est, offsets, err := trr.NFrames(path)
	if err != nil {
		return nil, errors.Wrapf(err, "indexing %s", path)
	}
	return &trr.Index{NFrames: n, Estimate: est, Offsets: offsets, NAtoms: R.Len()}, nil
}

// rows returns the rows of m as slices, multiplied by scale.
func rows(m *v3.Matrix, scale float64) [][]float64 {
	r := make([][]float64, m.NVecs())
	for i := range r {
		r[i] = m.VecView(i).Float64s(nil, scale)
	}
	return r
}

func yesno(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func precision(double bool) string {
	if double {
		return "double"
	}
	return "single"
}

func ftoa(f float64) string {
	return fmt.Sprintf("%.4f", f)
}
