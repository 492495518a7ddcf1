/*
 * dump.go, part of gotrr.
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
	"strconv"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rmera/gotrr/traj/trr"
	v3 "github.com/rmera/gotrr/v3"
)

// AtomDump holds the data of one atom in a frame. Missing sections are left out.
type AtomDump struct {
	Index int       `json:"index" yaml:"index"`
	X     []float64 `json:"x,omitempty" yaml:"x,omitempty"`
	V     []float64 `json:"v,omitempty" yaml:"v,omitempty"`
	F     []float64 `json:"f,omitempty" yaml:"f,omitempty"`
}

// FrameDump is the content of one frame.
type FrameDump struct {
	Frame  int         `json:"frame" yaml:"frame"`
	Step   int         `json:"step" yaml:"step"`
	Time   float64     `json:"time" yaml:"time"`
	Lambda float64     `json:"lambda" yaml:"lambda"`
	Units  string      `json:"units" yaml:"units"`
	Box    [][]float64 `json:"box,omitempty" yaml:"box,omitempty"`
	Atoms  []AtomDump  `json:"atoms" yaml:"atoms"`
}

// Headers implements output.TableRenderer.
func (d *FrameDump) Headers() []string {
	h := []string{"atom"}
	if len(d.Atoms) == 0 {
		return h
	}
	a := d.Atoms[0]
	if a.X != nil {
		h = append(h, "x", "y", "z")
	}
	if a.V != nil {
		h = append(h, "vx", "vy", "vz")
	}
	if a.F != nil {
		h = append(h, "fx", "fy", "fz")
	}
	return h
}

// Rows implements output.TableRenderer.
func (d *FrameDump) Rows() [][]string {
	rows := make([][]string, 0, len(d.Atoms))
	for _, a := range d.Atoms {
		r := []string{strconv.Itoa(a.Index)}
		for _, s := range [][]float64{a.X, a.V, a.F} {
			for _, v := range s {
				r = append(r, ftoa(v))
			}
		}
		rows = append(rows, r)
	}
	return rows
}

func newDumpCmd(a *app) *cobra.Command {
	var frame int
	var atoms []int
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print the positions, velocities and forces of one frame",
		Long: `Print the data of one frame of a trajectory. Positions and box are
given in the configured length units, velocities and forces in GROMACS units.
In table format the box is not printed, use json or yaml for that.

Examples:
  trrtool dump traj.trr --frame 10
  trrtool dump traj.trr --frame 0 --atoms 0,1,5 --units angstrom`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.dump(args[0], frame, atoms)
			if err != nil {
				return err
			}
			return a.printer.Print(d)
		},
	}
	cmd.Flags().IntVarP(&frame, "frame", "f", 0, "frame to print (0-based)")
	cmd.Flags().IntSliceVar(&atoms, "atoms", nil, "atoms to print (0-based, default all)")
	return cmd
}

func (a *app) dump(path string, frame int, atoms []int) (*FrameDump, error) {
	if frame < 0 {
		return nil, fmt.Errorf("invalid frame %d", frame)
	}
	R, err := a.open(path)
	if err != nil {
		return nil, err
	}
	defer R.Close()
	for _, at := range atoms {
		if at < 0 || at >= R.Len() {
			return nil, fmt.Errorf("atom %d out of range, the trajectory has %d atoms", at, R.Len())
		}
	}
	if len(atoms) == 0 {
		atoms = make([]int, R.Len())
		for i := range atoms {
			atoms[i] = i
		}
	}

	fr := trr.NewFrame(R.Len(), trr.HasX|trr.HasV|trr.HasF)
	var found bool
	switch err := R.Seek(frame); {
	case err == nil:
		if err := R.ReadFrame(fr); err != nil {
			return nil, errors.Wrapf(err, "reading frame %d", frame)
		}
		found = true
	case errors.Is(err, trr.ErrNotSeekable):
		level.Debug(a.logger).Log("msg", "trajectory not seekable, reading sequentially", "file", path)
		err = a.each(R, fr, func(i int, fr *trr.Frame) error {
			if i == frame {
				found = true
				return errStop
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrapf(err, "looking for frame %d", frame)
	}
	if !found {
		return nil, fmt.Errorf("frame %d not found in %s", frame, path)
	}

	scale := a.lengthScale()
	d := &FrameDump{Frame: frame, Step: fr.Step, Time: fr.Time, Lambda: fr.Lambda, Units: string(a.cfg.Units)}
	if fr.HasBox {
		d.Box = rows(fr.Box, scale)
	}
	sel := v3.Zeros(len(atoms))
	pick := func(m *v3.Matrix, scale float64) ([][]float64, error) {
		if err := sel.SomeVecsSafe(m, atoms); err != nil {
			return nil, errors.Wrapf(err, "selecting atoms of frame %d", frame)
		}
		return rows(sel, scale), nil
	}
	var x, v, f [][]float64
	if fr.Props&trr.HasX != 0 {
		if x, err = pick(fr.X, scale); err != nil {
			return nil, err
		}
	}
	if fr.Props&trr.HasV != 0 {
		if v, err = pick(fr.V, 1); err != nil {
			return nil, err
		}
	}
	if fr.Props&trr.HasF != 0 {
		if f, err = pick(fr.F, 1); err != nil {
			return nil, err
		}
	}
	for i, at := range atoms {
		ad := AtomDump{Index: at}
		if x != nil {
			ad.X = x[i]
		}
		if v != nil {
			ad.V = v[i]
		}
		if f != nil {
			ad.F = f[i]
		}
		d.Atoms = append(d.Atoms, ad)
	}
	return d, nil
}
