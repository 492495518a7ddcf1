/*
 * info.go, part of gotrr.
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
	"math"
	"strconv"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/rmera/gotrr/internal/output"
	"github.com/rmera/gotrr/traj/trr"
	v3 "github.com/rmera/gotrr/v3"
)

// Info summarizes a trajectory.
type Info struct {
	File        string  `json:"file" yaml:"file"`
	Compression string  `json:"compression" yaml:"compression"`
	Atoms       int     `json:"atoms" yaml:"atoms"`
	Frames      int     `json:"frames" yaml:"frames"`
	Precision   string  `json:"precision" yaml:"precision"`
	Props       string  `json:"props" yaml:"props"`
	Box         bool    `json:"box" yaml:"box"`
	FirstStep   int     `json:"first_step" yaml:"first_step"`
	LastStep    int     `json:"last_step" yaml:"last_step"`
	FirstTime   float64 `json:"first_time" yaml:"first_time"`
	LastTime    float64 `json:"last_time" yaml:"last_time"`
	TimeStep    float64 `json:"time_step" yaml:"time_step"`
	TimeStepStd float64 `json:"time_step_std" yaml:"time_step_std"`
	Volume      float64 `json:"volume,omitempty" yaml:"volume,omitempty"`
	Units       string  `json:"units" yaml:"units"`
	Truncated   bool    `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// Pairs implements output.PairsRenderer.
func (i Info) Pairs() output.Pairs {
	p := output.Pairs{
		{"file", i.File},
		{"compression", i.Compression},
		{"atoms", strconv.Itoa(i.Atoms)},
		{"frames", strconv.Itoa(i.Frames)},
		{"precision", i.Precision},
		{"props", i.Props},
		{"box", yesno(i.Box)},
		{"steps", fmt.Sprintf("%d - %d", i.FirstStep, i.LastStep)},
		{"time (ps)", fmt.Sprintf("%s - %s", ftoa(i.FirstTime), ftoa(i.LastTime))},
		{"time step (ps)", fmt.Sprintf("%s +/- %s", ftoa(i.TimeStep), ftoa(i.TimeStepStd))},
	}
	if i.Box {
		p = append(p, [2]string{"volume (" + i.Units + "^3)", ftoa(i.Volume)})
	}
	if i.Truncated {
		p = append(p, [2]string{"truncated", "yes"})
	}
	return p
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "Summarize a trajectory",
		Long: `Print the number of atoms and frames of a trajectory, its precision,
the sections its frames carry, the step and time range, the mean and
standard deviation of the time between frames, and the volume of the first box.

Examples:
  trrtool info traj.trr
  trrtool info traj.trr.gz --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.info(args[0])
			if err != nil {
				return err
			}
			return a.printer.Print(info)
		},
	}
}

func (a *app) info(path string) (*Info, error) {
	R, err := a.open(path)
	if err != nil {
		return nil, err
	}
	defer R.Close()
	info := &Info{
		File:        path,
		Compression: R.Compression().String(),
		Atoms:       R.Len(),
		Precision:   precision(R.Double()),
		Units:       string(a.cfg.Units),
	}
	var props trr.Props
	var times []float64
	//Only the box is kept, the rest is discarded.
	fr := &trr.Frame{Box: v3.Zeros(3)}
	err = a.each(R, fr, func(i int, fr *trr.Frame) error {
		if i == 0 {
			info.FirstStep = fr.Step
			info.FirstTime = fr.Time
		}
		//frames may come without a box, the volume is that of the first one that has it.
		if fr.HasBox && !info.Box {
			info.Volume = math.Abs(mat.Det(fr.Box.Dense)) * math.Pow(a.lengthScale(), 3)
			info.Box = true
		}
		info.Frames++
		info.LastStep = fr.Step
		info.LastTime = fr.Time
		props |= fr.Props
		times = append(times, fr.Time)
		return nil
	})
	if err != nil {
		return nil, err
	}
	info.Props = props.String()
	if len(times) > 1 {
		dts := make([]float64, len(times)-1)
		floats.SubTo(dts, times[1:], times[:len(times)-1])
		info.TimeStep, info.TimeStepStd = stat.MeanStdDev(dts, nil)
		if len(dts) == 1 {
			info.TimeStepStd = 0
		}
	}
	if idx, err := R.Index(); err == nil {
		info.Truncated = idx.Truncated
	}
	return info, nil
}
