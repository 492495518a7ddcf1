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

package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rmera/gotrr/traj/trr"
)

// FrameInfo describes one frame of a trajectory.
type FrameInfo struct {
	Index  int     `json:"index" yaml:"index"`
	Offset int64   `json:"offset" yaml:"offset"`
	Step   int     `json:"step" yaml:"step"`
	Time   float64 `json:"time" yaml:"time"`
	Lambda float64 `json:"lambda" yaml:"lambda"`
	Props  string  `json:"props" yaml:"props"`
	Box    bool    `json:"box" yaml:"box"`
}

// FrameList is the frames of a trajectory.
type FrameList []FrameInfo

// Headers implements output.TableRenderer.
func (l FrameList) Headers() []string {
	return []string{"frame", "offset", "step", "time", "lambda", "props", "box"}
}

// Rows implements output.TableRenderer.
func (l FrameList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, f := range l {
		rows = append(rows, []string{
			strconv.Itoa(f.Index),
			strconv.FormatInt(f.Offset, 10),
			strconv.Itoa(f.Step),
			ftoa(f.Time),
			ftoa(f.Lambda),
			f.Props,
			yesno(f.Box),
		})
	}
	return rows
}

func newFramesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "frames FILE",
		Short: "List the frames of a trajectory",
		Long: `List every frame of a trajectory with its byte offset, step, time,
lambda and the sections it carries. For compressed trajectories, offsets
are positions in the decompressed data.

Examples:
  trrtool frames traj.trr
  trrtool frames traj.trr --output yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.frames(args[0])
			if err != nil {
				return err
			}
			return a.printer.Print(list)
		},
	}
}

func (a *app) frames(path string) (FrameList, error) {
	R, err := a.open(path)
	if err != nil {
		return nil, err
	}
	defer R.Close()
	idx, err := a.offsets(R, path)
	if err != nil {
		return nil, err
	}
	list := make(FrameList, 0, idx.NFrames)
	err = a.each(R, &trr.Frame{}, func(i int, fr *trr.Frame) error {
		var off int64 = -1
		if i < len(idx.Offsets) {
			off = idx.Offsets[i]
		}
		list = append(list, FrameInfo{
			Index:  i,
			Offset: off,
			Step:   fr.Step,
			Time:   fr.Time,
			Lambda: fr.Lambda,
			Props:  fr.Props.String(),
			Box:    fr.HasBox,
		})
		return nil
	})
	return list, err
}
