/*
 * plot.go, part of gotrr.
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
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/rmera/gotrr/traj/trr"
	v3 "github.com/rmera/gotrr/v3"
)

// series are the time series plotted by the plot command.
type series struct {
	box    [3]plotter.XYs
	lambda plotter.XYs
}

func newPlotCmd(a *app) *cobra.Command {
	var width, height float64
	cmd := &cobra.Command{
		Use:   "plot FILE [OUT.png]",
		Short: "Plot the box edges and lambda against time",
		Long: `Plot the lengths of the three box vectors, and the free energy lambda,
against the simulation time, and save the plot as a PNG image. The default
output is FILE with its extensions replaced by .png.

Examples:
  trrtool plot traj.trr
  trrtool plot traj.trr.gz box.png --units angstrom`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := plotName(args[0])
			if len(args) > 1 {
				target = args[1]
			}
			s, err := a.series(args[0])
			if err != nil {
				return err
			}
			if err := a.plot(s, target, vg.Length(width)*vg.Centimeter, vg.Length(height)*vg.Centimeter); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out(cmd), "Plot saved to %s\n", target)
			return err
		},
	}
	cmd.Flags().Float64Var(&width, "width", 16, "image width in cm")
	cmd.Flags().Float64Var(&height, "height", 16, "image height in cm")
	return cmd
}

// plotName is fname without its extensions, plus .png
func plotName(fname string) string {
	base := filepath.Base(fname)
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	return filepath.Join(filepath.Dir(fname), base+".png")
}

func (a *app) series(path string) (*series, error) {
	R, err := a.open(path)
	if err != nil {
		return nil, err
	}
	defer R.Close()
	s := new(series)
	scale := a.lengthScale()
	fr := &trr.Frame{Box: v3.Zeros(3)}
	err = a.each(R, fr, func(i int, fr *trr.Frame) error {
		s.lambda = append(s.lambda, plotter.XY{X: fr.Time, Y: fr.Lambda})
		if !fr.HasBox {
			return nil
		}
		for j := range s.box {
			s.box[j] = append(s.box[j], plotter.XY{X: fr.Time, Y: floats.Norm(fr.Box.VecView(j).RawRowView(0), 2) * scale})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(s.lambda) == 0 {
		return nil, fmt.Errorf("no frames to plot in %s", path)
	}
	return s, nil
}

func (a *app) plot(s *series, target string, width, height vg.Length) error {
	var plots [][]*plot.Plot
	if len(s.box[0]) > 0 {
		p := plot.New()
		p.Title.Text = "Box"
		p.X.Label.Text = "time (ps)"
		p.Y.Label.Text = fmt.Sprintf("length (%s)", a.cfg.Units)
		p.Add(plotter.NewGrid())
		if err := plotutil.AddLines(p, "a", s.box[0], "b", s.box[1], "c", s.box[2]); err != nil {
			return errors.Wrap(err, "plotting box")
		}
		plots = append(plots, []*plot.Plot{p})
	} else {
		level.Warn(a.logger).Log("msg", "no box in trajectory, plotting lambda only")
	}
	p := plot.New()
	p.Title.Text = "Lambda"
	p.X.Label.Text = "time (ps)"
	p.Y.Label.Text = "lambda"
	p.Add(plotter.NewGrid())
	if err := plotutil.AddLines(p, "lambda", s.lambda); err != nil {
		return errors.Wrap(err, "plotting lambda")
	}
	plots = append(plots, []*plot.Plot{p})

	img := vgimg.New(width, height)
	dc := draw.New(img)
	t := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      4 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  2 * vg.Millimeter,
	}
	canvases := plot.Align(plots, t, dc)
	for i, row := range plots {
		row[0].Draw(canvases[i][0])
	}

	f, err := os.Create(target)
	if err != nil {
		return errors.Wrapf(err, "creating %s", target)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", target)
	}
	return f.Close()
}
