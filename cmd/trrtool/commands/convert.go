/*
 * convert.go, part of gotrr.
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
	"strconv"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rmera/gotrr/internal/output"
	"github.com/rmera/gotrr/traj/trr"
)

// ConvertResult reports what convert did.
type ConvertResult struct {
	Input       string `json:"input" yaml:"input"`
	Output      string `json:"output" yaml:"output"`
	Compression string `json:"compression" yaml:"compression"`
	Precision   string `json:"precision" yaml:"precision"`
	Read        int    `json:"frames_read" yaml:"frames_read"`
	Written     int    `json:"frames_written" yaml:"frames_written"`
}

// Pairs implements output.PairsRenderer.
func (c ConvertResult) Pairs() output.Pairs {
	return output.Pairs{
		{"input", c.Input},
		{"output", c.Output},
		{"compression", c.Compression},
		{"precision", c.Precision},
		{"frames read", strconv.Itoa(c.Read)},
		{"frames written", strconv.Itoa(c.Written)},
	}
}

type convertOptions struct {
	stride int
	begin  int
	end    int
	double bool
	single bool
	noX    bool
	noV    bool
	noF    bool
}

// keep tells whether frame i is selected.
func (o *convertOptions) keep(i int) bool {
	if i < o.begin || (o.end >= 0 && i > o.end) {
		return false
	}
	return (i-o.begin)%o.stride == 0
}

func newConvertCmd(a *app) *cobra.Command {
	o := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Re-encode a trajectory",
		Long: `Copy the frames of IN into OUT, optionally keeping only some of them,
dropping sections, or changing the precision. The compression of OUT is
chosen from its extension (.gz, .zst, .lzw or none).

By default the precision of IN is kept, unless write.double is set in the
configuration or one of --double and --single is given.

Examples:
  trrtool convert traj.trr traj.trr.zst
  trrtool convert traj.trr small.trr --stride 10 --no-v --no-f --single
  trrtool convert traj.trr part.trr --begin 100 --end 200`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.convert(args[0], args[1], o)
			if err != nil {
				return err
			}
			return a.printer.Print(res)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.stride, "stride", 1, "write one of every stride frames")
	f.IntVar(&o.begin, "begin", 0, "first frame to write (0-based)")
	f.IntVar(&o.end, "end", -1, "last frame to write, inclusive (-1 for the last in the trajectory)")
	f.BoolVar(&o.double, "double", false, "write double precision")
	f.BoolVar(&o.single, "single", false, "write single precision")
	f.BoolVar(&o.noX, "no-x", false, "drop positions")
	f.BoolVar(&o.noV, "no-v", false, "drop velocities")
	f.BoolVar(&o.noF, "no-f", false, "drop forces")
	cmd.MarkFlagsMutuallyExclusive("double", "single")
	return cmd
}

func (a *app) convert(in, outfile string, o *convertOptions) (*ConvertResult, error) {
	if o.stride < 1 {
		return nil, fmt.Errorf("invalid stride %d", o.stride)
	}
	if o.begin < 0 {
		return nil, fmt.Errorf("invalid first frame %d", o.begin)
	}
	//creating OUT would truncate IN before anything is read from it.
	if ost, err := os.Stat(outfile); err == nil {
		if ist, err := os.Stat(in); err == nil && os.SameFile(ist, ost) {
			return nil, fmt.Errorf("%s and %s are the same file", in, outfile)
		}
	}
	R, err := a.open(in)
	if err != nil {
		return nil, err
	}
	defer R.Close()

	double := R.Double() || a.cfg.Write.Double
	if o.double {
		double = true
	}
	if o.single {
		double = false
	}
	opts := []trr.WriterOption{trr.WithCompressionLevel(a.cfg.Write.Level)}
	if double {
		opts = append(opts, trr.WithDouble())
	}
	W, err := trr.NewWriter(outfile, R.Len(), opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", outfile)
	}
	res := &ConvertResult{
		Input:       in,
		Output:      outfile,
		Compression: trr.CompressionOf(outfile).String(),
		Precision:   precision(double),
	}

	var p trr.Props
	if !o.noX {
		p |= trr.HasX
	}
	if !o.noV {
		p |= trr.HasV
	}
	if !o.noF {
		p |= trr.HasF
	}
	//sections not wanted are left nil, so they are discarded when reading.
	fr := trr.NewFrame(R.Len(), p)
	err = a.each(R, fr, func(i int, fr *trr.Frame) error {
		if o.end >= 0 && i > o.end {
			return errStop
		}
		res.Read++
		if !o.keep(i) {
			return nil
		}
		w := &trr.Frame{Step: fr.Step, Time: fr.Time, Lambda: fr.Lambda}
		if fr.HasBox {
			w.Box = fr.Box
		}
		if fr.Props&p&trr.HasX != 0 {
			w.X = fr.X
		}
		if fr.Props&p&trr.HasV != 0 {
			w.V = fr.V
		}
		if fr.Props&p&trr.HasF != 0 {
			w.F = fr.F
		}
		if w.Box == nil && w.X == nil && w.V == nil && w.F == nil {
			level.Debug(a.logger).Log("msg", "nothing left to write in frame", "frame", i)
			return nil
		}
		if err := W.WriteFrame(w); err != nil {
			return errors.Wrapf(err, "writing frame %d", i)
		}
		res.Written++
		return nil
	})
	if cerr := W.Close(); err == nil && cerr != nil {
		err = errors.Wrapf(cerr, "closing %s", outfile)
	}
	if err != nil {
		return nil, err
	}
	level.Info(a.logger).Log("msg", "trajectory converted", "input", in, "output", outfile, "read", res.Read, "written", res.Written)
	return res, nil
}
