/*
 * index.go, part of gotrr.
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
	"os"
	"strconv"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rmera/gotrr/internal/output"
	"github.com/rmera/gotrr/traj/trr"
)

// IndexResult describes the offsets cache of a trajectory.
type IndexResult struct {
	File      string `json:"file" yaml:"file"`
	Cache     string `json:"cache" yaml:"cache"`
	Frames    int    `json:"frames" yaml:"frames"`
	Estimate  int    `json:"estimate" yaml:"estimate"`
	Truncated bool   `json:"truncated" yaml:"truncated"`
	Rebuilt   bool   `json:"rebuilt" yaml:"rebuilt"`
}

// Pairs implements output.PairsRenderer.
func (r IndexResult) Pairs() output.Pairs {
	return output.Pairs{
		{"file", r.File},
		{"cache", r.Cache},
		{"frames", strconv.Itoa(r.Frames)},
		{"estimate", strconv.Itoa(r.Estimate)},
		{"truncated", yesno(r.Truncated)},
		{"rebuilt", yesno(r.Rebuilt)},
	}
}

func newIndexCmd(a *app) *cobra.Command {
	var rebuild bool
	cmd := &cobra.Command{
		Use:   "index FILE",
		Short: "Build or refresh the frame offsets cache",
		Long: `Build the frame offsets cache of a trajectory, a small file named
.FILE_offsets.xdr next to it, that lets later reads seek to any frame
without scanning the trajectory. A cache that no longer matches the
trajectory is rebuilt. Only plain (uncompressed) trajectories can be indexed.

Examples:
  trrtool index traj.trr
  trrtool index traj.trr --rebuild`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.index(args[0], rebuild)
			if err != nil {
				return err
			}
			return a.printer.Print(res)
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "discard the existing cache and scan the trajectory again")
	return cmd
}

func (a *app) index(path string, rebuild bool) (*IndexResult, error) {
	if c := trr.CompressionOf(path); c != trr.Plain {
		return nil, errors.Wrapf(trr.ErrNotSeekable, "%s is %s compressed", path, c)
	}
	res := &IndexResult{File: path, Cache: trr.IndexPath(path)}
	if rebuild {
		if err := os.Remove(res.Cache); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "removing %s", res.Cache)
		}
	}
	_, err := trr.LoadIndex(path)
	res.Rebuilt = err != nil
	if err != nil {
		level.Debug(a.logger).Log("msg", "building index", "file", path, "reason", err)
	}
	idx, err := trr.OpenIndex(path, true)
	if err != nil {
		return nil, errors.Wrapf(err, "indexing %s", path)
	}
	if _, err := os.Stat(res.Cache); err != nil {
		return nil, errors.Wrapf(err, "cache for %s not written", path)
	}
	res.Frames = idx.NFrames
	res.Estimate = idx.Estimate
	res.Truncated = idx.Truncated
	return res, nil
}
