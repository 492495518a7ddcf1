/*
 * root.go, part of gotrr.
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

// Package commands implements the trrtool subcommands.
package commands

import (
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rmera/gotrr/internal/config"
	"github.com/rmera/gotrr/internal/logging"
	"github.com/rmera/gotrr/internal/output"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// app is the state shared by all subcommands: the loaded configuration,
// the logger and the result printer. It is filled before any subcommand runs.
type app struct {
	cfgFile  string
	output   string
	logLevel string
	units    string

	cfg     *config.Config
	logger  log.Logger
	printer *output.Printer
}

// Execute builds the command tree and runs it with the process arguments.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd returns the trrtool command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: log.NewNopLogger()}
	rootCmd := &cobra.Command{
		Use:   "trrtool",
		Short: "Inspect and convert GROMACS TRR trajectories",
		Long: `trrtool reads GROMACS TRR trajectories (plain, .gz, .zst or .lzw) and
reports what they contain, dumps frames, converts between precisions and
compressions, and plots the box and lambda against time.

Configuration is read from $XDG_CONFIG_HOME/trrtool/config.yaml, and can be
overridden with TRRTOOL_<SECTION>_<KEY> environment variables and with flags.

Use "trrtool [command] --help" for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/trrtool/config.yaml)")
	flags.StringVarP(&a.output, "output", "o", "", "output format (table|json|yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	flags.StringVar(&a.units, "units", "", "length units for positions and boxes (nm|angstrom)")

	rootCmd.AddCommand(newInfoCmd(a))
	rootCmd.AddCommand(newFramesCmd(a))
	rootCmd.AddCommand(newDumpCmd(a))
	rootCmd.AddCommand(newConvertCmd(a))
	rootCmd.AddCommand(newPlotCmd(a))
	rootCmd.AddCommand(newIndexCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	return rootCmd
}

// setup loads the configuration, applies the global flags on top of it
// and builds the logger and printer.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = a.output
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = config.ParseLevel(a.logLevel)
	}
	if cmd.Flags().Changed("units") {
		cfg.Units = config.Units(a.units)
	}
	if err := config.Validate(cfg); err != nil {
		return errors.Wrap(err, "invalid flags")
	}
	a.cfg = cfg

	a.logger, err = logging.Init(cmd.ErrOrStderr(), string(cfg.Logging.Level), cfg.Logging.Format)
	if err != nil {
		return errors.Wrap(err, "setting up logging")
	}
	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}
	a.printer = output.NewPrinter(cmd.OutOrStdout(), format)
	level.Debug(a.logger).Log("msg", "configuration loaded", "config", a.cfgFile, "output", cfg.Output, "units", cfg.Units)
	return nil
}

// out returns the writer for non-formatted messages.
func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
