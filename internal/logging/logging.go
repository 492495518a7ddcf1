/*
 * logging.go, part of gotrr.
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

// Package logging sets up structured logging for trrtool in a uniform way, and
// redirects the heads-up messages that the library writes with the stdlib
// logger into the structured log.
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Init returns a logger writing to w, in the given format ("logfmt" or "json"),
// that drops messages below lvl ("debug", "info", "warn" or "error").
// Entries carry a timestamp and the caller. The stdlib logger is
// reconfigured to push its output into this logger, at the warn level.
func Init(w io.Writer, lvl, format string) (log.Logger, error) {
	var l log.Logger
	switch strings.ToLower(format) {
	case "", "logfmt":
		l = log.NewLogfmtLogger(log.NewSyncWriter(w))
	case "json":
		l = log.NewJSONLogger(log.NewSyncWriter(w))
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	opt, err := levelOption(lvl)
	if err != nil {
		return nil, err
	}
	l = level.NewFilter(l, opt)
	l = log.With(l, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	stdlog.SetFlags(0)
	stdlog.SetOutput(log.NewStdlibAdapter(level.Warn(l)))
	return l, nil
}

func levelOption(lvl string) (level.Option, error) {
	switch strings.ToLower(lvl) {
	case "debug":
		return level.AllowDebug(), nil
	case "", "info":
		return level.AllowInfo(), nil
	case "warn", "warning":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	default:
		return nil, fmt.Errorf("unknown log level %q", lvl)
	}
}
