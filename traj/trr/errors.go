/*
 * errors.go, part of gotrr.
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

package trr

import (
	"errors"
	"fmt"
	"io"

	"github.com/rmera/gotrr"
)

//These mirror the return codes of the xdrfile library. Every *Error returned
//by this package wraps one of them, so they can be checked with errors.Is.
var (
	ErrHeader       = errors.New("invalid frame header")
	ErrString       = errors.New("invalid version string in header")
	ErrDouble       = errors.New("can't read double precision value")
	ErrInt          = errors.New("can't read integer value")
	ErrFloat        = errors.New("can't read single precision value")
	ErrMagic        = errors.New("wrong magic number, not a TRR file")
	ErrEndOfFile    = errors.New("unexpected end of file, truncated frame")
	ErrFileNotFound = errors.New("unable to open file")
	ErrNAtoms       = errors.New("number of atoms doesn't match the trajectory")
	ErrStaleIndex   = errors.New("offsets cache doesn't match the trajectory")
	ErrNotSeekable  = errors.New("trajectory doesn't support random access")
	ErrUnreadable   = errors.New("trajectory not ready for reading")
	ErrUnwritable   = errors.New("trajectory not ready for writing")
	ErrOutOfRange   = errors.New("frame out of range")
)

var sentinels = []error{ErrHeader, ErrString, ErrDouble, ErrInt, ErrFloat, ErrMagic, ErrEndOfFile,
	ErrFileNotFound, ErrNAtoms, ErrStaleIndex, ErrNotSeekable, ErrUnreadable, ErrUnwritable, ErrOutOfRange}

//Error is the general structure for TRR trajectory errors. It fullfills gotrr.Error and gotrr.TrajError
type Error struct {
	message  string
	filename string //the file that has problems, or empty string if none.
	deco     []string
	critical bool
	err      error
}

func newError(sentinel error, message, filename, caller string) *Error {
	if message == "" {
		message = sentinel.Error()
	}
	return &Error{message: message, filename: filename, deco: []string{caller}, critical: true, err: sentinel}
}

func (err *Error) Error() string {
	if err.filename == "" {
		return fmt.Sprintf("trr error: %s", err.message)
	}
	return fmt.Sprintf("trr file %s error: %s", err.filename, err.message)
}

//Unwrap returns the xdrfile-like error code wrapped by err.
func (err *Error) Unwrap() error { return err.err }

//Decorate Adds new information to the error
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

//FileName returns the file to which the failing trajectory was associated
func (err *Error) FileName() string { return err.filename }

//Format returns the format of the file (always "trr") associated to the error
func (err *Error) Format() string { return "trr" }

//Critical returns true if the error is critical, false otherwise
func (err *Error) Critical() bool { return err.critical }

//errDecorate decorates err with the caller's name, if err implements gotrr.Error.
//other errors are returned untouched.
func errDecorate(err error, caller string) error {
	if err2, ok := err.(gotrr.Error); ok {
		err2.Decorate(caller)
	}
	return err
}

//wrapError turns err into an *Error for filename, keeping the
//sentinel it wraps, if any. *Error values are just decorated.
func wrapError(err error, filename, caller string) error {
	if e, ok := err.(*Error); ok {
		e.Decorate(caller)
		return e
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return newError(s, err.Error(), filename, caller)
		}
	}
	return newError(ErrHeader, err.Error(), filename, caller)
}

//lastFrameError implements gotrr.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

//NormalLastFrameTermination does nothing
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "trr" }

//Is makes errors.Is(err, io.EOF) true for the end of the trajectory.
func (E *lastFrameError) Is(target error) bool { return target == io.EOF }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}
