/*
 * writer.go, part of gotrr.
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
	"bufio"
	"fmt"
	"io"
	"os"

	xdr "github.com/rasky/go-xdr/xdr2"
	"github.com/rmera/gotrr"
	v3 "github.com/rmera/gotrr/v3"
)

var _ gotrr.TrajWriter = (*Writer)(nil)

//WriterOption configures a Writer.
type WriterOption func(*Writer)

//WithDouble makes the Writer write double precision frames.
func WithDouble() WriterOption {
	return func(W *Writer) { W.double = true }
}

//WithCompressionLevel sets the compression level for .gz and .zst files.
//For zstd, the level is in the zstd scale (1 to 22).
func WithCompressionLevel(level int) WriterOption {
	return func(W *Writer) { W.level = level }
}

//WithTimeStep sets the time, in ps, between frames written with WNext. The default is 1.
func WithTimeStep(dt float64) WriterOption {
	return func(W *Writer) { W.dt = dt }
}

//Writer writes TRR trajectories.
type Writer struct {
	fhandle   *os.File
	h         io.WriteCloser
	buf       *bufio.Writer
	enc       *xdr.Encoder
	filename  string
	natoms    int
	double    bool
	level     int
	dt        float64
	step      int
	writeable bool
	scratch   []float64
	box       *v3.Matrix
}

func (W *Writer) setup(natoms int, opts []WriterOption) {
	W.natoms = natoms
	W.dt = 1
	for _, o := range opts {
		o(W)
	}
}

//NewWriter creates the TRR file filename, for frames of natoms atoms. The file is
//compressed according to its extension (see CompressionOf).
func NewWriter(filename string, natoms int, opts ...WriterOption) (*Writer, error) {
	if natoms <= 0 {
		return nil, newError(ErrNAtoms, fmt.Sprintf("can't write frames of %d atoms", natoms), filename, "NewWriter")
	}
	W := &Writer{filename: filename}
	W.setup(natoms, opts)
	var err error
	W.fhandle, W.h, _, err = prepTarget(filename, W.level)
	if err != nil {
		return nil, errDecorate(err, "NewWriter")
	}
	W.buf = bufio.NewWriter(W.h)
	W.enc = xdr.NewEncoder(W.buf)
	W.writeable = true
	return W, nil
}

//NewStreamWriter returns a Writer that writes uncompressed TRR frames of natoms atoms to w.
//Closing the Writer flushes it, but does not close w.
func NewStreamWriter(w io.Writer, natoms int, opts ...WriterOption) (*Writer, error) {
	if natoms <= 0 {
		return nil, newError(ErrNAtoms, fmt.Sprintf("can't write frames of %d atoms", natoms), "", "NewStreamWriter")
	}
	W := new(Writer)
	W.setup(natoms, opts)
	W.h = nopWriteCloser{w}
	W.buf = bufio.NewWriter(W.h)
	W.enc = xdr.NewEncoder(W.buf)
	W.writeable = true
	return W, nil
}

//Len returns the number of atoms per frame.
func (W *Writer) Len() int {
	return W.natoms
}

//Double returns true if the Writer writes double precision frames.
func (W *Writer) Double() bool {
	return W.double
}

//Close flushes the buffered data and the compressor, and closes the file.
//The Writer can't be used after this call.
func (W *Writer) Close() error {
	if W == nil || !W.writeable {
		return nil
	}
	W.writeable = false
	err := W.buf.Flush()
	if err2 := W.h.Close(); err == nil {
		err = err2
	}
	if W.fhandle != nil {
		if err2 := W.fhandle.Close(); err == nil {
			err = err2
		}
	}
	if err != nil {
		return newError(ErrUnwritable, err.Error(), W.filename, "Close")
	}
	return nil
}

//Write writes a frame, in GROMACS units. Any of box, x, v and f can be nil, in which case
//it is not written, but at least one must be given. box is a 3x3 matrix with one
//box vector per row.
func (W *Writer) Write(step int, t, lambda float64, box, x, v, f *v3.Matrix) error {
	fr := &Frame{Step: step, Time: t, Lambda: lambda, Box: box, X: x, V: v, F: f}
	return W.writeFrame(fr, 1, "Write")
}

//WriteFrame writes fr, in GROMACS units. Nil matrices in fr are not written,
//but at least one of Box, X, V and F must be present. The precision is that of the Writer,
//fr.Double is ignored.
func (W *Writer) WriteFrame(fr *Frame) error {
	return W.writeFrame(fr, 1, "WriteFrame")
}

//header builds the header for fr.
func (W *Writer) header(fr *Frame) *Header {
	h := &Header{NAtoms: W.natoms, Step: fr.Step, Time: fr.Time, Lambda: fr.Lambda, Double: W.double}
	rs := h.realSize()
	if fr.Box != nil {
		h.BoxSize = dim * dim * rs
	}
	p := fr.props()
	if p&HasX != 0 {
		h.XSize = W.natoms * dim * rs
	}
	if p&HasV != 0 {
		h.VSize = W.natoms * dim * rs
	}
	if p&HasF != 0 {
		h.FSize = W.natoms * dim * rs
	}
	return h
}

func (W *Writer) writeFrame(fr *Frame, lscale float64, caller string) error {
	if !W.writeable {
		return newError(ErrUnwritable, "", W.filename, caller)
	}
	if fr == nil || (fr.Box == nil && fr.props() == 0) {
		return newError(ErrHeader, "nothing to write in frame", W.filename, caller)
	}
	for _, m := range []*v3.Matrix{fr.X, fr.V, fr.F} {
		if m != nil && m.NVecs() != W.natoms {
			return newError(ErrNAtoms, fmt.Sprintf("%d vectors given, %d expected", m.NVecs(), W.natoms), W.filename, caller)
		}
	}
	if fr.Box != nil && fr.Box.NVecs() != dim {
		return newError(ErrHeader, fmt.Sprintf("box with %d vectors given", fr.Box.NVecs()), W.filename, caller)
	}
	h := W.header(fr)
	if err := writeHeader(W.enc, h); err != nil {
		return W.failed(err, caller)
	}
	//the order matters.
	sections := []struct {
		m     *v3.Matrix
		scale float64
	}{{fr.Box, lscale}, {fr.X, lscale}, {fr.V, 1}, {fr.F, 1}}
	for _, s := range sections {
		if s.m == nil {
			continue
		}
		if err := W.writeMatrix(s.m, s.scale); err != nil {
			return W.failed(err, caller)
		}
	}
	return nil
}

//failed marks the Writer as unusable after an error in the middle of a frame.
func (W *Writer) failed(err error, caller string) error {
	W.writeable = false
	return newError(ErrUnwritable, err.Error(), W.filename, caller)
}

func (W *Writer) writeMatrix(m *v3.Matrix, scale float64) error {
	W.scratch = m.Float64s(W.scratch, scale)
	for _, v := range W.scratch {
		var err error
		if W.double {
			_, err = W.enc.EncodeDouble(v)
		} else {
			_, err = W.enc.EncodeFloat(float32(v))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

//WNext writes coords, in Angstrom, as the positions of the next frame, and, if given, the box vectors
//(9 numbers, row-major, also in Angstrom). Step numbers start from 0 and
//increase by one with each call, and the time of each frame is step times the
//time step given to the Writer.
func (W *Writer) WNext(coords *v3.Matrix, box ...[]float64) error {
	if coords == nil {
		return newError(ErrHeader, "given nil coordinates", W.filename, "WNext")
	}
	fr := &Frame{Step: W.step, Time: float64(W.step) * W.dt, X: coords}
	if len(box) > 0 && len(box[0]) >= 9 {
		if W.box == nil {
			W.box = v3.Zeros(dim)
		}
		W.box.FillFloat64(box[0], 1)
		fr.Box = W.box
	}
	if err := W.writeFrame(fr, 1/NmToAngstrom, "WNext"); err != nil {
		return err
	}
	W.step++
	return nil
}
