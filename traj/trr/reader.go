/*
 * reader.go, part of gotrr.
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
	"log"
	"os"

	xdr "github.com/rasky/go-xdr/xdr2"
	"github.com/rmera/gotrr"
	v3 "github.com/rmera/gotrr/v3"
)

var (
	_ gotrr.Traj     = (*Reader)(nil)
	_ gotrr.ConcTraj = (*Reader)(nil)
)

//ReaderOption configures a Reader.
type ReaderOption func(*Reader)

//WithIndexCache makes the Reader load the frame offsets from the cache file
//next to the trajectory, and create it if needed, when random access is requested.
func WithIndexCache(use bool) ReaderOption {
	return func(R *Reader) { R.useCache = use }
}

//Reader reads a TRR trajectory.
type Reader struct {
	fhandle  *os.File
	rc       io.ReadCloser
	seeker   io.ReadSeeker //nil if the trajectory can't be read randomly.
	start    int64         //offset of the first frame in seeker.
	buf      *bufio.Reader
	dec      *xdr.Decoder
	comp     Compression
	filename string
	natoms   int
	double   bool
	readable bool
	pending  *Header //a header already read, whose frame is next.
	frame    int     //index of the next frame.
	idx      *Index
	useCache bool
	scratch  []float64
	last     Frame
	box      *v3.Matrix
	v        *v3.Matrix
	f        *v3.Matrix
}

//New opens the TRR trajectory filename for reading. The compression is
//deduced from the extension (see CompressionOf). The first header is read
//to learn the number of atoms and the precision of the file.
func New(filename string, opts ...ReaderOption) (*Reader, error) {
	fhandle, rc, c, err := prepSource(filename)
	if err != nil {
		return nil, errDecorate(err, "New")
	}
	R := &Reader{fhandle: fhandle, rc: rc, comp: c, filename: filename}
	if c == Plain {
		R.seeker = fhandle
	}
	for _, o := range opts {
		o(R)
	}
	if err := R.init("New"); err != nil {
		rc.Close()
		fhandle.Close()
		return nil, err
	}
	return R, nil
}

//NewReader returns a Reader for the TRR data in r. If r is also an io.ReadSeeker,
//the Reader supports random access, with offsets relative to the current position of r.
func NewReader(r io.Reader, opts ...ReaderOption) (*Reader, error) {
	R := &Reader{rc: io.NopCloser(r), comp: Plain}
	if s, ok := r.(io.ReadSeeker); ok {
		start, err := s.Seek(0, io.SeekCurrent)
		if err == nil {
			R.seeker = s
			R.start = start
		}
	}
	for _, o := range opts {
		o(R)
	}
	if err := R.init("NewReader"); err != nil {
		return nil, err
	}
	return R, nil
}

func (R *Reader) init(caller string) error {
	R.buf = bufio.NewReader(R.rc)
	R.dec = xdr.NewDecoder(R.buf)
	h, _, err := readHeader(R.dec)
	if err == io.EOF {
		return newError(ErrEndOfFile, "empty trajectory", R.filename, caller)
	}
	if err != nil {
		return wrapError(err, R.filename, caller)
	}
	R.pending = h
	R.natoms = h.NAtoms
	R.double = h.Double
	R.box = v3.Zeros(dim)
	R.readable = true
	return nil
}

//NAtoms returns the number of atoms per frame in the TRR file filename.
//Only the first header is read.
func NAtoms(filename string) (int, error) {
	fhandle, rc, _, err := prepSource(filename)
	if err != nil {
		return -1, errDecorate(err, "NAtoms")
	}
	defer fhandle.Close()
	defer rc.Close()
	h, _, err := readHeader(xdr.NewDecoder(bufio.NewReader(rc)))
	if err == io.EOF {
		return -1, newError(ErrEndOfFile, "empty trajectory", filename, "NAtoms")
	}
	if err != nil {
		return -1, wrapError(err, filename, "NAtoms")
	}
	return h.NAtoms, nil
}

//Readable returns true if the trajectory is ready to be read.
func (R *Reader) Readable() bool {
	return R.readable
}

//Len returns the number of atoms per frame.
func (R *Reader) Len() int {
	return R.natoms
}

//Double returns true if the trajectory is in double precision (as far as the first frame tells).
func (R *Reader) Double() bool {
	return R.double
}

//FileName returns the name of the trajectory file, or an empty string for readers built with NewReader.
func (R *Reader) FileName() string { return R.filename }

//Compression returns the kind of compression of the trajectory file.
func (R *Reader) Compression() Compression { return R.comp }

//Close closes the trajectory, and marks it as unreadable.
func (R *Reader) Close() error {
	R.readable = false
	if R.rc == nil {
		return nil
	}
	err := R.rc.Close()
	if R.fhandle != nil {
		if err2 := R.fhandle.Close(); err == nil {
			err = err2
		}
	}
	R.rc = nil
	if err != nil {
		return newError(ErrUnreadable, err.Error(), R.filename, "Close")
	}
	return nil
}

func (R *Reader) nextHeader() (*Header, error) {
	if R.pending != nil {
		h := R.pending
		R.pending = nil
		return h, nil
	}
	h, _, err := readHeader(R.dec)
	return h, err
}

//skip discards n bytes of the frame body.
func (R *Reader) skip(n int) error {
	if n <= 0 {
		return nil
	}
	if _, err := R.buf.Discard(n); err != nil {
		return fmt.Errorf("%w: %s", ErrEndOfFile, err.Error())
	}
	return nil
}

//readReals decodes n reals into the reader's scratch buffer.
func (R *Reader) readReals(n int, double bool) ([]float64, error) {
	if cap(R.scratch) < n {
		R.scratch = make([]float64, n)
	}
	s := R.scratch[:n]
	for i := range s {
		if double {
			v, _, err := R.dec.DecodeDouble()
			if err != nil {
				return nil, decodeError(err, 1, ErrDouble)
			}
			s[i] = v
			continue
		}
		v, _, err := R.dec.DecodeFloat()
		if err != nil {
			return nil, decodeError(err, 1, ErrFloat)
		}
		s[i] = float64(v)
	}
	return s, nil
}

//readMatrix reads a section of rows x 3 reals into m, multiplied by scale.
//If m is nil the section is discarded.
func (R *Reader) readMatrix(m *v3.Matrix, rows int, h *Header, scale float64) error {
	if m == nil {
		return R.skip(rows * dim * h.realSize())
	}
	s, err := R.readReals(rows*dim, h.Double)
	if err != nil {
		return err
	}
	m.FillFloat64(s, scale)
	return nil
}

//ReadFrame reads the next frame into fr, in GROMACS units.
//Nil matrices in fr mean that the corresponding section is read and discarded.
//At the end of the trajectory a gotrr.LastFrameError is returned, and the
//Reader is no longer readable.
func (R *Reader) ReadFrame(fr *Frame) error {
	return R.readFrame(fr, 1, "ReadFrame")
}

//readFrame reads a frame, multiplying positions and box by lscale.
func (R *Reader) readFrame(fr *Frame, lscale float64, caller string) error {
	if !R.readable {
		return newError(ErrUnreadable, "", R.filename, caller)
	}
	h, err := R.nextHeader()
	if err == io.EOF {
		R.readable = false
		return newlastFrameError(R.filename, caller)
	}
	if err != nil {
		R.readable = false
		return wrapError(err, R.filename, caller)
	}
	if fr == nil {
		fr = &Frame{}
	}
	if h.NAtoms != R.natoms {
		//we can still skip the frame and go on.
		if err := R.skip(h.FrameBytes()); err != nil {
			R.readable = false
			return wrapError(err, R.filename, caller)
		}
		R.frame++
		return newError(ErrNAtoms, fmt.Sprintf("frame %d has %d atoms, %d expected", R.frame-1, h.NAtoms, R.natoms), R.filename, caller)
	}
	for _, m := range []*v3.Matrix{fr.X, fr.V, fr.F} {
		if m != nil && m.NVecs() != R.natoms {
			R.pending = h //nothing was read, so the frame can still be read with proper matrices.
			return newError(ErrNAtoms, fmt.Sprintf("matrix with %d vectors given, %d atoms in frame", m.NVecs(), R.natoms), R.filename, caller)
		}
	}
	if fr.Box != nil && fr.Box.NVecs() != dim {
		R.pending = h
		return newError(ErrHeader, fmt.Sprintf("box matrix with %d vectors given", fr.Box.NVecs()), R.filename, caller)
	}
	fr.Step = h.Step
	fr.Time = h.Time
	fr.Lambda = h.Lambda
	fr.Props = h.Props()
	fr.HasBox = h.HasBox()
	fr.Double = h.Double
	fr.NAtoms = h.NAtoms
	if err := R.readBody(h, fr, lscale); err != nil {
		R.readable = false
		return wrapError(err, R.filename, caller)
	}
	R.frame++
	return nil
}

func (R *Reader) readBody(h *Header, fr *Frame, lscale float64) error {
	read := 0
	if h.BoxSize != 0 {
		if err := R.readMatrix(fr.Box, dim, h, lscale); err != nil {
			return err
		}
		read += h.BoxSize
	}
	//virial and pressure
	if err := R.skip(h.VirSize + h.PresSize); err != nil {
		return err
	}
	read += h.VirSize + h.PresSize
	if h.XSize != 0 {
		if err := R.readMatrix(fr.X, h.NAtoms, h, lscale); err != nil {
			return err
		}
		read += h.XSize
	}
	if h.VSize != 0 {
		if err := R.readMatrix(fr.V, h.NAtoms, h, 1); err != nil {
			return err
		}
		read += h.VSize
	}
	if h.FSize != 0 {
		if err := R.readMatrix(fr.F, h.NAtoms, h, 1); err != nil {
			return err
		}
		read += h.FSize
	}
	//ir, e, top and sym, never written by GROMACS.
	return R.skip(h.FrameBytes() - read)
}

//Next puts in coords the positions of the next frame of the trajectory, in Angstrom,
//and, if given, and the information is present, puts the box vectors (in Angstrom, row-major) in box.
//If coords is nil, the frame is discarded. Frames without positions leave coords untouched.
//Returns error if the operation is not successful. At the end of the trajectory
//a gotrr.LastFrameError is returned.
func (R *Reader) Next(coords *v3.Matrix, box ...[]float64) error {
	fr := &R.last
	*fr = Frame{X: coords}
	if coords != nil {
		if R.v == nil {
			R.v = v3.Zeros(R.natoms)
			R.f = v3.Zeros(R.natoms)
		}
		fr.Box = R.box
		fr.V = R.v
		fr.F = R.f
	}
	if err := R.readFrame(fr, NmToAngstrom, "Next"); err != nil {
		return err
	}
	if coords == nil {
		return nil
	}
	if fr.Props&HasX == 0 {
		log.Printf("Frame %d (step %d) of %s contains no positions", R.frame-1, fr.Step, R.filename) //just a heads-up
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		if fr.HasBox {
			R.box.Float64s(box[0][:9], 1)
		} else {
			log.Printf("Frame %d of %s does not contain box information", R.frame-1, R.filename)
		}
	}
	return nil
}

//Last returns the frame read by the last call to Next: step, time, lambda,
//and the sections it contained. Its matrices are owned by the Reader.
func (R *Reader) Last() *Frame {
	return &R.last
}

//Velocities returns the velocities (nm/ps) read by the last call to Next,
//or nil if that frame had none. The matrix is reused by the next call.
func (R *Reader) Velocities() *v3.Matrix {
	if R.last.Props&HasV == 0 || R.last.X == nil {
		return nil
	}
	return R.v
}

//Forces returns the forces (kJ/(mol nm)) read by the last call to Next,
//or nil if that frame had none. The matrix is reused by the next call.
func (R *Reader) Forces() *v3.Matrix {
	if R.last.Props&HasF == 0 || R.last.X == nil {
		return nil
	}
	return R.f
}

//NextConc reads as many frames as elements frames has. The frames
//are discarded if the corresponding element of the slice is nil. The positions are
//read sequentially, and converted to Angstrom, each frame in its own goroutine.
//The function returns a slice of channels through each of which
//the corresponding matrix will be transmited. If the trajectory ends before all frames
//are read, the channels for the frames read are returned together with the
//gotrr.LastFrameError.
func (R *Reader) NextConc(frames []*v3.Matrix) ([]chan *v3.Matrix, error) {
	if !R.Readable() {
		return nil, newError(ErrUnreadable, "", R.filename, "NextConc")
	}
	framechans := make([]chan *v3.Matrix, 0, len(frames)) //the slice of chans that will be returned
	for _, v := range frames {
		fr := Frame{}
		if v != nil {
			if v.NVecs() != R.natoms {
				return nil, newError(ErrNAtoms, fmt.Sprintf("matrix with %d vectors given, %d atoms in frame", v.NVecs(), R.natoms), R.filename, "NextConc")
			}
			fr.X = v3.Zeros(R.natoms)
		}
		if err := R.readFrame(&fr, 1, "NextConc"); err != nil {
			if _, ok := err.(gotrr.LastFrameError); ok {
				return framechans, err
			}
			return nil, err
		}
		pipe := make(chan *v3.Matrix, 1)
		framechans = append(framechans, pipe)
		go func(keep, raw *v3.Matrix, hasx bool, pipe chan *v3.Matrix) {
			if keep != nil && hasx {
				keep.Dense.Scale(NmToAngstrom, raw.Dense)
			}
			pipe <- keep
		}(v, fr.X, fr.Props&HasX != 0, pipe)
	}
	return framechans, nil
}

//Index returns the frame index of the trajectory, building it if needed.
//The reading position is not changed.
func (R *Reader) Index() (*Index, error) {
	if R.idx != nil {
		return R.idx, nil
	}
	if R.seeker == nil {
		return nil, newError(ErrNotSeekable, "", R.filename, "Index")
	}
	var idx *Index
	var err error
	if R.useCache && R.fhandle != nil {
		idx, err = OpenIndex(R.filename, true)
	} else {
		idx, err = R.scan()
	}
	if err != nil {
		return nil, errDecorate(err, "Index")
	}
	R.idx = idx
	return idx, nil
}

//scan builds the index using the reader's own seeker, and restores the reading position.
func (R *Reader) scan() (*Index, error) {
	cur, err := R.seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, newError(ErrNotSeekable, err.Error(), R.filename, "scan")
	}
	cur -= int64(R.buf.Buffered())
	if _, err := R.seeker.Seek(R.start, io.SeekStart); err != nil {
		return nil, newError(ErrNotSeekable, err.Error(), R.filename, "scan")
	}
	idx, scanerr := Scan(R.seeker)
	if err := R.seekTo(cur); err != nil {
		return nil, err
	}
	if scanerr != nil {
		return nil, wrapError(scanerr, R.filename, "scan")
	}
	return idx, nil
}

func (R *Reader) seekTo(off int64) error {
	if _, err := R.seeker.Seek(off, io.SeekStart); err != nil {
		R.readable = false
		return newError(ErrNotSeekable, err.Error(), R.filename, "seekTo")
	}
	R.buf.Reset(R.rc)
	return nil
}

//NFrames returns the number of frames in the trajectory.
func (R *Reader) NFrames() (int, error) {
	idx, err := R.Index()
	if err != nil {
		return -1, errDecorate(err, "NFrames")
	}
	return idx.NFrames, nil
}

//Seek moves the reader so the next frame read is the given one (0-based).
//It requires a plain, seekable, trajectory.
func (R *Reader) Seek(frame int) error {
	if R.rc == nil {
		return newError(ErrUnreadable, "", R.filename, "Seek")
	}
	idx, err := R.Index()
	if err != nil {
		return errDecorate(err, "Seek")
	}
	if frame < 0 || frame >= idx.NFrames {
		return newError(ErrOutOfRange, fmt.Sprintf("frame %d requested, %d frames in trajectory", frame, idx.NFrames), R.filename, "Seek")
	}
	if err := R.seekTo(idx.Offsets[frame]); err != nil {
		return err
	}
	R.pending = nil
	R.frame = frame
	R.readable = true
	return nil
}

//Frame returns the index of the next frame to be read.
func (R *Reader) Frame() int { return R.frame }
