/*
 * header.go, part of gotrr.
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
	"strings"

	xdr "github.com/rasky/go-xdr/xdr2"
)

const (
	//Magic is the first integer of every frame header.
	Magic int32 = 1993
	//Version is the string that follows the magic number.
	Version = "GMX_trn_file"
	//MinHeaderSize is used to estimate the number of frames in a file.
	//Real headers are larger, see Header.Size.
	MinHeaderSize = 54
	//DoubleExtraHeader is the extra header length of a double precision frame (time and lambda).
	DoubleExtraHeader = 8
	//NmToAngstrom converts GROMACS lengths to the Angstroms used by Next and WNext.
	NmToAngstrom = 10.0

	dim        = 3
	floatSize  = 4
	doubleSize = 8
)

//Props tells which of positions, velocities and forces a frame carries.
type Props int

//Flags to signal the update of pos/vel/forces
const (
	HasX Props = 1 << iota
	HasV
	HasF
)

//String returns something like "x,v,f", or "none".
func (p Props) String() string {
	s := make([]string, 0, 3)
	if p&HasX != 0 {
		s = append(s, "x")
	}
	if p&HasV != 0 {
		s = append(s, "v")
	}
	if p&HasF != 0 {
		s = append(s, "f")
	}
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, ",")
}

//Header is the header of a TRR frame. Sizes are in bytes.
//Only the box, virial, pressure, x, v and f sections are ever written by GROMACS,
//the other sizes are always zero in practice.
type Header struct {
	IRSize   int
	ESize    int
	BoxSize  int
	VirSize  int
	PresSize int
	TopSize  int
	SymSize  int
	XSize    int
	VSize    int
	FSize    int
	NAtoms   int
	Step     int
	NRE      int
	Time     float64
	Lambda   float64
	Double   bool
}

//FrameBytes returns the length of the frame body that follows the header.
func (h *Header) FrameBytes() int {
	return h.IRSize + h.ESize + h.BoxSize + h.VirSize + h.PresSize + h.TopSize + h.SymSize + h.XSize + h.VSize + h.FSize
}

//Size returns the encoded length of the header itself.
func (h *Header) Size() int {
	//magic, slen, the string (length + 12 bytes), 13 integers and 2 reals.
	s := 4 + 4 + 4 + xdrPadded(len(Version)) + 13*4 + 2*floatSize
	if h.Double {
		s += DoubleExtraHeader
	}
	return s
}

//Props returns the positions/velocities/forces flags of the frame.
func (h *Header) Props() Props {
	var p Props
	if h.XSize != 0 {
		p |= HasX
	}
	if h.VSize != 0 {
		p |= HasV
	}
	if h.FSize != 0 {
		p |= HasF
	}
	return p
}

//HasBox returns true if the frame carries box vectors.
func (h *Header) HasBox() bool { return h.BoxSize != 0 }

func (h *Header) realSize() int {
	if h.Double {
		return doubleSize
	}
	return floatSize
}

//nFloatSize deduces the size of the reals in the frame from the sections present.
func (h *Header) nFloatSize() (int, error) {
	var nflsize int
	switch {
	case h.BoxSize != 0:
		nflsize = h.BoxSize / (dim * dim)
	case h.NAtoms <= 0:
		return 0, ErrHeader
	case h.XSize != 0:
		nflsize = h.XSize / (h.NAtoms * dim)
	case h.VSize != 0:
		nflsize = h.VSize / (h.NAtoms * dim)
	case h.FSize != 0:
		nflsize = h.FSize / (h.NAtoms * dim)
	default:
		return 0, ErrHeader
	}
	if nflsize != floatSize && nflsize != doubleSize {
		return 0, ErrHeader
	}
	return nflsize, nil
}

//validate checks that the section sizes agree with each other.
func (h *Header) validate() error {
	sizes := []int{h.IRSize, h.ESize, h.BoxSize, h.VirSize, h.PresSize, h.TopSize, h.SymSize, h.XSize, h.VSize, h.FSize}
	for _, v := range sizes {
		if v < 0 {
			return fmt.Errorf("%w: negative section size", ErrHeader)
		}
	}
	if h.NAtoms < 0 {
		return fmt.Errorf("%w: negative number of atoms", ErrHeader)
	}
	nfl, err := h.nFloatSize()
	if err != nil {
		return err
	}
	h.Double = nfl == doubleSize
	for _, v := range []int{h.BoxSize, h.VirSize, h.PresSize} {
		if v != 0 && v != dim*dim*nfl {
			return fmt.Errorf("%w: 3x3 section of %d bytes", ErrHeader, v)
		}
	}
	for _, v := range []int{h.XSize, h.VSize, h.FSize} {
		if v != 0 && v != h.NAtoms*dim*nfl {
			return fmt.Errorf("%w: %d bytes for %d atoms", ErrHeader, v, h.NAtoms)
		}
	}
	return nil
}

//xdrPadded returns n rounded up to a multiple of 4.
func xdrPadded(n int) int {
	return (n + 3) &^ 3
}

//isIOError returns true if err comes from the underlying reader
//rather than from the XDR decoding.
func isIOError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var uerr *xdr.UnmarshalError
	if errors.As(err, &uerr) {
		return uerr.ErrorCode == xdr.ErrIO
	}
	return false
}

//decodeError turns an error from the XDR decoder into one of the package
//sentinels. nread is the number of bytes of the frame read so far. If nothing
//was read and the reader just ran out of data, io.EOF is returned.
func decodeError(err error, nread int, sentinel error) error {
	if isIOError(err) {
		if nread == 0 {
			return io.EOF
		}
		return fmt.Errorf("%w: %s", ErrEndOfFile, err.Error())
	}
	return fmt.Errorf("%w: %s", sentinel, err.Error())
}

//readHeader decodes one header from d. It returns the header, the number of bytes
//read, and io.EOF if d was already at the end of the data.
func readHeader(d *xdr.Decoder) (*Header, int, error) {
	var nread int
	magic, n, err := d.DecodeInt()
	nread += n
	if err != nil {
		return nil, nread, decodeError(err, nread, ErrInt)
	}
	if magic != Magic {
		return nil, nread, fmt.Errorf("%w: got %d", ErrMagic, magic)
	}
	slen, n, err := d.DecodeInt()
	nread += n
	if err != nil {
		return nil, nread, decodeError(err, nread, ErrInt)
	}
	if int(slen) != len(Version)+1 {
		return nil, nread, fmt.Errorf("%w: length %d", ErrString, slen)
	}
	//the string length is checked before anything is allocated for it.
	strlen, n, err := d.DecodeUint()
	nread += n
	if err != nil {
		return nil, nread, decodeError(err, nread, ErrInt)
	}
	if int64(strlen) != int64(len(Version)) {
		return nil, nread, fmt.Errorf("%w: string of length %d", ErrString, strlen)
	}
	_, n, err = d.DecodeFixedOpaque(int32(len(Version)))
	nread += n
	if err != nil {
		return nil, nread, decodeError(err, nread, ErrString)
	}
	h := new(Header)
	ints := []*int{&h.IRSize, &h.ESize, &h.BoxSize, &h.VirSize, &h.PresSize, &h.TopSize,
		&h.SymSize, &h.XSize, &h.VSize, &h.FSize, &h.NAtoms, &h.Step, &h.NRE}
	for _, p := range ints {
		v, n, err := d.DecodeInt()
		nread += n
		if err != nil {
			return nil, nread, decodeError(err, nread, ErrInt)
		}
		*p = int(v)
	}
	if err := h.validate(); err != nil {
		return nil, nread, err
	}
	if h.Double {
		for _, p := range []*float64{&h.Time, &h.Lambda} {
			v, n, err := d.DecodeDouble()
			nread += n
			if err != nil {
				return nil, nread, decodeError(err, nread, ErrDouble)
			}
			*p = v
		}
		return h, nread, nil
	}
	for _, p := range []*float64{&h.Time, &h.Lambda} {
		v, n, err := d.DecodeFloat()
		nread += n
		if err != nil {
			return nil, nread, decodeError(err, nread, ErrFloat)
		}
		*p = float64(v)
	}
	return h, nread, nil
}

//writeHeader encodes h. The version string and magic number are always the standard ones.
func writeHeader(e *xdr.Encoder, h *Header) error {
	if _, err := e.EncodeInt(Magic); err != nil {
		return err
	}
	if _, err := e.EncodeInt(int32(len(Version) + 1)); err != nil {
		return err
	}
	if _, err := e.EncodeString(Version); err != nil {
		return err
	}
	ints := []int{h.IRSize, h.ESize, h.BoxSize, h.VirSize, h.PresSize, h.TopSize,
		h.SymSize, h.XSize, h.VSize, h.FSize, h.NAtoms, h.Step, h.NRE}
	for _, v := range ints {
		if _, err := e.EncodeInt(int32(v)); err != nil {
			return err
		}
	}
	if h.Double {
		if _, err := e.EncodeDouble(h.Time); err != nil {
			return err
		}
		_, err := e.EncodeDouble(h.Lambda)
		return err
	}
	if _, err := e.EncodeFloat(float32(h.Time)); err != nil {
		return err
	}
	_, err := e.EncodeFloat(float32(h.Lambda))
	return err
}
