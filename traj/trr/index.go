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

package trr

import (
	"bufio"
	"errors"
	"io"
	"log"

	xdr "github.com/rasky/go-xdr/xdr2"
)

//Index contains the position of each frame in a trajectory.
type Index struct {
	NFrames int
	//Estimate is the number of frames guessed from the file size and the first frame,
	//increased as needed while scanning. It is never smaller than NFrames.
	Estimate int
	//Offsets are the positions, in bytes, of the header of each frame.
	Offsets  []int64
	NAtoms   int
	FileSize int64
	//Truncated is true if the last frame in the file was incomplete, and thus not indexed.
	Truncated bool
}

//estimate guesses the number of frames in size bytes from the first header.
func estimate(size int64, h *Header) int {
	est := int(size/int64(h.FrameBytes()+MinHeaderSize)) + 1 //easy to underestimate low frame numbers.
	return est + est/5
}

//grow adds a frame at off to the index.
func (idx *Index) grow(off int64) {
	if len(idx.Offsets) == idx.Estimate {
		idx.Estimate += idx.Estimate/5 + 1
	}
	idx.Offsets = append(idx.Offsets, off)
	idx.NFrames = len(idx.Offsets)
}

//scanned deals with the error that stopped a scan. If no frame was found, the error is returned.
func (idx *Index) scanned(err error, off int64, caller string) error {
	if idx.NFrames == 0 {
		if err == io.EOF {
			return newError(ErrEndOfFile, "empty trajectory", "", caller)
		}
		return wrapError(err, "", caller)
	}
	if errors.Is(err, ErrEndOfFile) {
		idx.Truncated = true
	}
	if err != io.EOF {
		//Assuming we've reached the end of the file
		log.Printf("Scan of trajectory stopped at byte %d after %d frames: %s", off, idx.NFrames, err.Error())
	}
	return nil
}

//Scan reads the trajectory in r header by header, starting from the current position,
//and returns the frame index. Frame bodies are skipped with r.Seek. The offsets
//are absolute positions in r. The scan stops at the end of the file or at the first
//header that can't be decoded. A last frame that extends beyond the end of
//the file is not counted, and sets the Truncated flag.
func Scan(r io.ReadSeeker) (*Index, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, newError(ErrNotSeekable, err.Error(), "", "Scan")
	}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, newError(ErrNotSeekable, err.Error(), "", "Scan")
	}
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return nil, newError(ErrNotSeekable, err.Error(), "", "Scan")
	}
	br := bufio.NewReaderSize(r, 256) //we only read headers.
	dec := xdr.NewDecoder(br)
	idx := &Index{FileSize: size}
	off := start
	for {
		h, n, err := readHeader(dec)
		if err != nil {
			if err := idx.scanned(err, off, "Scan"); err != nil {
				return nil, err
			}
			break
		}
		if idx.NFrames == 0 {
			idx.NAtoms = h.NAtoms
			idx.Estimate = estimate(size-start, h)
			idx.Offsets = make([]int64, 0, idx.Estimate)
		}
		end := off + int64(n) + int64(h.FrameBytes())
		if end > size {
			idx.Truncated = true
			log.Printf("The frame at byte %d is truncated, it will be ignored", off) //heads-up
			break
		}
		idx.grow(off)
		off = end
		if _, err := r.Seek(off, io.SeekStart); err != nil {
			return nil, newError(ErrNotSeekable, err.Error(), "", "Scan")
		}
		br.Reset(r)
	}
	return idx, nil
}

//ScanStream is like Scan, but for trajectories that can't be sought, such as
//compressed ones. The frame bodies are read and discarded. The offsets are positions in the
//(uncompressed) stream, counted from the beginning of r, and FileSize is the stream length.
func ScanStream(r io.Reader) (*Index, error) {
	br := bufio.NewReader(r)
	dec := xdr.NewDecoder(br)
	idx := new(Index)
	var off int64
	for {
		h, n, err := readHeader(dec)
		if err != nil {
			if err := idx.scanned(err, off, "ScanStream"); err != nil {
				return nil, err
			}
			idx.FileSize = off + int64(n)
			break
		}
		if idx.NFrames == 0 {
			idx.NAtoms = h.NAtoms
			idx.Estimate = 1 //we don't know the size of the stream.
			idx.Offsets = make([]int64, 0, 64)
		}
		skipped, err := br.Discard(h.FrameBytes())
		if err != nil {
			idx.Truncated = true
			idx.FileSize = off + int64(n+skipped)
			log.Printf("The frame at byte %d is truncated, it will be ignored", off)
			break
		}
		idx.grow(off)
		off += int64(n + skipped)
	}
	if idx.Estimate < idx.NFrames {
		idx.Estimate = idx.NFrames
	}
	return idx, nil
}

//NFrames scans the TRR file filename and returns the number of frames, the
//initial estimate of the number of frames (see Index) and the offset of each frame.
//Compressed files are read in full, and their offsets refer to the uncompressed data.
func NFrames(filename string) (int, int, []int64, error) {
	idx, err := scanFile(filename)
	if err != nil {
		return -1, -1, nil, errDecorate(err, "NFrames")
	}
	return idx.NFrames, idx.Estimate, idx.Offsets, nil
}

func scanFile(filename string) (*Index, error) {
	fhandle, rc, c, err := prepSource(filename)
	if err != nil {
		return nil, errDecorate(err, "scanFile")
	}
	defer fhandle.Close()
	defer rc.Close()
	var idx *Index
	if c == Plain {
		idx, err = Scan(fhandle)
	} else {
		idx, err = ScanStream(rc)
	}
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.filename = filename
		}
		return nil, errDecorate(err, "scanFile")
	}
	return idx, nil
}
