/*
 * compressed.go, part of gotrr.
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
	"compress/gzip"
	"compress/lzw"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const (
	lzwOrder        = lzw.MSB
	lzwLitwidth int = 8
)

//Compression is the kind of compression applied to a trajectory file.
type Compression int

const (
	Plain Compression = iota
	Gzip
	Zstd
	LZW
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZW:
		return "lzw"
	default:
		return "none"
	}
}

//CompressionOf deduces the compression of a file from its extension.
//.gz is gzip, .zst is z-standard, .lzw is lzw and anything else is assumed
//to be a plain TRR file. A message is logged for extensions other than .trr.
func CompressionOf(fname string) Compression {
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".gz":
		return Gzip
	case ".zst":
		return Zstd
	case ".lzw":
		return LZW
	case ".trr":
		return Plain
	default:
		//if it's not a plain TRR, you'll get an error later.
		log.Printf("Extension of %s not recognized. It will be assumed to be a plain TRR file", fname)
		return Plain
	}
}

//Why couldn't *zstd.Decoder implement io.ReadCloser? :-(
type zstdReadCloser struct {
	*zstd.Decoder
}

//Close closes the decoder. It can not be used after this call
func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

//nopWriteCloser lets a plain file be handled like the compressors.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

//prepSource opens fname and returns the file and a ReadCloser that
//will read data from it, either 'as is' or decompressing first, depending on the
//file extension. Closing the ReadCloser does not close the file.
func prepSource(fname string) (*os.File, io.ReadCloser, Compression, error) {
	c := CompressionOf(fname)
	fhandle, err := os.Open(fname)
	if err != nil {
		return nil, nil, c, newError(ErrFileNotFound, err.Error(), fname, "prepSource")
	}
	reader := bufio.NewReader(fhandle)
	var ret io.ReadCloser
	switch c {
	case Gzip:
		ret, err = gzip.NewReader(reader)
	case Zstd:
		var d *zstd.Decoder
		d, err = zstd.NewReader(reader)
		if err == nil {
			ret = zstdReadCloser{d}
		}
	case LZW:
		ret = lzw.NewReader(reader, lzwOrder, lzwLitwidth)
	default:
		ret = io.NopCloser(fhandle)
	}
	if err != nil {
		fhandle.Close()
		return nil, nil, c, newError(ErrHeader, "can't start decompression: "+err.Error(), fname, "prepSource")
	}
	return fhandle, ret, c, nil
}

//prepTarget creates fname and returns the file and a WriteCloser that
//will write data, crude or compressed, depending on the file extension.
//level is the compression level, which only applies to gzip and zstd.
//Zero means the default level for each.
//Closing the WriteCloser flushes the compressor but does not close the file.
func prepTarget(fname string, level int) (*os.File, io.WriteCloser, Compression, error) {
	c := CompressionOf(fname)
	fhandle, err := os.Create(fname)
	if err != nil {
		return nil, nil, c, newError(ErrFileNotFound, err.Error(), fname, "prepTarget")
	}
	var ret io.WriteCloser
	switch c {
	case Gzip:
		if level == 0 {
			level = gzip.DefaultCompression
		}
		ret, err = gzip.NewWriterLevel(fhandle, level)
	case Zstd:
		zlevel := zstd.SpeedDefault
		if level != 0 {
			zlevel = zstd.EncoderLevelFromZstd(level)
		}
		ret, err = zstd.NewWriter(fhandle, zstd.WithEncoderLevel(zlevel))
	case LZW:
		ret = lzw.NewWriter(fhandle, lzwOrder, lzwLitwidth)
	default:
		ret = nopWriteCloser{fhandle}
	}
	if err != nil {
		fhandle.Close()
		os.Remove(fname)
		return nil, nil, c, newError(ErrUnwritable, "can't start compression: "+err.Error(), fname, "prepTarget")
	}
	return fhandle, ret, c, nil
}
