/*
 * file_test.go, part of gotrr.
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
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	xdr "github.com/rasky/go-xdr/xdr2"
	v3 "github.com/rmera/gotrr/v3"
)

//writeFile writes a trajectory of nframes frames of natoms atoms, with positions and
//velocities, to a file called name in a temporary directory, and returns the full path.
func writeFile(Te *testing.T, name string, natoms, nframes int, opts ...WriterOption) string {
	Te.Helper()
	fname := filepath.Join(Te.TempDir(), name)
	W, err := NewWriter(fname, natoms, opts...)
	if err != nil {
		Te.Fatal(err)
	}
	writeFrames(Te, W, natoms, nframes, HasX|HasV)
	if err := W.Close(); err != nil {
		Te.Fatal(err)
	}
	return fname
}

func TestNAtoms(Te *testing.T) {
	fname := writeFile(Te, "test.trr", 7, 2)
	n, err := NAtoms(fname)
	if err != nil {
		Te.Fatal(err)
	}
	if n != 7 {
		Te.Errorf("expected 7 atoms, got %d", n)
	}
	_, err = NAtoms(filepath.Join(Te.TempDir(), "nothere.trr"))
	if !errors.Is(err, ErrFileNotFound) {
		Te.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestScan(Te *testing.T) {
	natoms, nframes := 4, 25
	fname := writeFile(Te, "scan.trr", natoms, nframes)
	n, est, offsets, err := NFrames(fname)
	if err != nil {
		Te.Fatal(err)
	}
	if n != nframes || len(offsets) != nframes {
		Te.Fatalf("expected %d frames, got %d (%d offsets)", nframes, n, len(offsets))
	}
	//header, box, x and v
	framelen := int64(84 + 36 + 2*natoms*3*4)
	for i, off := range offsets {
		if off != int64(i)*framelen {
			Te.Errorf("frame %d at offset %d, expected %d", i, off, int64(i)*framelen)
		}
	}
	//the estimate uses the minimum header size, so it is an overestimate here.
	want := int(int64(nframes)*framelen/(framelen-84+MinHeaderSize)) + 1
	want += want / 5
	if est != want || est < n {
		Te.Errorf("expected an estimate of %d, got %d", want, est)
	}
	//chop the last frame
	if err := os.Truncate(fname, int64(nframes)*framelen-10); err != nil {
		Te.Fatal(err)
	}
	f, err := os.Open(fname)
	if err != nil {
		Te.Fatal(err)
	}
	defer f.Close()
	idx, err := Scan(f)
	if err != nil {
		Te.Fatal(err)
	}
	if idx.NFrames != nframes-1 || !idx.Truncated || idx.NAtoms != natoms {
		Te.Errorf("expected %d frames and a truncated file, got %+v", nframes-1, idx)
	}
}

func TestScanGarbage(Te *testing.T) {
	fname := filepath.Join(Te.TempDir(), "garbage.trr")
	if err := os.WriteFile(fname, []byte("This is not a TRR file, not even close."), 0644); err != nil {
		Te.Fatal(err)
	}
	if _, _, _, err := NFrames(fname); !errors.Is(err, ErrMagic) {
		Te.Errorf("expected ErrMagic, got %v", err)
	}
}

func TestSeek(Te *testing.T) {
	fname := writeFile(Te, "seek.trr", 3, 10, WithDouble())
	R, err := New(fname)
	if err != nil {
		Te.Fatal(err)
	}
	defer R.Close()
	c := v3.Zeros(3)
	if err := R.Next(c); err != nil {
		Te.Fatal(err)
	}
	//building the index should not change the position.
	n, err := R.NFrames()
	if err != nil || n != 10 {
		Te.Fatalf("expected 10 frames, got %d: %v", n, err)
	}
	if err := R.Next(c); err != nil || R.Last().Step != 1 {
		Te.Fatalf("expected frame 1 after indexing, got step %d: %v", R.Last().Step, err)
	}
	if err := R.Seek(7); err != nil {
		Te.Fatal(err)
	}
	if err := R.Next(c); err != nil || R.Last().Step != 7 {
		Te.Fatalf("expected frame 7, got step %d: %v", R.Last().Step, err)
	}
	sameMatrix(Te, "v", R.Velocities(), testFrame(3, 7, HasX|HasV).V, 1e-12)
	if !closeEnough(c.At(1, 0), (7+0.1)*NmToAngstrom, 1e-12) {
		Te.Errorf("wrong position %v", c.At(1, 0))
	}
	//back to the start, after the end of the trajectory.
	for err == nil {
		err = R.Next(nil)
	}
	if err := R.Seek(0); err != nil {
		Te.Fatal(err)
	}
	if err := R.Next(c); err != nil || R.Last().Step != 0 {
		Te.Errorf("expected frame 0, got step %d: %v", R.Last().Step, err)
	}
	if err := R.Seek(10); !errors.Is(err, ErrOutOfRange) {
		Te.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestIndexCache(Te *testing.T) {
	fname := writeFile(Te, "cached.trr", 3, 6)
	if _, err := LoadIndex(fname); !errors.Is(err, ErrFileNotFound) {
		Te.Errorf("there should be no cache yet, got %v", err)
	}
	idx, err := OpenIndex(fname, true)
	if err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(IndexPath(fname)); err != nil {
		Te.Fatalf("the cache should have been written: %v", err)
	}
	if filepath.Base(IndexPath(fname)) != ".cached.trr_offsets.xdr" {
		Te.Errorf("unexpected cache name %s", IndexPath(fname))
	}
	cached, err := LoadIndex(fname)
	if err != nil {
		Te.Fatal(err)
	}
	if cached.NFrames != idx.NFrames || cached.Offsets[5] != idx.Offsets[5] || cached.NAtoms != 3 {
		Te.Errorf("cached index %+v differs from scanned %+v", cached, idx)
	}
	//touching the trajectory makes the cache stale.
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(fname, later, later); err != nil {
		Te.Fatal(err)
	}
	if _, err := LoadIndex(fname); !errors.Is(err, ErrStaleIndex) {
		Te.Errorf("expected ErrStaleIndex, got %v", err)
	}
	//a reader using the cache rebuilds it.
	R, err := New(fname, WithIndexCache(true))
	if err != nil {
		Te.Fatal(err)
	}
	defer R.Close()
	if err := R.Seek(4); err != nil {
		Te.Fatal(err)
	}
	fr := NewFrame(3, HasX)
	if err := R.ReadFrame(fr); err != nil || fr.Step != 4 {
		Te.Errorf("expected frame 4, got %d: %v", fr.Step, err)
	}
	if _, err := LoadIndex(fname); err != nil {
		Te.Errorf("the cache should have been rebuilt: %v", err)
	}
}

func TestIndexCacheCorrupt(Te *testing.T) {
	fname := writeFile(Te, "corrupt.trr", 3, 6)
	if _, err := OpenIndex(fname, true); err != nil {
		Te.Fatal(err)
	}
	cache, err := os.ReadFile(IndexPath(fname))
	if err != nil {
		Te.Fatal(err)
	}
	//version string (4+16 bytes), size, mtime, natoms, estimate and the truncated flag
	//come before the number of offsets.
	const countAt = 20 + 8 + 8 + 4 + 4 + 4
	if n := binary.BigEndian.Uint32(cache[countAt:]); n != 6 {
		Te.Fatalf("expected 6 offsets in the cache, found %d", n)
	}
	binary.BigEndian.PutUint32(cache[countAt:], 0x10000000)
	if err := os.WriteFile(IndexPath(fname), cache, 0644); err != nil {
		Te.Fatal(err)
	}
	if _, err := LoadIndex(fname); !errors.Is(err, ErrStaleIndex) {
		Te.Errorf("a cache with a huge offsets count should be stale, got %v", err)
	}
	if err := os.WriteFile(IndexPath(fname), []byte("not a cache at all, not even close"), 0644); err != nil {
		Te.Fatal(err)
	}
	if _, err := LoadIndex(fname); !errors.Is(err, ErrStaleIndex) {
		Te.Errorf("a foreign cache file should be stale, got %v", err)
	}
	idx, err := OpenIndex(fname, true)
	if err != nil || idx.NFrames != 6 {
		Te.Fatalf("the index should be rebuilt with 6 frames, got %+v: %v", idx, err)
	}
	if _, err := LoadIndex(fname); err != nil {
		Te.Errorf("the rebuilt cache should be valid: %v", err)
	}
}

func TestCompressed(Te *testing.T) {
	for _, name := range []string{"test.trr.gz", "test.trr.zst", "test.trr.lzw"} {
		fname := writeFile(Te, name, 5, 4, WithCompressionLevel(3))
		R, err := New(fname)
		if err != nil {
			Te.Fatalf("%s: %v", name, err)
		}
		if R.Compression() == Plain {
			Te.Errorf("%s should be compressed", name)
		}
		c := v3.Zeros(5)
		for i := 0; i < 4; i++ {
			if err := R.Next(c); err != nil {
				Te.Fatalf("%s, frame %d: %v", name, i, err)
			}
		}
		want := testFrame(5, 3, HasX).X
		want.Scale(NmToAngstrom, want.Dense)
		sameMatrix(Te, name, c, want, 1e-6)
		if err := R.Seek(0); !errors.Is(err, ErrNotSeekable) {
			Te.Errorf("%s: expected ErrNotSeekable, got %v", name, err)
		}
		R.Close()
		n, _, _, err := NFrames(fname)
		if err != nil || n != 4 {
			Te.Errorf("%s: expected 4 frames, got %d: %v", name, n, err)
		}
	}
}

//Frames with virial, pressure and input record sections, as GROMACS
//energy minimizations write. Only box and positions are kept.
func TestExtraSections(Te *testing.T) {
	var buf bytes.Buffer
	enc := xdr.NewEncoder(&buf)
	for i := 0; i < 2; i++ {
		h := &Header{IRSize: 8, BoxSize: 36, VirSize: 36, PresSize: 36, XSize: 24, NAtoms: 2, Step: i, Time: float64(i)}
		if err := writeHeader(enc, h); err != nil {
			Te.Fatal(err)
		}
		reals := make([]float32, 0, 33)
		for j := 0; j < 9; j++ {
			v := float32(0)
			if j%4 == 0 {
				v = 100
			}
			reals = append(reals, v)
		}
		for j := 0; j < 18; j++ {
			reals = append(reals, -1) //virial and pressure
		}
		for j := 0; j < 6; j++ {
			reals = append(reals, float32(10*i+j))
		}
		for _, v := range reals {
			if _, err := enc.EncodeFloat(v); err != nil {
				Te.Fatal(err)
			}
		}
		for j := 0; j < 2; j++ { //input record
			if _, err := enc.EncodeInt(7); err != nil {
				Te.Fatal(err)
			}
		}
	}
	framelen := int64(84 + 8 + 3*36 + 24)
	if int64(buf.Len()) != 2*framelen {
		Te.Fatalf("expected %d bytes, got %d", 2*framelen, buf.Len())
	}
	idx, err := Scan(bytes.NewReader(buf.Bytes()))
	if err != nil {
		Te.Fatal(err)
	}
	if idx.NFrames != 2 || idx.Offsets[1] != framelen || idx.Truncated {
		Te.Errorf("wrong index %+v", idx)
	}
	R, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		Te.Fatal(err)
	}
	fr := NewFrame(2, HasX|HasV)
	for i := 0; i < 2; i++ {
		if err := R.ReadFrame(fr); err != nil {
			Te.Fatalf("frame %d: %v", i, err)
		}
		if fr.Step != i || fr.Props != HasX || !fr.HasBox {
			Te.Errorf("frame %d: step %d, props %v, box %v", i, fr.Step, fr.Props, fr.HasBox)
		}
		if fr.Box.At(0, 0) != 100 || fr.Box.At(1, 1) != 100 || fr.Box.At(2, 2) != 100 || fr.Box.At(0, 1) != 0 {
			Te.Errorf("frame %d: wrong box\n%v", i, fr.Box)
		}
		for j := 0; j < 6; j++ {
			if got := fr.X.At(j/3, j%3); got != float64(10*i+j) {
				Te.Errorf("frame %d: position %d is %v, expected %d", i, j, got, 10*i+j)
			}
		}
	}
	if err := R.ReadFrame(fr); !errors.Is(err, io.EOF) {
		Te.Errorf("expected the end of the trajectory, got %v", err)
	}
}

func TestScanStreamTruncated(Te *testing.T) {
	natoms, nframes := 3, 5
	plain := writeFile(Te, "whole.trr", natoms, nframes)
	data, err := os.ReadFile(plain)
	if err != nil {
		Te.Fatal(err)
	}
	framelen := len(data) / nframes
	fname := filepath.Join(Te.TempDir(), "chopped.trr.gz")
	f, err := os.Create(fname)
	if err != nil {
		Te.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write(data[:len(data)-framelen/2]); err != nil {
		Te.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		Te.Fatal(err)
	}
	f.Close()

	f, err = os.Open(fname)
	if err != nil {
		Te.Fatal(err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		Te.Fatal(err)
	}
	idx, err := ScanStream(zr)
	if err != nil {
		Te.Fatal(err)
	}
	if idx.NFrames != nframes-1 || !idx.Truncated || idx.NAtoms != natoms {
		Te.Errorf("expected %d frames of a truncated stream, got %+v", nframes-1, idx)
	}
	if idx.Offsets[nframes-2] != int64((nframes-2)*framelen) {
		Te.Errorf("wrong offset %d for frame %d", idx.Offsets[nframes-2], nframes-2)
	}
	n, _, _, err := NFrames(fname)
	if err != nil || n != nframes-1 {
		Te.Errorf("expected %d frames, got %d: %v", nframes-1, n, err)
	}
}
