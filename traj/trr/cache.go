/*
 * cache.go, part of gotrr.
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
	"fmt"
	"log"
	"os"
	"path/filepath"

	xdr "github.com/rasky/go-xdr/xdr2"
)

const indexCacheVersion = "GMX_trn_offsets"

//indexCache is what goes in the offsets cache file, XDR-encoded.
type indexCache struct {
	Version   string
	FileSize  int64
	ModTime   int64 //nanoseconds since the epoch
	NAtoms    int32
	Estimate  int32
	Truncated bool
	Offsets   []int64
}

//IndexPath returns the name of the offsets cache for the trajectory trajFile,
//a hidden file in the same directory: .<name>_offsets.xdr
func IndexPath(trajFile string) string {
	dir, base := filepath.Split(trajFile)
	return filepath.Join(dir, "."+base+"_offsets.xdr")
}

//SaveIndex writes idx to the offsets cache of trajFile, together with
//the current size and modification time of trajFile.
func SaveIndex(trajFile string, idx *Index) error {
	info, err := os.Stat(trajFile)
	if err != nil {
		return newError(ErrFileNotFound, err.Error(), trajFile, "SaveIndex")
	}
	c := indexCache{
		Version:   indexCacheVersion,
		FileSize:  info.Size(),
		ModTime:   info.ModTime().UnixNano(),
		NAtoms:    int32(idx.NAtoms),
		Estimate:  int32(idx.Estimate),
		Truncated: idx.Truncated,
		Offsets:   idx.Offsets,
	}
	path := IndexPath(trajFile)
	//the cache is written to a temporary file that then replaces the old one.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".trrindex*")
	if err != nil {
		return newError(ErrUnwritable, err.Error(), path, "SaveIndex")
	}
	defer os.Remove(tmp.Name())
	w := bufio.NewWriter(tmp)
	if _, err := xdr.Marshal(w, &c); err != nil {
		tmp.Close()
		return newError(ErrUnwritable, err.Error(), path, "SaveIndex")
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return newError(ErrUnwritable, err.Error(), path, "SaveIndex")
	}
	if err := tmp.Close(); err != nil {
		return newError(ErrUnwritable, err.Error(), path, "SaveIndex")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return newError(ErrUnwritable, err.Error(), path, "SaveIndex")
	}
	return nil
}

//LoadIndex reads the offsets cache of trajFile. If the size or modification time
//of trajFile don't match those stored in the cache, an error wrapping ErrStaleIndex is returned.
func LoadIndex(trajFile string) (*Index, error) {
	info, err := os.Stat(trajFile)
	if err != nil {
		return nil, newError(ErrFileNotFound, err.Error(), trajFile, "LoadIndex")
	}
	path := IndexPath(trajFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(ErrFileNotFound, err.Error(), path, "LoadIndex")
	}
	defer f.Close()
	cinfo, err := f.Stat()
	if err != nil {
		return nil, newError(ErrFileNotFound, err.Error(), path, "LoadIndex")
	}
	var c indexCache
	//no array in the cache can have more elements than the cache has bytes.
	if _, err := xdr.UnmarshalLimited(bufio.NewReader(f), &c, uint(cinfo.Size())); err != nil {
		return nil, newError(ErrStaleIndex, "can't decode cache: "+err.Error(), path, "LoadIndex")
	}
	if c.Version != indexCacheVersion {
		return nil, newError(ErrStaleIndex, fmt.Sprintf("unknown cache version %q", c.Version), path, "LoadIndex")
	}
	if c.FileSize != info.Size() || c.ModTime != info.ModTime().UnixNano() {
		return nil, newError(ErrStaleIndex, "", path, "LoadIndex")
	}
	idx := &Index{
		NFrames:   len(c.Offsets),
		Estimate:  int(c.Estimate),
		Offsets:   c.Offsets,
		NAtoms:    int(c.NAtoms),
		FileSize:  c.FileSize,
		Truncated: c.Truncated,
	}
	return idx, nil
}

//OpenIndex returns the frame index of trajFile. If useCache is true, the index is
//loaded from the offsets cache if it is valid, otherwise the file is scanned and, for plain
//files, the cache is (re)written. Problems with the cache are only logged.
func OpenIndex(trajFile string, useCache bool) (*Index, error) {
	if useCache {
		idx, err := LoadIndex(trajFile)
		if err == nil {
			return idx, nil
		}
		if errors.Is(err, ErrStaleIndex) {
			log.Printf("Offsets cache for %s is stale, it will be rebuilt", trajFile) //heads-up
		}
	}
	idx, err := scanFile(trajFile)
	if err != nil {
		return nil, errDecorate(err, "OpenIndex")
	}
	if useCache && CompressionOf(trajFile) == Plain {
		if err := SaveIndex(trajFile, idx); err != nil {
			log.Printf("Can't save offsets cache for %s: %s", trajFile, err.Error())
		}
	}
	return idx, nil
}
