// Copyright 2024 The llio Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llio

// MappedFileHandle is a FileHandle that additionally owns a SectionHandle
// and a MapHandle over it, keeping the map's observed length in lockstep
// with a reservation window as the file grows and shrinks.
type MappedFileHandle struct {
	FileHandle

	section     *SectionHandle
	mapping     *MapHandle
	reservation int64
	flag        SectionFlag
}

// OpenMapped opens p the same way Open does, then takes an initial
// reservation equal to the file's current length (rounded up to the page
// size). A zero-length file is left with no section/map, per the design's
// zero-length-file-has-no-map invariant.
func OpenMapped(base *PathHandle, p string, mode Mode, creation Creation, caching Caching, flag Flag, sectionFlag SectionFlag) (*MappedFileHandle, error) {
	fh, err := Open(base, p, mode, creation, caching, flag)
	if err != nil {
		return nil, err
	}
	mfh := &MappedFileHandle{FileHandle: *fh, flag: sectionFlag}
	length, err := fh.Length()
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	if length > 0 {
		if _, err := mfh.Reserve(length); err != nil {
			_ = fh.Close()
			return nil, err
		}
	}
	return mfh, nil
}

// Bytes returns the current mapping's view, or nil if the file is
// zero-length and therefore unmapped.
func (mfh *MappedFileHandle) Bytes() []byte {
	if mfh.mapping == nil {
		return nil
	}
	return mfh.mapping.Bytes()
}

// Reserve ensures the address-space window covers n bytes: a no-op if the
// map is already exactly that size, otherwise the old map is dropped, the
// existing section truncated to n (or a section created at n if there is
// none yet), and a fresh map taken.
// Reserving over a zero-length file returns ErrInvalidSeek.
func (mfh *MappedFileHandle) Reserve(n int64) (int64, error) {
	if mfh.mapping != nil && mfh.mapping.Len() == n {
		return mfh.reservation, nil
	}
	fileLen, err := mfh.Length()
	if err != nil {
		return 0, err
	}
	if fileLen == 0 {
		return 0, newError(KindInvalidSeek, "reserve", nil)
	}

	if mfh.mapping != nil {
		_ = mfh.mapping.Close()
		mfh.mapping = nil
	}
	if mfh.section == nil {
		sh, err := NewSection(&mfh.FileHandle, n, mfh.flag|SectionWrite)
		if err != nil {
			return 0, err
		}
		mfh.section = sh
	} else if err := mfh.section.Truncate(n); err != nil {
		return 0, err
	}

	mapped := min64(n, mfh.section.Length())
	m, err := MapSection(mfh.section, mapped, 0, mfh.flag)
	if err != nil {
		return 0, err
	}
	mfh.mapping = m
	mfh.reservation = roundUpToPage(n)
	return mfh.reservation, nil
}

// Truncate resizes the file, keeping the map and reservation consistent
// per the design's four cases: drop-everything-then-truncate at zero,
// truncate-then-reserve with no section yet, do_not_store-then-truncate
// when shrinking under an existing section, and reserve-again only when
// growing past the existing reservation.
func (mfh *MappedFileHandle) Truncate(newSize int64) (int64, error) {
	if newSize == 0 {
		if mfh.mapping != nil {
			_ = mfh.mapping.Close()
			mfh.mapping = nil
		}
		if mfh.section != nil {
			_ = mfh.section.Close()
			mfh.section = nil
		}
		return mfh.FileHandle.Truncate(0)
	}

	if mfh.section == nil {
		if _, err := mfh.FileHandle.Truncate(newSize); err != nil {
			return 0, err
		}
		if _, err := mfh.Reserve(newSize); err != nil {
			return 0, err
		}
		return mfh.FileHandle.Length()
	}

	curLen, err := mfh.FileHandle.Length()
	if err != nil {
		return 0, err
	}
	if newSize < curLen && mfh.mapping != nil {
		region := MapRegion{Offset: roundUpToPage(newSize), Length: mfh.mapping.Len() - roundUpToPage(newSize)}
		if region.Length > 0 {
			_ = mfh.mapping.DoNotStore(region)
		}
	}

	if _, err := mfh.FileHandle.Truncate(newSize); err != nil {
		return 0, err
	}
	if newSize > mfh.reservation {
		if _, err := mfh.Reserve(newSize); err != nil {
			return 0, err
		}
	} else {
		mfh.refreshMapLength()
	}
	return mfh.FileHandle.Length()
}

// RefreshLength re-derives the map's observed length as
// min(file_length, reservation), for use after a third party has extended
// the file out from under this handle.
func (mfh *MappedFileHandle) RefreshLength() error {
	mfh.refreshMapLength()
	return nil
}

func (mfh *MappedFileHandle) refreshMapLength() {
	if mfh.mapping == nil {
		return
	}
	fileLen, err := mfh.FileHandle.Length()
	if err != nil {
		return
	}
	want := min64(fileLen, mfh.reservation)
	if want != mfh.mapping.Len() {
		_ = mfh.mapping.Close()
		m, err := MapSection(mfh.section, want, 0, mfh.flag)
		if err == nil {
			mfh.mapping = m
		}
	}
}

// Close closes the map, section, and underlying file.
func (mfh *MappedFileHandle) Close() error {
	var err error
	if mfh.mapping != nil {
		err = mfh.mapping.Close()
	}
	if mfh.section != nil {
		if serr := mfh.section.Close(); err == nil {
			err = serr
		}
	}
	if ferr := mfh.FileHandle.Close(); err == nil {
		err = ferr
	}
	return err
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
