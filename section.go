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

// SectionFlag is a bitset of the protection/commit hints a section (and the
// maps taken from it) carries.
type SectionFlag uint32

const (
	SectionRead SectionFlag = 1 << iota
	SectionWrite
	SectionCow // copy-on-write: writes never reach the backing file
	SectionExecute
	SectionNoCommit // reserve address space only; commit explicitly later
	SectionPrefault
)

func (f SectionFlag) Has(bit SectionFlag) bool { return f&bit != 0 }

// SectionHandle is a handle whose OS payload refers to a kernel
// memory-section/shared-mapping object. On POSIX there is no such kernel
// object distinct from a file descriptor, so a SectionHandle there is
// simply a cloned descriptor of its backing file (or of an anonymous
// temp inode, for swap-backed sections) plus the remembered flag/length.
type SectionHandle struct {
	Handle

	backing       *FileHandle // non-nil for file-backed sections
	ownedAnon     *FileHandle // non-nil when we created the anonymous backing ourselves
	length        int64
	flag          SectionFlag
}

// Length reports the section's current length.
func (s *SectionHandle) Length() int64 { return s.length }

// SectionFlag reports the section's protection/commit flag bitset.
func (s *SectionHandle) SectionFlag() SectionFlag { return s.flag }

// NewSection creates a section backed by an already-open file. maxSize may
// exceed the backing file's current length only when flag includes
// SectionWrite (otherwise KindValueTooLarge); creating the section does not
// itself extend the file. Pass 0 to mean "the backing file's current
// length".
func NewSection(backing *FileHandle, maxSize int64, flag SectionFlag) (*SectionHandle, error) {
	curLen, err := backing.Length()
	if err != nil {
		return nil, err
	}
	if maxSize == 0 {
		maxSize = curLen
	}
	if maxSize > curLen && !flag.Has(SectionWrite) {
		return nil, newError(KindValueTooLarge, "section", nil)
	}
	return newSectionNative(backing, maxSize, flag)
}

// NewAnonymousSection creates a swap/page-file-backed section of the given
// size. On POSIX this opens a temp inode inside dir and truncates it to
// bytes; dir may be nil, in which case the inode is created relative to the
// current working directory.
func NewAnonymousSection(bytes int64, dir *PathHandle, flag SectionFlag) (*SectionHandle, error) {
	mode := ModeRead
	if flag.Has(SectionWrite) {
		mode = ModeWrite
	}
	anon, err := TempInode(dir, mode, CachingAll, 0)
	if err != nil {
		return nil, err
	}
	if _, err := anon.Truncate(bytes); err != nil {
		_ = anon.Close()
		return nil, err
	}
	sh, err := NewSection(anon, bytes, flag)
	if err != nil {
		_ = anon.Close()
		return nil, err
	}
	sh.ownedAnon = anon
	return sh, nil
}

// Truncate resizes the section (and, on POSIX, its backing file) to
// new_size, rounded up to the page size.
func (s *SectionHandle) Truncate(newSize int64) error {
	newSize = roundUpToPage(newSize)
	if err := s.platformTruncate(newSize); err != nil {
		return err
	}
	s.length = newSize
	return nil
}

// Close closes the section and, if it owns an anonymous backing file
// created by NewAnonymousSection, that file too.
func (s *SectionHandle) Close() error {
	err := s.Handle.Close()
	if s.ownedAnon != nil {
		if aerr := s.ownedAnon.Close(); err == nil {
			err = aerr
		}
	}
	return err
}
