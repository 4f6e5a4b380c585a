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

//go:build windows

package llio

import "golang.org/x/sys/windows"

// protectFor derives the PAGE_* protection constant CreateFileMapping
// expects from a SectionFlag. The design calls for the lower-level
// NtCreateSection (with SEC_COMMIT/SEC_RESERVE chosen explicitly);
// golang.org/x/sys/windows does not expose ntdll, so this is built on the
// documented Win32 equivalent CreateFileMappingW instead, which is the
// standard way Go programs on Windows create section objects.
func protectFor(flag SectionFlag) uint32 {
	switch {
	case flag.Has(SectionExecute) && flag.Has(SectionCow):
		return windows.PAGE_EXECUTE_WRITECOPY
	case flag.Has(SectionExecute) && flag.Has(SectionWrite):
		return windows.PAGE_EXECUTE_READWRITE
	case flag.Has(SectionExecute):
		return windows.PAGE_EXECUTE_READ
	case flag.Has(SectionCow):
		return windows.PAGE_WRITECOPY
	case flag.Has(SectionWrite):
		return windows.PAGE_READWRITE
	default:
		return windows.PAGE_READONLY
	}
}

func newSectionNative(backing *FileHandle, maxSize int64, flag SectionFlag) (*SectionHandle, error) {
	protect := protectFor(flag)
	if flag.Has(SectionNoCommit) {
		protect |= windows.SEC_RESERVE
	} else {
		protect |= windows.SEC_COMMIT
	}
	h, err := windows.CreateFileMapping(backing.winHandle(), nil, protect, uint32(maxSize>>32), uint32(maxSize), nil)
	if err != nil {
		return nil, mapWinError(err, "section")
	}
	return &SectionHandle{
		Handle: Handle{
			native: nativeHandle{disposition: DispositionSection, raw: rawHandle(h)},
		},
		backing: backing,
		length:  maxSize,
		flag:    flag,
	}, nil
}

func (s *SectionHandle) platformTruncate(newSize int64) error {
	// NtExtendSection is not exposed; recreate the mapping object at the
	// new size instead. Any existing maps taken from the old object remain
	// valid until unmapped (matching CreateFileMapping's semantics); new
	// maps should be taken after this call returns.
	newH, err := newSectionNative(s.backing, newSize, s.flag)
	if err != nil {
		return err
	}
	_ = s.Handle.Close()
	s.Handle = newH.Handle
	return nil
}
