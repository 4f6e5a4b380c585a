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

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func pageProtectFor(flag MapFlag) uint32 { return protectFor(flag) }

func viewBytes(addr uintptr, length int64) []byte {
	if addr == 0 || length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(length))
}

func mapAnonymousNative(length int64, flag MapFlag) (*MapHandle, error) {
	allocType := uint32(windows.MEM_RESERVE)
	if !flag.Has(SectionNoCommit) {
		allocType |= windows.MEM_COMMIT
	}
	addr, err := windows.VirtualAlloc(0, uintptr(length), allocType, pageProtectFor(flag))
	if err != nil {
		return nil, mapWinError(err, "map")
	}
	return &MapHandle{bytes: viewBytes(addr, length), flag: flag}, nil
}

func mapSectionNative(section *SectionHandle, length, offset int64, flag MapFlag) (*MapHandle, error) {
	access := uint32(windows.FILE_MAP_READ)
	if flag.Has(SectionWrite) {
		access = windows.FILE_MAP_WRITE
	}
	if flag.Has(SectionCow) {
		access = windows.FILE_MAP_COPY
	}
	// MapViewOfFile commits as it maps; reserve-only (matching "nocommit")
	// is not directly expressible via this Win32 entry point the way
	// NtMapViewOfSection's commit-size-0 is, so SectionNoCommit degrades
	// to a fully-committed map on Windows — documented limitation.
	addr, err := windows.MapViewOfFile(section.winHandle(), access, uint32(offset>>32), uint32(offset), uintptr(length))
	if err != nil {
		return nil, mapWinError(err, "map")
	}
	return &MapHandle{bytes: viewBytes(addr, length), section: section, offset: offset, flag: flag}, nil
}

func (m *MapHandle) baseAddr() uintptr {
	if len(m.bytes) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&m.bytes[0]))
}

func (m *MapHandle) platformCommit(region MapRegion) error {
	addr := m.baseAddr() + uintptr(region.Offset)
	_, err := windows.VirtualAlloc(addr, uintptr(region.Length), windows.MEM_COMMIT, pageProtectFor(m.flag))
	if err != nil {
		return mapWinError(err, "commit")
	}
	return nil
}

func (m *MapHandle) platformDecommit(region MapRegion) error {
	addr := m.baseAddr() + uintptr(region.Offset)
	if err := windows.VirtualFree(addr, uintptr(region.Length), windows.MEM_DECOMMIT); err != nil {
		return mapWinError(err, "decommit")
	}
	return nil
}

func (m *MapHandle) platformZeroMemory(region MapRegion) error {
	sub := m.bytes[region.Offset : region.Offset+region.Length]
	for i := range sub {
		sub[i] = 0
	}
	return nil
}

// platformDoNotStore falls back to VirtualAlloc(MEM_RESET): the design
// prefers DiscardVirtualMemory on Windows 8+, but that API is not exposed
// by golang.org/x/sys/windows, so MEM_RESET (available since XP) is used
// instead, with the same "contents become unpredictable" contract.
func (m *MapHandle) platformDoNotStore(region MapRegion) error {
	addr := m.baseAddr() + uintptr(region.Offset)
	_, err := windows.VirtualAlloc(addr, uintptr(region.Length), windows.MEM_RESET, pageProtectFor(m.flag))
	if err != nil {
		return mapWinError(err, "do_not_store")
	}
	return nil
}

// platformPrefetch is a no-op: PrefetchVirtualMemory (Windows 8+) is not
// exposed by golang.org/x/sys/windows.
func (m *MapHandle) platformPrefetch(regions []MapRegion) error { return nil }

func (m *MapHandle) platformSync(region MapRegion) error {
	addr := m.baseAddr() + uintptr(region.Offset)
	if err := windows.FlushViewOfFile(addr, uintptr(region.Length)); err != nil {
		return mapWinError(err, "barrier")
	}
	return nil
}

func (m *MapHandle) platformUnmap() error {
	if m.bytes == nil {
		return nil
	}
	addr := m.baseAddr()
	m.bytes = nil
	if err := windows.UnmapViewOfFile(addr); err != nil {
		return mapWinError(err, "unmap")
	}
	return nil
}
