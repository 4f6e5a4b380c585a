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

//go:build linux || darwin || freebsd

package llio

import "golang.org/x/sys/unix"

func protFromFlag(flag MapFlag) int {
	var p int
	if flag.Has(SectionRead) || flag == 0 {
		p |= unix.PROT_READ
	}
	if flag.Has(SectionWrite) || flag.Has(SectionCow) {
		p |= unix.PROT_WRITE
	}
	if flag.Has(SectionExecute) {
		p |= unix.PROT_EXEC
	}
	return p
}

func mapAnonymousNative(length int64, flag MapFlag) (*MapHandle, error) {
	mapFlags := unix.MAP_PRIVATE | unix.MAP_ANON
	prot := unix.PROT_NONE
	if !flag.Has(SectionNoCommit) {
		prot = protFromFlag(flag)
	}
	if flag.Has(SectionPrefault) {
		mapFlags |= mapPopulate()
	}
	b, err := unix.Mmap(-1, 0, int(length), prot, mapFlags)
	if err != nil {
		return nil, mapErrno(err, "map")
	}
	return &MapHandle{bytes: b, flag: flag}, nil
}

func mapSectionNative(section *SectionHandle, length, offset int64, flag MapFlag) (*MapHandle, error) {
	mapFlags := unix.MAP_SHARED
	prot := unix.PROT_NONE
	if !flag.Has(SectionNoCommit) {
		prot = protFromFlag(flag)
	}
	b, err := unix.Mmap(section.fd(), offset, int(length), prot, mapFlags)
	if err != nil {
		return nil, mapErrno(err, "map")
	}
	return &MapHandle{bytes: b, section: section, offset: offset, flag: flag}, nil
}

func (m *MapHandle) platformCommit(region MapRegion) error {
	sub := m.bytes[region.Offset : region.Offset+region.Length]
	prot := protFromFlag(m.flag)
	if err := unix.Mprotect(sub, prot); err != nil {
		return mapErrno(err, "commit")
	}
	return nil
}

func (m *MapHandle) platformDecommit(region MapRegion) error {
	sub := m.bytes[region.Offset : region.Offset+region.Length]
	if err := unix.Madvise(sub, unix.MADV_DONTNEED); err != nil {
		return mapErrno(err, "decommit")
	}
	if err := unix.Mprotect(sub, unix.PROT_NONE); err != nil {
		return mapErrno(err, "decommit")
	}
	return nil
}

func (m *MapHandle) platformZeroMemory(region MapRegion) error {
	sub := m.bytes[region.Offset : region.Offset+region.Length]
	if err := madviseRemove(sub); err != nil {
		for i := range sub {
			sub[i] = 0
		}
	}
	return nil
}

func (m *MapHandle) platformDoNotStore(region MapRegion) error {
	sub := m.bytes[region.Offset : region.Offset+region.Length]
	return madviseFree(sub)
}

func (m *MapHandle) platformPrefetch(regions []MapRegion) error {
	for _, r := range regions {
		sub := m.bytes[r.Offset : r.Offset+r.Length]
		_ = unix.Madvise(sub, unix.MADV_WILLNEED)
	}
	return nil
}

func (m *MapHandle) platformSync(region MapRegion) error {
	sub := m.bytes[region.Offset : region.Offset+region.Length]
	if err := unix.Msync(sub, unix.MS_SYNC); err != nil {
		return mapErrno(err, "barrier")
	}
	return nil
}

func (m *MapHandle) platformUnmap() error {
	if m.bytes == nil {
		return nil
	}
	err := unix.Munmap(m.bytes)
	m.bytes = nil
	if err != nil {
		return mapErrno(err, "unmap")
	}
	return nil
}
