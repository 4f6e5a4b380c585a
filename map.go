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

// MapFlag is an alias of SectionFlag, used for the protection a map is
// taken with; a map's flag value need not equal its section's (e.g. a
// read-only view into a read-write section).
type MapFlag = SectionFlag

// MapRegion is a sub-range of a MapHandle's bytes, [Offset, Offset+Length),
// relative to the map's own base rather than the file's.
type MapRegion struct {
	Offset int64
	Length int64
}

func (r MapRegion) clamp(total int64) MapRegion {
	if r.Offset < 0 {
		r.Offset = 0
	}
	if r.Offset > total {
		r.Offset = total
	}
	if r.Length < 0 || r.Offset+r.Length > total {
		r.Length = total - r.Offset
	}
	return r
}

// MapHandle is a non-owning view of process address space, optionally
// backed by a SectionHandle. The Go rendition represents the mapping
// directly as a []byte slice (as mmap-using Go libraries conventionally
// do) rather than a bare virtual address, since Go code can never safely
// treat a raw uintptr as a pointer across a GC cycle.
type MapHandle struct {
	bytes   []byte
	section *SectionHandle // nil for an anonymous map
	offset  int64          // offset within section, if any
	flag    MapFlag
}

// Bytes returns the mapped region. The slice is invalidated by Close,
// Commit, Decommit, or any operation that re-maps (Reserve/Truncate on a
// MappedFileHandle); callers must not retain it across those calls.
func (m *MapHandle) Bytes() []byte { return m.bytes }

// Len reports the map's current length in bytes.
func (m *MapHandle) Len() int64 { return int64(len(m.bytes)) }

// Map creates an anonymous, non-file-backed view of bytes length.
func Map(length int64, flag MapFlag) (*MapHandle, error) {
	return mapAnonymousNative(length, flag)
}

// MapSection creates a view into section, starting at offset (a multiple of
// the OS allocation granularity) and covering length bytes.
func MapSection(section *SectionHandle, length, offset int64, flag MapFlag) (*MapHandle, error) {
	return mapSectionNative(section, length, offset, flag)
}

// Commit arms region (previously reserved with SectionNoCommit) for real
// use, giving it the map's protection flags.
func (m *MapHandle) Commit(region MapRegion) error {
	region = region.clamp(m.Len())
	return m.platformCommit(region)
}

// Decommit releases the physical backing of region while keeping the
// address reservation, so a later Commit can re-arm it.
func (m *MapHandle) Decommit(region MapRegion) error {
	region = region.clamp(m.Len())
	return m.platformDecommit(region)
}

// ZeroMemory punches a hole (where the kernel supports it) or else memsets
// region to zero.
func (m *MapHandle) ZeroMemory(region MapRegion) error {
	region = region.clamp(m.Len())
	return m.platformZeroMemory(region)
}

// DoNotStore advises the kernel that region's dirty contents may be
// discarded; its contents are unpredictable afterward.
func (m *MapHandle) DoNotStore(region MapRegion) error {
	region = region.clamp(m.Len())
	return m.platformDoNotStore(region)
}

// Prefetch hints the kernel to read ahead over regions; a no-op wherever
// the platform offers no such call.
func (m *MapHandle) Prefetch(regions []MapRegion) error {
	return m.platformPrefetch(regions)
}

// Barrier flushes region's dirty pages, chaining to the backing file's
// Barrier if the map is section-backed and waitForDevice or andMetadata is
// set.
func (m *MapHandle) Barrier(region MapRegion, waitForDevice, andMetadata bool) error {
	region = region.clamp(m.Len())
	if err := m.platformSync(region); err != nil {
		return err
	}
	if m.section != nil && m.section.backing != nil && (waitForDevice || andMetadata) {
		req := BarrierRequest{}
		res := m.section.backing.Barrier(req, waitForDevice, andMetadata, NoDeadline())
		return res.Err
	}
	return nil
}

// Close unmaps the view. It does not close the backing section.
func (m *MapHandle) Close() error {
	return m.platformUnmap()
}
