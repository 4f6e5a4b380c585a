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

package llioutil

import (
	"sync"

	"github.com/polyfio/llio"
)

// SectionAllocator is a bump allocator carving fixed-size slabs out of one
// llio.SectionHandle, mapped once in full. It exists so that a caller
// submitting many in-flight async I/Os (see llio.Service) can hand each
// one scratch space without a heap allocation per I/O, answering the
// reactor's "state is allocated inline into caller-supplied scratch"
// contract at the application layer.
type SectionAllocator struct {
	mu       sync.Mutex
	mapping  *llio.MapHandle
	slabSize int64
	next     int64
}

// NewSectionAllocator maps the whole of section and carves it into
// slabSize-byte slabs.
func NewSectionAllocator(section *llio.SectionHandle, slabSize int64) (*SectionAllocator, error) {
	m, err := llio.MapSection(section, section.Length(), 0, llio.SectionRead|llio.SectionWrite)
	if err != nil {
		return nil, err
	}
	return &SectionAllocator{mapping: m, slabSize: slabSize}, nil
}

// Alloc returns the next free slab, or nil if the section is exhausted.
func (a *SectionAllocator) Alloc() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.mapping.Bytes()
	if a.next+a.slabSize > int64(len(b)) {
		return nil
	}
	slab := b[a.next : a.next+a.slabSize]
	a.next += a.slabSize
	return slab
}

// Reset rewinds the allocator so every slab is free again. Callers must
// ensure nothing still references a previously allocated slab.
func (a *SectionAllocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.next = 0
}

// Close unmaps the section.
func (a *SectionAllocator) Close() error {
	return a.mapping.Close()
}
