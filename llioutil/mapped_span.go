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
	"unsafe"

	"github.com/polyfio/llio"
)

// MappedSpan is a typed, fixed-length view over a llio.MapHandle's raw
// bytes. Like TrivialVector, T must be pointer-free: the backing memory
// is outside the garbage collector.
type MappedSpan[T any] struct {
	m *llio.MapHandle
}

// NewMappedSpan wraps m. len(m.Bytes()) need not be an exact multiple of
// sizeof(T); any partial trailing element is simply inaccessible.
func NewMappedSpan[T any](m *llio.MapHandle) MappedSpan[T] {
	return MappedSpan[T]{m: m}
}

// Len returns how many whole T elements the span covers.
func (s MappedSpan[T]) Len() int64 {
	return int64(len(s.m.Bytes())) / elemSize[T]()
}

// Slice returns a []T view over the mapping. It is invalidated by any
// call that remaps or closes the underlying MapHandle.
func (s MappedSpan[T]) Slice() []T {
	b := s.m.Bytes()
	n := s.Len()
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}
