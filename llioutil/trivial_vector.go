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

// Package llioutil collects helpers built on top of the llio core rather
// than part of it.
package llioutil

import (
	"unsafe"

	"github.com/polyfio/llio"
)

// TrivialVector is a growable, fixed-element-size vector whose storage is
// a llio.MappedFileHandle's reservation rather than the Go heap: growing
// re-maps (via Reserve) instead of copying to a new allocation, so
// pointers obtained from At remain valid across growth only up to the
// next Append that actually remaps (Cap() tells you whether one will).
// T must contain no pointers and no Go-managed memory: it is stored
// directly in the mapped bytes, outside the garbage collector's view.
type TrivialVector[T any] struct {
	mfh *llio.MappedFileHandle
	n   int64
}

func elemSize[T any]() int64 {
	var zero T
	return int64(unsafe.Sizeof(zero))
}

// NewTrivialVector wraps an already-open MappedFileHandle. The vector's
// initial length is the file's current length divided by sizeof(T)
// (truncating any partial trailing element).
func NewTrivialVector[T any](mfh *llio.MappedFileHandle) *TrivialVector[T] {
	sz := elemSize[T]()
	n := int64(len(mfh.Bytes())) / sz
	return &TrivialVector[T]{mfh: mfh, n: n}
}

// Len returns the number of elements.
func (v *TrivialVector[T]) Len() int64 { return v.n }

// Cap returns how many elements fit in the current reservation without a
// remap.
func (v *TrivialVector[T]) Cap() int64 {
	return int64(len(v.mfh.Bytes())) / elemSize[T]()
}

// Slice returns a []T view directly over the mapped bytes holding the
// first Len() elements. It is invalidated by the next Append that grows
// the reservation, or by any other call that remaps the handle.
func (v *TrivialVector[T]) Slice() []T {
	b := v.mfh.Bytes()
	if len(b) == 0 || v.n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), v.n)
}

// At returns a pointer to element i, valid under the same constraints as
// Slice.
func (v *TrivialVector[T]) At(i int64) *T {
	return &v.Slice()[i]
}

// Append adds val, growing the reservation (doubling it, like a
// conventional dynamic array, rather than growing by exactly one element
// each time) when the current one has no room left.
func (v *TrivialVector[T]) Append(val T) error {
	sz := elemSize[T]()
	if v.n >= v.Cap() {
		newCap := v.Cap()*2 + 1
		var err error
		if v.Cap() == 0 {
			// Reserve rejects a zero-length file; Truncate grows it first.
			_, err = v.mfh.Truncate(newCap * sz)
		} else {
			_, err = v.mfh.Reserve(newCap * sz)
		}
		if err != nil {
			return err
		}
	}
	b := v.mfh.Bytes()
	dst := (*T)(unsafe.Pointer(&b[v.n*sz]))
	*dst = val
	v.n++
	return nil
}

// Truncate shrinks the vector to n elements without releasing the
// reservation.
func (v *TrivialVector[T]) Truncate(n int64) {
	if n < 0 {
		n = 0
	}
	if n < v.n {
		v.n = n
	}
}
