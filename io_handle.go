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

import (
	"context"

	"github.com/jacobsa/reqtrace"
)

// Buffers is a scatter/gather list for Read: each element is filled
// in place, and on return its length is shrunk to the bytes actually read
// into it. The returned slice headers may differ from the ones passed in
// when the implementation backing the handle is a memory map.
type Buffers [][]byte

// TotalLen sums the buffers' current lengths.
func (b Buffers) TotalLen() int64 {
	var n int64
	for _, x := range b {
		n += int64(len(x))
	}
	return n
}

// ConstBuffers is a scatter/gather list for Write.
type ConstBuffers [][]byte

// TotalLen sums the buffers' current lengths.
func (b ConstBuffers) TotalLen() int64 {
	var n int64
	for _, x := range b {
		n += int64(len(x))
	}
	return n
}

type lenSummable interface {
	TotalLen() int64
}

// IORequest pairs a scatter/gather list with the file offset it starts at.
type IORequest[T lenSummable] struct {
	Buffers T
	Offset  int64
}

// IOResult carries either the buffers a Read/Write actually touched, or an
// error. BytesTransferred is computed lazily, once, by summing the
// surviving buffers' lengths.
type IOResult[T lenSummable] struct {
	Buffers T
	Err     error

	bytesTransferred int64
	computed         bool
}

// BytesTransferred sums Buffers' lengths, caching the result.
func (r *IOResult[T]) BytesTransferred() int64 {
	if !r.computed {
		r.bytesTransferred = r.Buffers.TotalLen()
		r.computed = true
	}
	return r.bytesTransferred
}

// BarrierRequest names the extents a Barrier call concerns. The zero value
// names the entire file. Every platform implementation flushes the whole
// file whatever Buffers holds.
type BarrierRequest struct {
	Buffers ConstBuffers // extents of interest; not used to narrow the flush
}

// ExtentGuard is the RAII-style token Lock returns. Dropping it without
// calling Unlock leaks the lock for the lifetime of the handle; callers
// should always `defer guard.Unlock()`.
type ExtentGuard struct {
	h         *Handle
	Offset    int64
	Length    int64
	Exclusive bool
	unlocked  bool
}

// Unlock releases the lock. It is idempotent: calling it twice is a no-op.
// Any OS error unlocking a previously-locked, still-open extent is treated
// as fatal, per the design: a failed unlock implies corrupted lock state
// that this process can no longer reason about.
func (g *ExtentGuard) Unlock() {
	if g.unlocked {
		return
	}
	g.unlocked = true
	if err := g.h.platformUnlock(g.Offset, g.Length); err != nil {
		getLogger().Panicf("llio: unlock failed, aborting: %v", err)
	}
}

// Read performs a scatter read starting at req.Offset, honouring deadline.
// On POSIX this issues one pread(2) per buffer, in order, stopping at the
// first short read; it is not a single preadv(2) call, so the buffers are
// not filled atomically with respect to concurrent writers. The buffer
// count is bounded by IOV_MAX. With a nonzero deadline on a non-overlapped handle, it fails
// with ErrOperationNotSupported — only overlapped (multiplexable) handles
// support deadlined synchronous I/O, by pumping their bound Service.
func (h *Handle) Read(req IORequest[Buffers], deadline Deadline) (res IOResult[Buffers]) {
	_, report := reqtrace.StartSpan(context.Background(), "llio.Read")
	withActiveHandle(h, func() {
		res = h.platformRead(req, deadline)
	})
	report(res.Err)
	return
}

// Write is symmetric with Read. Writes to append-only handles force the
// kernel offset to the end of file regardless of req.Offset.
func (h *Handle) Write(req IORequest[ConstBuffers], deadline Deadline) (res IOResult[ConstBuffers]) {
	_, report := reqtrace.StartSpan(context.Background(), "llio.Write")
	withActiveHandle(h, func() {
		res = h.platformWrite(req, deadline)
	})
	report(res.Err)
	return
}

// Barrier requests that data written before the call reach storage before
// data written after. The contract is deliberately weak: it is a hint,
// ordered only within this handle, never across handles to the same inode
// or across processes.
func (h *Handle) Barrier(req BarrierRequest, waitForDevice, andMetadata bool, deadline Deadline) (res IOResult[ConstBuffers]) {
	_, report := reqtrace.StartSpan(context.Background(), "llio.Barrier")
	withActiveHandle(h, func() {
		res = h.platformBarrier(req, waitForDevice, andMetadata, deadline)
	})
	report(res.Err)
	return
}

// Lock acquires a byte-range lock over [offset, offset+length) (length==0
// means the entire file). offset's top bit is masked out on POSIX, so
// callers may deliberately set it to lock an out-of-band advisory region
// that never collides with real I/O. A zero deadline returns ErrTimedOut
// immediately on contention instead of blocking.
func (h *Handle) Lock(offset, length int64, exclusive bool, deadline Deadline) (g *ExtentGuard, err error) {
	withActiveHandle(h, func() {
		err = h.platformLock(offset, length, exclusive, deadline)
	})
	if err != nil {
		return nil, err
	}
	return &ExtentGuard{h: h, Offset: offset, Length: length, Exclusive: exclusive}, nil
}
