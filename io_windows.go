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
	"time"

	"golang.org/x/sys/windows"
)

// windowsMaxBatch bounds how many per-call OVERLAPPED records we stack-
// allocate-equivalent (a local array) for one Read/Write, mirroring the
// design's 64-per-call Windows batching.
const windowsMaxBatch = 64

func (h *Handle) platformRead(req IORequest[Buffers], deadline Deadline) IOResult[Buffers] {
	if len(req.Buffers) > windowsMaxBatch {
		return IOResult[Buffers]{Err: newError(KindArgumentListTooLong, "read", nil)}
	}

	off := uint64(req.Offset)
	out := make(Buffers, 0, len(req.Buffers))
	for _, buf := range req.Buffers {
		n, err := readOneOverlapped(h, buf, off, deadline)
		if n > 0 {
			out = append(out, buf[:n])
			off += uint64(n)
		}
		if err != nil {
			return IOResult[Buffers]{Buffers: out, Err: err}
		}
		if n < len(buf) {
			break
		}
	}
	return IOResult[Buffers]{Buffers: out}
}

func (h *Handle) platformWrite(req IORequest[ConstBuffers], deadline Deadline) IOResult[ConstBuffers] {
	if len(req.Buffers) > windowsMaxBatch {
		return IOResult[ConstBuffers]{Err: newError(KindArgumentListTooLong, "write", nil)}
	}

	off := uint64(req.Offset)
	appendOnly := h.native.disposition.Has(DispositionAppendOnly)
	out := make(ConstBuffers, 0, len(req.Buffers))
	for _, buf := range req.Buffers {
		n, err := writeOneOverlapped(h, buf, off, appendOnly, deadline)
		if n > 0 {
			out = append(out, buf[:n])
			off += uint64(n)
		}
		if err != nil {
			return IOResult[ConstBuffers]{Buffers: out, Err: err}
		}
	}
	return IOResult[ConstBuffers]{Buffers: out}
}

func readOneOverlapped(h *Handle, buf []byte, offset uint64, deadline Deadline) (int, error) {
	var ov windows.Overlapped
	ov.Offset = uint32(offset)
	ov.OffsetHigh = uint32(offset >> 32)

	var n uint32
	err := windows.ReadFile(h.winHandle(), buf, &n, &ov)
	return finishOverlapped(h, &ov, n, err, deadline, "read")
}

func writeOneOverlapped(h *Handle, buf []byte, offset uint64, appendOnly bool, deadline Deadline) (int, error) {
	var ov windows.Overlapped
	if appendOnly {
		ov.Offset = 0xffffffff
		ov.OffsetHigh = 0xffffffff
	} else {
		ov.Offset = uint32(offset)
		ov.OffsetHigh = uint32(offset >> 32)
	}

	var n uint32
	err := windows.WriteFile(h.winHandle(), buf, &n, &ov)
	return finishOverlapped(h, &ov, n, err, deadline, "write")
}

// finishOverlapped waits out an overlapped ReadFile/WriteFile that returned
// ERROR_IO_PENDING, honouring deadline; on timeout it cancels the specific
// OVERLAPPED with CancelIoEx and drains the cancellation before returning
// ErrTimedOut, per the design.
func finishOverlapped(h *Handle, ov *windows.Overlapped, n uint32, err error, deadline Deadline, op string) (int, error) {
	if err == nil {
		return int(n), nil
	}
	if err != windows.ERROR_IO_PENDING {
		return 0, mapWinError(err, op)
	}

	done := make(chan struct{})
	var bytes uint32
	var getErr error
	go func() {
		getErr = windows.GetOverlappedResult(h.winHandle(), ov, &bytes, true)
		close(done)
	}()

	if !deadline.IsSet() {
		<-done
		if getErr != nil {
			return int(bytes), mapWinError(getErr, op)
		}
		return int(bytes), nil
	}

	remaining, _ := deadline.Remaining(realClock)
	if remaining < 0 {
		remaining = 0
	}
	select {
	case <-done:
		if getErr != nil {
			return int(bytes), mapWinError(getErr, op)
		}
		return int(bytes), nil
	case <-time.After(remaining):
		windows.CancelIoEx(h.winHandle(), ov)
		<-done // drain: the completion must not race the caller's reuse of ov
		return 0, newError(KindTimedOut, op, nil)
	}
}

func (h *Handle) platformBarrier(req BarrierRequest, waitForDevice, andMetadata bool, deadline Deadline) IOResult[ConstBuffers] {
	// Windows exposes no partial-file flush; FlushFileBuffers always
	// barriers the whole file, and it is always synchronous, matching the
	// design's "Windows does it synchronously by policy" non-goal.
	if err := windows.FlushFileBuffers(h.winHandle()); err != nil {
		return IOResult[ConstBuffers]{Err: mapWinError(err, "barrier")}
	}
	return IOResult[ConstBuffers]{}
}
