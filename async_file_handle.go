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

// AsyncFileHandle is a FileHandle bound to a Service: its ReadAsync/
// WriteAsync/BarrierAsync calls may only be initiated from the Service's
// owning goroutine, and their Futures only resolve by that same goroutine
// pumping the Service.
type AsyncFileHandle struct {
	FileHandle

	service *Service
}

// NewAsyncFileHandle binds fh to svc. fh should have been opened with
// FlagOverlapped for platformRead/platformWrite to honour deadlines; this
// constructor does not enforce that, matching the design leaving
// multiplexability a caller contract rather than a runtime check beyond
// the operation_not_supported Read/Write already return for a deadline on
// a non-overlapped handle.
func NewAsyncFileHandle(fh *FileHandle, svc *Service) *AsyncFileHandle {
	return &AsyncFileHandle{FileHandle: *fh, service: svc}
}

// ReadAsync submits a scatter read. The actual syscall runs on a worker
// goroutine; the Future resolves only when the owning goroutine next
// pumps a.service.
func (a *AsyncFileHandle) ReadAsync(req IORequest[Buffers]) *Future[IOResult[Buffers]] {
	fut := newFuture[IOResult[Buffers]]()
	if err := a.service.checkOwner("async_read"); err != nil {
		fut.deliver(IOResult[Buffers]{Err: err})
		return fut
	}
	a.service.beginWork()
	go func() {
		res := a.FileHandle.Read(req, NoDeadline())
		a.service.deliver(func() { fut.deliver(res) })
	}()
	return fut
}

// WriteAsync is symmetric with ReadAsync.
func (a *AsyncFileHandle) WriteAsync(req IORequest[ConstBuffers]) *Future[IOResult[ConstBuffers]] {
	fut := newFuture[IOResult[ConstBuffers]]()
	if err := a.service.checkOwner("async_write"); err != nil {
		fut.deliver(IOResult[ConstBuffers]{Err: err})
		return fut
	}
	a.service.beginWork()
	go func() {
		res := a.FileHandle.Write(req, NoDeadline())
		a.service.deliver(func() { fut.deliver(res) })
	}()
	return fut
}

// BarrierAsync is symmetric with ReadAsync/WriteAsync.
func (a *AsyncFileHandle) BarrierAsync(req BarrierRequest, waitForDevice, andMetadata bool) *Future[IOResult[ConstBuffers]] {
	fut := newFuture[IOResult[ConstBuffers]]()
	if err := a.service.checkOwner("async_barrier"); err != nil {
		fut.deliver(IOResult[ConstBuffers]{Err: err})
		return fut
	}
	a.service.beginWork()
	go func() {
		res := a.FileHandle.Barrier(req, waitForDevice, andMetadata, NoDeadline())
		a.service.deliver(func() { fut.deliver(res) })
	}()
	return fut
}

// Read blocks the owning goroutine until req completes, pumping the bound
// Service so other pending completions (including this one) can be
// delivered. It shadows the embedded FileHandle.Read, which would instead
// block the calling goroutine inside the syscall itself.
func (a *AsyncFileHandle) Read(req IORequest[Buffers], deadline Deadline) IOResult[Buffers] {
	fut := a.ReadAsync(req)
	res, err := fut.Get(a.service, deadline)
	if err != nil {
		return IOResult[Buffers]{Err: err}
	}
	return res
}

// Write is symmetric with Read.
func (a *AsyncFileHandle) Write(req IORequest[ConstBuffers], deadline Deadline) IOResult[ConstBuffers] {
	fut := a.WriteAsync(req)
	res, err := fut.Get(a.service, deadline)
	if err != nil {
		return IOResult[ConstBuffers]{Err: err}
	}
	return res
}
