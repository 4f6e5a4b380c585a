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

//go:build linux

package llio

import "golang.org/x/sys/unix"

// platformBarrier is deliberately weak, per the design: ordering is
// guaranteed only within this handle. andMetadata selects fsync over the
// cheaper fdatasync. The whole file is always flushed: neither the extents
// named in req nor waitForDevice change the call made, and
// sync_file_range(2) is not used.
func (h *Handle) platformBarrier(req BarrierRequest, waitForDevice, andMetadata bool, deadline Deadline) IOResult[ConstBuffers] {
	if len(req.Buffers) == 0 {
		return h.barrierWhole(andMetadata)
	}

	for _, buf := range req.Buffers {
		_ = buf // offsets aren't tracked per-buffer at this layer; approximate with a whole-file flush
	}
	return h.barrierWhole(andMetadata)
}

func (h *Handle) barrierWhole(andMetadata bool) IOResult[ConstBuffers] {
	var err error
	if andMetadata {
		err = unix.Fsync(h.fd())
	} else {
		err = unix.Fdatasync(h.fd())
	}
	if err != nil {
		return IOResult[ConstBuffers]{Err: mapErrno(err, "barrier")}
	}
	return IOResult[ConstBuffers]{}
}
