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

func splitLen(length int64) (lo, hi uint32) {
	if length == 0 {
		return 0xffffffff, 0xffffffff // "entire file" per the design
	}
	return uint32(length), uint32(length >> 32)
}

func (h *Handle) platformLock(offset, length int64, exclusive bool, deadline Deadline) error {
	var ov windows.Overlapped
	ov.Offset = uint32(offset)
	ov.OffsetHigh = uint32(offset >> 32)
	lenLo, lenHi := splitLen(length)

	var flags uint32
	if exclusive {
		flags |= windows.LOCKFILE_EXCLUSIVE_LOCK
	}

	nonBlocking := deadline.IsImmediate()
	if nonBlocking {
		flags |= windows.LOCKFILE_FAIL_IMMEDIATELY
		err := windows.LockFileEx(h.winHandle(), flags, 0, lenLo, lenHi, &ov)
		if err != nil {
			if err == windows.ERROR_LOCK_VIOLATION {
				return newError(KindTimedOut, "lock", nil)
			}
			return mapWinError(err, "lock")
		}
		return nil
	}

	flags |= windows.LOCKFILE_FAIL_IMMEDIATELY // poll; see loop below for deadline semantics
	const pollInterval = 2 * time.Millisecond
	expiry, _ := deadline.Expiry(realClock)
	for {
		err := windows.LockFileEx(h.winHandle(), flags, 0, lenLo, lenHi, &ov)
		if err == nil {
			return nil
		}
		if err != windows.ERROR_LOCK_VIOLATION {
			return mapWinError(err, "lock")
		}
		if !deadline.IsSet() {
			time.Sleep(pollInterval)
			continue
		}
		remaining := expiry.Sub(realClock.Now())
		if remaining <= 0 {
			return newError(KindTimedOut, "lock", nil)
		}
		sleep := pollInterval
		if remaining < sleep {
			sleep = remaining
		}
		time.Sleep(sleep)
	}
}

func (h *Handle) platformUnlock(offset, length int64) error {
	var ov windows.Overlapped
	ov.Offset = uint32(offset)
	ov.OffsetHigh = uint32(offset >> 32)
	lenLo, lenHi := splitLen(length)

	if err := windows.UnlockFileEx(h.winHandle(), 0, lenLo, lenHi, &ov); err != nil {
		return mapWinError(err, "unlock")
	}
	return nil
}
