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

import (
	"time"

	"golang.org/x/sys/unix"
)

// topBitMask clears offset's sign bit: POSIX locking offsets are signed,
// and a caller may deliberately set that bit to lock an out-of-band
// advisory region that can never collide with a real I/O extent.
const topBitMask = int64(1)<<63 - 1

func (h *Handle) platformLock(offset, length int64, exclusive bool, deadline Deadline) error {
	offset &= topBitMask

	typ := int16(unix.F_RDLCK)
	if exclusive {
		typ = unix.F_WRLCK
	}
	flk := unix.Flock_t{Type: typ, Whence: 0, Start: offset, Len: length}

	nonBlocking := deadline.IsImmediate()
	cmd := unix.F_OFD_SETLKW
	if deadline.IsSet() {
		cmd = unix.F_OFD_SETLK
	}

	err := unix.FcntlFlock(uintptr(h.fd()), cmd, &flk)
	if err == unix.EINVAL {
		// Kernel too old for OFD locks: fall back to process-scoped POSIX
		// locks, and remember that we did, since closing *any* fd to this
		// inode from this process now releases *all* this process's locks
		// on it ("byte-lock insanity").
		h.flag |= FlagByteLockInsanity
		cmd = unix.F_SETLKW
		if deadline.IsSet() {
			cmd = unix.F_SETLK
		}
		err = unix.FcntlFlock(uintptr(h.fd()), cmd, &flk)
	}

	if err == nil {
		return nil
	}
	if nonBlocking && (err == unix.EACCES || err == unix.EAGAIN) {
		return newError(KindTimedOut, "lock", nil)
	}
	if !nonBlocking && deadline.IsSet() && (err == unix.EACCES || err == unix.EAGAIN) {
		blockingCmd := unix.F_OFD_SETLKW
		if cmd == unix.F_SETLK {
			blockingCmd = unix.F_SETLKW
		}
		return h.lockWithDeadline(&flk, blockingCmd, deadline)
	}
	return mapErrno(err, "lock")
}

// lockWithDeadline polls F_OFD_SETLK (or F_SETLK in byte-lock-insanity
// mode) until it succeeds or the deadline expires, since Linux's fcntl
// locking has no "block with timeout" primitive of its own.
func (h *Handle) lockWithDeadline(flk *unix.Flock_t, blockingCmd int, deadline Deadline) error {
	pollCmd := unix.F_OFD_SETLK
	if blockingCmd == unix.F_SETLKW {
		pollCmd = unix.F_SETLK
	}
	const pollInterval = 2 * time.Millisecond
	expiry, _ := deadline.Expiry(realClock)
	for {
		remaining := expiry.Sub(realClock.Now())
		if remaining <= 0 {
			return newError(KindTimedOut, "lock", nil)
		}
		err := unix.FcntlFlock(uintptr(h.fd()), pollCmd, flk)
		if err == nil {
			return nil
		}
		if err != unix.EACCES && err != unix.EAGAIN {
			return mapErrno(err, "lock")
		}
		sleep := pollInterval
		if remaining < sleep {
			sleep = remaining
		}
		time.Sleep(sleep)
	}
}

func (h *Handle) platformUnlock(offset, length int64) error {
	offset &= topBitMask
	flk := unix.Flock_t{Type: unix.F_UNLCK, Whence: 0, Start: offset, Len: length}
	cmd := unix.F_OFD_SETLK
	if h.flag.Has(FlagByteLockInsanity) {
		cmd = unix.F_SETLK
	}
	if err := unix.FcntlFlock(uintptr(h.fd()), cmd, &flk); err != nil {
		return mapErrno(err, "unlock")
	}
	return nil
}
