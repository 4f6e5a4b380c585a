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

//go:build darwin || freebsd

package llio

import (
	"time"

	"golang.org/x/sys/unix"
)

const topBitMask = int64(1)<<63 - 1

// platformLock uses classic process-scoped POSIX fcntl byte-range locks:
// neither Darwin nor FreeBSD has Linux's OFD locks, so byte-lock insanity
// (closing any fd to this inode drops all this process's locks on it)
// always applies here.
func (h *Handle) platformLock(offset, length int64, exclusive bool, deadline Deadline) error {
	offset &= topBitMask
	h.flag |= FlagByteLockInsanity

	typ := int16(unix.F_RDLCK)
	if exclusive {
		typ = unix.F_WRLCK
	}
	flk := unix.Flock_t{Type: typ, Whence: 0, Start: offset, Len: length}

	nonBlocking := deadline.IsImmediate()
	cmd := unix.F_SETLKW
	if deadline.IsSet() {
		cmd = unix.F_SETLK
	}

	err := unix.FcntlFlock(uintptr(h.fd()), cmd, &flk)
	if err == nil {
		return nil
	}
	if nonBlocking && (err == unix.EACCES || err == unix.EAGAIN) {
		return newError(KindTimedOut, "lock", nil)
	}
	if !nonBlocking && deadline.IsSet() && (err == unix.EACCES || err == unix.EAGAIN) {
		return h.lockWithDeadline(&flk, deadline)
	}
	return mapErrno(err, "lock")
}

func (h *Handle) lockWithDeadline(flk *unix.Flock_t, deadline Deadline) error {
	const pollInterval = 2 * time.Millisecond
	expiry, _ := deadline.Expiry(realClock)
	for {
		remaining := expiry.Sub(realClock.Now())
		if remaining <= 0 {
			return newError(KindTimedOut, "lock", nil)
		}
		err := unix.FcntlFlock(uintptr(h.fd()), unix.F_SETLK, flk)
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
	if err := unix.FcntlFlock(uintptr(h.fd()), unix.F_SETLK, &flk); err != nil {
		return mapErrno(err, "unlock")
	}
	return nil
}
