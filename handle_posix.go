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

import "golang.org/x/sys/unix"

func (h *Handle) platformFsync() error {
	if h.flag.Has(FlagAnonymousInode) {
		// No directory entry to make durable a path to; a single fsync,
		// without the EINTR retry below.
		return unix.Fsync(h.fd())
	}
	for {
		err := unix.Fsync(h.fd())
		if err != unix.EINTR {
			return err
		}
	}
}

func (h *Handle) platformClose() error {
	for {
		err := unix.Close(h.fd())
		if err != unix.EINTR {
			return err
		}
	}
}

func (h *Handle) platformClone() (nativeHandle, error) {
	newFd, err := unix.FcntlInt(uintptr(h.fd()), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nativeHandle{}, mapErrno(err, "clone")
	}
	return nativeHandle{disposition: h.native.disposition, raw: rawHandle(newFd)}, nil
}

func (h *Handle) platformSetAppendOnly(on bool) error {
	flags, err := unix.FcntlInt(uintptr(h.fd()), unix.F_GETFL, 0)
	if err != nil {
		return mapErrno(err, "set_append_only")
	}
	if on {
		flags |= unix.O_APPEND
		h.native.disposition |= DispositionAppendOnly
	} else {
		flags &^= unix.O_APPEND
		h.native.disposition &^= DispositionAppendOnly
	}
	_, err = unix.FcntlInt(uintptr(h.fd()), unix.F_SETFL, flags)
	if err != nil {
		return mapErrno(err, "set_append_only")
	}
	return nil
}

// mapErrno translates a raw unix.Errno into the Kind taxonomy, capturing the
// active handle's path per §4.7.
func mapErrno(err error, op string) error {
	errno, _ := err.(unix.Errno)
	var kind Kind
	switch errno {
	case unix.EEXIST:
		kind = KindFileExists
	case unix.ENOENT:
		kind = KindNoSuchFileOrDirectory
	case unix.EACCES, unix.EPERM:
		kind = KindPermissionDenied
	case unix.EISDIR:
		kind = KindIsADirectory
	case unix.ENOTDIR:
		kind = KindNotADirectory
	case unix.ETIMEDOUT:
		kind = KindTimedOut
	case unix.ECANCELED:
		kind = KindOperationCanceled
	case unix.EINVAL:
		kind = KindInvalidArgument
	case unix.E2BIG:
		kind = KindArgumentListTooLong
	case unix.EFBIG, unix.EOVERFLOW:
		kind = KindValueTooLarge
	case unix.ENOMEM:
		kind = KindNotEnoughMemory
	case unix.ENOTSUP:
		kind = KindNotSupported
	case unix.EOPNOTSUPP:
		kind = KindOperationNotSupported
	case unix.EAGAIN:
		kind = KindResourceUnavailableTryAgain
	case unix.ESPIPE:
		kind = KindInvalidSeek
	default:
		kind = KindRaw
	}
	return newError(kind, op, err)
}
