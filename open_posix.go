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

// openFlags derives the open(2) flag word from the mode/creation/caching/
// flag/isDir quintuple, per the design's mode table. attr-only modes have no
// POSIX analogue distinct from O_RDONLY; the distinction only bites on
// Windows, where ModeAttrWrite maps to FILE_WRITE_ATTRIBUTES without
// FILE_GENERIC_WRITE.
func openFlags(mode Mode, creation Creation, caching Caching, flag Flag, isDir bool) int {
	var f int
	switch mode {
	case ModeWrite, ModeAppend:
		f |= unix.O_RDWR
	case ModeAttrWrite:
		f |= unix.O_RDONLY
	default:
		f |= unix.O_RDONLY
	}
	if mode == ModeAppend {
		f |= unix.O_APPEND
	}

	switch creation {
	case CreationOnlyIfNotExist:
		f |= unix.O_CREAT | unix.O_EXCL
	case CreationIfNeeded:
		f |= unix.O_CREAT
	case CreationTruncate:
		f |= unix.O_CREAT | unix.O_TRUNC
	}

	if !isDir && (caching == CachingNone || caching == CachingOnlyMetadata) {
		f |= directIOFlag()
		if caching == CachingNone {
			f |= unix.O_SYNC
		}
	}
	if isDir {
		f |= unix.O_DIRECTORY
	}
	f |= unix.O_CLOEXEC
	if !flag.Has(FlagOverlapped) {
		// nothing extra: POSIX blocking fds are the default; the async
		// reactor multiplexes via a worker goroutine regardless, see
		// service.go.
	}
	return f
}

func dirfdOf(base *PathHandle) int {
	if base == nil {
		return unix.AT_FDCWD
	}
	return base.fd()
}

func dispositionFor(mode Mode, isDir bool) Disposition {
	d := Disposition(0)
	if isDir {
		d |= DispositionDirectory
	} else {
		d |= DispositionFile | DispositionSeekable
	}
	switch mode {
	case ModeRead, ModeAttrRead:
		d |= DispositionReadable
	case ModeWrite, ModeAppend:
		d |= DispositionReadable | DispositionWritable
		if mode == ModeAppend {
			d |= DispositionAppendOnly
		}
	}
	return d
}

// openNative is the single entry point both PathHandle and FileHandle
// construction funnel through.
func openNative(base *PathHandle, p string, mode Mode, creation Creation, caching Caching, flag Flag, isDir bool) (h *Handle, err error) {
	dirfd := dirfdOf(base)
	flags := openFlags(mode, creation, caching, flag, isDir)

	var active activeHandle
	if base != nil {
		active = &base.Handle
	}
	withActiveHandle(active, func() {
		fd, openErr := unix.Openat(dirfd, p, flags, 0o666)
		if openErr != nil {
			err = mapErrno(openErr, "open")
			return
		}
		if flag.Has(FlagUnlinkOnClose) {
			_ = unix.Unlinkat(dirfd, p, 0)
		}
		if ncErr := applyDirectIO(fd, caching); ncErr != nil {
			_ = unix.Close(fd)
			err = mapErrno(ncErr, "open")
			return
		}
		h = &Handle{
			native:  nativeHandle{disposition: dispositionFor(mode, isDir), raw: rawHandle(fd)},
			caching: caching,
			flag:    flag,
		}
	})
	return h, err
}
